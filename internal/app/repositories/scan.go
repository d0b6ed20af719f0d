package repositories

import (
	"github.com/yigit/mclass/internal/app/models"
	"github.com/yigit/mclass/internal/db"
)

var classColumns = []string{
	"id", "title", "description", "start_at", "end_at",
	"max_participants", "seats_taken", "version", "host_id", "created_at", "updated_at",
}

func scanClass(row db.Row) (*models.Class, error) {
	c := &models.Class{}
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.StartAt, &c.EndAt,
		&c.MaxParticipants, &c.SeatsTaken, &c.Version, &c.HostID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

var applyColumns = []string{"id", "class_id", "user_id", "status", "created_at"}

func scanApply(row db.Row) (*models.Apply, error) {
	a := &models.Apply{}
	var status string
	if err := row.Scan(&a.ID, &a.ClassID, &a.UserID, &status, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Status = models.ApplyStatus(status)
	return a, nil
}

var userColumns = []string{"id", "email", "password", "name", "role", "created_at", "updated_at"}

func scanUser(row db.Row) (*models.User, error) {
	u := &models.User{}
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = models.RoleType(role)
	return u, nil
}

func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}
