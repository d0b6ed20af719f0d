package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/yigit/mclass/internal/app/models"
	"github.com/yigit/mclass/internal/db"
	"github.com/yigit/mclass/internal/pkg/apperrors"
)

// ClassRepository handles class reads and writes that need no row lock
type ClassRepository struct {
	db db.Database
	sb sq.StatementBuilderType
}

// NewClassRepository creates a new ClassRepository
func NewClassRepository(database db.Database) *ClassRepository {
	return &ClassRepository{
		db: database,
		sb: database.Dialect().Builder(),
	}
}

// Create inserts a class with an empty seat counter
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	class.SeatsTaken = 0
	class.Version = 1

	query, args, err := r.sb.Insert("classes").
		Columns("title", "description", "start_at", "end_at", "max_participants",
			"seats_taken", "version", "host_id", "created_at", "updated_at").
		Values(class.Title, class.Description, class.StartAt, class.EndAt, class.MaxParticipants,
			class.SeatsTaken, class.Version, class.HostID, class.CreatedAt, class.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&class.ID); err != nil {
		return fmt.Errorf("error creating class: %w", err)
	}
	return nil
}

// GetByID retrieves a class by ID
func (r *ClassRepository) GetByID(ctx context.Context, id int64) (*models.Class, error) {
	query, args, err := r.sb.Select(classColumns...).From("classes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	class, err := scanClass(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return nil, apperrors.ErrClassNotFound
		}
		return nil, fmt.Errorf("error getting class: %w", err)
	}
	return class, nil
}

// List returns one page of classes ordered by start time, plus the total count
func (r *ClassRepository) List(ctx context.Context, offset, limit uint64) ([]*models.Class, int64, error) {
	countQuery, countArgs, err := r.sb.Select("COUNT(*)").From("classes").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting classes: %w", err)
	}

	query, args, err := r.sb.Select(classColumns...).From("classes").
		OrderBy("start_at ASC", "id ASC").
		Limit(limit).Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	classes := make([]*models.Class, 0, limit)
	for rows.Next() {
		class, err := scanClass(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning row: %w", err)
		}
		classes = append(classes, class)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return classes, total, nil
}

// Delete removes a class; its applications go with it
func (r *ClassRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete("classes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	affected, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error deleting class: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrClassNotFound
	}
	return nil
}
