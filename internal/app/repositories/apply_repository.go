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

// ApplyRepository serves application listings outside any transaction
type ApplyRepository struct {
	db db.Database
	sb sq.StatementBuilderType
}

// NewApplyRepository creates a new ApplyRepository
func NewApplyRepository(database db.Database) *ApplyRepository {
	return &ApplyRepository{
		db: database,
		sb: database.Dialect().Builder(),
	}
}

// ListByUser returns the user's applications with a class summary, newest first
func (r *ApplyRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Apply, error) {
	cols := append(prefixed("a", applyColumns), "c.title", "c.start_at", "c.end_at")
	query, args, err := r.sb.Select(cols...).
		From("applies a").
		Join("classes c ON c.id = a.class_id").
		Where(sq.Eq{"a.user_id": userID}).
		OrderBy("a.created_at DESC", "a.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	applies := make([]*models.Apply, 0)
	for rows.Next() {
		a := &models.Apply{Class: &models.Class{}}
		var status string
		if err := rows.Scan(&a.ID, &a.ClassID, &a.UserID, &status, &a.CreatedAt,
			&a.Class.Title, &a.Class.StartAt, &a.Class.EndAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		a.Status = models.ApplyStatus(status)
		a.Class.ID = a.ClassID
		applies = append(applies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return applies, nil
}

// ListByClass returns every application to a class with applicant details, oldest first
func (r *ApplyRepository) ListByClass(ctx context.Context, classID int64) ([]*models.Apply, error) {
	cols := append(prefixed("a", applyColumns), "u.email", "u.name")
	query, args, err := r.sb.Select(cols...).
		From("applies a").
		Join("users u ON u.id = a.user_id").
		Where(sq.Eq{"a.class_id": classID}).
		OrderBy("a.created_at ASC", "a.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	applies := make([]*models.Apply, 0)
	for rows.Next() {
		a := &models.Apply{User: &models.User{}}
		var status string
		if err := rows.Scan(&a.ID, &a.ClassID, &a.UserID, &status, &a.CreatedAt,
			&a.User.Email, &a.User.Name); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		a.Status = models.ApplyStatus(status)
		a.User.ID = a.UserID
		applies = append(applies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return applies, nil
}

// GetClassID resolves the class an application belongs to
func (r *ApplyRepository) GetClassID(ctx context.Context, applyID int64) (int64, error) {
	query, args, err := r.sb.Select("class_id").From("applies").Where(sq.Eq{"id": applyID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var classID int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&classID); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return 0, apperrors.ErrApplicationNotFound
		}
		return 0, fmt.Errorf("error resolving application: %w", err)
	}
	return classID, nil
}
