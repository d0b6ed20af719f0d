package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/yigit/mclass/internal/app/models"
	"github.com/yigit/mclass/internal/db"
	"github.com/yigit/mclass/internal/pkg/apperrors"
	"github.com/yigit/mclass/internal/pkg/dberrors"
)

// UserRepository handles user database operations
type UserRepository struct {
	db db.Database
	sb sq.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(database db.Database) *UserRepository {
	return &UserRepository{
		db: database,
		sb: database.Dialect().Builder(),
	}
}

// Create inserts user and sets its ID. A taken email yields apperrors.ErrEmailAlreadyExists.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query, args, err := r.sb.Insert("users").
		Columns("email", "password", "name", "role", "created_at", "updated_at").
		Values(user.Email, user.Password, user.Name, string(user.Role), user.CreatedAt, user.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&user.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, sq.Eq{"email": email})
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *UserRepository) getOne(ctx context.Context, where sq.Eq) (*models.User, error) {
	query, args, err := r.sb.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query, args, err := r.sb.Select("COUNT(*)").From("users").Where(sq.Eq{"email": email}).ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("error checking email: %w", err)
	}
	return count > 0, nil
}
