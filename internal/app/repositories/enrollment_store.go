package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/yigit/mclass/internal/app/models"
	"github.com/yigit/mclass/internal/db"
	"github.com/yigit/mclass/internal/pkg/apperrors"
	"github.com/yigit/mclass/internal/pkg/dberrors"
)

// EnrollmentStore is the data access used inside an enrollment transaction.
// It is bound to the caller's Querier, normally the open transaction, and
// must not outlive it.
type EnrollmentStore struct {
	q          db.Querier
	sb         sq.StatementBuilderType
	lockSuffix string
}

// NewEnrollmentStore binds a store to q.
func NewEnrollmentStore(q db.Querier, dialect db.Dialect) *EnrollmentStore {
	return &EnrollmentStore{
		q:          q,
		sb:         dialect.Builder(),
		lockSuffix: dialect.LockSuffix,
	}
}

// LoadClassForUpdate reads the class and holds its row lock until the
// transaction ends.
func (s *EnrollmentStore) LoadClassForUpdate(ctx context.Context, classID int64) (*models.Class, error) {
	b := s.sb.Select(classColumns...).From("classes").Where(sq.Eq{"id": classID})
	if s.lockSuffix != "" {
		b = b.Suffix(s.lockSuffix)
	}
	return s.loadClass(ctx, b)
}

// LoadClass reads the class without locking it.
func (s *EnrollmentStore) LoadClass(ctx context.Context, classID int64) (*models.Class, error) {
	return s.loadClass(ctx, s.sb.Select(classColumns...).From("classes").Where(sq.Eq{"id": classID}))
}

func (s *EnrollmentStore) loadClass(ctx context.Context, b sq.SelectBuilder) (*models.Class, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	class, err := scanClass(s.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return nil, apperrors.ErrClassNotFound
		}
		return nil, fmt.Errorf("error loading class: %w", err)
	}
	return class, nil
}

// UserExists reports whether a user row exists.
func (s *EnrollmentStore) UserExists(ctx context.Context, userID int64) (bool, error) {
	query, args, err := s.sb.Select("COUNT(*)").From("users").Where(sq.Eq{"id": userID}).ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	var count int
	if err := s.q.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("error checking user: %w", err)
	}
	return count > 0, nil
}

// FindApplication returns the user's application to the class, or ErrApplicationNotFound.
func (s *EnrollmentStore) FindApplication(ctx context.Context, classID, userID int64) (*models.Apply, error) {
	return s.findApply(ctx, sq.Eq{"class_id": classID, "user_id": userID})
}

// FindApplicationByID returns the application, or ErrApplicationNotFound.
func (s *EnrollmentStore) FindApplicationByID(ctx context.Context, applyID int64) (*models.Apply, error) {
	return s.findApply(ctx, sq.Eq{"id": applyID})
}

func (s *EnrollmentStore) findApply(ctx context.Context, where sq.Eq) (*models.Apply, error) {
	query, args, err := s.sb.Select(applyColumns...).From("applies").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	apply, err := scanApply(s.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("error loading application: %w", err)
	}
	return apply, nil
}

// CreateApplication inserts an application. The (class, user) unique key
// turns a lost race into ErrDuplicateApplication.
func (s *EnrollmentStore) CreateApplication(ctx context.Context, classID, userID int64, status models.ApplyStatus, now time.Time) (*models.Apply, error) {
	query, args, err := s.sb.Insert("applies").
		Columns("class_id", "user_id", "status", "created_at").
		Values(classID, userID, string(status), now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	apply := &models.Apply{ClassID: classID, UserID: userID, Status: status, CreatedAt: now}
	if err := s.q.QueryRow(ctx, query, args...).Scan(&apply.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "applies_class_user_key") {
			return nil, apperrors.ErrDuplicateApplication
		}
		return nil, fmt.Errorf("error creating application: %w", err)
	}
	return apply, nil
}

// UpdateApplicationStatus sets the status of an existing application.
func (s *EnrollmentStore) UpdateApplicationStatus(ctx context.Context, applyID int64, status models.ApplyStatus) error {
	query, args, err := s.sb.Update("applies").
		Set("status", string(status)).
		Where(sq.Eq{"id": applyID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	affected, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating application: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrApplicationNotFound
	}
	return nil
}

// DeleteApplication removes an application row.
func (s *EnrollmentStore) DeleteApplication(ctx context.Context, applyID int64) error {
	query, args, err := s.sb.Delete("applies").Where(sq.Eq{"id": applyID}).ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	affected, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error deleting application: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrApplicationNotFound
	}
	return nil
}

// IncrementSeats takes one seat. The update only matches while the version
// read with the class is current and a seat is free, so it can never push the
// counter past capacity; a miss is ErrConcurrentModification. On success
// class reflects the new counter and version.
func (s *EnrollmentStore) IncrementSeats(ctx context.Context, class *models.Class, now time.Time) error {
	query, args, err := s.sb.Update("classes").
		Set("seats_taken", sq.Expr("seats_taken + 1")).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", now).
		Where(sq.Eq{"id": class.ID, "version": class.Version}).
		Where("seats_taken < max_participants").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	affected, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error incrementing seats: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrConcurrentModification
	}

	class.SeatsTaken++
	class.Version++
	class.UpdatedAt = now
	return nil
}

// DecrementSeats frees one seat, never going below zero.
func (s *EnrollmentStore) DecrementSeats(ctx context.Context, class *models.Class, now time.Time) error {
	query, args, err := s.sb.Update("classes").
		Set("seats_taken", sq.Expr("CASE WHEN seats_taken > 0 THEN seats_taken - 1 ELSE 0 END")).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", now).
		Where(sq.Eq{"id": class.ID, "version": class.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	affected, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error decrementing seats: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrConcurrentModification
	}

	if class.SeatsTaken > 0 {
		class.SeatsTaken--
	}
	class.Version++
	class.UpdatedAt = now
	return nil
}

// UpdateClassDetails writes the editable class fields, guarded by version.
func (s *EnrollmentStore) UpdateClassDetails(ctx context.Context, class *models.Class, now time.Time) error {
	query, args, err := s.sb.Update("classes").
		Set("title", class.Title).
		Set("description", class.Description).
		Set("start_at", class.StartAt).
		Set("end_at", class.EndAt).
		Set("max_participants", class.MaxParticipants).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", now).
		Where(sq.Eq{"id": class.ID, "version": class.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	affected, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating class: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrConcurrentModification
	}

	class.Version++
	class.UpdatedAt = now
	return nil
}
