package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/mclass/internal/app/auth"
	"github.com/yigit/mclass/internal/app/models"
	"github.com/yigit/mclass/internal/app/repositories"
	"github.com/yigit/mclass/internal/db"
	"github.com/yigit/mclass/internal/pkg/apperrors"
	"github.com/yigit/mclass/internal/pkg/helpers"
	"github.com/yigit/mclass/internal/pkg/queue"
)

// EnrollmentService defines the application workflow on a class
type EnrollmentService interface {
	// Enroll creates the caller's application to a class.
	Enroll(ctx context.Context, classID, userID int64) (*models.Apply, error)
	// Approve moves a pending application to APPROVED.
	Approve(ctx context.Context, applyID int64) (*models.Apply, error)
	// Cancel deletes an application, releasing its seat if it held one.
	Cancel(ctx context.Context, applyID int64, principal auth.Principal) error
	ListMyApplications(ctx context.Context, userID int64) ([]*models.Apply, error)
	ListByClass(ctx context.Context, classID int64) ([]*models.Apply, error)
	// ResolveClassID maps an application to its class, for lock keys.
	ResolveClassID(ctx context.Context, applyID int64) (int64, error)
}

// WriteSerializer runs tasks one at a time; *queue.SerialTaskQueue satisfies it.
type WriteSerializer interface {
	Do(ctx context.Context, task queue.Task) error
}

// EnrollmentOptions tunes an EnrollmentService
type EnrollmentOptions struct {
	Policy models.SeatPolicy
	// Serializer, when set, funnels every write through a single worker.
	Serializer WriteSerializer
	// Clock defaults to helpers.UTCNow.
	Clock helpers.Clock
}

type enrollmentServiceImpl struct {
	db         db.Database
	classRepo  *repositories.ClassRepository
	applyRepo  *repositories.ApplyRepository
	policy     models.SeatPolicy
	serializer WriteSerializer
	now        helpers.Clock
	logger     zerolog.Logger
}

// NewEnrollmentService creates a new enrollment service instance
func NewEnrollmentService(
	database db.Database,
	classRepo *repositories.ClassRepository,
	applyRepo *repositories.ApplyRepository,
	opts EnrollmentOptions,
	logger zerolog.Logger,
) EnrollmentService {
	if opts.Policy == "" {
		opts.Policy = models.SeatOnApply
	}
	if opts.Clock == nil {
		opts.Clock = helpers.UTCNow
	}
	return &enrollmentServiceImpl{
		db:         database,
		classRepo:  classRepo,
		applyRepo:  applyRepo,
		policy:     opts.Policy,
		serializer: opts.Serializer,
		now:        opts.Clock,
		logger:     logger,
	}
}

// write runs fn in a transaction, behind the serializer if one is configured.
func (s *enrollmentServiceImpl) write(ctx context.Context, fn db.TransactionFn) error {
	if s.serializer == nil {
		return s.db.WithTransaction(ctx, fn)
	}
	return s.serializer.Do(ctx, func(context.Context) error {
		return s.db.WithTransaction(ctx, fn)
	})
}

func (s *enrollmentServiceImpl) Enroll(ctx context.Context, classID, userID int64) (*models.Apply, error) {
	var created *models.Apply

	err := s.write(ctx, func(ctx context.Context, q db.Querier) error {
		store := repositories.NewEnrollmentStore(q, s.db.Dialect())

		class, err := store.LoadClassForUpdate(ctx, classID)
		if err != nil {
			return err
		}

		exists, err := store.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.ErrUserNotFound
		}

		now := s.now()
		if class.IsClosed(now) {
			return apperrors.ErrDeadlinePassed
		}
		if !class.HasSeat() {
			return apperrors.ErrCapacityFull
		}

		if _, err := store.FindApplication(ctx, classID, userID); err == nil {
			return apperrors.ErrDuplicateApplication
		} else if !errors.Is(err, apperrors.ErrApplicationNotFound) {
			return err
		}

		status := s.policy.InitialStatus()
		apply, err := store.CreateApplication(ctx, classID, userID, status, now)
		if err != nil {
			return err
		}

		if s.policy.Occupies(status) {
			if err := store.IncrementSeats(ctx, class, now); err != nil {
				return err
			}
		}

		apply.Class = class
		created = apply
		return nil
	})
	if err != nil {
		s.logger.Debug().Err(err).Int64("classID", classID).Int64("userID", userID).Msg("Enrollment rejected")
		return nil, err
	}

	s.logger.Info().
		Int64("applyID", created.ID).
		Int64("classID", classID).
		Int64("userID", userID).
		Str("status", string(created.Status)).
		Int("seatsTaken", created.Class.SeatsTaken).
		Msg("Application created")
	return created, nil
}

func (s *enrollmentServiceImpl) Approve(ctx context.Context, applyID int64) (*models.Apply, error) {
	var approved *models.Apply

	err := s.write(ctx, func(ctx context.Context, q db.Querier) error {
		store := repositories.NewEnrollmentStore(q, s.db.Dialect())

		apply, err := store.FindApplicationByID(ctx, applyID)
		if err != nil {
			return err
		}

		class, err := store.LoadClassForUpdate(ctx, apply.ClassID)
		if err != nil {
			return err
		}

		// The application may have changed while we waited for the class lock.
		apply, err = store.FindApplicationByID(ctx, applyID)
		if err != nil {
			return err
		}

		switch apply.Status {
		case models.ApplyStatusApproved:
			return apperrors.ErrAlreadyApproved
		case models.ApplyStatusPending:
		default:
			return apperrors.ErrInvalidStatusTransition
		}

		if s.policy.ApprovalTakesSeat() {
			if !class.HasSeat() {
				return apperrors.ErrCapacityFull
			}
			if err := store.IncrementSeats(ctx, class, s.now()); err != nil {
				return err
			}
		}

		if err := store.UpdateApplicationStatus(ctx, applyID, models.ApplyStatusApproved); err != nil {
			return err
		}

		apply.Status = models.ApplyStatusApproved
		apply.Class = class
		approved = apply
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("applyID", applyID).Int64("classID", approved.ClassID).Msg("Application approved")
	return approved, nil
}

func (s *enrollmentServiceImpl) Cancel(ctx context.Context, applyID int64, principal auth.Principal) error {
	var classID int64

	err := s.write(ctx, func(ctx context.Context, q db.Querier) error {
		store := repositories.NewEnrollmentStore(q, s.db.Dialect())

		apply, err := store.FindApplicationByID(ctx, applyID)
		if err != nil {
			return err
		}
		if err := auth.RequireApplicationOwner(principal, apply); err != nil {
			return err
		}

		class, err := store.LoadClassForUpdate(ctx, apply.ClassID)
		if err != nil {
			return err
		}

		apply, err = store.FindApplicationByID(ctx, applyID)
		if err != nil {
			return err
		}

		if s.policy.Occupies(apply.Status) {
			if err := store.DecrementSeats(ctx, class, s.now()); err != nil {
				return err
			}
		}

		classID = apply.ClassID
		return store.DeleteApplication(ctx, applyID)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("applyID", applyID).Int64("classID", classID).Int64("by", principal.UserID).Msg("Application cancelled")
	return nil
}

func (s *enrollmentServiceImpl) ListMyApplications(ctx context.Context, userID int64) ([]*models.Apply, error) {
	return s.applyRepo.ListByUser(ctx, userID)
}

func (s *enrollmentServiceImpl) ListByClass(ctx context.Context, classID int64) ([]*models.Apply, error) {
	if _, err := s.classRepo.GetByID(ctx, classID); err != nil {
		return nil, err
	}
	return s.applyRepo.ListByClass(ctx, classID)
}

func (s *enrollmentServiceImpl) ResolveClassID(ctx context.Context, applyID int64) (int64, error) {
	return s.applyRepo.GetClassID(ctx, applyID)
}
