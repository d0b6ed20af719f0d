package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/mclass/internal/app/models"
	"github.com/yigit/mclass/internal/app/models/dto"
	"github.com/yigit/mclass/internal/app/repositories"
	"github.com/yigit/mclass/internal/db"
	"github.com/yigit/mclass/internal/pkg/apperrors"
	"github.com/yigit/mclass/internal/pkg/helpers"
)

// ClassService defines the interface for class-related operations
type ClassService interface {
	CreateClass(ctx context.Context, hostID int64, req *dto.CreateClassRequest) (*models.Class, error)
	GetClass(ctx context.Context, id int64) (*models.Class, error)
	ListClasses(ctx context.Context, page, size int) (*dto.ClassListResponse, error)
	UpdateClass(ctx context.Context, id int64, req *dto.UpdateClassRequest) (*models.Class, error)
	DeleteClass(ctx context.Context, id int64) error
}

// classServiceImpl implements the ClassService interface
type classServiceImpl struct {
	db        db.Database
	classRepo *repositories.ClassRepository
	now       helpers.Clock
	logger    zerolog.Logger
}

// NewClassService creates a new class service instance
func NewClassService(database db.Database, classRepo *repositories.ClassRepository, logger zerolog.Logger) ClassService {
	return &classServiceImpl{
		db:        database,
		classRepo: classRepo,
		now:       helpers.UTCNow,
		logger:    logger,
	}
}

// validateClass checks the fields shared by create and update
func validateClass(class *models.Class) error {
	if strings.TrimSpace(class.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", apperrors.ErrValidationFailed)
	}
	if class.MaxParticipants < 0 {
		return fmt.Errorf("%w: maxParticipants cannot be negative", apperrors.ErrValidationFailed)
	}
	if !class.EndAt.After(class.StartAt) {
		return fmt.Errorf("%w: %w", apperrors.ErrValidationFailed, apperrors.ErrInvalidClassPeriod)
	}
	return nil
}

func (s *classServiceImpl) CreateClass(ctx context.Context, hostID int64, req *dto.CreateClassRequest) (*models.Class, error) {
	now := s.now()
	class := &models.Class{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		StartAt:         req.StartAt.UTC(),
		EndAt:           req.EndAt.UTC(),
		MaxParticipants: req.MaxParticipants,
		HostID:          hostID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := validateClass(class); err != nil {
		return nil, err
	}

	if err := s.classRepo.Create(ctx, class); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("classID", class.ID).Int("maxParticipants", class.MaxParticipants).Msg("Class created")
	return class, nil
}

func (s *classServiceImpl) GetClass(ctx context.Context, id int64) (*models.Class, error) {
	return s.classRepo.GetByID(ctx, id)
}

func (s *classServiceImpl) ListClasses(ctx context.Context, page, size int) (*dto.ClassListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	classes, total, err := s.classRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	resp := &dto.ClassListResponse{
		Classes:        make([]dto.ClassResponse, 0, len(classes)),
		PaginationInfo: helpers.NewPaginationInfo(total, page, int(limit)),
	}
	for _, c := range classes {
		resp.Classes = append(resp.Classes, dto.NewClassResponse(c))
	}
	return resp, nil
}

// UpdateClass edits a class under its row lock so a capacity change cannot
// race an enrollment.
func (s *classServiceImpl) UpdateClass(ctx context.Context, id int64, req *dto.UpdateClassRequest) (*models.Class, error) {
	var updated *models.Class

	err := s.db.WithTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		store := repositories.NewEnrollmentStore(q, s.db.Dialect())

		class, err := store.LoadClassForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if req.Title != nil {
			class.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			class.Description = *req.Description
		}
		if req.StartAt != nil {
			class.StartAt = req.StartAt.UTC()
		}
		if req.EndAt != nil {
			class.EndAt = req.EndAt.UTC()
		}
		if req.MaxParticipants != nil {
			class.MaxParticipants = *req.MaxParticipants
		}

		if err := validateClass(class); err != nil {
			return err
		}
		if class.MaxParticipants < class.SeatsTaken {
			return apperrors.ErrCapacityBelowSeats
		}

		if err := store.UpdateClassDetails(ctx, class, s.now()); err != nil {
			return err
		}
		updated = class
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("classID", id).Int64("version", updated.Version).Msg("Class updated")
	return updated, nil
}

func (s *classServiceImpl) DeleteClass(ctx context.Context, id int64) error {
	if err := s.classRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("classID", id).Msg("Class deleted")
	return nil
}
