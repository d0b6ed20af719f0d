package dto

import (
	"time"

	"github.com/yigit/mclass/internal/app/models"
)

// CreateClassRequest is the body of POST /classes
type CreateClassRequest struct {
	Title           string    `json:"title" binding:"required,min=1,max=200" example:"Intro to Pottery"`
	Description     string    `json:"description" binding:"max=2000" example:"Hands-on beginner session"`
	StartAt         time.Time `json:"startAt" binding:"required" example:"2025-05-01T10:00:00Z"`
	EndAt           time.Time `json:"endAt" binding:"required,gtfield=StartAt" example:"2025-05-01T12:00:00Z"`
	MaxParticipants int       `json:"maxParticipants" binding:"min=0" example:"10"`
}

// UpdateClassRequest is the body of PUT /classes/:id; omitted fields keep their value
type UpdateClassRequest struct {
	Title           *string    `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Description     *string    `json:"description,omitempty" binding:"omitempty,max=2000"`
	StartAt         *time.Time `json:"startAt,omitempty"`
	EndAt           *time.Time `json:"endAt,omitempty"`
	MaxParticipants *int       `json:"maxParticipants,omitempty" binding:"omitempty,min=0"`
}

// ClassResponse is the public view of a class
type ClassResponse struct {
	ID              int64     `json:"id" example:"1"`
	Title           string    `json:"title" example:"Intro to Pottery"`
	Description     string    `json:"description"`
	StartAt         time.Time `json:"startAt"`
	EndAt           time.Time `json:"endAt"`
	MaxParticipants int       `json:"maxParticipants" example:"10"`
	SeatsTaken      int       `json:"seatsTaken" example:"3"`
	RemainingSeats  int       `json:"remainingSeats" example:"7"`
	HostID          int64     `json:"hostId" example:"1"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ClassListResponse is a page of classes
type ClassListResponse struct {
	Classes        []ClassResponse `json:"classes"`
	PaginationInfo PaginationInfo  `json:"paginationInfo"`
}

// NewClassResponse maps a class model
func NewClassResponse(c *models.Class) ClassResponse {
	return ClassResponse{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		StartAt:         c.StartAt,
		EndAt:           c.EndAt,
		MaxParticipants: c.MaxParticipants,
		SeatsTaken:      c.SeatsTaken,
		RemainingSeats:  c.RemainingSeats(),
		HostID:          c.HostID,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}
