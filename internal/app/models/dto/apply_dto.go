package dto

import (
	"time"

	"github.com/yigit/mclass/internal/app/models"
)

// ClassSummary is the class part embedded in application listings
type ClassSummary struct {
	ID      int64     `json:"id" example:"1"`
	Title   string    `json:"title" example:"Intro to Pottery"`
	StartAt time.Time `json:"startAt"`
	EndAt   time.Time `json:"endAt"`
}

// ApplicantSummary is the user part embedded in per-class listings
type ApplicantSummary struct {
	ID    int64  `json:"id" example:"2"`
	Email string `json:"email" example:"user@example.com"`
	Name  string `json:"name" example:"Jane Doe"`
}

// ApplyResponse is the public view of an application
type ApplyResponse struct {
	ID        int64             `json:"id" example:"10"`
	ClassID   int64             `json:"classId" example:"1"`
	UserID    int64             `json:"userId" example:"2"`
	Status    string            `json:"status" example:"PENDING" enums:"PENDING,APPROVED,REJECTED"`
	CreatedAt time.Time         `json:"createdAt"`
	Class     *ClassSummary     `json:"class,omitempty"`
	User      *ApplicantSummary `json:"user,omitempty"`
}

// NewApplyResponse maps an application and whichever relations are loaded
func NewApplyResponse(a *models.Apply) ApplyResponse {
	resp := ApplyResponse{
		ID:        a.ID,
		ClassID:   a.ClassID,
		UserID:    a.UserID,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
	}
	if a.Class != nil {
		resp.Class = &ClassSummary{
			ID:      a.Class.ID,
			Title:   a.Class.Title,
			StartAt: a.Class.StartAt,
			EndAt:   a.Class.EndAt,
		}
	}
	if a.User != nil {
		resp.User = &ApplicantSummary{
			ID:    a.User.ID,
			Email: a.User.Email,
			Name:  a.User.Name,
		}
	}
	return resp
}

// NewApplyResponses maps a slice of applications
func NewApplyResponses(applies []*models.Apply) []ApplyResponse {
	out := make([]ApplyResponse, 0, len(applies))
	for _, a := range applies {
		out = append(out, NewApplyResponse(a))
	}
	return out
}
