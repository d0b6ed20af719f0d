package models

import "time"

// ApplyStatus is the lifecycle state of an application
type ApplyStatus string

const (
	ApplyStatusPending  ApplyStatus = "PENDING"
	ApplyStatusApproved ApplyStatus = "APPROVED"
	ApplyStatusRejected ApplyStatus = "REJECTED"
)

// Apply is a user's application to a class, table 'applies'.
// (class_id, user_id) is unique.
type Apply struct {
	ID        int64       `json:"id" db:"id" example:"1"`
	ClassID   int64       `json:"classId" db:"class_id" example:"1"`
	UserID    int64       `json:"userId" db:"user_id" example:"2"`
	Status    ApplyStatus `json:"status" db:"status" example:"PENDING"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
	Class     *Class      `json:"class,omitempty"` // Relation, no db tag
	User      *User       `json:"user,omitempty"`  // Relation, no db tag
}
