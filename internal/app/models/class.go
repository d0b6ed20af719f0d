package models

import "time"

// Class is a bookable class with a fixed seat capacity, table 'classes'.
type Class struct {
	ID              int64     `json:"id" db:"id" example:"1"`
	Title           string    `json:"title" db:"title" example:"Intro to Pottery"`
	Description     string    `json:"description" db:"description" example:"Hands-on beginner session"`
	StartAt         time.Time `json:"startAt" db:"start_at" example:"2025-05-01T10:00:00Z"`
	EndAt           time.Time `json:"endAt" db:"end_at" example:"2025-05-01T12:00:00Z"`
	MaxParticipants int       `json:"maxParticipants" db:"max_participants" example:"10"`
	SeatsTaken      int       `json:"seatsTaken" db:"seats_taken" example:"3"`
	Version         int64     `json:"version" db:"version" example:"4"`
	HostID          int64     `json:"hostId" db:"host_id" example:"1"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// HasSeat reports whether another seat-occupying application fits.
func (c *Class) HasSeat() bool {
	return c.SeatsTaken < c.MaxParticipants
}

// IsClosed reports whether enrollment is closed at now. The class end is the deadline.
func (c *Class) IsClosed(now time.Time) bool {
	return now.After(c.EndAt)
}

// RemainingSeats never goes negative.
func (c *Class) RemainingSeats() int {
	if c.SeatsTaken >= c.MaxParticipants {
		return 0
	}
	return c.MaxParticipants - c.SeatsTaken
}
