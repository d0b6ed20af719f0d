package models

import "fmt"

// SeatPolicy decides which application statuses hold a seat. One policy is
// configured per deployment and every enrollment operation follows it.
type SeatPolicy string

const (
	// SeatOnApply: a seat is taken when the application is created (PENDING and APPROVED hold seats).
	SeatOnApply SeatPolicy = "on_apply"
	// SeatOnApproval: only APPROVED applications hold seats; approval checks capacity.
	SeatOnApproval SeatPolicy = "on_approval"
	// SeatInstant: applications are created APPROVED and hold a seat immediately.
	SeatInstant SeatPolicy = "instant"
)

// ParseSeatPolicy validates a configured policy name.
func ParseSeatPolicy(s string) (SeatPolicy, error) {
	switch p := SeatPolicy(s); p {
	case SeatOnApply, SeatOnApproval, SeatInstant:
		return p, nil
	case "":
		return SeatOnApply, nil
	default:
		return "", fmt.Errorf("unknown seat policy %q", s)
	}
}

// InitialStatus is the status a new application is created with.
func (p SeatPolicy) InitialStatus() ApplyStatus {
	if p == SeatInstant {
		return ApplyStatusApproved
	}
	return ApplyStatusPending
}

// Occupies reports whether an application in status holds a seat.
func (p SeatPolicy) Occupies(status ApplyStatus) bool {
	switch status {
	case ApplyStatusApproved:
		return true
	case ApplyStatusPending:
		return p == SeatOnApply
	default:
		return false
	}
}

// ApprovalTakesSeat reports whether approving a pending application consumes a seat.
func (p SeatPolicy) ApprovalTakesSeat() bool {
	return p == SeatOnApproval
}
