package models

import (
	"testing"
	"time"
)

func TestSeatPolicyOccupies(t *testing.T) {
	tests := []struct {
		policy SeatPolicy
		status ApplyStatus
		want   bool
	}{
		{SeatOnApply, ApplyStatusPending, true},
		{SeatOnApply, ApplyStatusApproved, true},
		{SeatOnApply, ApplyStatusRejected, false},
		{SeatOnApproval, ApplyStatusPending, false},
		{SeatOnApproval, ApplyStatusApproved, true},
		{SeatInstant, ApplyStatusApproved, true},
		{SeatInstant, ApplyStatusRejected, false},
	}

	for _, tt := range tests {
		if got := tt.policy.Occupies(tt.status); got != tt.want {
			t.Errorf("%s.Occupies(%s) = %v, want %v", tt.policy, tt.status, got, tt.want)
		}
	}
}

func TestSeatPolicyInitialStatus(t *testing.T) {
	if got := SeatInstant.InitialStatus(); got != ApplyStatusApproved {
		t.Errorf("instant initial status = %s", got)
	}
	if got := SeatOnApproval.InitialStatus(); got != ApplyStatusPending {
		t.Errorf("on_approval initial status = %s", got)
	}
}

func TestParseSeatPolicy(t *testing.T) {
	if p, err := ParseSeatPolicy(""); err != nil || p != SeatOnApply {
		t.Errorf("empty policy = %q, %v; want on_apply", p, err)
	}
	if _, err := ParseSeatPolicy("first_come"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestClassDeadlineAndSeats(t *testing.T) {
	end := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	c := &Class{MaxParticipants: 2, SeatsTaken: 2, EndAt: end}

	if c.HasSeat() {
		t.Error("full class reports a free seat")
	}
	if c.RemainingSeats() != 0 {
		t.Errorf("remaining = %d, want 0", c.RemainingSeats())
	}
	if c.IsClosed(end) {
		t.Error("class must still be open exactly at its end")
	}
	if !c.IsClosed(end.Add(time.Second)) {
		t.Error("class must be closed after its end")
	}
}
