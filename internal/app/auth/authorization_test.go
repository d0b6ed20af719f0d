package auth

import (
	"errors"
	"testing"

	"github.com/yigit/mclass/internal/app/models"
	"github.com/yigit/mclass/internal/pkg/apperrors"
)

func TestRequireApplicationOwner(t *testing.T) {
	apply := &models.Apply{ID: 1, UserID: 10}

	tests := []struct {
		name    string
		p       Principal
		allowed bool
	}{
		{"owner", Principal{UserID: 10, Role: models.RoleUser}, true},
		{"other user", Principal{UserID: 11, Role: models.RoleUser}, false},
		{"admin", Principal{UserID: 99, Role: models.RoleAdmin}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireApplicationOwner(tt.p, apply)
			if tt.allowed && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.allowed && !errors.Is(err, apperrors.ErrPermissionDenied) {
				t.Fatalf("err = %v, want ErrPermissionDenied", err)
			}
		})
	}
}
