package auth

import (
	"github.com/yigit/mclass/internal/app/models"
	"github.com/yigit/mclass/internal/pkg/apperrors"
)

// Principal is the authenticated caller as seen by the services
type Principal struct {
	UserID int64
	Role   models.RoleType
}

// IsAdmin reports whether the caller has the ADMIN role
func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// CanManageApplication reports whether the caller may withdraw or cancel apply:
// its owner or any admin.
func (p Principal) CanManageApplication(apply *models.Apply) bool {
	return p.IsAdmin() || (apply != nil && apply.UserID == p.UserID)
}

// RequireApplicationOwner returns a forbidden error unless CanManageApplication holds
func RequireApplicationOwner(p Principal, apply *models.Apply) error {
	if !p.CanManageApplication(apply) {
		return apperrors.NewForbiddenError("Only the applicant or an admin can cancel this application")
	}
	return nil
}
