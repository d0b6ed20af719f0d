package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	appauth "github.com/yigit/mclass/internal/app/auth"
	"github.com/yigit/mclass/internal/app/models"
	"github.com/yigit/mclass/internal/app/models/dto"
	"github.com/yigit/mclass/internal/pkg/apperrors"
	"github.com/yigit/mclass/internal/pkg/auth"
)

// Context keys set by JWTAuth
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		// Swagger UI sometimes sends the token as a query parameter
		if authHeader == "" {
			authHeader = c.Query("token")
		}

		if authHeader == "" {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header missing")
			return
		}

		tokenString, err := auth.ExtractBearerToken(strings.Trim(authHeader, "\"'"))
		if err != nil {
			HandleAPIError(c, err)
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			HandleAPIError(c, err)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, models.RoleType(claims.Role))

		c.Next()
	}
}

// RoleRequired middleware to check if user has required role
func (m *AuthMiddleware) RoleRequired(requiredRole models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User role not found")
			return
		}

		if principal.Role != requiredRole {
			HandleAPIError(c, apperrors.NewForbiddenError("Access denied, "+string(requiredRole)+" role required"))
			return
		}

		c.Next()
	}
}

// GetPrincipal returns the authenticated caller stored by JWTAuth
func GetPrincipal(c *gin.Context) (appauth.Principal, bool) {
	userID, ok := c.Get(ContextUserID)
	if !ok {
		return appauth.Principal{}, false
	}
	id, ok := userID.(int64)
	if !ok {
		return appauth.Principal{}, false
	}
	role, _ := c.Get(ContextRole)
	roleType, _ := role.(models.RoleType)
	return appauth.Principal{UserID: id, Role: roleType}, true
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	errorDetail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}
