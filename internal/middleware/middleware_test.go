package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/mclass/internal/app/models"
	"github.com/yigit/mclass/internal/app/models/dto"
	"github.com/yigit/mclass/internal/pkg/apperrors"
	"github.com/yigit/mclass/internal/pkg/auth"
	"github.com/yigit/mclass/internal/pkg/queue"
	"github.com/yigit/mclass/internal/pkg/ratelimit"
	"github.com/yigit/mclass/internal/pkg/resourcelock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestHandleAPIErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   dto.ErrorCode
	}{
		{apperrors.ErrClassNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{apperrors.ErrDeadlinePassed, http.StatusBadRequest, dto.ErrorCodeDeadlinePassed},
		{apperrors.ErrCapacityFull, http.StatusBadRequest, dto.ErrorCodeCapacityFull},
		{apperrors.ErrDuplicateApplication, http.StatusConflict, dto.ErrorCodeDuplicateApplication},
		{apperrors.ErrAlreadyApproved, http.StatusBadRequest, dto.ErrorCodeAlreadyApproved},
		{apperrors.ErrInvalidStatusTransition, http.StatusBadRequest, dto.ErrorCodeInvalidTransition},
		{apperrors.ErrConcurrentModification, http.StatusConflict, dto.ErrorCodeConcurrentModification},
		{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden},
		{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{fmt.Errorf("%w: title cannot be empty", apperrors.ErrValidationFailed), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{apperrors.ErrResourceBusy, http.StatusTooManyRequests, dto.ErrorCodeResourceBusy},
		{auth.ErrExpiredToken, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{fmt.Errorf("%w: signature is invalid", auth.ErrInvalidToken), http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{auth.ErrInvalidFormat, http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{apperrors.NewBadRequestError("Invalid id"), http.StatusBadRequest, dto.ErrorCodeInvalidRequest},
		{queue.ErrClosed, http.StatusServiceUnavailable, dto.ErrorCodeInternalServer},
		{fmt.Errorf("wrapped: %w", apperrors.ErrApplicationNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{fmt.Errorf("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleAPIError(c, tt.err)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			resp := decodeError(t, w)
			if resp.Success || resp.Error == nil || resp.Error.Code != tt.code {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestHandleAPIErrorKeepsCustomMessage(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{apperrors.NewForbiddenError("Only the applicant or an admin can cancel this application"), http.StatusForbidden, "Only the applicant or an admin can cancel this application"},
		{fmt.Errorf("cancel: %w", apperrors.NewForbiddenError("Not yours")), http.StatusForbidden, "Not yours"},
		{apperrors.ErrPermissionDenied, http.StatusForbidden, "Permission denied"},
		{apperrors.NewBadRequestError("Invalid classId"), http.StatusBadRequest, "Invalid classId"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleAPIError(c, tt.err)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			resp := decodeError(t, w)
			if resp.Error.Message != tt.message {
				t.Errorf("message = %q, want %q", resp.Error.Message, tt.message)
			}
			if resp.Error.Details != nil {
				t.Errorf("details = %v, want none", resp.Error.Details)
			}
		})
	}
}

func newAuthRouter(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	jwtSvc := auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "test"})
	m := NewAuthMiddleware(jwtSvc)

	r := gin.New()
	r.GET("/me", m.JWTAuth(), func(c *gin.Context) {
		p, _ := GetPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"id": p.UserID, "role": p.Role})
	})
	r.GET("/admin", m.JWTAuth(), m.RoleRequired(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, jwtSvc
}

func TestJWTAuth(t *testing.T) {
	r, jwtSvc := newAuthRouter(t)
	token, _, err := jwtSvc.GenerateAccessToken(&models.User{ID: 7, Email: "u@example.com", Role: models.RoleUser})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"bearer only", "Bearer", http.StatusUnauthorized},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
		{"raw token", token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestJWTAuthErrorCodes(t *testing.T) {
	r, _ := newAuthRouter(t)
	expired := auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", AccessTokenExp: -time.Minute, TokenIssuer: "test"})
	expiredToken, _, err := expired.GenerateAccessToken(&models.User{ID: 7, Email: "u@example.com", Role: models.RoleUser})
	if err != nil {
		t.Fatal(err)
	}
	forged := auth.NewJWTService(auth.JWTConfig{SecretKey: "other-secret", AccessTokenExp: time.Hour, TokenIssuer: "test"})
	forgedToken, _, err := forged.GenerateAccessToken(&models.User{ID: 7, Email: "u@example.com", Role: models.RoleUser})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		code   dto.ErrorCode
	}{
		{"missing", "", dto.ErrorCodeUnauthorized},
		{"bearer only", "Bearer", dto.ErrorCodeUnauthorized},
		{"expired", "Bearer " + expiredToken, dto.ErrorCodeExpiredToken},
		{"wrong secret", "Bearer " + forgedToken, dto.ErrorCodeInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			if resp := decodeError(t, w); resp.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", resp.Error.Code, tt.code)
			}
		})
	}
}

func TestRoleRequired(t *testing.T) {
	r, jwtSvc := newAuthRouter(t)

	for _, tc := range []struct {
		role   models.RoleType
		status int
	}{
		{models.RoleUser, http.StatusForbidden},
		{models.RoleAdmin, http.StatusNoContent},
	} {
		token, _, err := jwtSvc.GenerateAccessToken(&models.User{ID: 1, Email: "a@example.com", Role: tc.role})
		if err != nil {
			t.Fatal(err)
		}
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Errorf("role %s: status = %d, want %d", tc.role, w.Code, tc.status)
		}
	}
}

func TestLockMiddlewareTurnsAwaySecondWriter(t *testing.T) {
	locker := resourcelock.NewMemoryLocker(time.Minute, zerolog.Nop())
	m := NewLockMiddleware(locker, zerolog.Nop())

	entered := make(chan struct{})
	release := make(chan struct{})

	r := gin.New()
	r.POST("/classes/:id/apply", m.ByClassParam("id"), func(c *gin.Context) {
		if c.Query("hold") == "1" {
			close(entered)
			<-release
		}
		c.Status(http.StatusCreated)
	})

	done := make(chan int)
	go func() {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/classes/1/apply?hold=1", nil))
		done <- w.Code
	}()
	<-entered

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/classes/1/apply", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("concurrent writer status = %d, want 429", w.Code)
	}
	if resp := decodeError(t, w); resp.Error.Code != dto.ErrorCodeResourceBusy {
		t.Errorf("code = %s, want %s", resp.Error.Code, dto.ErrorCodeResourceBusy)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", w.Header().Get("Retry-After"))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/classes/2/apply", nil))
	if w.Code != http.StatusCreated {
		t.Errorf("other class status = %d, want 201", w.Code)
	}

	close(release)
	if code := <-done; code != http.StatusCreated {
		t.Fatalf("holder status = %d", code)
	}
	if locker.Len() != 0 {
		t.Errorf("lease not released, %d held", locker.Len())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/classes/1/apply", nil))
	if w.Code != http.StatusCreated {
		t.Errorf("after release status = %d, want 201", w.Code)
	}
}

func TestLockMiddlewareResolver(t *testing.T) {
	locker := resourcelock.NewMemoryLocker(time.Minute, zerolog.Nop())
	m := NewLockMiddleware(locker, zerolog.Nop())
	resolve := func(_ context.Context, id int64) (int64, error) {
		if id == 404 {
			return 0, apperrors.ErrApplicationNotFound
		}
		return 9, nil
	}

	lease, err := locker.TryAcquire(context.Background(), resourcelock.ClassKey(9))
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.DELETE("/applies/:id", m.ByResolvedClass("id", resolve), func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, tc := range []struct {
		path   string
		status int
	}{
		{"/applies/1", http.StatusTooManyRequests},
		{"/applies/404", http.StatusNotFound},
		{"/applies/abc", http.StatusBadRequest},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, tc.path, nil))
		if w.Code != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.path, w.Code, tc.status)
		}
	}

	_ = locker.Release(context.Background(), lease)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/applies/1", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status after release = %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.GET("/ping", RateLimit(ratelimit.NewStore(0.001, 2)), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if resp := decodeError(t, w); resp.Error.Code != dto.ErrorCodeRateLimited {
		t.Errorf("code = %s", resp.Error.Code)
	}
}

func TestBindJSON(t *testing.T) {
	r := gin.New()
	r.POST("/login", func(c *gin.Context) {
		var req dto.LoginRequest
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if resp := decodeError(t, w); resp.Error.Code != dto.ErrorCodeValidationFailed {
		t.Errorf("code = %s", resp.Error.Code)
	}
}
