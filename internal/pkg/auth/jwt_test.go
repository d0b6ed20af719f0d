package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/yigit/mclass/internal/app/models"
	"golang.org/x/crypto/bcrypt"
)

func newTestJWT(exp time.Duration) *JWTService {
	return NewJWTService(JWTConfig{SecretKey: "test-secret", AccessTokenExp: exp, TokenIssuer: "mclass.test"})
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestJWT(time.Hour)
	user := &models.User{ID: 7, Email: "admin@example.com", Role: models.RoleAdmin}

	token, expiresIn, err := svc.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if expiresIn != 3600 {
		t.Errorf("expiresIn = %d, want 3600", expiresIn)
	}

	claims, err := svc.ValidateAndExtractClaims(token)
	if err != nil {
		t.Fatalf("ValidateAndExtractClaims: %v", err)
	}
	if claims.UserID != 7 || claims.Role != "ADMIN" || claims.Email != user.Email {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestValidateExpired(t *testing.T) {
	svc := newTestJWT(-time.Minute)
	token, _, err := svc.GenerateAccessToken(&models.User{ID: 1, Email: "u@example.com", Role: models.RoleUser})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("err = %v, want ErrExpiredToken", err)
	}
}

func TestValidateWrongSecret(t *testing.T) {
	token, _, err := newTestJWT(time.Hour).GenerateAccessToken(&models.User{ID: 1, Email: "u@example.com", Role: models.RoleUser})
	if err != nil {
		t.Fatal(err)
	}

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "mclass.test"})
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestExtractBearerToken(t *testing.T) {
	if tok, err := ExtractBearerToken("Bearer abc"); err != nil || tok != "abc" {
		t.Errorf("got (%q, %v)", tok, err)
	}
	if _, err := ExtractBearerToken(""); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("empty header err = %v", err)
	}
	if _, err := ExtractBearerToken("Bearer "); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("empty bearer err = %v", err)
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	BcryptCost = bcrypt.MinCost
	hash, err := HashPassword("Passw0rd!")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "Passw0rd!") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}
