package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestIsStrongPassword(t *testing.T) {
	tests := map[string]bool{
		"Passw0rd!":  true,
		"password":   false,
		"12345678":   false,
		"a1":         false,
		"abcdefgh12": true,
	}
	for in, want := range tests {
		if got := IsStrongPassword(in); got != want {
			t.Errorf("IsStrongPassword(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRegisteredTags(t *testing.T) {
	v := validator.New()
	Register(v)

	type req struct {
		Email    string `validate:"lowercase_email"`
		Password string `validate:"password"`
	}

	if err := v.Struct(req{Email: "user@example.com", Password: "Passw0rd!"}); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
	if err := v.Struct(req{Email: "User@Example.com", Password: "password"}); err == nil {
		t.Fatal("invalid request accepted")
	}
}
