package validation

import (
	"regexp"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	EmailPattern = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`

	PasswordMinLength = 8
	// bcrypt ignores everything past 72 bytes
	PasswordMaxLength = 72

	NameMinLength = 1
	NameMaxLength = 100
)

var emailRegexp = regexp.MustCompile(EmailPattern)

var registerOnce sync.Once

// RegisterGinRules installs the custom tags used by request DTOs on gin's
// validator engine. Safe to call more than once.
func RegisterGinRules() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			Register(v)
		}
	})
}

// Register adds the "password" and "lowercase_email" tags to v.
func Register(v *validator.Validate) {
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("lowercase_email", func(fl validator.FieldLevel) bool {
		return emailRegexp.MatchString(fl.Field().String())
	})
}

// IsStrongPassword requires the length bounds plus at least one letter and one digit.
func IsStrongPassword(s string) bool {
	if len(s) < PasswordMinLength || len(s) > PasswordMaxLength {
		return false
	}
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}
