package helpers

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	helper "schoolku_backend/internals/helpers"
)

// MinPasswordLength below this a password is rejected as weak.
const MinPasswordLength = 6

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func IsValidEmail(email string) bool {
	return email != "" && helper.Validate.Var(email, "required,email") == nil
}

func IsWeakPassword(pw string) bool {
	return len(pw) < MinPasswordLength
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPasswordHash(hash, pw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
}
