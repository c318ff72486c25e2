package service

import (
	"github.com/gofiber/fiber/v2"

	helper "schoolku_backend/internals/helpers"
)

// Auth error codes. Messages are what the sign-in and sign-up screens show.
const (
	CodeMissingFields = "MISSING_FIELDS"
	CodeInvalidEmail  = "INVALID_EMAIL"
	CodeWeakPassword  = "WEAK_PASSWORD"
	CodeEmailInUse    = "EMAIL_ALREADY_IN_USE"
	CodeUserDisabled  = "USER_DISABLED"
	CodeUserNotFound  = "USER_NOT_FOUND"
	CodeWrongPassword = "WRONG_PASSWORD"
	CodeSignInFailed  = "SIGN_IN_FAILED"
	CodeSignUpFailed  = "SIGN_UP_FAILED"
	CodeInvalidToken  = "INVALID_TOKEN"
)

var messages = map[string]string{
	CodeMissingFields: "Please fill in all fields",
	CodeInvalidEmail:  "The email address is not valid.",
	CodeWeakPassword:  "The password is too weak.",
	CodeEmailInUse:    "This email address is already in use.",
	CodeUserDisabled:  "This user account has been disabled.",
	CodeUserNotFound:  "No user found with this email address.",
	CodeWrongPassword: "Incorrect password. Please try again.",
	CodeSignInFailed:  "Unable to sign in. Please try again.",
	CodeSignUpFailed:  "Unable to create account. Please try again.",
	CodeInvalidToken:  "Your session has expired. Please sign in again.",
}

var statuses = map[string]int{
	CodeMissingFields: fiber.StatusBadRequest,
	CodeInvalidEmail:  fiber.StatusBadRequest,
	CodeWeakPassword:  fiber.StatusBadRequest,
	CodeEmailInUse:    fiber.StatusConflict,
	CodeUserDisabled:  fiber.StatusForbidden,
	CodeUserNotFound:  fiber.StatusNotFound,
	CodeWrongPassword: fiber.StatusUnauthorized,
	CodeSignInFailed:  fiber.StatusInternalServerError,
	CodeSignUpFailed:  fiber.StatusInternalServerError,
	CodeInvalidToken:  fiber.StatusUnauthorized,
}

// MessageFor maps an auth error code to its user facing text. Unknown codes
// get the sign-in fallback.
func MessageFor(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return messages[CodeSignInFailed]
}

func authError(code string) *helper.CodedError {
	status, ok := statuses[code]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	return helper.NewCodedError(status, code, MessageFor(code))
}
