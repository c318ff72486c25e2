package service

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	authHelper "schoolku_backend/internals/features/users/auth/helper"
	helper "schoolku_backend/internals/helpers"
)

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, in ChangePasswordInput) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return authError(CodeMissingFields)
	}
	if authHelper.IsWeakPassword(in.NewPassword) {
		return authError(CodeWeakPassword)
	}
	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		return helper.NewCodedError(fiber.StatusUnauthorized, "UNAUTHORIZED", "User not found")
	}
	if err := authHelper.CheckPasswordHash(user.Password, in.CurrentPassword); err != nil {
		return authError(CodeWrongPassword)
	}
	hash, err := authHelper.HashPassword(in.NewPassword)
	if err != nil {
		return helper.NewCodedError(fiber.StatusInternalServerError, "", "Failed to hash new password")
	}
	if err := s.Repo.UpdateUserPassword(ctx, userID, hash); err != nil {
		return helper.NewCodedError(fiber.StatusInternalServerError, "", "Failed to update password")
	}
	return nil
}
