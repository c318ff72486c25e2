package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authRepo "schoolku_backend/internals/features/users/auth/repository"
	"schoolku_backend/internals/features/users/auth/service"
	helper "schoolku_backend/internals/helpers"
	schoolCtx "schoolku_backend/internals/middlewares/school"
)

type AuthController struct {
	Svc *service.AuthService
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{Svc: service.New(authRepo.New(db))}
}

func clientMeta(c *fiber.Ctx) service.ClientMeta {
	return service.ClientMeta{UserAgent: c.Get(fiber.HeaderUserAgent), IP: c.IP()}
}

// POST /api/auth/register
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var in service.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	sess, err := ac.Svc.Register(c.UserContext(), in, clientMeta(c))
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	setSessionCookies(c, sess)
	return helper.JsonCreated(c, "Account created successfully", sessionBody(sess))
}

// POST /api/auth/login
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var in service.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid input format")
	}
	sess, err := ac.Svc.Login(c.UserContext(), in, clientMeta(c))
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	setSessionCookies(c, sess)
	return helper.JsonOK(c, "Login successful", sessionBody(sess))
}

// POST /api/auth/login-google
func (ac *AuthController) LoginGoogle(c *fiber.Ctx) error {
	var in struct {
		IDToken string `json:"id_token"`
	}
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	sess, err := ac.Svc.LoginGoogle(c.UserContext(), in.IDToken, clientMeta(c))
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	setSessionCookies(c, sess)
	return helper.JsonOK(c, "Login successful", sessionBody(sess))
}

// POST /api/auth/logout clears everything the session left behind,
// including the active school preference cookie.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	ac.Svc.Logout(c.UserContext(), helper.GetRawAccessToken(c), helper.GetRefreshTokenFromCookie(c))

	expired := time.Now().Add(-time.Hour)
	for _, name := range []string{"access_token", "refresh_token"} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			HTTPOnly: true,
			Secure:   true,
			SameSite: "None",
			Path:     "/",
			Expires:  expired,
			MaxAge:   -1,
		})
	}
	schoolCtx.ClearActiveSchoolCookie(c)
	return helper.JsonOK(c, "Logout successful", nil)
}

// POST /api/auth/refresh-token
func (ac *AuthController) RefreshToken(c *fiber.Ctx) error {
	tok := helper.GetRefreshTokenFromCookie(c)
	if tok == "" {
		var in struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = c.BodyParser(&in)
		tok = in.RefreshToken
	}
	sess, err := ac.Svc.Refresh(c.UserContext(), tok, clientMeta(c))
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	setSessionCookies(c, sess)
	return helper.JsonOK(c, "Token refreshed", fiber.Map{
		"access_token":  sess.AccessToken,
		"refresh_token": sess.RefreshToken,
	})
}

// GET /api/auth/me
func (ac *AuthController) Me(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	sess, err := ac.Svc.Me(c.UserContext(), userID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to load session")
	}
	return helper.JsonOK(c, "ok", sessionBody(sess))
}

// POST /api/auth/change-password
func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	var in service.ChangePasswordInput
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid input format")
	}
	if err := ac.Svc.ChangePassword(c.UserContext(), userID, in); err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "Password changed successfully", nil)
}

func sessionBody(s *service.Session) fiber.Map {
	body := fiber.Map{
		"user": fiber.Map{
			"id":               s.User.ID,
			"user_name":        s.User.UserName,
			"email":            s.User.Email,
			"active_school_id": s.ActiveSchoolID,
			"created_at":       s.User.CreatedAt,
		},
		"schools":          s.Schools,
		"active_school_id": s.ActiveSchoolID,
	}
	if s.AccessToken != "" {
		body["access_token"] = s.AccessToken
		body["refresh_token"] = s.RefreshToken
	}
	return body
}

func setSessionCookies(c *fiber.Ctx, s *service.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    s.AccessToken,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
		Path:     "/",
		Expires:  s.AccessExpiresAt,
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    s.RefreshToken,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
		Path:     "/",
		Expires:  s.RefreshExpiresAt,
	})
	if s.ActiveSchoolID != nil {
		schoolCtx.SetActiveSchoolCookie(c, *s.ActiveSchoolID)
	}
}
