package school

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
)

const (
	HeaderActiveSchool = "X-Active-School-ID"
	ActiveSchoolCookie = "active_school_id"
)

// Scope is what a request knows about its school once resolved.
type Scope struct {
	SchoolID uuid.UUID
	Timezone string
	// Role is empty when the user is not a member.
	Role string
}

// Resolver is the storage the middleware needs. See GormResolver.
type Resolver interface {
	// StoredActiveSchool returns uuid.Nil when the user never selected one.
	StoredActiveSchool(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	// Lookup returns nil when the school does not exist.
	Lookup(ctx context.Context, schoolID, userID uuid.UUID) (*Scope, error)
}

// pickSchoolID: path param, header, cookie. The stored preference is the
// last resort and needs a DB round trip, so it is resolved by the caller.
func pickSchoolID(c *fiber.Ctx) (string, string) {
	if v := strings.TrimSpace(c.Params("school_id")); v != "" {
		return v, "path"
	}
	if v := strings.TrimSpace(c.Get(HeaderActiveSchool)); v != "" {
		return v, "header"
	}
	if v := strings.TrimSpace(c.Cookies(ActiveSchoolCookie)); v != "" {
		return v, "cookie"
	}
	return "", ""
}

// SchoolContext resolves the active school for the authenticated user and
// checks membership. It never caches between requests.
func SchoolContext(r Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := helper.GetUserUUID(c)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
		}
		ctx := c.UserContext()

		raw, source := pickSchoolID(c)
		var schoolID uuid.UUID
		if raw != "" {
			if schoolID, err = uuid.Parse(raw); err != nil {
				return helper.JsonError(c, fiber.StatusBadRequest, "Invalid school_id")
			}
		} else {
			if schoolID, err = r.StoredActiveSchool(ctx, userID); err != nil {
				log.Printf("[SCHOOL_CTX] stored active school lookup failed: %v", err)
				return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to resolve school")
			}
			source = "profile"
		}
		if schoolID == uuid.Nil {
			return helper.JsonErrorCode(c, fiber.StatusBadRequest, "NO_ACTIVE_SCHOOL", "No school selected. Create or select a school first.")
		}

		scope, err := r.Lookup(ctx, schoolID, userID)
		if err != nil {
			log.Printf("[SCHOOL_CTX] lookup school=%s failed: %v", schoolID, err)
			return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to resolve school")
		}
		if scope == nil {
			return helper.JsonError(c, fiber.StatusNotFound, "School not found")
		}
		if scope.Role == "" {
			log.Printf("[SCHOOL_CTX] forbidden user=%s school=%s source=%s", userID, schoolID, source)
			return helper.JsonError(c, fiber.StatusForbidden, "You are not a member of this school")
		}

		setLocals(c, scope)
		return c.Next()
	}
}

// KioskSchool resolves the school from the path only; kiosks are unauthenticated.
func KioskSchool(r Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		schoolID, err := helper.ParseUUIDParam(c, "school_id")
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid school_id")
		}
		scope, err := r.Lookup(c.UserContext(), schoolID, uuid.Nil)
		if err != nil {
			return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to resolve school")
		}
		if scope == nil {
			return helper.JsonError(c, fiber.StatusNotFound, "School not found")
		}
		setLocals(c, scope)
		return c.Next()
	}
}

func setLocals(c *fiber.Ctx, s *Scope) {
	c.Locals(helper.LocSchoolID, s.SchoolID)
	c.Locals(helper.LocSchoolRole, s.Role)
	c.Locals(dbtime.LocSchoolLoc, dbtime.LoadLocation(s.Timezone))
}

// RequireSchoolRole must run after SchoolContext.
func RequireSchoolRole(message string, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := helper.GetSchoolRole(c)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		if message == "" {
			message = "Forbidden: you are not authorized to access this resource"
		}
		return helper.JsonError(c, fiber.StatusForbidden, message)
	}
}

func SetActiveSchoolCookie(c *fiber.Ctx, id uuid.UUID) {
	c.Cookie(&fiber.Cookie{
		Name:     ActiveSchoolCookie,
		Value:    id.String(),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
		Path:     "/",
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}

func ClearActiveSchoolCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     ActiveSchoolCookie,
		Value:    "",
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
	})
}
