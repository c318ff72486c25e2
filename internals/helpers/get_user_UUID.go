package helper

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Locals keys shared by middlewares and controllers.
const (
	LocUserID     = "user_id"
	LocUserName   = "user_name"
	LocUserEmail  = "user_email"
	LocSchoolID   = "school_id"
	LocSchoolRole = "school_role"
	LocSchoolLoc  = "school_loc"
)

var ErrNoUser = errors.New("no authenticated user")

// GetUserUUID returns the authenticated user id stored by the auth middleware.
func GetUserUUID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals(LocUserID).(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return uuid.Nil, ErrNoUser
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrNoUser
	}
	return id, nil
}

func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Params(name)))
}

// ParseUUIDList accepts repeated and comma separated values (?class_id=a,b&class_id=c).
func ParseUUIDList(values []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range SplitCSV(values) {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// SplitCSV flattens repeated query values and drops blanks.
func SplitCSV(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// IsUniqueViolation: Postgres SQLSTATE 23505, with a text fallback for wrapped drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "violates unique constraint") ||
		strings.Contains(s, "sqlstate 23505")
}

// TrimPtr returns nil for blank strings.
func TrimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func StrPtr(s string) *string {
	return TrimPtr(&s)
}

var ErrNoSchool = errors.New("no active school")

// GetSchoolID returns the school resolved by the school context middleware.
func GetSchoolID(c *fiber.Ctx) (uuid.UUID, error) {
	if id, ok := c.Locals(LocSchoolID).(uuid.UUID); ok && id != uuid.Nil {
		return id, nil
	}
	return uuid.Nil, ErrNoSchool
}

func GetSchoolRole(c *fiber.Ctx) string {
	r, _ := c.Locals(LocSchoolRole).(string)
	return r
}

// QueryValues returns every value of a repeated query key (?k=a&k=b).
func QueryValues(c *fiber.Ctx, key string) []string {
	raw := c.Context().QueryArgs().PeekMulti(key)
	out := make([]string, 0, len(raw))
	for _, b := range raw {
		out = append(out, string(b))
	}
	return out
}
