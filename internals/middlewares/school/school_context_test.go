package school

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolku_backend/internals/constants"
	helper "schoolku_backend/internals/helpers"
)

type fakeResolver struct {
	stored  map[uuid.UUID]uuid.UUID
	schools map[uuid.UUID]string
	members map[[2]uuid.UUID]string
}

func (f *fakeResolver) StoredActiveSchool(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	return f.stored[userID], nil
}

func (f *fakeResolver) Lookup(_ context.Context, schoolID, userID uuid.UUID) (*Scope, error) {
	tz, ok := f.schools[schoolID]
	if !ok {
		return nil, nil
	}
	return &Scope{SchoolID: schoolID, Timezone: tz, Role: f.members[[2]uuid.UUID{schoolID, userID}]}, nil
}

func newTestApp(r Resolver, userID uuid.UUID) *fiber.App {
	app := fiber.New()
	withUser := func(c *fiber.Ctx) error {
		c.Locals(helper.LocUserID, userID.String())
		return c.Next()
	}
	echo := func(c *fiber.Ctx) error {
		id, err := helper.GetSchoolID(c)
		if err != nil {
			return err
		}
		return c.SendString(id.String() + "|" + helper.GetSchoolRole(c))
	}
	app.Get("/a/:school_id/x", withUser, SchoolContext(r), echo)
	app.Get("/x", withUser, SchoolContext(r), echo)
	app.Delete("/a/:school_id/x", withUser, SchoolContext(r), RequireSchoolRole("admins only", constants.RoleAdmin), echo)
	return app
}

func TestSchoolContext(t *testing.T) {
	user := uuid.New()
	mine := uuid.New()
	other := uuid.New()
	teaching := uuid.New()

	r := &fakeResolver{
		stored:  map[uuid.UUID]uuid.UUID{user: mine},
		schools: map[uuid.UUID]string{mine: "Africa/Kampala", other: "", teaching: ""},
		members: map[[2]uuid.UUID]string{
			{mine, user}:     constants.RoleAdmin,
			{teaching, user}: constants.RoleTeacher,
		},
	}
	app := newTestApp(r, user)

	tests := []struct {
		name     string
		method   string
		path     string
		header   string
		cookie   string
		wantCode int
		wantBody string
	}{
		{"path param member", "GET", "/a/" + mine.String() + "/x", "", "", 200, mine.String() + "|admin"},
		{"path param not member", "GET", "/a/" + other.String() + "/x", "", "", 403, ""},
		{"unknown school", "GET", "/a/" + uuid.New().String() + "/x", "", "", 404, ""},
		{"bad uuid", "GET", "/a/nope/x", "", "", 400, ""},
		{"header", "GET", "/x", teaching.String(), "", 200, teaching.String() + "|teacher"},
		{"cookie", "GET", "/x", "", mine.String(), 200, mine.String() + "|admin"},
		{"stored preference", "GET", "/x", "", "", 200, mine.String() + "|admin"},
		{"path wins over header", "GET", "/a/" + mine.String() + "/x", other.String(), "", 200, mine.String() + "|admin"},
		{"teacher blocked from admin route", "DELETE", "/a/" + teaching.String() + "/x", "", "", 403, ""},
		{"admin allowed on admin route", "DELETE", "/a/" + mine.String() + "/x", "", "", 200, mine.String() + "|admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(HeaderActiveSchool, tt.header)
			}
			if tt.cookie != "" {
				req.Header.Set("Cookie", ActiveSchoolCookie+"="+tt.cookie)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantBody != "" {
				b, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.wantBody, string(b))
			}
		})
	}
}

func TestSchoolContext_NoSchoolSelected(t *testing.T) {
	user := uuid.New()
	app := newTestApp(&fakeResolver{}, user)

	resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSchoolContext_Unauthenticated(t *testing.T) {
	app := fiber.New()
	app.Get("/x", SchoolContext(&fakeResolver{}), func(c *fiber.Ctx) error { return c.SendStatus(200) })

	resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
