package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolku_backend/internals/features/attendance/staff_attendance/model"
	"schoolku_backend/internals/features/attendance/staff_attendance/service"
	staffModel "schoolku_backend/internals/features/hr/staff/model"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
)

// kioskStore backs only the calls the kiosk sign-in path makes.
type kioskStore struct {
	service.Store

	mu       sync.Mutex
	employee *model.EmployeeSettingsModel
	digest   string
	staff    *staffModel.StaffModel
	signed   map[uuid.UUID]bool
}

func (s *kioskStore) Settings(context.Context, uuid.UUID) (*model.AttendanceSettingsModel, error) {
	return nil, nil
}

func (s *kioskStore) EmployeeByPIN(_ context.Context, _ uuid.UUID, digest string) (*model.EmployeeSettingsModel, error) {
	if digest != s.digest {
		return nil, nil
	}
	return s.employee, nil
}

func (s *kioskStore) FindStaff(_ context.Context, _ uuid.UUID, id uuid.UUID) (*staffModel.StaffModel, error) {
	if s.staff == nil || s.staff.StaffID != id {
		return nil, nil
	}
	return s.staff, nil
}

func (s *kioskStore) InsertIfAbsent(_ context.Context, rec *model.StaffAttendanceModel) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signed[rec.StaffAttendanceStaffID] {
		return false, nil
	}
	s.signed[rec.StaffAttendanceStaffID] = true
	return true, nil
}

func newKioskApp(t *testing.T) (*fiber.App, uuid.UUID) {
	t.Helper()
	schoolID := uuid.New()
	staff := &staffModel.StaffModel{StaffID: uuid.New(), StaffSchoolID: schoolID, StaffName: "Grace"}
	eat := time.FixedZone("EAT", 3*60*60)

	svc := &service.Service{
		Now:    func() time.Time { return time.Date(2026, 10, 14, 8, 30, 0, 0, eat) },
		Pepper: []byte("test-pepper"),
	}
	store := &kioskStore{
		staff:  staff,
		signed: map[uuid.UUID]bool{},
		employee: &model.EmployeeSettingsModel{
			EmployeeSettingsSchoolID: schoolID,
			EmployeeSettingsStaffID:  staff.StaffID,
			EmployeeSettingsType:     model.FullTime,
			EmployeeSettingsLateTime: dbtime.MustParse("09:00"),
		},
	}
	store.digest = svc.Digest(schoolID, "4321")
	svc.Store = store

	ctl := &StaffAttendanceController{Svc: svc}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-No-School") == "" {
			c.Locals(helper.LocSchoolID, schoolID)
		}
		c.Locals(dbtime.LocSchoolLoc, eat)
		return c.Next()
	})
	app.Post("/sign-in", ctl.KioskSignIn)
	app.Get("/kiosk-qr.png", ctl.KioskQR)
	return app, schoolID
}

func TestKioskSignIn(t *testing.T) {
	app, _ := newKioskApp(t)

	tests := []struct {
		name     string
		body     string
		noSchool bool
		wantCode int
		wantErr  string
		wantMsg  string
	}{
		{name: "no school", body: `{"pin":"4321"}`, noSchool: true, wantCode: 400},
		{name: "bad body", body: `{`, wantCode: 400},
		{name: "malformed pin", body: `{"pin":"12"}`, wantCode: 404, wantErr: "INVALID_PIN", wantMsg: "Invalid PIN"},
		{name: "unknown pin", body: `{"pin":"0000"}`, wantCode: 404, wantErr: "INVALID_PIN", wantMsg: "Invalid PIN"},
		{name: "first sign in", body: `{"pin":" 4321 "}`, wantCode: 201, wantMsg: "Welcome, Grace! Signed in successfully at 08:30"},
		{name: "second sign in", body: `{"pin":"4321"}`, wantCode: 409, wantErr: "ALREADY_SIGNED_IN", wantMsg: "Grace, you've already signed in today"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/sign-in", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.noSchool {
				req.Header.Set("X-No-School", "1")
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			raw, _ := io.ReadAll(resp.Body)
			var body map[string]any
			require.NoError(t, json.Unmarshal(raw, &body), string(raw))
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, body["error_code"])
			}
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body["message"])
			}
		})
	}
}

func TestKioskQR(t *testing.T) {
	app, _ := newKioskApp(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/kiosk-qr.png?size=256", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	raw, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(raw), "\x89PNG"))
}

func TestKioskURL(t *testing.T) {
	id := uuid.MustParse("6f1d8a5e-2b7c-4c1e-9a51-3d2f0e4b7c10")
	assert.True(t, strings.HasSuffix(KioskURL(id), "/kiosk/"+id.String()))
}
