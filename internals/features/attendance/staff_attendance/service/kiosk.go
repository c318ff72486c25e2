package service

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"schoolku_backend/internals/features/attendance/live"
	"schoolku_backend/internals/features/attendance/staff_attendance/model"
	staffModel "schoolku_backend/internals/features/hr/staff/model"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
	"schoolku_backend/internals/helpers/metrics"
)

var (
	ErrInvalidPIN   = helper.NewCodedError(fiber.StatusNotFound, "INVALID_PIN", "Invalid PIN")
	ErrNotScheduled = helper.NewCodedError(fiber.StatusUnprocessableEntity, "NOT_SCHEDULED", "You are not scheduled to work today")
	ErrNotSignedIn  = helper.NewCodedError(fiber.StatusConflict, "NOT_SIGNED_IN", "You have not signed in today")
)

const (
	CodeAlreadySignedIn  = "ALREADY_SIGNED_IN"
	CodeAlreadySignedOut = "ALREADY_SIGNED_OUT"
)

func errAlreadySignedIn(name string) error {
	return helper.NewCodedError(fiber.StatusConflict, CodeAlreadySignedIn, name+", you've already signed in today")
}

func errAlreadySignedOut(name string) error {
	return helper.NewCodedError(fiber.StatusConflict, CodeAlreadySignedOut, name+", you've already signed out today")
}

// KioskScope is the school a kiosk is bound to and its clock.
type KioskScope struct {
	SchoolID uuid.UUID
	Loc      *time.Location
}

func (sc KioskScope) now(clock func() time.Time) time.Time {
	loc := sc.Loc
	if loc == nil {
		loc = time.UTC
	}
	return clock().In(loc)
}

// resolvePIN never tells apart a malformed PIN, an unknown PIN and a
// removed staff member.
func (s *Service) resolvePIN(ctx context.Context, schoolID uuid.UUID, pin string) (*model.EmployeeSettingsModel, *staffModel.StaffModel, error) {
	if !helper.IsPIN(pin) {
		return nil, nil, ErrInvalidPIN
	}
	e, err := s.Store.EmployeeByPIN(ctx, schoolID, s.Digest(schoolID, pin))
	if err != nil {
		return nil, nil, errors.Wrap(err, "lookup pin")
	}
	if e == nil {
		return nil, nil, ErrInvalidPIN
	}
	st, err := s.Store.FindStaff(ctx, schoolID, e.EmployeeSettingsStaffID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load staff")
	}
	if st == nil {
		return nil, nil, ErrInvalidPIN
	}
	return e, st, nil
}

// StatusAt is Late only when the wall clock hour:minute is strictly after
// the employee's late time.
func StatusAt(now time.Time, lateTime dbtime.Tod) model.StaffStatus {
	if dbtime.From(now).After(lateTime) {
		return model.StaffLate
	}
	return model.StaffPresent
}

// SignIn records today's check-in once per employee, however many kiosks
// submit the same PIN at once.
func (s *Service) SignIn(ctx context.Context, sc KioskScope, pin string) (*model.StaffAttendanceModel, error) {
	e, st, err := s.resolvePIN(ctx, sc.SchoolID, pin)
	if err != nil {
		return nil, err
	}
	now := sc.now(s.Now)
	general, err := s.GeneralSettings(ctx, sc.SchoolID)
	if err != nil {
		return nil, err
	}
	if isOffDay(general.AttendanceSettingsOffDays, now.Weekday()) || !e.WorksOn(now.Weekday()) {
		return nil, ErrNotScheduled
	}

	rec := &model.StaffAttendanceModel{
		StaffAttendanceSchoolID:  sc.SchoolID,
		StaffAttendanceStaffID:   st.StaffID,
		StaffAttendanceDate:      dbtime.CivilDate(now),
		StaffAttendanceStaffName: st.StaffName,
		StaffAttendanceCheckInAt: now,
		StaffAttendanceStatus:    StatusAt(now, e.EmployeeSettingsLateTime),
		StaffAttendanceType:      e.EmployeeSettingsType,
	}
	inserted, err := s.Store.InsertIfAbsent(ctx, rec)
	if err != nil {
		return nil, errors.Wrap(err, "insert staff attendance")
	}
	if !inserted {
		metrics.AttendanceConflicts.WithLabelValues("staff").Inc()
		return nil, errAlreadySignedIn(st.StaffName)
	}
	metrics.StaffSignIns.WithLabelValues(string(rec.StaffAttendanceStatus)).Inc()
	log.Printf("[KIOSK] sign-in school=%s staff=%s status=%s", sc.SchoolID, st.StaffID, rec.StaffAttendanceStatus)
	s.publish(live.EventSignIn, rec)
	return rec, nil
}

// SignOut stamps check_out_at on today's record the first time only.
func (s *Service) SignOut(ctx context.Context, sc KioskScope, pin string) (*model.StaffAttendanceModel, error) {
	_, st, err := s.resolvePIN(ctx, sc.SchoolID, pin)
	if err != nil {
		return nil, err
	}
	now := sc.now(s.Now)
	day := dbtime.CivilDate(now)
	updated, err := s.Store.SignOut(ctx, sc.SchoolID, st.StaffID, day, now)
	if err != nil {
		return nil, errors.Wrap(err, "sign out")
	}
	rec, err := s.Store.Record(ctx, sc.SchoolID, st.StaffID, day)
	if err != nil {
		return nil, errors.Wrap(err, "load staff attendance")
	}
	if rec == nil {
		return nil, ErrNotSignedIn
	}
	if !updated {
		return nil, errAlreadySignedOut(st.StaffName)
	}
	s.publish(live.EventSignOut, rec)
	return rec, nil
}

func (s *Service) publish(kind string, rec *model.StaffAttendanceModel) {
	if s.Live == nil {
		return
	}
	s.Live.Publish(live.Event{
		Type:     kind,
		SchoolID: rec.StaffAttendanceSchoolID,
		Date:     rec.StaffAttendanceDate.Format("2006-01-02"),
		Records:  []model.StaffAttendanceModel{*rec},
	})
}
