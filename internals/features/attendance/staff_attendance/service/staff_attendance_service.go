package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"schoolku_backend/internals/configs"
	"schoolku_backend/internals/features/attendance/live"
	"schoolku_backend/internals/features/attendance/staff_attendance/model"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
)

var (
	ErrStaffNotFound   = helper.NewCodedError(fiber.StatusNotFound, "STAFF_NOT_FOUND", "Staff member not found")
	ErrPINFormat       = helper.NewCodedError(fiber.StatusBadRequest, "INVALID_PIN_FORMAT", "PIN must be a 4-digit number")
	ErrPINTaken        = helper.NewCodedError(fiber.StatusConflict, "PIN_TAKEN", "This PIN is already used by another employee")
	ErrNoWorkDays      = helper.NewCodedError(fiber.StatusBadRequest, "NO_WORK_DAYS", "Part-time employees must have at least one work day selected")
	ErrWorkDayName     = helper.NewCodedError(fiber.StatusBadRequest, "INVALID_WORK_DAYS", "Days must be weekday names such as Monday")
	ErrEmployeeType    = helper.NewCodedError(fiber.StatusBadRequest, "INVALID_TYPE", "Employee type must be full-time or part-time")
	ErrPINExhausted    = helper.NewCodedError(fiber.StatusConflict, "PIN_UNAVAILABLE", "Could not generate a free PIN. Please try again.")
	ErrSettingsMissing = helper.NewCodedError(fiber.StatusNotFound, "SETTINGS_NOT_FOUND", "Attendance settings not configured for this employee")
)

func errClock(field string) error {
	return helper.NewCodedError(fiber.StatusBadRequest, "INVALID_TIME", field+" must be a time in HH:MM format")
}

// Publisher is the live feed; nil disables pushes.
type Publisher interface {
	Publish(ev live.Event) (int, int)
}

type Service struct {
	Store  Store
	Live   Publisher
	Now    func() time.Time
	Pepper []byte
	// NewPIN draws a candidate PIN.
	NewPIN func() (string, error)
}

func New(store Store, pub Publisher) *Service {
	return &Service{
		Store:  store,
		Live:   pub,
		Now:    time.Now,
		Pepper: []byte(configs.PinPepper),
		NewPIN: RandomPIN,
	}
}

// RandomPIN is a uniform 4-digit PIN, leading zeros allowed.
func RandomPIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// Digest keys the PIN with the school so equal PINs in two schools differ.
func (s *Service) Digest(schoolID uuid.UUID, pin string) string {
	mac := hmac.New(sha256.New, s.Pepper)
	mac.Write([]byte(schoolID.String()))
	mac.Write([]byte{':'})
	mac.Write([]byte(pin))
	return hex.EncodeToString(mac.Sum(nil))
}

// NormalizeDays returns canonical weekday names ordered Monday first, deduped.
func NormalizeDays(in []string) ([]string, bool) {
	seen := map[time.Weekday]bool{}
	for _, raw := range in {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		d, ok := dbtime.ParseWeekday(raw)
		if !ok {
			return nil, false
		}
		seen[d] = true
	}
	out := make([]string, 0, len(seen))
	for i := 1; i <= 7; i++ {
		d := time.Weekday(i % 7)
		if seen[d] {
			out = append(out, d.String())
		}
	}
	return out, true
}

func isOffDay(offDays []string, d time.Weekday) bool {
	for _, o := range offDays {
		if wd, ok := dbtime.ParseWeekday(o); ok && wd == d {
			return true
		}
	}
	return false
}

/* =========================================================
   GENERAL SETTINGS
   ========================================================= */

func defaultSettings(schoolID uuid.UUID) *model.AttendanceSettingsModel {
	return &model.AttendanceSettingsModel{
		AttendanceSettingsSchoolID: schoolID,
		AttendanceSettingsLateTime: dbtime.MustParse(model.DefaultLateTime),
		AttendanceSettingsOffDays:  pq.StringArray{},
	}
}

// GeneralSettings never returns nil; unsaved schools get the defaults.
func (s *Service) GeneralSettings(ctx context.Context, schoolID uuid.UUID) (*model.AttendanceSettingsModel, error) {
	m, err := s.Store.Settings(ctx, schoolID)
	if err != nil {
		return nil, errors.Wrap(err, "load attendance settings")
	}
	if m == nil {
		return defaultSettings(schoolID), nil
	}
	return m, nil
}

type GeneralInput struct {
	LateTime *string  `json:"late_time"`
	OffDays  []string `json:"off_days"`
}

func (s *Service) UpdateGeneralSettings(ctx context.Context, schoolID uuid.UUID, in GeneralInput) (*model.AttendanceSettingsModel, error) {
	m, err := s.GeneralSettings(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if in.LateTime != nil {
		t, err := dbtime.Parse(*in.LateTime)
		if err != nil || !helper.IsClock(strings.TrimSpace(*in.LateTime)) {
			return nil, errClock("Late time")
		}
		m.AttendanceSettingsLateTime = t
	}
	if in.OffDays != nil {
		days, ok := NormalizeDays(in.OffDays)
		if !ok {
			return nil, ErrWorkDayName
		}
		m.AttendanceSettingsOffDays = days
	}
	m.AttendanceSettingsUpdatedAt = s.Now()
	if err := s.Store.SaveSettings(ctx, m); err != nil {
		return nil, errors.Wrap(err, "save attendance settings")
	}
	return m, nil
}

/* =========================================================
   EMPLOYEE SETTINGS
   ========================================================= */

// EmployeeView is one staff member with effective kiosk settings.
// Configured is false while the defaults have never been saved.
type EmployeeView struct {
	StaffID     uuid.UUID          `json:"staff_id"`
	StaffName   string             `json:"staff_name"`
	Position    string             `json:"staff_position"`
	Configured  bool               `json:"configured"`
	Type        model.EmployeeType `json:"type"`
	LateTime    dbtime.Tod         `json:"late_time"`
	SignInTime  dbtime.Tod         `json:"sign_in_time"`
	SignOutTime dbtime.Tod         `json:"sign_out_time"`
	WorkDays    []string           `json:"work_days"`
}

func defaultEmployee(schoolID, staffID uuid.UUID, general *model.AttendanceSettingsModel) *model.EmployeeSettingsModel {
	return &model.EmployeeSettingsModel{
		EmployeeSettingsSchoolID:    schoolID,
		EmployeeSettingsStaffID:     staffID,
		EmployeeSettingsType:        model.FullTime,
		EmployeeSettingsLateTime:    general.AttendanceSettingsLateTime,
		EmployeeSettingsSignInTime:  dbtime.MustParse(model.DefaultSignInTime),
		EmployeeSettingsSignOutTime: dbtime.MustParse(model.DefaultSignOutTime),
		EmployeeSettingsWorkDays:    append(pq.StringArray{}, model.DefaultWorkDays...),
	}
}

func view(name, position string, e *model.EmployeeSettingsModel, configured bool) EmployeeView {
	return EmployeeView{
		StaffID:     e.EmployeeSettingsStaffID,
		StaffName:   name,
		Position:    position,
		Configured:  configured,
		Type:        e.EmployeeSettingsType,
		LateTime:    e.EmployeeSettingsLateTime,
		SignInTime:  e.EmployeeSettingsSignInTime,
		SignOutTime: e.EmployeeSettingsSignOutTime,
		WorkDays:    append([]string{}, e.EmployeeSettingsWorkDays...),
	}
}

// ListEmployeeSettings returns every staff member of the school, in name order.
func (s *Service) ListEmployeeSettings(ctx context.Context, schoolID uuid.UUID) ([]EmployeeView, error) {
	staff, err := s.Store.Staff(ctx, schoolID)
	if err != nil {
		return nil, errors.Wrap(err, "load staff")
	}
	saved, err := s.Store.Employees(ctx, schoolID)
	if err != nil {
		return nil, errors.Wrap(err, "load employee settings")
	}
	general, err := s.GeneralSettings(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	byStaff := make(map[uuid.UUID]*model.EmployeeSettingsModel, len(saved))
	for i := range saved {
		byStaff[saved[i].EmployeeSettingsStaffID] = &saved[i]
	}
	out := make([]EmployeeView, 0, len(staff))
	for _, st := range staff {
		if e, ok := byStaff[st.StaffID]; ok {
			out = append(out, view(st.StaffName, st.StaffPosition, e, true))
			continue
		}
		out = append(out, view(st.StaffName, st.StaffPosition, defaultEmployee(schoolID, st.StaffID, general), false))
	}
	return out, nil
}

type EmployeeInput struct {
	Type        *string  `json:"type"`
	LateTime    *string  `json:"late_time"`
	SignInTime  *string  `json:"sign_in_time"`
	SignOutTime *string  `json:"sign_out_time"`
	WorkDays    []string `json:"work_days"`
	PIN         *string  `json:"pin"`
}

func applyClock(dst *dbtime.Tod, v *string, field string) error {
	if v == nil {
		return nil
	}
	raw := strings.TrimSpace(*v)
	t, err := dbtime.Parse(raw)
	if err != nil || !helper.IsClock(raw) {
		return errClock(field)
	}
	*dst = t
	return nil
}

// UpsertResult carries the plain PIN only when it changed in this call.
type UpsertResult struct {
	Employee EmployeeView `json:"employee"`
	PIN      string       `json:"pin,omitempty"`
}

// UpsertEmployeeSettings creates the settings on first save, drawing a random
// PIN unless one is given. Later saves keep fields that are not sent.
func (s *Service) UpsertEmployeeSettings(ctx context.Context, schoolID, staffID uuid.UUID, in EmployeeInput) (*UpsertResult, error) {
	staff, err := s.Store.FindStaff(ctx, schoolID, staffID)
	if err != nil {
		return nil, errors.Wrap(err, "load staff")
	}
	if staff == nil {
		return nil, ErrStaffNotFound
	}
	e, err := s.Store.EmployeeByStaff(ctx, schoolID, staffID)
	if err != nil {
		return nil, errors.Wrap(err, "load employee settings")
	}
	isNew := e == nil
	if isNew {
		general, err := s.GeneralSettings(ctx, schoolID)
		if err != nil {
			return nil, err
		}
		e = defaultEmployee(schoolID, staffID, general)
	}

	if in.Type != nil {
		t, err := model.ParseEmployeeType(*in.Type)
		if err != nil {
			return nil, ErrEmployeeType
		}
		e.EmployeeSettingsType = t
	}
	if err := applyClock(&e.EmployeeSettingsLateTime, in.LateTime, "Late time"); err != nil {
		return nil, err
	}
	if err := applyClock(&e.EmployeeSettingsSignInTime, in.SignInTime, "Sign-in time"); err != nil {
		return nil, err
	}
	if err := applyClock(&e.EmployeeSettingsSignOutTime, in.SignOutTime, "Sign-out time"); err != nil {
		return nil, err
	}
	if in.WorkDays != nil {
		days, ok := NormalizeDays(in.WorkDays)
		if !ok {
			return nil, ErrWorkDayName
		}
		e.EmployeeSettingsWorkDays = days
	}
	if e.EmployeeSettingsType == model.PartTime && len(e.EmployeeSettingsWorkDays) == 0 {
		return nil, ErrNoWorkDays
	}

	var pin string
	if in.PIN != nil && strings.TrimSpace(*in.PIN) != "" {
		pin = strings.TrimSpace(*in.PIN)
		if !helper.IsPIN(pin) {
			return nil, ErrPINFormat
		}
	}
	e.EmployeeSettingsUpdatedAt = s.Now()

	switch {
	case pin != "":
		e.EmployeeSettingsPinDigest = s.Digest(schoolID, pin)
		if err := s.Store.SaveEmployee(ctx, e); err != nil {
			if errors.Is(err, ErrDuplicatePIN) {
				return nil, ErrPINTaken
			}
			return nil, errors.Wrap(err, "save employee settings")
		}
	case isNew:
		if pin, err = s.saveWithFreshPIN(ctx, e); err != nil {
			return nil, err
		}
	default:
		if err := s.Store.SaveEmployee(ctx, e); err != nil {
			return nil, errors.Wrap(err, "save employee settings")
		}
	}
	return &UpsertResult{Employee: view(staff.StaffName, staff.StaffPosition, e, true), PIN: pin}, nil
}

const pinAttempts = 8

// saveWithFreshPIN retries on collisions; the unique index is the arbiter.
func (s *Service) saveWithFreshPIN(ctx context.Context, e *model.EmployeeSettingsModel) (string, error) {
	for i := 0; i < pinAttempts; i++ {
		pin, err := s.NewPIN()
		if err != nil {
			return "", errors.Wrap(err, "generate pin")
		}
		e.EmployeeSettingsPinDigest = s.Digest(e.EmployeeSettingsSchoolID, pin)
		err = s.Store.SaveEmployee(ctx, e)
		if err == nil {
			return pin, nil
		}
		if !errors.Is(err, ErrDuplicatePIN) {
			return "", errors.Wrap(err, "save employee settings")
		}
	}
	return "", ErrPINExhausted
}

// RegeneratePIN replaces the employee's PIN. The plain value is only
// returned here.
func (s *Service) RegeneratePIN(ctx context.Context, schoolID, staffID uuid.UUID) (string, error) {
	e, err := s.Store.EmployeeByStaff(ctx, schoolID, staffID)
	if err != nil {
		return "", errors.Wrap(err, "load employee settings")
	}
	if e == nil {
		res, err := s.UpsertEmployeeSettings(ctx, schoolID, staffID, EmployeeInput{})
		if err != nil {
			return "", err
		}
		return res.PIN, nil
	}
	e.EmployeeSettingsUpdatedAt = s.Now()
	return s.saveWithFreshPIN(ctx, e)
}
