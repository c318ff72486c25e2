package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schoolku_backend/internals/features/attendance/staff_attendance/model"
	staffModel "schoolku_backend/internals/features/hr/staff/model"
	helper "schoolku_backend/internals/helpers"
)

// ErrDuplicatePIN is returned by SaveEmployee when another employee of the
// same school already holds the PIN.
var ErrDuplicatePIN = errors.New("pin already assigned in school")

type Store interface {
	// Settings returns nil when the school never saved its settings.
	Settings(ctx context.Context, schoolID uuid.UUID) (*model.AttendanceSettingsModel, error)
	SaveSettings(ctx context.Context, s *model.AttendanceSettingsModel) error

	Staff(ctx context.Context, schoolID uuid.UUID) ([]staffModel.StaffModel, error)
	// FindStaff returns nil when the staff member does not exist in the school.
	FindStaff(ctx context.Context, schoolID, staffID uuid.UUID) (*staffModel.StaffModel, error)

	Employees(ctx context.Context, schoolID uuid.UUID) ([]model.EmployeeSettingsModel, error)
	EmployeeByStaff(ctx context.Context, schoolID, staffID uuid.UUID) (*model.EmployeeSettingsModel, error)
	EmployeeByPIN(ctx context.Context, schoolID uuid.UUID, digest string) (*model.EmployeeSettingsModel, error)
	// SaveEmployee upserts on (school, staff).
	SaveEmployee(ctx context.Context, e *model.EmployeeSettingsModel) error

	// InsertIfAbsent relies on the (school, staff, date) unique index.
	InsertIfAbsent(ctx context.Context, rec *model.StaffAttendanceModel) (bool, error)
	// SignOut stamps check_out_at only when it is still empty.
	SignOut(ctx context.Context, schoolID, staffID uuid.UUID, date, at time.Time) (bool, error)
	Record(ctx context.Context, schoolID, staffID uuid.UUID, date time.Time) (*model.StaffAttendanceModel, error)
	// UpsertRecord is the admin correction path.
	UpsertRecord(ctx context.Context, rec *model.StaffAttendanceModel) error
	// Records is ordered by date desc. staffID nil means everyone.
	Records(ctx context.Context, schoolID uuid.UUID, staffID *uuid.UUID, from, to time.Time) ([]model.StaffAttendanceModel, error)
}

type GormStore struct{ DB *gorm.DB }

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{DB: db} }

var (
	settingsConflict = []clause.Column{{Name: "attendance_settings_school_id"}}
	employeeConflict = []clause.Column{{Name: "employee_settings_school_id"}, {Name: "employee_settings_staff_id"}}
	dayConflict      = []clause.Column{
		{Name: "staff_attendance_school_id"},
		{Name: "staff_attendance_staff_id"},
		{Name: "staff_attendance_date"},
	}
)

func takeOrNil[T any](err error, v *T) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *GormStore) Settings(ctx context.Context, schoolID uuid.UUID) (*model.AttendanceSettingsModel, error) {
	var m model.AttendanceSettingsModel
	err := s.DB.WithContext(ctx).Where("attendance_settings_school_id = ?", schoolID).Take(&m).Error
	return takeOrNil(err, &m)
}

func (s *GormStore) SaveSettings(ctx context.Context, m *model.AttendanceSettingsModel) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: settingsConflict,
		DoUpdates: clause.AssignmentColumns([]string{
			"attendance_settings_late_time",
			"attendance_settings_off_days",
			"attendance_settings_updated_at",
		}),
	}).Create(m).Error
}

func (s *GormStore) Staff(ctx context.Context, schoolID uuid.UUID) ([]staffModel.StaffModel, error) {
	var out []staffModel.StaffModel
	err := s.DB.WithContext(ctx).Where("staff_school_id = ?", schoolID).Order("staff_name ASC").Find(&out).Error
	return out, err
}

func (s *GormStore) FindStaff(ctx context.Context, schoolID, staffID uuid.UUID) (*staffModel.StaffModel, error) {
	var m staffModel.StaffModel
	err := s.DB.WithContext(ctx).Where("staff_id = ? AND staff_school_id = ?", staffID, schoolID).Take(&m).Error
	return takeOrNil(err, &m)
}

func (s *GormStore) Employees(ctx context.Context, schoolID uuid.UUID) ([]model.EmployeeSettingsModel, error) {
	var out []model.EmployeeSettingsModel
	err := s.DB.WithContext(ctx).Where("employee_settings_school_id = ?", schoolID).Find(&out).Error
	return out, err
}

func (s *GormStore) EmployeeByStaff(ctx context.Context, schoolID, staffID uuid.UUID) (*model.EmployeeSettingsModel, error) {
	var m model.EmployeeSettingsModel
	err := s.DB.WithContext(ctx).
		Where("employee_settings_school_id = ? AND employee_settings_staff_id = ?", schoolID, staffID).
		Take(&m).Error
	return takeOrNil(err, &m)
}

func (s *GormStore) EmployeeByPIN(ctx context.Context, schoolID uuid.UUID, digest string) (*model.EmployeeSettingsModel, error) {
	var m model.EmployeeSettingsModel
	err := s.DB.WithContext(ctx).
		Where("employee_settings_school_id = ? AND employee_settings_pin_digest = ?", schoolID, digest).
		Take(&m).Error
	return takeOrNil(err, &m)
}

func (s *GormStore) SaveEmployee(ctx context.Context, e *model.EmployeeSettingsModel) error {
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: employeeConflict,
		DoUpdates: clause.AssignmentColumns([]string{
			"employee_settings_type",
			"employee_settings_late_time",
			"employee_settings_sign_in_time",
			"employee_settings_sign_out_time",
			"employee_settings_work_days",
			"employee_settings_pin_digest",
			"employee_settings_updated_at",
		}),
	}).Create(e).Error
	if helper.IsUniqueViolation(err) {
		return ErrDuplicatePIN
	}
	return err
}

func (s *GormStore) InsertIfAbsent(ctx context.Context, rec *model.StaffAttendanceModel) (bool, error) {
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   dayConflict,
		DoNothing: true,
	}).Create(rec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) SignOut(ctx context.Context, schoolID, staffID uuid.UUID, date, at time.Time) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&model.StaffAttendanceModel{}).
		Where("staff_attendance_school_id = ? AND staff_attendance_staff_id = ? AND staff_attendance_date = ? AND staff_attendance_check_out_at IS NULL",
			schoolID, staffID, date).
		Updates(map[string]any{
			"staff_attendance_check_out_at": at,
			"staff_attendance_updated_at":   at,
		})
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) Record(ctx context.Context, schoolID, staffID uuid.UUID, date time.Time) (*model.StaffAttendanceModel, error) {
	var m model.StaffAttendanceModel
	err := s.DB.WithContext(ctx).
		Where("staff_attendance_school_id = ? AND staff_attendance_staff_id = ? AND staff_attendance_date = ?", schoolID, staffID, date).
		Take(&m).Error
	return takeOrNil(err, &m)
}

func (s *GormStore) UpsertRecord(ctx context.Context, rec *model.StaffAttendanceModel) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: dayConflict,
		DoUpdates: clause.AssignmentColumns([]string{
			"staff_attendance_status",
			"staff_attendance_remarks",
			"staff_attendance_updated_at",
		}),
	}).Create(rec).Error
}

func (s *GormStore) Records(ctx context.Context, schoolID uuid.UUID, staffID *uuid.UUID, from, to time.Time) ([]model.StaffAttendanceModel, error) {
	q := s.DB.WithContext(ctx).
		Where("staff_attendance_school_id = ? AND staff_attendance_date BETWEEN ? AND ?", schoolID, from, to)
	if staffID != nil {
		q = q.Where("staff_attendance_staff_id = ?", *staffID)
	}
	var out []model.StaffAttendanceModel
	err := q.Order("staff_attendance_date DESC, staff_attendance_staff_name ASC").Find(&out).Error
	return out, err
}
