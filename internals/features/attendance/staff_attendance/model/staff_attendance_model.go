package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"schoolku_backend/internals/helpers/dbtime"
)

type StaffStatus string

const (
	StaffPresent StaffStatus = "present"
	StaffLate    StaffStatus = "late"
	StaffAbsent  StaffStatus = "absent"
)

// SignedInStatuses are the statuses that mean the employee turned up.
var SignedInStatuses = []StaffStatus{StaffPresent, StaffLate}

func (s StaffStatus) SignedIn() bool { return s == StaffPresent || s == StaffLate }

func ParseStaffStatus(s string) (StaffStatus, error) {
	switch StaffStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StaffPresent:
		return StaffPresent, nil
	case StaffLate:
		return StaffLate, nil
	case StaffAbsent:
		return StaffAbsent, nil
	}
	return "", fmt.Errorf("invalid staff attendance status %q", s)
}

type EmployeeType string

const (
	FullTime EmployeeType = "full-time"
	PartTime EmployeeType = "part-time"
)

// ParseEmployeeType: blank means full-time.
func ParseEmployeeType(s string) (EmployeeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full-time", "fulltime", "full_time":
		return FullTime, nil
	case "part-time", "parttime", "part_time":
		return PartTime, nil
	}
	return "", fmt.Errorf("invalid employee type %q", s)
}

const (
	DefaultLateTime    = "09:00"
	DefaultSignInTime  = "08:00"
	DefaultSignOutTime = "17:00"
)

// DefaultWorkDays is Monday through Friday.
var DefaultWorkDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// AttendanceSettingsModel is the school wide kiosk configuration, one row per school.
type AttendanceSettingsModel struct {
	AttendanceSettingsID        uuid.UUID      `gorm:"column:attendance_settings_id;type:uuid;default:gen_random_uuid();primaryKey" json:"attendance_settings_id"`
	AttendanceSettingsSchoolID  uuid.UUID      `gorm:"column:attendance_settings_school_id;type:uuid;not null;uniqueIndex:uq_attendance_settings_school" json:"attendance_settings_school_id"`
	AttendanceSettingsLateTime  dbtime.Tod     `gorm:"column:attendance_settings_late_time;type:time;not null;default:'09:00'" json:"attendance_settings_late_time"`
	AttendanceSettingsOffDays   pq.StringArray `gorm:"column:attendance_settings_off_days;type:text[];not null;default:'{}'" json:"attendance_settings_off_days"`
	AttendanceSettingsCreatedAt time.Time      `gorm:"column:attendance_settings_created_at;type:timestamptz;not null;autoCreateTime" json:"attendance_settings_created_at"`
	AttendanceSettingsUpdatedAt time.Time      `gorm:"column:attendance_settings_updated_at;type:timestamptz;not null;autoUpdateTime" json:"attendance_settings_updated_at"`
}

func (AttendanceSettingsModel) TableName() string { return "attendance_settings" }

// EmployeeSettingsModel: the PIN is only stored as a keyed digest, unique per school.
type EmployeeSettingsModel struct {
	EmployeeSettingsID          uuid.UUID      `gorm:"column:employee_settings_id;type:uuid;default:gen_random_uuid();primaryKey" json:"employee_settings_id"`
	EmployeeSettingsSchoolID    uuid.UUID      `gorm:"column:employee_settings_school_id;type:uuid;not null;uniqueIndex:uq_employee_settings_staff,priority:1;uniqueIndex:uq_employee_settings_pin,priority:1" json:"employee_settings_school_id"`
	EmployeeSettingsStaffID     uuid.UUID      `gorm:"column:employee_settings_staff_id;type:uuid;not null;uniqueIndex:uq_employee_settings_staff,priority:2" json:"employee_settings_staff_id"`
	EmployeeSettingsType        EmployeeType   `gorm:"column:employee_settings_type;type:varchar(12);not null;default:'full-time'" json:"employee_settings_type"`
	EmployeeSettingsLateTime    dbtime.Tod     `gorm:"column:employee_settings_late_time;type:time;not null" json:"employee_settings_late_time"`
	EmployeeSettingsSignInTime  dbtime.Tod     `gorm:"column:employee_settings_sign_in_time;type:time;not null" json:"employee_settings_sign_in_time"`
	EmployeeSettingsSignOutTime dbtime.Tod     `gorm:"column:employee_settings_sign_out_time;type:time;not null" json:"employee_settings_sign_out_time"`
	EmployeeSettingsWorkDays    pq.StringArray `gorm:"column:employee_settings_work_days;type:text[];not null" json:"employee_settings_work_days"`
	EmployeeSettingsPinDigest   string         `gorm:"column:employee_settings_pin_digest;type:char(64);not null;uniqueIndex:uq_employee_settings_pin,priority:2" json:"-"`
	EmployeeSettingsCreatedAt   time.Time      `gorm:"column:employee_settings_created_at;type:timestamptz;not null;autoCreateTime" json:"employee_settings_created_at"`
	EmployeeSettingsUpdatedAt   time.Time      `gorm:"column:employee_settings_updated_at;type:timestamptz;not null;autoUpdateTime" json:"employee_settings_updated_at"`
}

func (EmployeeSettingsModel) TableName() string { return "attendance_employee_settings" }

// WorksOn reports whether a part-time employee is scheduled on d.
// Full-time employees work every day the kiosk is open.
func (m EmployeeSettingsModel) WorksOn(d time.Weekday) bool {
	if m.EmployeeSettingsType != PartTime {
		return true
	}
	for _, w := range m.EmployeeSettingsWorkDays {
		if wd, ok := dbtime.ParseWeekday(w); ok && wd == d {
			return true
		}
	}
	return false
}

// StaffAttendanceModel: at most one row per (school, staff, date).
type StaffAttendanceModel struct {
	StaffAttendanceID         uuid.UUID    `gorm:"column:staff_attendance_id;type:uuid;default:gen_random_uuid();primaryKey" json:"staff_attendance_id"`
	StaffAttendanceSchoolID   uuid.UUID    `gorm:"column:staff_attendance_school_id;type:uuid;not null;uniqueIndex:uq_staff_attendance_day,priority:1" json:"staff_attendance_school_id"`
	StaffAttendanceStaffID    uuid.UUID    `gorm:"column:staff_attendance_staff_id;type:uuid;not null;uniqueIndex:uq_staff_attendance_day,priority:2" json:"staff_attendance_staff_id"`
	StaffAttendanceDate       time.Time    `gorm:"column:staff_attendance_date;type:date;not null;uniqueIndex:uq_staff_attendance_day,priority:3;index" json:"staff_attendance_date"`
	StaffAttendanceStaffName  string       `gorm:"column:staff_attendance_staff_name;type:varchar(150);not null" json:"staff_attendance_staff_name"`
	StaffAttendanceCheckInAt  time.Time    `gorm:"column:staff_attendance_check_in_at;type:timestamptz;not null" json:"staff_attendance_check_in_at"`
	StaffAttendanceCheckOutAt *time.Time   `gorm:"column:staff_attendance_check_out_at;type:timestamptz" json:"staff_attendance_check_out_at,omitempty"`
	StaffAttendanceStatus     StaffStatus  `gorm:"column:staff_attendance_status;type:varchar(10);not null" json:"staff_attendance_status"`
	StaffAttendanceType       EmployeeType `gorm:"column:staff_attendance_type;type:varchar(12);not null" json:"staff_attendance_type"`
	StaffAttendanceRemarks    *string      `gorm:"column:staff_attendance_remarks;type:text" json:"staff_attendance_remarks,omitempty"`
	StaffAttendanceCreatedAt  time.Time    `gorm:"column:staff_attendance_created_at;type:timestamptz;not null;autoCreateTime" json:"staff_attendance_created_at"`
	StaffAttendanceUpdatedAt  time.Time    `gorm:"column:staff_attendance_updated_at;type:timestamptz;not null;autoUpdateTime" json:"staff_attendance_updated_at"`
}

func (StaffAttendanceModel) TableName() string { return "staff_attendances" }
