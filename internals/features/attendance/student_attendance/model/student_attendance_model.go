package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "Present"
	StatusAbsent  AttendanceStatus = "Absent"
	StatusLate    AttendanceStatus = "Late"
	StatusExcused AttendanceStatus = "Excused"
)

var AttendanceStatuses = []AttendanceStatus{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

// ParseAttendanceStatus normalises at the boundary; blank means Present.
func ParseAttendanceStatus(s string) (AttendanceStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return StatusPresent, nil
	}
	for _, v := range AttendanceStatuses {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid attendance status %q", s)
}

// StudentAttendanceModel: at most one row per (school, student, date).
type StudentAttendanceModel struct {
	StudentAttendanceID        uuid.UUID        `gorm:"column:student_attendance_id;type:uuid;default:gen_random_uuid();primaryKey" json:"student_attendance_id"`
	StudentAttendanceSchoolID  uuid.UUID        `gorm:"column:student_attendance_school_id;type:uuid;not null;uniqueIndex:uq_student_attendance_day,priority:1" json:"student_attendance_school_id"`
	StudentAttendanceStudentID uuid.UUID        `gorm:"column:student_attendance_student_id;type:uuid;not null;uniqueIndex:uq_student_attendance_day,priority:2" json:"student_attendance_student_id"`
	StudentAttendanceDate      time.Time        `gorm:"column:student_attendance_date;type:date;not null;uniqueIndex:uq_student_attendance_day,priority:3;index" json:"student_attendance_date"`
	StudentAttendanceClassID   uuid.UUID        `gorm:"column:student_attendance_class_id;type:uuid;not null;index" json:"student_attendance_class_id"`
	StudentAttendanceStatus    AttendanceStatus `gorm:"column:student_attendance_status;type:varchar(10);not null" json:"student_attendance_status"`
	StudentAttendanceMarkedBy  uuid.UUID        `gorm:"column:student_attendance_marked_by;type:uuid;not null" json:"student_attendance_marked_by"`
	StudentAttendanceMarkedAt  time.Time        `gorm:"column:student_attendance_marked_at;type:timestamptz;not null" json:"student_attendance_marked_at"`
	StudentAttendanceNotes     *string          `gorm:"column:student_attendance_notes;type:text" json:"student_attendance_notes,omitempty"`
	StudentAttendanceCreatedAt time.Time        `gorm:"column:student_attendance_created_at;type:timestamptz;not null;autoCreateTime" json:"student_attendance_created_at"`
	StudentAttendanceUpdatedAt time.Time        `gorm:"column:student_attendance_updated_at;type:timestamptz;not null;autoUpdateTime" json:"student_attendance_updated_at"`
}

func (StudentAttendanceModel) TableName() string { return "student_attendances" }
