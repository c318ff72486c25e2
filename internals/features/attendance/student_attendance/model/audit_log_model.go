package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const AuditAttendanceMarked = "attendance_marked"

type AuditLogModel struct {
	AuditLogID        uuid.UUID      `gorm:"column:audit_log_id;type:uuid;default:gen_random_uuid();primaryKey" json:"audit_log_id"`
	AuditLogSchoolID  uuid.UUID      `gorm:"column:audit_log_school_id;type:uuid;not null;index" json:"audit_log_school_id"`
	AuditLogAction    string         `gorm:"column:audit_log_action;type:varchar(40);not null;index" json:"audit_log_action"`
	AuditLogSubjectID uuid.UUID      `gorm:"column:audit_log_subject_id;type:uuid;not null;index" json:"audit_log_subject_id"`
	AuditLogUserID    uuid.UUID      `gorm:"column:audit_log_user_id;type:uuid;not null" json:"audit_log_user_id"`
	AuditLogPayload   datatypes.JSON `gorm:"column:audit_log_payload;type:jsonb" json:"audit_log_payload,omitempty"`
	AuditLogCreatedAt time.Time      `gorm:"column:audit_log_created_at;type:timestamptz;not null;autoCreateTime" json:"audit_log_created_at"`
}

func (AuditLogModel) TableName() string { return "audit_logs" }
