package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClassModel struct {
	ClassID       uuid.UUID `gorm:"column:class_id;type:uuid;default:gen_random_uuid();primaryKey" json:"class_id"`
	ClassSchoolID uuid.UUID `gorm:"column:class_school_id;type:uuid;not null;index" json:"class_school_id"`
	ClassName     string    `gorm:"column:class_name;type:varchar(80);not null" json:"class_name"`
	// unique per school among alive rows (partial index in migrations)
	ClassCode      string         `gorm:"column:class_code;type:varchar(32);not null" json:"class_code"`
	ClassSortOrder int            `gorm:"column:class_sort_order;not null;default:0" json:"class_sort_order"`
	ClassCreatedAt time.Time      `gorm:"column:class_created_at;type:timestamptz;not null;autoCreateTime" json:"class_created_at"`
	ClassUpdatedAt time.Time      `gorm:"column:class_updated_at;type:timestamptz;not null;autoUpdateTime" json:"class_updated_at"`
	ClassDeletedAt gorm.DeletedAt `gorm:"column:class_deleted_at;index" json:"-"`
}

func (ClassModel) TableName() string { return "classes" }
