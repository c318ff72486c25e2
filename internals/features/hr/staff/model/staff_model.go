package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StaffModel struct {
	StaffID              uuid.UUID  `gorm:"column:staff_id;type:uuid;default:gen_random_uuid();primaryKey" json:"staff_id"`
	StaffSchoolID        uuid.UUID  `gorm:"column:staff_school_id;type:uuid;not null;index" json:"staff_school_id"`
	StaffName            string     `gorm:"column:staff_name;type:varchar(150);not null" json:"staff_name"`
	StaffPosition        string     `gorm:"column:staff_position;type:varchar(100);not null" json:"staff_position"`
	StaffDepartment      string     `gorm:"column:staff_department;type:varchar(100);not null" json:"staff_department"`
	StaffSalary          float64    `gorm:"column:staff_salary;type:numeric(14,2);not null;default:0" json:"staff_salary"`
	StaffJoinDate        *time.Time `gorm:"column:staff_join_date;type:date" json:"staff_join_date,omitempty"`
	StaffContact         *string    `gorm:"column:staff_contact;type:varchar(40)" json:"staff_contact,omitempty"`
	StaffEmail           string     `gorm:"column:staff_email;type:varchar(150);not null" json:"staff_email"`
	StaffNINNumber       string     `gorm:"column:staff_nin_number;type:varchar(40);not null" json:"staff_nin_number"`
	StaffPhotoURL        *string    `gorm:"column:staff_photo_url;type:text" json:"staff_photo_url,omitempty"`
	StaffIDAttachmentURL *string    `gorm:"column:staff_id_attachment_url;type:text" json:"staff_id_attachment_url,omitempty"`

	StaffCreatedAt time.Time      `gorm:"column:staff_created_at;type:timestamptz;not null;autoCreateTime" json:"staff_created_at"`
	StaffUpdatedAt time.Time      `gorm:"column:staff_updated_at;type:timestamptz;not null;autoUpdateTime" json:"staff_updated_at"`
	StaffDeletedAt gorm.DeletedAt `gorm:"column:staff_deleted_at;index" json:"-"`
}

func (StaffModel) TableName() string { return "staff" }
