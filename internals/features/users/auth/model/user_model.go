package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel is the account + profile row. One active school at a time.
type UserModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserName       string     `gorm:"size:80;not null" json:"user_name"`
	Email          string     `gorm:"size:255;uniqueIndex:uq_users_email;not null" json:"email"`
	Password       string     `gorm:"not null" json:"-"`
	GoogleID       *string    `gorm:"size:255;uniqueIndex:uq_users_google_id" json:"google_id,omitempty"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	ActiveSchoolID *uuid.UUID `gorm:"type:uuid;column:active_school_id" json:"active_school_id,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserModel) TableName() string {
	return "users"
}
