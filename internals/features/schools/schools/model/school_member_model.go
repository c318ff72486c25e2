package model

import (
	"time"

	"github.com/google/uuid"
)

// SchoolMemberModel links a user to a school with a role.
type SchoolMemberModel struct {
	SchoolMemberID          uuid.UUID `gorm:"column:school_member_id;type:uuid;default:gen_random_uuid();primaryKey" json:"school_member_id"`
	SchoolMemberSchoolID    uuid.UUID `gorm:"column:school_member_school_id;type:uuid;not null;uniqueIndex:uq_school_member_user,priority:1" json:"school_member_school_id"`
	SchoolMemberUserID      uuid.UUID `gorm:"column:school_member_user_id;type:uuid;not null;uniqueIndex:uq_school_member_user,priority:2;index" json:"school_member_user_id"`
	SchoolMemberEmail       string    `gorm:"column:school_member_email;type:varchar(255);not null" json:"school_member_email"`
	SchoolMemberDisplayName string    `gorm:"column:school_member_display_name;type:varchar(160);not null" json:"school_member_display_name"`
	SchoolMemberRole        string    `gorm:"column:school_member_role;type:varchar(16);not null;default:'admin'" json:"school_member_role"`
	SchoolMemberCreatedAt   time.Time `gorm:"column:school_member_created_at;type:timestamptz;not null;autoCreateTime" json:"school_member_created_at"`
	SchoolMemberUpdatedAt   time.Time `gorm:"column:school_member_updated_at;type:timestamptz;not null;autoUpdateTime" json:"school_member_updated_at"`
}

func (SchoolMemberModel) TableName() string { return "school_members" }
