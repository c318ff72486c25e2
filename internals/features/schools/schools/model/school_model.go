package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type SchoolLevel string

const (
	LevelPrimary   SchoolLevel = "Primary"
	LevelSecondary SchoolLevel = "Secondary"
	LevelCombined  SchoolLevel = "Combined"
	LevelOther     SchoolLevel = "Other"
)

var SchoolLevels = []SchoolLevel{LevelPrimary, LevelSecondary, LevelCombined, LevelOther}

// ParseSchoolLevel is case-insensitive; blank means Primary.
func ParseSchoolLevel(s string) (SchoolLevel, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LevelPrimary, true
	}
	for _, l := range SchoolLevels {
		if strings.EqualFold(s, string(l)) {
			return l, true
		}
	}
	return "", false
}

type SchoolModel struct {
	SchoolID uuid.UUID `gorm:"column:school_id;type:uuid;default:gen_random_uuid();primaryKey" json:"school_id"`

	SchoolName      string      `gorm:"column:school_name;type:varchar(160);not null" json:"school_name"`
	SchoolLevel     SchoolLevel `gorm:"column:school_level;type:varchar(16);not null;default:'Primary'" json:"school_level"`
	SchoolType      *string     `gorm:"column:school_type;type:varchar(32)" json:"school_type,omitempty"`
	SchoolOwnership *string     `gorm:"column:school_ownership;type:varchar(32)" json:"school_ownership,omitempty"`

	SchoolDistrict  string  `gorm:"column:school_district;type:varchar(120);not null" json:"school_district"`
	SchoolSubcounty *string `gorm:"column:school_subcounty;type:varchar(120)" json:"school_subcounty,omitempty"`
	SchoolAddress   string  `gorm:"column:school_address;type:text;not null" json:"school_address"`

	SchoolPhone   *string `gorm:"column:school_phone;type:varchar(40)" json:"school_phone,omitempty"`
	SchoolEmail   *string `gorm:"column:school_email;type:varchar(255)" json:"school_email,omitempty"`
	SchoolWebsite *string `gorm:"column:school_website;type:varchar(255)" json:"school_website,omitempty"`

	SchoolEstablishedYear *int    `gorm:"column:school_established_year" json:"school_established_year,omitempty"`
	SchoolMotto           *string `gorm:"column:school_motto;type:varchar(255)" json:"school_motto,omitempty"`
	SchoolPrincipalName   *string `gorm:"column:school_principal_name;type:varchar(160)" json:"school_principal_name,omitempty"`
	SchoolTotalStudents   *int    `gorm:"column:school_total_students" json:"school_total_students,omitempty"`
	SchoolTotalTeachers   *int    `gorm:"column:school_total_teachers" json:"school_total_teachers,omitempty"`

	SchoolContactName     *string `gorm:"column:school_contact_name;type:varchar(160)" json:"school_contact_name,omitempty"`
	SchoolContactPosition *string `gorm:"column:school_contact_position;type:varchar(120)" json:"school_contact_position,omitempty"`
	SchoolContactPhone    *string `gorm:"column:school_contact_phone;type:varchar(40)" json:"school_contact_phone,omitempty"`
	SchoolContactEmail    *string `gorm:"column:school_contact_email;type:varchar(255)" json:"school_contact_email,omitempty"`

	SchoolTimezone *string `gorm:"column:school_timezone;type:varchar(64)" json:"school_timezone,omitempty"`
	SchoolLogoURL  *string `gorm:"column:school_logo_url;type:text" json:"school_logo_url,omitempty"`

	// queried with array-contains (? = ANY(school_admin_user_ids))
	SchoolAdminUserIDs pq.StringArray `gorm:"column:school_admin_user_ids;type:text[];not null;default:'{}'" json:"school_admin_user_ids"`
	SchoolCreatedBy    uuid.UUID      `gorm:"column:school_created_by;type:uuid;not null" json:"school_created_by"`

	SchoolCreatedAt time.Time      `gorm:"column:school_created_at;type:timestamptz;not null;autoCreateTime" json:"school_created_at"`
	SchoolUpdatedAt time.Time      `gorm:"column:school_updated_at;type:timestamptz;not null;autoUpdateTime" json:"school_updated_at"`
	SchoolDeletedAt gorm.DeletedAt `gorm:"column:school_deleted_at;index" json:"-"`
}

func (SchoolModel) TableName() string { return "schools" }

func (m *SchoolModel) IsAdmin(userID uuid.UUID) bool {
	id := userID.String()
	for _, v := range m.SchoolAdminUserIDs {
		if v == id {
			return true
		}
	}
	return false
}
