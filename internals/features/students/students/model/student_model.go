package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudentStatus string

const (
	StudentActive    StudentStatus = "Active"
	StudentInactive  StudentStatus = "Inactive"
	StudentGraduated StudentStatus = "Graduated"
	StudentWithdrawn StudentStatus = "Withdrawn"
)

var StudentStatuses = []StudentStatus{StudentActive, StudentInactive, StudentGraduated, StudentWithdrawn}

// ParseStudentStatus normalises casing ("active", "ACTIVE" -> Active).
func ParseStudentStatus(s string) (StudentStatus, error) {
	for _, v := range StudentStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid student status %q", s)
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

// ParseGender accepts "male", "m", "Female", "f".
func ParseGender(s string) (Gender, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "m":
		return GenderMale, nil
	case "f":
		return GenderFemale, nil
	}
	for _, g := range Genders {
		if v == strings.ToLower(string(g)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("invalid gender %q", s)
}

type StudentModel struct {
	StudentID       uuid.UUID `gorm:"column:student_id;type:uuid;default:gen_random_uuid();primaryKey" json:"student_id"`
	StudentSchoolID uuid.UUID `gorm:"column:student_school_id;type:uuid;not null;index" json:"student_school_id"`
	StudentClassID  uuid.UUID `gorm:"column:student_class_id;type:uuid;not null;index" json:"student_class_id"`

	StudentFirstName  string  `gorm:"column:student_first_name;type:varchar(80);not null" json:"student_first_name"`
	StudentMiddleName *string `gorm:"column:student_middle_name;type:varchar(80)" json:"student_middle_name,omitempty"`
	StudentLastName   string  `gorm:"column:student_last_name;type:varchar(80);not null" json:"student_last_name"`

	StudentGender      *Gender    `gorm:"column:student_gender;type:varchar(8)" json:"student_gender,omitempty"`
	StudentDateOfBirth *time.Time `gorm:"column:student_date_of_birth;type:date" json:"student_date_of_birth,omitempty"`
	// unique per school among alive rows (partial index in migrations)
	StudentRegistrationNumber *string       `gorm:"column:student_registration_number;type:varchar(40)" json:"student_registration_number,omitempty"`
	StudentGuardianPhone      *string       `gorm:"column:student_guardian_phone;type:varchar(40)" json:"student_guardian_phone,omitempty"`
	StudentPhotoURL           *string       `gorm:"column:student_photo_url;type:text" json:"student_photo_url,omitempty"`
	StudentStatus             StudentStatus `gorm:"column:student_status;type:varchar(16);not null;default:'Active'" json:"student_status"`
	StudentFeeBalance         float64       `gorm:"column:student_fee_balance;type:numeric(14,2);not null;default:0" json:"student_fee_balance"`

	StudentCreatedBy *uuid.UUID     `gorm:"column:student_created_by;type:uuid" json:"student_created_by,omitempty"`
	StudentUpdatedBy *uuid.UUID     `gorm:"column:student_updated_by;type:uuid" json:"student_updated_by,omitempty"`
	StudentCreatedAt time.Time      `gorm:"column:student_created_at;type:timestamptz;not null;autoCreateTime" json:"student_created_at"`
	StudentUpdatedAt time.Time      `gorm:"column:student_updated_at;type:timestamptz;not null;autoUpdateTime" json:"student_updated_at"`
	StudentDeletedAt gorm.DeletedAt `gorm:"column:student_deleted_at;index" json:"-"`
}

func (StudentModel) TableName() string { return "students" }

// FullName joins first, middle and last with single spaces.
func (m *StudentModel) FullName() string {
	parts := []string{strings.TrimSpace(m.StudentFirstName)}
	if m.StudentMiddleName != nil && strings.TrimSpace(*m.StudentMiddleName) != "" {
		parts = append(parts, strings.TrimSpace(*m.StudentMiddleName))
	}
	parts = append(parts, strings.TrimSpace(m.StudentLastName))
	return strings.TrimSpace(strings.Join(parts, " "))
}
