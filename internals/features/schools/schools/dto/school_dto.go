package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"schoolku_backend/internals/features/schools/schools/model"
	helper "schoolku_backend/internals/helpers"
)

/* =========================================================
   Request / Response
========================================================= */

// CreateSchoolRequest: name, district and address are required, the rest is
// trimmed and stored as NULL when blank.
type CreateSchoolRequest struct {
	SchoolName      string `json:"school_name" form:"school_name"`
	SchoolLevel     string `json:"school_level" form:"school_level"`
	SchoolType      string `json:"school_type" form:"school_type"`
	SchoolOwnership string `json:"school_ownership" form:"school_ownership"`

	SchoolDistrict  string `json:"school_district" form:"school_district"`
	SchoolSubcounty string `json:"school_subcounty" form:"school_subcounty"`
	SchoolAddress   string `json:"school_address" form:"school_address"`

	SchoolPhone   string `json:"school_phone" form:"school_phone"`
	SchoolEmail   string `json:"school_email" form:"school_email"`
	SchoolWebsite string `json:"school_website" form:"school_website"`

	SchoolEstablishedYear *int   `json:"school_established_year" form:"school_established_year"`
	SchoolMotto           string `json:"school_motto" form:"school_motto"`
	SchoolPrincipalName   string `json:"school_principal_name" form:"school_principal_name"`
	SchoolTotalStudents   *int   `json:"school_total_students" form:"school_total_students"`
	SchoolTotalTeachers   *int   `json:"school_total_teachers" form:"school_total_teachers"`

	SchoolContactName     string `json:"school_contact_name" form:"school_contact_name"`
	SchoolContactPosition string `json:"school_contact_position" form:"school_contact_position"`
	SchoolContactPhone    string `json:"school_contact_phone" form:"school_contact_phone"`
	SchoolContactEmail    string `json:"school_contact_email" form:"school_contact_email"`

	SchoolTimezone string `json:"school_timezone" form:"school_timezone"`
}

const MsgRequiredFields = "Please fill in all required fields (Name, District, and Address)."

// Validate returns a user facing message, or "" when the request is usable.
func (r *CreateSchoolRequest) Validate() string {
	if strings.TrimSpace(r.SchoolName) == "" ||
		strings.TrimSpace(r.SchoolDistrict) == "" ||
		strings.TrimSpace(r.SchoolAddress) == "" {
		return MsgRequiredFields
	}
	if _, ok := model.ParseSchoolLevel(r.SchoolLevel); !ok {
		return "School level must be one of Primary, Secondary, Combined or Other."
	}
	if e := strings.TrimSpace(r.SchoolEmail); e != "" && helper.Validate.Var(e, "email") != nil {
		return "School email is invalid."
	}
	if y := r.SchoolEstablishedYear; y != nil && (*y < 1800 || *y > time.Now().Year()) {
		return "Established year is invalid."
	}
	return ""
}

func (r *CreateSchoolRequest) ToModel(creator uuid.UUID) *model.SchoolModel {
	level, _ := model.ParseSchoolLevel(r.SchoolLevel)
	return &model.SchoolModel{
		SchoolName:            strings.TrimSpace(r.SchoolName),
		SchoolLevel:           level,
		SchoolType:            helper.StrPtr(r.SchoolType),
		SchoolOwnership:       helper.StrPtr(r.SchoolOwnership),
		SchoolDistrict:        strings.TrimSpace(r.SchoolDistrict),
		SchoolSubcounty:       helper.StrPtr(r.SchoolSubcounty),
		SchoolAddress:         strings.TrimSpace(r.SchoolAddress),
		SchoolPhone:           helper.StrPtr(r.SchoolPhone),
		SchoolEmail:           helper.StrPtr(strings.ToLower(r.SchoolEmail)),
		SchoolWebsite:         helper.StrPtr(r.SchoolWebsite),
		SchoolEstablishedYear: r.SchoolEstablishedYear,
		SchoolMotto:           helper.StrPtr(r.SchoolMotto),
		SchoolPrincipalName:   helper.StrPtr(r.SchoolPrincipalName),
		SchoolTotalStudents:   r.SchoolTotalStudents,
		SchoolTotalTeachers:   r.SchoolTotalTeachers,
		SchoolContactName:     helper.StrPtr(r.SchoolContactName),
		SchoolContactPosition: helper.StrPtr(r.SchoolContactPosition),
		SchoolContactPhone:    helper.StrPtr(r.SchoolContactPhone),
		SchoolContactEmail:    helper.StrPtr(strings.ToLower(r.SchoolContactEmail)),
		SchoolTimezone:        helper.StrPtr(r.SchoolTimezone),
		SchoolAdminUserIDs:    []string{creator.String()},
		SchoolCreatedBy:       creator,
	}
}

// UpdateSchoolRequest: pointer fields distinguish "not sent" from "clear".
type UpdateSchoolRequest struct {
	SchoolName            *string `json:"school_name"`
	SchoolLevel           *string `json:"school_level"`
	SchoolType            *string `json:"school_type"`
	SchoolOwnership       *string `json:"school_ownership"`
	SchoolDistrict        *string `json:"school_district"`
	SchoolSubcounty       *string `json:"school_subcounty"`
	SchoolAddress         *string `json:"school_address"`
	SchoolPhone           *string `json:"school_phone"`
	SchoolEmail           *string `json:"school_email"`
	SchoolWebsite         *string `json:"school_website"`
	SchoolEstablishedYear *int    `json:"school_established_year"`
	SchoolMotto           *string `json:"school_motto"`
	SchoolPrincipalName   *string `json:"school_principal_name"`
	SchoolTotalStudents   *int    `json:"school_total_students"`
	SchoolTotalTeachers   *int    `json:"school_total_teachers"`
	SchoolContactName     *string `json:"school_contact_name"`
	SchoolContactPosition *string `json:"school_contact_position"`
	SchoolContactPhone    *string `json:"school_contact_phone"`
	SchoolContactEmail    *string `json:"school_contact_email"`
	SchoolTimezone        *string `json:"school_timezone"`
}

// ApplyToModel returns a user facing message when a required field is cleared.
func (r *UpdateSchoolRequest) ApplyToModel(m *model.SchoolModel) string {
	required := func(dst *string, v *string) bool {
		if v == nil {
			return true
		}
		s := strings.TrimSpace(*v)
		if s == "" {
			return false
		}
		*dst = s
		return true
	}
	if !required(&m.SchoolName, r.SchoolName) ||
		!required(&m.SchoolDistrict, r.SchoolDistrict) ||
		!required(&m.SchoolAddress, r.SchoolAddress) {
		return MsgRequiredFields
	}
	if r.SchoolLevel != nil {
		lvl, ok := model.ParseSchoolLevel(*r.SchoolLevel)
		if !ok {
			return "School level must be one of Primary, Secondary, Combined or Other."
		}
		m.SchoolLevel = lvl
	}

	optional := func(dst **string, v *string) {
		if v != nil {
			*dst = helper.TrimPtr(v)
		}
	}
	optional(&m.SchoolType, r.SchoolType)
	optional(&m.SchoolOwnership, r.SchoolOwnership)
	optional(&m.SchoolSubcounty, r.SchoolSubcounty)
	optional(&m.SchoolPhone, r.SchoolPhone)
	optional(&m.SchoolEmail, r.SchoolEmail)
	optional(&m.SchoolWebsite, r.SchoolWebsite)
	optional(&m.SchoolMotto, r.SchoolMotto)
	optional(&m.SchoolPrincipalName, r.SchoolPrincipalName)
	optional(&m.SchoolContactName, r.SchoolContactName)
	optional(&m.SchoolContactPosition, r.SchoolContactPosition)
	optional(&m.SchoolContactPhone, r.SchoolContactPhone)
	optional(&m.SchoolContactEmail, r.SchoolContactEmail)
	optional(&m.SchoolTimezone, r.SchoolTimezone)

	if r.SchoolEstablishedYear != nil {
		m.SchoolEstablishedYear = r.SchoolEstablishedYear
	}
	if r.SchoolTotalStudents != nil {
		m.SchoolTotalStudents = r.SchoolTotalStudents
	}
	if r.SchoolTotalTeachers != nil {
		m.SchoolTotalTeachers = r.SchoolTotalTeachers
	}
	return ""
}

type AddAdminRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=admin teacher"`
}

type SchoolSummary struct {
	SchoolID       uuid.UUID `json:"school_id"`
	SchoolName     string    `json:"school_name"`
	SchoolLevel    string    `json:"school_level"`
	SchoolDistrict string    `json:"school_district"`
	SchoolLogoURL  *string   `json:"school_logo_url,omitempty"`
	Role           string    `json:"role"`
}

func ToSchoolSummary(m *model.SchoolModel, role string) SchoolSummary {
	return SchoolSummary{
		SchoolID:       m.SchoolID,
		SchoolName:     m.SchoolName,
		SchoolLevel:    string(m.SchoolLevel),
		SchoolDistrict: m.SchoolDistrict,
		SchoolLogoURL:  m.SchoolLogoURL,
		Role:           role,
	}
}
