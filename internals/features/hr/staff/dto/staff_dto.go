package dto

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"schoolku_backend/internals/features/hr/staff/model"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
)

// Amount accepts a JSON number or a string so "abc" reaches validation
// instead of failing the body parser.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if s, err := strconv.Unquote(string(b)); err == nil {
		*a = Amount(strings.TrimSpace(s))
		return nil
	}
	*a = Amount(b)
	return nil
}

type StaffRequest struct {
	StaffName       string `json:"staff_name" form:"staff_name" validate:"notblank,max=150"`
	StaffPosition   string `json:"staff_position" form:"staff_position" validate:"notblank,max=100"`
	StaffDepartment string `json:"staff_department" form:"staff_department" validate:"notblank,max=100"`
	StaffSalary     Amount `json:"staff_salary" form:"staff_salary" validate:"required,numeric"`
	StaffJoinDate   string `json:"staff_join_date" form:"staff_join_date" validate:"omitempty,datetime=2006-01-02"`
	StaffContact    string `json:"staff_contact" form:"staff_contact" validate:"max=40"`
	StaffEmail      string `json:"staff_email" form:"staff_email" validate:"required,email,max=150"`
	StaffNINNumber  string `json:"staff_nin_number" form:"staff_nin_number" validate:"notblank,max=40"`
}

var Messages = helper.Messages{
	"staff_name.notblank":       "Name is required",
	"staff_position.notblank":   "Position is required",
	"staff_department.notblank": "Department is required",
	"staff_salary.required":     "Salary is required",
	"staff_salary.numeric":      "Salary must be a valid number",
	"staff_nin_number.notblank": "NIN Number is required",
	"staff_email.required":      "Email is required",
	"staff_email.email":         "Email is invalid",
	"staff_join_date":           "Join date must be in YYYY-MM-DD format",
}

func (r *StaffRequest) Normalize() {
	r.StaffName = strings.TrimSpace(r.StaffName)
	r.StaffPosition = strings.TrimSpace(r.StaffPosition)
	r.StaffDepartment = strings.TrimSpace(r.StaffDepartment)
	r.StaffSalary = Amount(strings.TrimSpace(string(r.StaffSalary)))
	r.StaffJoinDate = strings.TrimSpace(r.StaffJoinDate)
	r.StaffEmail = strings.ToLower(strings.TrimSpace(r.StaffEmail))
	r.StaffNINNumber = strings.ToUpper(strings.TrimSpace(r.StaffNINNumber))
}

// Validate normalizes then checks the request. Nil means valid.
func (r *StaffRequest) Validate() map[string][]string {
	r.Normalize()
	errs := helper.ValidateStruct(r, Messages)
	if errs == nil {
		if v, _ := strconv.ParseFloat(string(r.StaffSalary), 64); v < 0 {
			errs = map[string][]string{"staff_salary": {"Salary must be a valid number"}}
		}
	}
	return errs
}

// ApplyToModel assumes Validate passed.
func (r *StaffRequest) ApplyToModel(m *model.StaffModel) {
	m.StaffName = r.StaffName
	m.StaffPosition = r.StaffPosition
	m.StaffDepartment = r.StaffDepartment
	m.StaffSalary, _ = strconv.ParseFloat(string(r.StaffSalary), 64)
	m.StaffContact = helper.StrPtr(r.StaffContact)
	m.StaffEmail = r.StaffEmail
	m.StaffNINNumber = r.StaffNINNumber
	m.StaffJoinDate = nil
	if t, err := time.Parse("2006-01-02", r.StaffJoinDate); err == nil {
		d := dbtime.CivilDate(t)
		m.StaffJoinDate = &d
	}
}

func (r *StaffRequest) ToModel(schoolID uuid.UUID) *model.StaffModel {
	m := &model.StaffModel{StaffSchoolID: schoolID}
	r.ApplyToModel(m)
	return m
}
