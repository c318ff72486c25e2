package dto

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() StaffRequest {
	return StaffRequest{
		StaffName:       "Grace Auma",
		StaffPosition:   "Teacher",
		StaffDepartment: "Sciences",
		StaffSalary:     "1200000",
		StaffEmail:      "Grace@School.ug",
		StaffNINNumber:  "cm90012",
	}
}

func TestStaffRequestMessages(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(r *StaffRequest)
		field string
		want  string
	}{
		{"name", func(r *StaffRequest) { r.StaffName = "  " }, "staff_name", "Name is required"},
		{"position", func(r *StaffRequest) { r.StaffPosition = "" }, "staff_position", "Position is required"},
		{"department", func(r *StaffRequest) { r.StaffDepartment = "" }, "staff_department", "Department is required"},
		{"salary missing", func(r *StaffRequest) { r.StaffSalary = "" }, "staff_salary", "Salary is required"},
		{"salary text", func(r *StaffRequest) { r.StaffSalary = "lots" }, "staff_salary", "Salary must be a valid number"},
		{"salary negative", func(r *StaffRequest) { r.StaffSalary = "-5" }, "staff_salary", "Salary must be a valid number"},
		{"nin", func(r *StaffRequest) { r.StaffNINNumber = "" }, "staff_nin_number", "NIN Number is required"},
		{"email missing", func(r *StaffRequest) { r.StaffEmail = "" }, "staff_email", "Email is required"},
		{"email invalid", func(r *StaffRequest) { r.StaffEmail = "grace.at.school" }, "staff_email", "Email is invalid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validRequest()
			tc.edit(&r)
			errs := r.Validate()
			require.NotNil(t, errs)
			assert.Contains(t, errs[tc.field], tc.want)
		})
	}
}

func TestStaffRequestToModel(t *testing.T) {
	r := validRequest()
	r.StaffJoinDate = "2024-02-01"
	require.Nil(t, r.Validate())

	school := uuid.New()
	m := r.ToModel(school)
	assert.Equal(t, school, m.StaffSchoolID)
	assert.Equal(t, 1200000.0, m.StaffSalary)
	assert.Equal(t, "grace@school.ug", m.StaffEmail)
	assert.Equal(t, "CM90012", m.StaffNINNumber)
	require.NotNil(t, m.StaffJoinDate)
	assert.Equal(t, "2024-02-01", m.StaffJoinDate.Format("2006-01-02"))
	assert.Nil(t, m.StaffContact)
}

func TestAmountAcceptsNumberOrString(t *testing.T) {
	var body struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 950000.5, "b": " 12 "}`), &body))
	assert.Equal(t, Amount("950000.5"), body.A)
	assert.Equal(t, Amount("12"), body.B)
}
