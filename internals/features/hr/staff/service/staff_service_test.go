package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"schoolku_backend/internals/features/hr/staff/model"
)

func staff(name, dept string, salary float64) model.StaffModel {
	return model.StaffModel{StaffName: name, StaffPosition: "Teacher", StaffDepartment: dept, StaffSalary: salary, StaffEmail: strings.ToLower(strings.Fields(name)[0]) + "@school.ug"}
}

func TestSummarize(t *testing.T) {
	list := []model.StaffModel{
		staff("Grace Auma", "Sciences", 1200000.10),
		staff("John Okello", "Arts", 900000),
		staff("Ruth Nakato", "Sciences", 1100000.20),
	}
	st := Summarize(list)
	assert.Equal(t, 3, st.TotalStaff)
	assert.InDelta(t, 3200000.30, st.TotalSalary, 0.001)
	if assert.Len(t, st.Departments, 2) {
		assert.Equal(t, "Arts", st.Departments[0].Department)
		assert.Equal(t, 1, st.Departments[0].Count)
		assert.Equal(t, "Sciences", st.Departments[1].Department)
		assert.Equal(t, 2, st.Departments[1].Count)
		assert.InDelta(t, 2300000.30, st.Departments[1].TotalSalary, 0.001)
	}

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.TotalStaff)
	assert.NotNil(t, empty.Departments)
}

func TestMatches(t *testing.T) {
	m := staff("Grace Auma", "Sciences", 1)
	for q, want := range map[string]bool{
		"":        true,
		"grace":   true,
		"SCIENCE": true,
		"teach":   true,
		"@school": true,
		"bursar":  false,
	} {
		assert.Equal(t, want, Matches(&m, q), q)
	}
}

func TestExportCSV(t *testing.T) {
	join := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	phone := "+256700000001"
	m := staff(`Grace "G" Auma`, "Sciences", 1200000)
	m.StaffJoinDate = &join
	m.StaffContact = &phone
	m.StaffNINNumber = "CM1"

	got := string(ExportCSV([]model.StaffModel{m}))
	want := "Name,Position,Department,Salary,Join Date,Contact,Email,NIN Number\n" +
		`"Grace ""G"" Auma","Teacher","Sciences",1200000.00,01/02/2024,+256700000001,grace@school.ug,CM1`
	assert.Equal(t, want, got)
}
