package service

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"schoolku_backend/internals/features/hr/staff/model"
	"schoolku_backend/internals/helpers/exportx"
)

type DepartmentTotal struct {
	Department  string  `json:"department"`
	Count       int     `json:"count"`
	TotalSalary float64 `json:"total_salary"`
}

type Stats struct {
	TotalStaff  int               `json:"total_staff"`
	TotalSalary float64           `json:"total_salary"`
	Departments []DepartmentTotal `json:"departments"`
}

// Summarize totals the payroll. Departments are sorted by name.
func Summarize(list []model.StaffModel) Stats {
	st := Stats{TotalStaff: len(list), Departments: []DepartmentTotal{}}
	idx := map[string]int{}
	for i := range list {
		m := &list[i]
		st.TotalSalary += m.StaffSalary
		j, ok := idx[m.StaffDepartment]
		if !ok {
			j = len(st.Departments)
			idx[m.StaffDepartment] = j
			st.Departments = append(st.Departments, DepartmentTotal{Department: m.StaffDepartment})
		}
		st.Departments[j].Count++
		st.Departments[j].TotalSalary += m.StaffSalary
	}
	st.TotalSalary = math.Round(st.TotalSalary*100) / 100
	sort.Slice(st.Departments, func(a, b int) bool {
		return st.Departments[a].Department < st.Departments[b].Department
	})
	return st
}

// Matches is a case-insensitive substring match on name, position,
// department and email.
func Matches(m *model.StaffModel, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	for _, f := range []string{m.StaffName, m.StaffPosition, m.StaffDepartment, m.StaffEmail} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

var csvHeader = []string{"Name", "Position", "Department", "Salary", "Join Date", "Contact", "Email", "NIN Number"}

func ExportCSV(list []model.StaffModel) []byte {
	csv := exportx.NewCSV(csvHeader, 0, 1, 2)
	for i := range list {
		m := &list[i]
		join := ""
		if m.StaffJoinDate != nil {
			join = m.StaffJoinDate.Format(exportx.DateLayout)
		}
		contact := ""
		if m.StaffContact != nil {
			contact = *m.StaffContact
		}
		csv.Add(
			m.StaffName,
			m.StaffPosition,
			m.StaffDepartment,
			strconv.FormatFloat(m.StaffSalary, 'f', 2, 64),
			join,
			contact,
			m.StaffEmail,
			m.StaffNINNumber,
		)
	}
	return csv.Bytes()
}
