package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"schoolku_backend/internals/features/students/students/model"
	"schoolku_backend/internals/helpers/exportx"
)

var csvHeader = []string{"Registration No", "Full Name", "Gender", "Class", "Status", "Guardian Phone", "Fee Balance"}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func genderOf(m *model.StudentModel) string {
	if m.StudentGender == nil {
		return ""
	}
	return string(*m.StudentGender)
}

// ExportCSV renders list in the given order. Names are always quoted.
func ExportCSV(list []model.StudentModel, classNames map[uuid.UUID]string) []byte {
	csv := exportx.NewCSV(csvHeader, 1, 3)
	for i := range list {
		s := &list[i]
		csv.Add(
			deref(s.StudentRegistrationNumber),
			s.FullName(),
			genderOf(s),
			classNames[s.StudentClassID],
			string(s.StudentStatus),
			deref(s.StudentGuardianPhone),
			fmt.Sprintf("%.2f", s.StudentFeeBalance),
		)
	}
	return csv.Bytes()
}

// StatusCounts always carries every status, zero or not.
func StatusCounts(list []model.StudentModel) map[model.StudentStatus]int {
	out := make(map[model.StudentStatus]int, len(model.StudentStatuses))
	for _, st := range model.StudentStatuses {
		out[st] = 0
	}
	for i := range list {
		out[list[i].StudentStatus]++
	}
	return out
}

// BuildReport is shared by the HTML and PDF student reports.
func BuildReport(schoolName string, list []model.StudentModel, classNames map[uuid.UUID]string, now time.Time) exportx.Report {
	counts := StatusCounts(list)
	summary := [][2]string{{"Total Students", fmt.Sprint(len(list))}}
	for _, st := range model.StudentStatuses {
		summary = append(summary, [2]string{string(st), fmt.Sprint(counts[st])})
	}
	rows := make([][]string, 0, len(list))
	for i := range list {
		s := &list[i]
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			s.FullName(),
			deref(s.StudentRegistrationNumber),
			genderOf(s),
			classNames[s.StudentClassID],
			string(s.StudentStatus),
		})
	}
	return exportx.Report{
		Title:    schoolName,
		Subtitle: []string{"Student List", "Generated on " + now.Format(exportx.DateLayout)},
		Summary:  summary,
		Header:   []string{"#", "Name", "Reg. No", "Gender", "Class", "Status"},
		Widths:   []float64{10, 60, 30, 20, 40, 30},
		Rows:     rows,
		Footer:   "Generated by Schoolku",
	}
}

// AttendanceCounts is the per-student summary shown on the detail card.
type AttendanceCounts struct {
	Present int64 `json:"present"`
	Absent  int64 `json:"absent"`
	Late    int64 `json:"late"`
	Excused int64 `json:"excused"`
}

// SummaryText is the plain-text detail card used for sharing.
func SummaryText(s *model.StudentModel, className string, att AttendanceCounts) string {
	var b strings.Builder
	line := func(k, v string) {
		if strings.TrimSpace(v) == "" {
			v = "N/A"
		}
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}
	b.WriteString("Student Details\n")
	line("Name", s.FullName())
	line("Registration Number", deref(s.StudentRegistrationNumber))
	line("Class", className)
	line("Gender", genderOf(s))
	dob := ""
	if s.StudentDateOfBirth != nil {
		dob = s.StudentDateOfBirth.Format(exportx.DateLayout)
	}
	line("Date of Birth", dob)
	line("Guardian Phone", deref(s.StudentGuardianPhone))
	line("Status", string(s.StudentStatus))
	line("Fee Balance", fmt.Sprintf("%.2f", s.StudentFeeBalance))
	b.WriteString("\nAttendance Summary\n")
	fmt.Fprintf(&b, "Present: %d\nAbsent: %d\nLate: %d\nExcused: %d", att.Present, att.Absent, att.Late, att.Excused)
	return b.String()
}
