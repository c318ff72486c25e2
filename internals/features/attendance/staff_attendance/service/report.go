package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"schoolku_backend/internals/features/attendance/staff_attendance/model"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
	"schoolku_backend/internals/helpers/exportx"
)

var (
	ErrMonth  = helper.NewCodedError(fiber.StatusBadRequest, "INVALID_MONTH", "Month must be in YYYY-MM format")
	ErrDate   = helper.NewCodedError(fiber.StatusBadRequest, "INVALID_DATE", "Date must be in YYYY-MM-DD format")
	ErrStatus = helper.NewCodedError(fiber.StatusBadRequest, "INVALID_STATUS", "Status must be present, late or absent")
)

type Summary struct {
	TotalWorkingDays int `json:"total_working_days"`
	DaysPresent      int `json:"days_present"`
	DaysAbsent       int `json:"days_absent"`
	DaysLate         int `json:"days_late"`
	LeavesTaken      int `json:"leaves_taken"`
}

// WorkingDays counts Monday..Friday between first and last inclusive,
// skipping the school's off days.
func WorkingDays(first, last time.Time, offDays []string) int {
	n := 0
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd == time.Saturday || wd == time.Sunday || isOffDay(offDays, wd) {
			continue
		}
		n++
	}
	return n
}

// Summarize counts statuses; a record whose remarks mention "leave" counts
// as a leave whatever its status.
func Summarize(records []model.StaffAttendanceModel, first, last time.Time, offDays []string) Summary {
	sum := Summary{TotalWorkingDays: WorkingDays(first, last, offDays)}
	for i := range records {
		r := &records[i]
		switch r.StaffAttendanceStatus {
		case model.StaffPresent:
			sum.DaysPresent++
		case model.StaffLate:
			sum.DaysLate++
		case model.StaffAbsent:
			sum.DaysAbsent++
		}
		if r.StaffAttendanceRemarks != nil && strings.Contains(strings.ToLower(*r.StaffAttendanceRemarks), "leave") {
			sum.LeavesTaken++
		}
	}
	return sum
}

type Report struct {
	Month     string                       `json:"month"`
	StaffID   *uuid.UUID                   `json:"staff_id,omitempty"`
	StaffName string                       `json:"staff_name,omitempty"`
	Records   []model.StaffAttendanceModel `json:"records"`
	Summary   Summary                      `json:"summary"`
}

// Report covers one calendar month. Blank month means the current one in loc.
func (s *Service) Report(ctx context.Context, schoolID uuid.UUID, loc *time.Location, staffID *uuid.UUID, month string) (*Report, error) {
	if loc == nil {
		loc = time.UTC
	}
	month = strings.TrimSpace(month)
	if month == "" {
		month = s.Now().In(loc).Format("2006-01")
	}
	first, last, err := dbtime.MonthRange(month, loc)
	if err != nil {
		return nil, ErrMonth
	}
	rep := &Report{Month: month, StaffID: staffID, Records: []model.StaffAttendanceModel{}}
	if staffID != nil {
		st, err := s.Store.FindStaff(ctx, schoolID, *staffID)
		if err != nil {
			return nil, errors.Wrap(err, "load staff")
		}
		if st == nil {
			return nil, ErrStaffNotFound
		}
		rep.StaffName = st.StaffName
	}
	general, err := s.GeneralSettings(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	records, err := s.Store.Records(ctx, schoolID, staffID, dbtime.CivilDate(first), dbtime.CivilDate(last))
	if err != nil {
		return nil, errors.Wrap(err, "load staff attendance")
	}
	if records != nil {
		rep.Records = records
	}
	rep.Summary = Summarize(rep.Records, first, last, general.AttendanceSettingsOffDays)
	return rep, nil
}

type RecordInput struct {
	StaffID uuid.UUID `json:"staff_id"`
	Date    string    `json:"date"`
	Status  string    `json:"status"`
	Remarks string    `json:"remarks"`
}

// RecordAttendance lets an admin mark absences and leave, or correct a
// kiosk record. The check-in time of an existing record is kept.
func (s *Service) RecordAttendance(ctx context.Context, schoolID uuid.UUID, loc *time.Location, in RecordInput) (*model.StaffAttendanceModel, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := dbtime.ParseDate(in.Date, loc)
	if err != nil {
		return nil, ErrDate
	}
	status, err := model.ParseStaffStatus(in.Status)
	if err != nil {
		return nil, ErrStatus
	}
	st, err := s.Store.FindStaff(ctx, schoolID, in.StaffID)
	if err != nil {
		return nil, errors.Wrap(err, "load staff")
	}
	if st == nil {
		return nil, ErrStaffNotFound
	}
	typ := model.FullTime
	e, err := s.Store.EmployeeByStaff(ctx, schoolID, st.StaffID)
	switch {
	case err != nil:
		log.Printf("[KIOSK] employee lookup failed school=%s staff=%s, recording as %s: %v", schoolID, st.StaffID, typ, err)
	case e != nil:
		typ = e.EmployeeSettingsType
	}
	now := s.Now()
	rec := &model.StaffAttendanceModel{
		StaffAttendanceSchoolID:  schoolID,
		StaffAttendanceStaffID:   st.StaffID,
		StaffAttendanceDate:      dbtime.CivilDate(day),
		StaffAttendanceStaffName: st.StaffName,
		StaffAttendanceCheckInAt: day,
		StaffAttendanceStatus:    status,
		StaffAttendanceType:      typ,
		StaffAttendanceRemarks:   helper.StrPtr(in.Remarks),
		StaffAttendanceUpdatedAt: now,
	}
	if err := s.Store.UpsertRecord(ctx, rec); err != nil {
		return nil, errors.Wrap(err, "save staff attendance")
	}
	saved, err := s.Store.Record(ctx, schoolID, st.StaffID, rec.StaffAttendanceDate)
	if err != nil || saved == nil {
		return rec, nil
	}
	return saved, nil
}

/* =========================================================
   EXPORTS
   ========================================================= */

func clock(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.In(loc).Format("15:04")
}

func remarks(r *model.StaffAttendanceModel) string {
	if r.StaffAttendanceRemarks == nil || strings.TrimSpace(*r.StaffAttendanceRemarks) == "" {
		return "-"
	}
	return *r.StaffAttendanceRemarks
}

func title(s model.StaffStatus) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

func rows(rep *Report, loc *time.Location) [][]string {
	out := make([][]string, 0, len(rep.Records))
	for i := range rep.Records {
		r := &rep.Records[i]
		in := clock(&r.StaffAttendanceCheckInAt, loc)
		if r.StaffAttendanceStatus == model.StaffAbsent {
			in = "-"
		}
		out = append(out, []string{
			r.StaffAttendanceDate.Format(exportx.DateLayout),
			r.StaffAttendanceStaffName,
			title(r.StaffAttendanceStatus),
			in,
			clock(r.StaffAttendanceCheckOutAt, loc),
			remarks(r),
		})
	}
	return out
}

var reportHeader = []string{"Date", "Staff Name", "Status", "Check In", "Check Out", "Remarks"}

func ExportCSV(rep *Report, loc *time.Location) []byte {
	if loc == nil {
		loc = time.UTC
	}
	csv := exportx.NewCSV(reportHeader, 1, 5)
	for _, r := range rows(rep, loc) {
		csv.Add(r...)
	}
	return csv.Bytes()
}

func BuildReport(schoolName string, rep *Report, loc *time.Location, now time.Time) exportx.Report {
	if loc == nil {
		loc = time.UTC
	}
	who := "All Staff"
	if rep.StaffName != "" {
		who = rep.StaffName
	}
	sum := rep.Summary
	return exportx.Report{
		Title:    schoolName,
		Subtitle: []string{"Staff Attendance Report", who + " - " + rep.Month, "Generated on " + now.Format(exportx.DateLayout)},
		Summary: [][2]string{
			{"Total Working Days", fmt.Sprint(sum.TotalWorkingDays)},
			{"Days Present", fmt.Sprint(sum.DaysPresent)},
			{"Days Absent", fmt.Sprint(sum.DaysAbsent)},
			{"Days Late", fmt.Sprint(sum.DaysLate)},
			{"Leaves Taken", fmt.Sprint(sum.LeavesTaken)},
		},
		Header: reportHeader,
		Widths: []float64{25, 50, 22, 22, 22, 49},
		Rows:   rows(rep, loc),
		Footer: "Generated by Schoolku",
	}
}
