package service

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"

	"schoolku_backend/internals/features/attendance/live"
	"schoolku_backend/internals/features/attendance/student_attendance/model"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
	"schoolku_backend/internals/helpers/exportx"
	"schoolku_backend/internals/helpers/metrics"
)

var (
	ErrAlreadyMarked = helper.NewCodedError(fiber.StatusConflict, "ALREADY_MARKED", "Attendance already marked for today. Use edit if needed.")
	ErrNoEntries     = helper.NewCodedError(fiber.StatusBadRequest, "NO_ENTRIES", "No students to mark")
	ErrMarkFailed    = helper.NewCodedError(fiber.StatusInternalServerError, "MARK_FAILED", "Failed to save attendance. Please try again.")
	ErrStudentAbsent = helper.NewCodedError(fiber.StatusNotFound, "STUDENT_NOT_FOUND", "Student not found")
)

const NotMarked = "Not Marked"

// Publisher is the live feed; nil disables pushes.
type Publisher interface {
	Publish(ev live.Event) (int, int)
}

type AttendanceService struct {
	Store Store
	Live  Publisher
	Now   func() time.Time
}

func New(store Store, pub Publisher) *AttendanceService {
	return &AttendanceService{Store: store, Live: pub, Now: time.Now}
}

// Scope is the caller's resolved session: school, timezone and actor.
type Scope struct {
	SchoolID uuid.UUID
	UserID   uuid.UUID
	Loc      *time.Location
}

func (s *AttendanceService) today(sc Scope) time.Time {
	loc := sc.Loc
	if loc == nil {
		loc = time.UTC
	}
	return dbtime.CivilDate(s.Now().In(loc))
}

/* =========================================================
   BULK MARK
   ========================================================= */

type BulkEntry struct {
	StudentID uuid.UUID `json:"student_id"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
}

type BulkInput struct {
	ClassID *uuid.UUID  `json:"class_id"`
	Entries []BulkEntry `json:"entries"`
}

type BulkResult struct {
	Date    string                         `json:"date"`
	Marked  int                            `json:"marked"`
	Skipped []uuid.UUID                    `json:"skipped"`
	Records []model.StudentAttendanceModel `json:"records"`
}

// BulkMark records today's register. Students outside the resolved set are
// skipped; a student listed twice keeps the last entry. All records and
// their audit rows are written in one transaction.
func (s *AttendanceService) BulkMark(ctx context.Context, sc Scope, in BulkInput) (*BulkResult, error) {
	if len(in.Entries) == 0 {
		return nil, ErrNoEntries
	}
	students, err := s.Store.Students(ctx, sc.SchoolID, in.ClassID)
	if err != nil {
		return nil, errors.Wrap(err, "load students")
	}
	classOf := make(map[uuid.UUID]uuid.UUID, len(students))
	for _, st := range students {
		classOf[st.StudentID] = st.StudentClassID
	}

	date := s.today(sc)
	now := s.Now()
	res := &BulkResult{Date: date.Format("2006-01-02"), Skipped: []uuid.UUID{}}

	order := make([]uuid.UUID, 0, len(in.Entries))
	byStudent := make(map[uuid.UUID]*model.StudentAttendanceModel, len(in.Entries))
	for _, e := range in.Entries {
		classID, ok := classOf[e.StudentID]
		if !ok {
			res.Skipped = append(res.Skipped, e.StudentID)
			continue
		}
		status, err := model.ParseAttendanceStatus(e.Status)
		if err != nil {
			return nil, helper.NewCodedError(fiber.StatusBadRequest, "INVALID_STATUS", "Status must be Present, Absent, Late or Excused")
		}
		if _, seen := byStudent[e.StudentID]; !seen {
			order = append(order, e.StudentID)
		}
		byStudent[e.StudentID] = &model.StudentAttendanceModel{
			StudentAttendanceSchoolID:  sc.SchoolID,
			StudentAttendanceStudentID: e.StudentID,
			StudentAttendanceClassID:   classID,
			StudentAttendanceDate:      date,
			StudentAttendanceStatus:    status,
			StudentAttendanceMarkedBy:  sc.UserID,
			StudentAttendanceMarkedAt:  now,
			StudentAttendanceNotes:     helper.StrPtr(e.Notes),
		}
	}
	if len(order) == 0 {
		return res, nil
	}

	records := make([]model.StudentAttendanceModel, 0, len(order))
	err = s.Store.InTx(ctx, func(tx TxStore) error {
		for _, id := range order {
			rec := byStudent[id]
			if err := tx.Upsert(rec); err != nil {
				return errors.Wrapf(err, "upsert student=%s", id)
			}
			if err := tx.Audit(auditEntry(rec)); err != nil {
				return errors.Wrapf(err, "audit student=%s", id)
			}
			records = append(records, *rec)
		}
		return nil
	})
	if err != nil {
		log.Printf("[ATTENDANCE] bulk mark rolled back school=%s n=%d: %v", sc.SchoolID, len(order), err)
		return nil, ErrMarkFailed
	}

	res.Marked = len(records)
	res.Records = records
	metrics.AttendanceMarks.WithLabelValues("bulk").Add(float64(len(records)))
	s.publish(sc.SchoolID, res.Date, records)
	return res, nil
}

func auditEntry(rec *model.StudentAttendanceModel) *model.AuditLogModel {
	payload, _ := json.Marshal(map[string]any{
		"student_id": rec.StudentAttendanceStudentID,
		"class_id":   rec.StudentAttendanceClassID,
		"status":     rec.StudentAttendanceStatus,
		"date":       rec.StudentAttendanceDate.Format("2006-01-02"),
	})
	return &model.AuditLogModel{
		AuditLogSchoolID:  rec.StudentAttendanceSchoolID,
		AuditLogAction:    model.AuditAttendanceMarked,
		AuditLogSubjectID: rec.StudentAttendanceStudentID,
		AuditLogUserID:    rec.StudentAttendanceMarkedBy,
		AuditLogPayload:   datatypes.JSON(payload),
	}
}

func (s *AttendanceService) publish(schoolID uuid.UUID, date string, records []model.StudentAttendanceModel) {
	if s.Live == nil {
		return
	}
	s.Live.Publish(live.Event{Type: live.EventMarked, SchoolID: schoolID, Date: date, Records: records})
}

/* =========================================================
   QUICK MARK
   ========================================================= */

type QuickInput struct {
	StudentID uuid.UUID `json:"student_id"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
}

// QuickMark inserts one record for today. A second call for the same
// student and day returns ErrAlreadyMarked, however the calls interleave.
func (s *AttendanceService) QuickMark(ctx context.Context, sc Scope, in QuickInput) (*model.StudentAttendanceModel, error) {
	status, err := model.ParseAttendanceStatus(in.Status)
	if err != nil {
		return nil, helper.NewCodedError(fiber.StatusBadRequest, "INVALID_STATUS", "Status must be Present, Absent, Late or Excused")
	}
	students, err := s.Store.Students(ctx, sc.SchoolID, nil)
	if err != nil {
		return nil, errors.Wrap(err, "load students")
	}
	var classID uuid.UUID
	found := false
	for _, st := range students {
		if st.StudentID == in.StudentID {
			classID, found = st.StudentClassID, true
			break
		}
	}
	if !found {
		return nil, ErrStudentAbsent
	}

	rec := &model.StudentAttendanceModel{
		StudentAttendanceSchoolID:  sc.SchoolID,
		StudentAttendanceStudentID: in.StudentID,
		StudentAttendanceClassID:   classID,
		StudentAttendanceDate:      s.today(sc),
		StudentAttendanceStatus:    status,
		StudentAttendanceMarkedBy:  sc.UserID,
		StudentAttendanceMarkedAt:  s.Now(),
		StudentAttendanceNotes:     helper.StrPtr(in.Notes),
	}
	inserted, err := s.Store.InsertIfAbsent(ctx, rec)
	if err != nil {
		return nil, errors.Wrap(err, "insert attendance")
	}
	if !inserted {
		metrics.AttendanceConflicts.WithLabelValues("student").Inc()
		return nil, ErrAlreadyMarked
	}
	metrics.AttendanceMarks.WithLabelValues("quick").Inc()
	s.publish(sc.SchoolID, rec.StudentAttendanceDate.Format("2006-01-02"), []model.StudentAttendanceModel{*rec})
	return rec, nil
}

/* =========================================================
   LIST / STATS / TODAY
   ========================================================= */

type Stats struct {
	Total       int     `json:"total"`
	Present     int     `json:"present"`
	Absent      int     `json:"absent"`
	Late        int     `json:"late"`
	Excused     int     `json:"excused"`
	AverageRate float64 `json:"average_rate"`
}

// ComputeStats: late counts as attended. The rate is a percentage with two decimals.
func ComputeStats(rows []Row) Stats {
	var st Stats
	for _, r := range rows {
		st.Total++
		switch r.StudentAttendanceStatus {
		case model.StatusPresent:
			st.Present++
		case model.StatusAbsent:
			st.Absent++
		case model.StatusLate:
			st.Late++
		case model.StatusExcused:
			st.Excused++
		}
	}
	if st.Total > 0 {
		st.AverageRate = math.Round(float64(st.Present+st.Late)/float64(st.Total)*10000) / 100
	}
	return st
}

func (s *AttendanceService) List(ctx context.Context, f ListFilter) ([]Row, Stats, error) {
	rows, err := s.Store.List(ctx, f)
	if err != nil {
		return nil, Stats{}, errors.Wrap(err, "list attendance")
	}
	return rows, ComputeStats(rows), nil
}

type TodayEntry struct {
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name"`
	ClassID     uuid.UUID `json:"class_id"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes,omitempty"`
}

// TodayStatus lists every student with today's status or NotMarked.
func (s *AttendanceService) TodayStatus(ctx context.Context, sc Scope, classID *uuid.UUID) (string, []TodayEntry, error) {
	date := s.today(sc)
	students, err := s.Store.Students(ctx, sc.SchoolID, classID)
	if err != nil {
		return "", nil, errors.Wrap(err, "load students")
	}
	recs, err := s.Store.ForDate(ctx, sc.SchoolID, date)
	if err != nil {
		return "", nil, errors.Wrap(err, "load today")
	}
	byStudent := make(map[uuid.UUID]model.StudentAttendanceModel, len(recs))
	for _, r := range recs {
		byStudent[r.StudentAttendanceStudentID] = r
	}
	out := make([]TodayEntry, 0, len(students))
	for i := range students {
		st := &students[i]
		e := TodayEntry{StudentID: st.StudentID, StudentName: st.FullName(), ClassID: st.StudentClassID, Status: NotMarked}
		if r, ok := byStudent[st.StudentID]; ok {
			e.Status = string(r.StudentAttendanceStatus)
			e.Notes = r.StudentAttendanceNotes
		}
		out = append(out, e)
	}
	return date.Format("2006-01-02"), out, nil
}

/* =========================================================
   CSV
   ========================================================= */

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

var csvHeader = []string{"Date", "Student Name", "Class", "Status", "Notes"}

// ExportCSV: one header line plus one line per row, no trailing newline.
// Student name, class and notes are always quoted. A missing student or
// class is written as Unknown.
func ExportCSV(rows []Row) []byte {
	csv := exportx.NewCSV(csvHeader, 1, 2, 4)
	for _, r := range rows {
		notes := ""
		if r.StudentAttendanceNotes != nil {
			notes = *r.StudentAttendanceNotes
		}
		csv.Add(
			r.StudentAttendanceDate.Format("2006-01-02"),
			orUnknown(r.StudentName),
			orUnknown(r.ClassName),
			string(r.StudentAttendanceStatus),
			notes,
		)
	}
	return csv.Bytes()
}
