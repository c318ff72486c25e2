package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolku_backend/internals/features/attendance/live"
	"schoolku_backend/internals/features/attendance/student_attendance/model"
	studentModel "schoolku_backend/internals/features/students/students/model"
)

type dayKey struct {
	school, student uuid.UUID
	date            string
}

// memStore enforces the (school, student, date) uniqueness the real index gives.
type memStore struct {
	mu       sync.Mutex
	students []studentModel.StudentModel
	records  map[dayKey]model.StudentAttendanceModel
	audits   []model.AuditLogModel
	failOn   uuid.UUID
}

func newMemStore(students ...studentModel.StudentModel) *memStore {
	return &memStore{students: students, records: map[dayKey]model.StudentAttendanceModel{}}
}

func keyOf(r *model.StudentAttendanceModel) dayKey {
	return dayKey{r.StudentAttendanceSchoolID, r.StudentAttendanceStudentID, r.StudentAttendanceDate.Format("2006-01-02")}
}

func (m *memStore) Students(_ context.Context, schoolID uuid.UUID, classID *uuid.UUID) ([]studentModel.StudentModel, error) {
	var out []studentModel.StudentModel
	for _, s := range m.students {
		if s.StudentSchoolID == schoolID && (classID == nil || s.StudentClassID == *classID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) InsertIfAbsent(_ context.Context, rec *model.StudentAttendanceModel) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := keyOf(rec)
	if _, ok := m.records[k]; ok {
		return false, nil
	}
	rec.StudentAttendanceID = uuid.New()
	m.records[k] = *rec
	return true, nil
}

func (m *memStore) List(_ context.Context, f ListFilter) ([]Row, error) {
	var out []Row
	for _, r := range m.records {
		if r.StudentAttendanceSchoolID == f.SchoolID {
			out = append(out, Row{StudentAttendanceModel: r})
		}
	}
	return out, nil
}

func (m *memStore) ForDate(_ context.Context, schoolID uuid.UUID, date time.Time) ([]model.StudentAttendanceModel, error) {
	var out []model.StudentAttendanceModel
	for k, r := range m.records {
		if k.school == schoolID && k.date == date.Format("2006-01-02") {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) InTx(_ context.Context, fn func(tx TxStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{store: m, records: map[dayKey]model.StudentAttendanceModel{}}
	if err := fn(tx); err != nil {
		return err
	}
	for k, r := range tx.records {
		m.records[k] = r
	}
	m.audits = append(m.audits, tx.audits...)
	return nil
}

type memTx struct {
	store   *memStore
	records map[dayKey]model.StudentAttendanceModel
	audits  []model.AuditLogModel
}

func (t *memTx) Upsert(rec *model.StudentAttendanceModel) error {
	if rec.StudentAttendanceStudentID == t.store.failOn {
		return errors.New("boom")
	}
	k := keyOf(rec)
	if old, ok := t.store.records[k]; ok {
		rec.StudentAttendanceID = old.StudentAttendanceID
	} else {
		rec.StudentAttendanceID = uuid.New()
	}
	t.records[k] = *rec
	return nil
}

func (t *memTx) Audit(e *model.AuditLogModel) error {
	t.audits = append(t.audits, *e)
	return nil
}

type recPublisher struct {
	mu     sync.Mutex
	events []live.Event
}

func (p *recPublisher) Publish(ev live.Event) (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return 1, 0
}

var (
	school = uuid.New()
	class1 = uuid.New()
	class2 = uuid.New()
	kla    = time.FixedZone("EAT", 3*60*60)
)

func mkStudent(first string, class uuid.UUID) studentModel.StudentModel {
	return studentModel.StudentModel{StudentID: uuid.New(), StudentSchoolID: school, StudentClassID: class, StudentFirstName: first, StudentLastName: "Test"}
}

// 23:30 UTC is already the next day in Kampala.
func fixedNow() time.Time { return time.Date(2026, 10, 13, 23, 30, 0, 0, time.UTC) }

func newSvc(store *memStore, pub Publisher) (*AttendanceService, Scope) {
	svc := New(store, pub)
	svc.Now = fixedNow
	return svc, Scope{SchoolID: school, UserID: uuid.New(), Loc: kla}
}

func TestBulkMark_DefaultsSkipsAndDedupes(t *testing.T) {
	a, b, c := mkStudent("Amina", class1), mkStudent("Brian", class1), mkStudent("Claire", class2)
	store := newMemStore(a, b, c)
	pub := &recPublisher{}
	svc, sc := newSvc(store, pub)
	stranger := uuid.New()

	res, err := svc.BulkMark(context.Background(), sc, BulkInput{
		ClassID: &class1,
		Entries: []BulkEntry{
			{StudentID: a.StudentID},
			{StudentID: b.StudentID, Status: "absent", Notes: "sick"},
			{StudentID: c.StudentID, Status: "Present"},
			{StudentID: stranger},
			{StudentID: b.StudentID, Status: "LATE"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-14", res.Date)
	assert.Equal(t, 2, res.Marked)
	assert.ElementsMatch(t, []uuid.UUID{c.StudentID, stranger}, res.Skipped)

	require.Len(t, store.records, 2)
	ra := store.records[dayKey{school, a.StudentID, "2026-10-14"}]
	rb := store.records[dayKey{school, b.StudentID, "2026-10-14"}]
	assert.Equal(t, model.StatusPresent, ra.StudentAttendanceStatus)
	assert.Equal(t, model.StatusLate, rb.StudentAttendanceStatus)
	assert.Nil(t, rb.StudentAttendanceNotes)
	assert.Len(t, store.audits, 2)
	assert.Equal(t, model.AuditAttendanceMarked, store.audits[0].AuditLogAction)
	require.Len(t, pub.events, 1)
	assert.Equal(t, live.EventMarked, pub.events[0].Type)
}

func TestBulkMark_ResubmitAmends(t *testing.T) {
	a := mkStudent("Amina", class1)
	store := newMemStore(a)
	svc, sc := newSvc(store, nil)
	ctx := context.Background()

	_, err := svc.BulkMark(ctx, sc, BulkInput{Entries: []BulkEntry{{StudentID: a.StudentID, Status: "Absent"}}})
	require.NoError(t, err)
	_, err = svc.BulkMark(ctx, sc, BulkInput{Entries: []BulkEntry{{StudentID: a.StudentID, Status: "Excused"}}})
	require.NoError(t, err)

	require.Len(t, store.records, 1)
	for _, r := range store.records {
		assert.Equal(t, model.StatusExcused, r.StudentAttendanceStatus)
	}
}

func TestBulkMark_AllOrNothing(t *testing.T) {
	a, b := mkStudent("Amina", class1), mkStudent("Brian", class1)
	store := newMemStore(a, b)
	store.failOn = b.StudentID
	pub := &recPublisher{}
	svc, sc := newSvc(store, pub)

	_, err := svc.BulkMark(context.Background(), sc, BulkInput{Entries: []BulkEntry{{StudentID: a.StudentID}, {StudentID: b.StudentID}}})
	assert.ErrorIs(t, err, ErrMarkFailed)
	assert.Empty(t, store.records)
	assert.Empty(t, store.audits)
	assert.Empty(t, pub.events)
}

func TestBulkMark_Validation(t *testing.T) {
	a := mkStudent("Amina", class1)
	svc, sc := newSvc(newMemStore(a), nil)

	_, err := svc.BulkMark(context.Background(), sc, BulkInput{})
	assert.ErrorIs(t, err, ErrNoEntries)

	_, err = svc.BulkMark(context.Background(), sc, BulkInput{Entries: []BulkEntry{{StudentID: a.StudentID, Status: "Sleeping"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Status must be")
}

func TestQuickMark_Once(t *testing.T) {
	a := mkStudent("Amina", class1)
	store := newMemStore(a)
	svc, sc := newSvc(store, nil)
	ctx := context.Background()

	rec, err := svc.QuickMark(ctx, sc, QuickInput{StudentID: a.StudentID, Status: "late"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusLate, rec.StudentAttendanceStatus)
	assert.Equal(t, class1, rec.StudentAttendanceClassID)

	_, err = svc.QuickMark(ctx, sc, QuickInput{StudentID: a.StudentID, Status: "Present"})
	assert.ErrorIs(t, err, ErrAlreadyMarked)
	assert.Len(t, store.records, 1)

	_, err = svc.QuickMark(ctx, sc, QuickInput{StudentID: uuid.New()})
	assert.ErrorIs(t, err, ErrStudentAbsent)
}

func TestQuickMark_ConcurrentCallsYieldOneRecord(t *testing.T) {
	a := mkStudent("Amina", class1)
	store := newMemStore(a)
	svc, sc := newSvc(store, nil)

	const n = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, conflicts := 0, 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.QuickMark(context.Background(), sc, QuickInput{StudentID: a.StudentID, Status: "Present"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, ErrAlreadyMarked) {
				conflicts++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
	assert.Len(t, store.records, 1)
}

func TestTodayStatus(t *testing.T) {
	a, b := mkStudent("Amina", class1), mkStudent("Brian", class1)
	store := newMemStore(a, b)
	svc, sc := newSvc(store, nil)
	_, err := svc.QuickMark(context.Background(), sc, QuickInput{StudentID: a.StudentID, Status: "Absent"})
	require.NoError(t, err)

	date, list, err := svc.TodayStatus(context.Background(), sc, nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-14", date)
	got := map[string]string{}
	for _, e := range list {
		got[e.StudentName] = e.Status
	}
	assert.Equal(t, map[string]string{"Amina Test": "Absent", "Brian Test": NotMarked}, got)
}

func row(date, name, class string, st model.AttendanceStatus, notes *string) Row {
	d, _ := time.Parse("2006-01-02", date)
	return Row{
		StudentAttendanceModel: model.StudentAttendanceModel{StudentAttendanceDate: d, StudentAttendanceStatus: st, StudentAttendanceNotes: notes},
		StudentName:            name,
		ClassName:              class,
	}
}

func TestComputeStats(t *testing.T) {
	assert.Equal(t, Stats{}, ComputeStats(nil))
	st := ComputeStats([]Row{
		row("2026-10-14", "A", "P1", model.StatusPresent, nil),
		row("2026-10-14", "B", "P1", model.StatusLate, nil),
		row("2026-10-14", "C", "P1", model.StatusAbsent, nil),
	})
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 66.67, st.AverageRate)
}

func TestExportCSV(t *testing.T) {
	notes := `said "hi", left early`
	rows := []Row{
		row("2026-10-14", "Amina Nakato", "Primary One", model.StatusPresent, nil),
		row("2026-10-13", "Brian Okello", "P1, West", model.StatusAbsent, &notes),
	}
	out := ExportCSV(rows)
	want := "Date,Student Name,Class,Status,Notes\n" +
		`2026-10-14,"Amina Nakato","Primary One",Present,""` + "\n" +
		`2026-10-13,"Brian Okello","P1, West",Absent,"said ""hi"", left early"`
	assert.Equal(t, want, string(out))
	assert.Len(t, strings.Split(string(out), "\n"), len(rows)+1)
	assert.Equal(t, out, ExportCSV(rows))
}

func TestExportCSVUnknownStudentAndClass(t *testing.T) {
	rows := []Row{
		row("2026-10-14", "", "", model.StatusLate, nil),
		row("2026-10-14", "  ", "Primary Two", model.StatusPresent, nil),
	}
	want := "Date,Student Name,Class,Status,Notes\n" +
		`2026-10-14,"Unknown","Unknown",Late,""` + "\n" +
		`2026-10-14,"Unknown","Primary Two",Present,""`
	assert.Equal(t, want, string(ExportCSV(rows)))
}
