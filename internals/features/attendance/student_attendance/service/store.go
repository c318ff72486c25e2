package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schoolku_backend/internals/features/attendance/student_attendance/model"
	studentModel "schoolku_backend/internals/features/students/students/model"
)

// Row is an attendance record with the names needed for display and export.
type Row struct {
	model.StudentAttendanceModel
	StudentName string `json:"student_name" gorm:"column:student_name"`
	ClassName   string `json:"class_name" gorm:"column:class_name"`
}

// ListFilter: StudentID wins over ClassID when both are set.
type ListFilter struct {
	SchoolID  uuid.UUID
	From, To  *time.Time
	ClassID   *uuid.UUID
	StudentID *uuid.UUID
}

type Store interface {
	// Students returns the school's students, narrowed to classID when set.
	Students(ctx context.Context, schoolID uuid.UUID, classID *uuid.UUID) ([]studentModel.StudentModel, error)
	// InsertIfAbsent relies on the (school, student, date) unique index.
	// It returns false when a record for that day already exists.
	InsertIfAbsent(ctx context.Context, rec *model.StudentAttendanceModel) (bool, error)
	List(ctx context.Context, f ListFilter) ([]Row, error)
	ForDate(ctx context.Context, schoolID uuid.UUID, date time.Time) ([]model.StudentAttendanceModel, error)
	// InTx runs fn as one unit of work; any error rolls everything back.
	InTx(ctx context.Context, fn func(tx TxStore) error) error
}

type TxStore interface {
	// Upsert writes the day's record, replacing status, notes and marker on conflict.
	Upsert(rec *model.StudentAttendanceModel) error
	Audit(entry *model.AuditLogModel) error
}

type GormStore struct{ DB *gorm.DB }

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{DB: db} }

var dayConflict = []clause.Column{
	{Name: "student_attendance_school_id"},
	{Name: "student_attendance_student_id"},
	{Name: "student_attendance_date"},
}

func (s *GormStore) Students(ctx context.Context, schoolID uuid.UUID, classID *uuid.UUID) ([]studentModel.StudentModel, error) {
	q := s.DB.WithContext(ctx).Where("student_school_id = ?", schoolID)
	if classID != nil {
		q = q.Where("student_class_id = ?", *classID)
	}
	var out []studentModel.StudentModel
	err := q.Order("student_first_name ASC, student_last_name ASC").Find(&out).Error
	return out, err
}

func (s *GormStore) InsertIfAbsent(ctx context.Context, rec *model.StudentAttendanceModel) (bool, error) {
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: dayConflict, DoNothing: true}).
		Create(rec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) List(ctx context.Context, f ListFilter) ([]Row, error) {
	q := s.DB.WithContext(ctx).
		Table("student_attendances AS a").
		Select(`a.*,
			COALESCE(NULLIF(TRIM(CONCAT_WS(' ', st.student_first_name, NULLIF(st.student_middle_name, ''), st.student_last_name)), ''), 'Unknown') AS student_name,
			COALESCE(NULLIF(cl.class_name, ''), 'Unknown') AS class_name`).
		Joins("LEFT JOIN students st ON st.student_id = a.student_attendance_student_id").
		Joins("LEFT JOIN classes cl ON cl.class_id = a.student_attendance_class_id").
		Where("a.student_attendance_school_id = ?", f.SchoolID)

	switch {
	case f.StudentID != nil:
		q = q.Where("a.student_attendance_student_id = ?", *f.StudentID)
	case f.ClassID != nil:
		q = q.Where("a.student_attendance_class_id = ?", *f.ClassID)
	}
	if f.From != nil {
		q = q.Where("a.student_attendance_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("a.student_attendance_date <= ?", *f.To)
	}

	var out []Row
	err := q.Order("a.student_attendance_date DESC, student_name ASC").Scan(&out).Error
	return out, err
}

func (s *GormStore) ForDate(ctx context.Context, schoolID uuid.UUID, date time.Time) ([]model.StudentAttendanceModel, error) {
	var out []model.StudentAttendanceModel
	err := s.DB.WithContext(ctx).
		Where("student_attendance_school_id = ? AND student_attendance_date = ?", schoolID, date).
		Find(&out).Error
	return out, err
}

func (s *GormStore) InTx(ctx context.Context, fn func(tx TxStore) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTx{tx})
	})
}

type gormTx struct{ tx *gorm.DB }

func (g gormTx) Upsert(rec *model.StudentAttendanceModel) error {
	return g.tx.Clauses(clause.OnConflict{
		Columns: dayConflict,
		DoUpdates: clause.AssignmentColumns([]string{
			"student_attendance_class_id",
			"student_attendance_status",
			"student_attendance_notes",
			"student_attendance_marked_by",
			"student_attendance_marked_at",
			"student_attendance_updated_at",
		}),
	}).Create(rec).Error
}

func (g gormTx) Audit(entry *model.AuditLogModel) error {
	return g.tx.Create(entry).Error
}
