package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	staffAttendanceModel "schoolku_backend/internals/features/attendance/staff_attendance/model"
	"schoolku_backend/internals/features/attendance/student_attendance/service"
	staffModel "schoolku_backend/internals/features/hr/staff/model"
	classModel "schoolku_backend/internals/features/schools/classes/model"
	studentModel "schoolku_backend/internals/features/students/students/model"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
)

type DashboardController struct {
	DB         *gorm.DB
	Attendance *service.AttendanceService
}

func NewDashboardController(db *gorm.DB) *DashboardController {
	return &DashboardController{DB: db, Attendance: service.New(service.NewGormStore(db), nil)}
}

type Counts struct {
	Students       int64 `json:"students"`
	ActiveStudents int64 `json:"active_students"`
	Staff          int64 `json:"staff"`
	Classes        int64 `json:"classes"`
	StaffSignedIn  int64 `json:"staff_signed_in_today"`
}

type Overview struct {
	Date              string        `json:"date"`
	Counts            Counts        `json:"counts"`
	StudentAttendance service.Stats `json:"student_attendance_today"`
}

// staffSignedInFilter leaves out absent rows an admin entered by hand.
func staffSignedInFilter(schoolID uuid.UUID, day time.Time) (string, []any) {
	return "staff_attendance_school_id = ? AND staff_attendance_date = ? AND staff_attendance_status IN ?",
		[]any{schoolID, day, staffAttendanceModel.SignedInStatuses}
}

// GET /api/a/:school_id/dashboard
func (ctl *DashboardController) Overview(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	ctx := c.UserContext()
	today := dbtime.CivilDate(dbtime.NowInSchool(c))
	out := Overview{Date: today.Format("2006-01-02")}

	count := func(dst *int64, m any, where string, args ...any) func() error {
		return func() error {
			return ctl.DB.WithContext(ctx).Model(m).Where(where, args...).Count(dst).Error
		}
	}

	var g errgroup.Group
	g.Go(count(&out.Counts.Students, &studentModel.StudentModel{}, "student_school_id = ?", schoolID))
	g.Go(count(&out.Counts.ActiveStudents, &studentModel.StudentModel{}, "student_school_id = ? AND student_status = ?", schoolID, studentModel.StudentActive))
	g.Go(count(&out.Counts.Staff, &staffModel.StaffModel{}, "staff_school_id = ?", schoolID))
	g.Go(count(&out.Counts.Classes, &classModel.ClassModel{}, "class_school_id = ?", schoolID))
	where, args := staffSignedInFilter(schoolID, today)
	g.Go(count(&out.Counts.StaffSignedIn, &staffAttendanceModel.StaffAttendanceModel{}, where, args...))
	g.Go(func() error {
		_, stats, err := ctl.Attendance.List(ctx, service.ListFilter{SchoolID: schoolID, From: &today, To: &today})
		out.StudentAttendance = stats
		return err
	})
	if err := g.Wait(); err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to load dashboard")
	}
	return helper.JsonOK(c, "ok", out)
}
