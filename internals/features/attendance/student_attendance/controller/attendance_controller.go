package controller

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolku_backend/internals/features/attendance/student_attendance/dto"
	"schoolku_backend/internals/features/attendance/student_attendance/service"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
)

type AttendanceController struct {
	Svc *service.AttendanceService
}

func NewAttendanceController(db *gorm.DB, pub service.Publisher) *AttendanceController {
	return &AttendanceController{Svc: service.New(service.NewGormStore(db), pub)}
}

// scope builds the explicit session for the service from Locals.
func scope(c *fiber.Ctx) (service.Scope, error) {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return service.Scope{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return service.Scope{}, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return service.Scope{SchoolID: schoolID, UserID: userID, Loc: dbtime.GetSchoolLocation(c)}, nil
}

func optionalUUID(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+key)
	}
	return &id, nil
}

func optionalDate(c *fiber.Ctx, key string, loc *time.Location) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	t, err := dbtime.ParseDate(v, loc)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, key+" must be YYYY-MM-DD")
	}
	d := dbtime.CivilDate(t)
	return &d, nil
}

func listFilter(c *fiber.Ctx) (service.ListFilter, error) {
	sc, err := scope(c)
	if err != nil {
		return service.ListFilter{}, err
	}
	f := service.ListFilter{SchoolID: sc.SchoolID}
	if f.From, err = optionalDate(c, "from", sc.Loc); err != nil {
		return f, err
	}
	if f.To, err = optionalDate(c, "to", sc.Loc); err != nil {
		return f, err
	}
	if f.ClassID, err = optionalUUID(c, "class_id"); err != nil {
		return f, err
	}
	if f.StudentID, err = optionalUUID(c, "student_id"); err != nil {
		return f, err
	}
	return f, nil
}

// POST /api/a/:school_id/attendance/bulk
func (ac *AttendanceController) BulkMark(c *fiber.Ctx) error {
	sc, err := scope(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.BulkMarkRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if errs := helper.ValidateStruct(&req, nil); errs != nil {
		return helper.JsonValidationError(c, errs)
	}
	res, err := ac.Svc.BulkMark(c.UserContext(), sc, req.ToInput())
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	msg := fmt.Sprintf("Attendance saved for %d students", res.Marked)
	if len(res.Skipped) > 0 {
		msg += fmt.Sprintf(", %d skipped", len(res.Skipped))
	}
	return helper.JsonOK(c, msg, res)
}

// POST /api/a/:school_id/attendance/quick
func (ac *AttendanceController) QuickMark(c *fiber.Ctx) error {
	sc, err := scope(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.QuickMarkRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if errs := helper.ValidateStruct(&req, nil); errs != nil {
		return helper.JsonValidationError(c, errs)
	}
	rec, err := ac.Svc.QuickMark(c.UserContext(), sc, req.ToInput())
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Attendance marked", rec)
}

// GET /api/a/:school_id/attendance
func (ac *AttendanceController) List(c *fiber.Ctx) error {
	f, err := listFilter(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	rows, stats, err := ac.Svc.List(c.UserContext(), f)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	paging := helper.ResolvePaging(c, 50, 500)
	lo, hi := paging.Window(len(rows))
	pg := helper.BuildPaginationFromOffset(int64(len(rows)), paging.Offset, paging.Limit)
	return helper.JsonListEx(c, "ok", rows[lo:hi], &pg, fiber.Map{"stats": stats})
}

// GET /api/a/:school_id/attendance/today
func (ac *AttendanceController) Today(c *fiber.Ctx) error {
	sc, err := scope(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	classID, err := optionalUUID(c, "class_id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	date, list, err := ac.Svc.TodayStatus(c.UserContext(), sc, classID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{"date": date, "students": list})
}

// GET /api/a/:school_id/attendance/export.csv
func (ac *AttendanceController) ExportCSV(c *fiber.Ctx) error {
	f, err := listFilter(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	rows, _, err := ac.Svc.List(c.UserContext(), f)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="attendance_%s.csv"`, dbtime.NowInSchool(c).Format("20060102")))
	return c.Send(service.ExportCSV(rows))
}
