package controller

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	"schoolku_backend/internals/features/attendance/staff_attendance/dto"
	"schoolku_backend/internals/features/attendance/staff_attendance/service"
	schoolModel "schoolku_backend/internals/features/schools/schools/model"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
)

type StaffAttendanceController struct {
	DB  *gorm.DB
	Svc *service.Service
}

func NewStaffAttendanceController(db *gorm.DB, pub service.Publisher) *StaffAttendanceController {
	return &StaffAttendanceController{DB: db, Svc: service.New(service.NewGormStore(db), pub)}
}

func schoolOf(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := helper.GetSchoolID(c)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return id, nil
}

/* =========================================================
   GENERAL SETTINGS
   ========================================================= */

// GET /api/a/:school_id/staff-attendance/settings
func (ctl *StaffAttendanceController) GetGeneralSettings(c *fiber.Ctx) error {
	schoolID, err := schoolOf(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	m, err := ctl.Svc.GeneralSettings(c.UserContext(), schoolID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToGeneralSettingsResponse(m.AttendanceSettingsLateTime.String(), m.AttendanceSettingsOffDays))
}

// PUT /api/a/:school_id/staff-attendance/settings
func (ctl *StaffAttendanceController) UpdateGeneralSettings(c *fiber.Ctx) error {
	schoolID, err := schoolOf(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var in service.GeneralInput
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	m, err := ctl.Svc.UpdateGeneralSettings(c.UserContext(), schoolID, in)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "Attendance settings saved", dto.ToGeneralSettingsResponse(m.AttendanceSettingsLateTime.String(), m.AttendanceSettingsOffDays))
}

/* =========================================================
   EMPLOYEE SETTINGS
   ========================================================= */

// GET /api/a/:school_id/staff-attendance/employees
func (ctl *StaffAttendanceController) ListEmployeeSettings(c *fiber.Ctx) error {
	schoolID, err := schoolOf(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	list, err := ctl.Svc.ListEmployeeSettings(c.UserContext(), schoolID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", list)
}

// PUT /api/a/:school_id/staff-attendance/employees/:staff_id
func (ctl *StaffAttendanceController) UpsertEmployeeSettings(c *fiber.Ctx) error {
	schoolID, err := schoolOf(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	staffID, err := helper.ParseUUIDParam(c, "staff_id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid staff_id")
	}
	var in service.EmployeeInput
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	res, err := ctl.Svc.UpsertEmployeeSettings(c.UserContext(), schoolID, staffID, in)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "Employee settings saved", res)
}

// POST /api/a/:school_id/staff-attendance/employees/:staff_id/regenerate-pin
func (ctl *StaffAttendanceController) RegeneratePIN(c *fiber.Ctx) error {
	schoolID, err := schoolOf(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	staffID, err := helper.ParseUUIDParam(c, "staff_id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid staff_id")
	}
	pin, err := ctl.Svc.RegeneratePIN(c.UserContext(), schoolID, staffID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "New PIN generated. It will not be shown again.", fiber.Map{"staff_id": staffID, "pin": pin})
}

/* =========================================================
   KIOSK
   ========================================================= */

func kioskScope(c *fiber.Ctx) (service.KioskScope, error) {
	schoolID, err := schoolOf(c)
	if err != nil {
		return service.KioskScope{}, err
	}
	return service.KioskScope{SchoolID: schoolID, Loc: dbtime.GetSchoolLocation(c)}, nil
}

// POST /api/k/:school_id/staff-attendance/sign-in
func (ctl *StaffAttendanceController) KioskSignIn(c *fiber.Ctx) error {
	sc, err := kioskScope(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.PinRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	rec, err := ctl.Svc.SignIn(c.UserContext(), sc, req.Normalize())
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	msg := fmt.Sprintf("Welcome, %s! Signed in successfully at %s", rec.StaffAttendanceStaffName, rec.StaffAttendanceCheckInAt.Format("15:04"))
	return helper.JsonCreated(c, msg, rec)
}

// POST /api/k/:school_id/staff-attendance/sign-out
func (ctl *StaffAttendanceController) KioskSignOut(c *fiber.Ctx) error {
	sc, err := kioskScope(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.PinRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	rec, err := ctl.Svc.SignOut(c.UserContext(), sc, req.Normalize())
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, fmt.Sprintf("Goodbye, %s!", rec.StaffAttendanceStaffName), rec)
}

// KioskURL is what the printed QR code points at.
func KioskURL(schoolID uuid.UUID) string {
	return configs.KioskBaseURL + "/kiosk/" + schoolID.String()
}

// GET /api/a/:school_id/staff-attendance/kiosk-qr.png?size=
func (ctl *StaffAttendanceController) KioskQR(c *fiber.Ctx) error {
	schoolID, err := schoolOf(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	size := c.QueryInt("size", 512)
	if size < 128 || size > 2048 {
		size = 512
	}
	png, err := qrcode.Encode(KioskURL(schoolID), qrcode.Medium, size)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to generate QR code")
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
	return c.Send(png)
}

/* =========================================================
   RECORDS / REPORT
   ========================================================= */

// POST /api/a/:school_id/staff-attendance/records
func (ctl *StaffAttendanceController) RecordAttendance(c *fiber.Ctx) error {
	schoolID, err := schoolOf(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.RecordRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if errs := helper.ValidateStruct(&req, nil); errs != nil {
		return helper.JsonValidationError(c, errs)
	}
	rec, err := ctl.Svc.RecordAttendance(c.UserContext(), schoolID, dbtime.GetSchoolLocation(c), req.ToInput())
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Attendance record saved", rec)
}

func (ctl *StaffAttendanceController) report(c *fiber.Ctx) (*service.Report, error) {
	schoolID, err := schoolOf(c)
	if err != nil {
		return nil, err
	}
	var staffID *uuid.UUID
	if v := strings.TrimSpace(c.Query("staff_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid staff_id")
		}
		staffID = &id
	}
	return ctl.Svc.Report(c.UserContext(), schoolID, dbtime.GetSchoolLocation(c), staffID, c.Query("month"))
}

// GET /api/a/:school_id/staff-attendance/report?staff_id=&month=YYYY-MM
func (ctl *StaffAttendanceController) Report(c *fiber.Ctx) error {
	rep, err := ctl.report(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", rep)
}

func filename(rep *service.Report, ext string) string {
	return fmt.Sprintf(`attachment; filename="staff_attendance_%s.%s"`, rep.Month, ext)
}

// GET /api/a/:school_id/staff-attendance/report.csv
func (ctl *StaffAttendanceController) ExportCSV(c *fiber.Ctx) error {
	rep, err := ctl.report(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, filename(rep, "csv"))
	return c.Send(service.ExportCSV(rep, dbtime.GetSchoolLocation(c)))
}

// GET /api/a/:school_id/staff-attendance/report.pdf
func (ctl *StaffAttendanceController) ReportPDF(c *fiber.Ctx) error {
	rep, err := ctl.report(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	schoolID, _ := helper.GetSchoolID(c)
	name := "School"
	var s schoolModel.SchoolModel
	if err := ctl.DB.WithContext(c.UserContext()).Select("school_name").
		Where("school_id = ?", schoolID).Take(&s).Error; err == nil {
		name = s.SchoolName
	}
	doc, err := service.BuildReport(name, rep, dbtime.GetSchoolLocation(c), dbtime.NowInSchool(c)).PDF()
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to render report")
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, filename(rep, "pdf"))
	return c.Send(doc)
}
