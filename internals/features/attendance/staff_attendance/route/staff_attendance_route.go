package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	"schoolku_backend/internals/features/attendance/live"
	"schoolku_backend/internals/features/attendance/staff_attendance/controller"
	schoolCtx "schoolku_backend/internals/middlewares/school"
)

func StaffAttendanceAdminRoutes(r fiber.Router, db *gorm.DB, hub *live.Hub) {
	ctrl := controller.NewStaffAttendanceController(db, hub)

	g := r.Group("/staff-attendance", schoolCtx.RequireSchoolRole(constants.RoleErrorAdmin("staff attendance"), constants.AdminOnly...))
	g.Get("/settings", ctrl.GetGeneralSettings)
	g.Put("/settings", ctrl.UpdateGeneralSettings)
	g.Get("/employees", ctrl.ListEmployeeSettings)
	g.Put("/employees/:staff_id", ctrl.UpsertEmployeeSettings)
	g.Post("/employees/:staff_id/regenerate-pin", ctrl.RegeneratePIN)
	g.Post("/records", ctrl.RecordAttendance)
	g.Get("/report", ctrl.Report)
	g.Get("/report.csv", ctrl.ExportCSV)
	g.Get("/report.pdf", ctrl.ReportPDF)
	g.Get("/kiosk-qr.png", ctrl.KioskQR)
}

// StaffAttendanceKioskRoutes is mounted under /api/k/:school_id with the
// kiosk school resolver and rate limiter already applied.
func StaffAttendanceKioskRoutes(r fiber.Router, db *gorm.DB, hub *live.Hub) {
	ctrl := controller.NewStaffAttendanceController(db, hub)

	g := r.Group("/staff-attendance")
	g.Post("/sign-in", ctrl.KioskSignIn)
	g.Post("/sign-out", ctrl.KioskSignOut)
}
