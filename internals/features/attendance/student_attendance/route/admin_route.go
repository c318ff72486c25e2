package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	"schoolku_backend/internals/features/attendance/live"
	"schoolku_backend/internals/features/attendance/student_attendance/controller"
	schoolCtx "schoolku_backend/internals/middlewares/school"
)

func AttendanceAdminRoutes(r fiber.Router, db *gorm.DB, hub *live.Hub) {
	ctrl := controller.NewAttendanceController(db, hub)

	g := r.Group("/attendance", schoolCtx.RequireSchoolRole(constants.RoleErrorMember("attendance"), constants.StaffRoles...))
	g.Get("/", ctrl.List)
	g.Get("/today", ctrl.Today)
	g.Get("/export.csv", ctrl.ExportCSV)
	g.Get("/live", live.RequireUpgrade, live.Handler(hub))
	g.Post("/bulk", ctrl.BulkMark)
	g.Post("/quick", ctrl.QuickMark)
}
