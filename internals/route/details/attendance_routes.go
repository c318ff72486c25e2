package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/features/attendance/live"
	staffAttendanceRoutes "schoolku_backend/internals/features/attendance/staff_attendance/route"
	studentAttendanceRoutes "schoolku_backend/internals/features/attendance/student_attendance/route"
)

func AttendanceAdminRoutes(r fiber.Router, db *gorm.DB, hub *live.Hub) {
	studentAttendanceRoutes.AttendanceAdminRoutes(r, db, hub)
	staffAttendanceRoutes.StaffAttendanceAdminRoutes(r, db, hub)
}

// AttendanceKioskRoutes: no login, PIN only.
func AttendanceKioskRoutes(r fiber.Router, db *gorm.DB, hub *live.Hub) {
	staffAttendanceRoutes.StaffAttendanceKioskRoutes(r, db, hub)
}
