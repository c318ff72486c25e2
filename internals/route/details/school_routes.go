package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	dashboardRoutes "schoolku_backend/internals/features/dashboard/route"
	classRoutes "schoolku_backend/internals/features/schools/classes/route"
	schoolRoutes "schoolku_backend/internals/features/schools/schools/route"
	studentRoutes "schoolku_backend/internals/features/students/students/route"
	ossHelper "schoolku_backend/internals/helpers/oss"
)

/* ===================== USER (no school yet) ===================== */
// Creating, listing and selecting schools happens before a school scope exists.
func SchoolUserRoutes(r fiber.Router, db *gorm.DB, blob ossHelper.BlobService) {
	schoolRoutes.SchoolUserRoutes(r, db, blob)
}

/* ===================== ADMIN (per school) ===================== */
func SchoolAdminRoutes(r fiber.Router, db *gorm.DB, blob ossHelper.BlobService) {
	schoolRoutes.SchoolAdminRoutes(r, db, blob)
	classRoutes.ClassAdminRoutes(r, db)
	studentRoutes.StudentAdminRoutes(r, db, blob)
	dashboardRoutes.DashboardAdminRoutes(r, db)
}
