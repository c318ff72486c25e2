package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	staffRoutes "schoolku_backend/internals/features/hr/staff/route"
	ossHelper "schoolku_backend/internals/helpers/oss"
)

func HRAdminRoutes(r fiber.Router, db *gorm.DB, blob ossHelper.BlobService) {
	staffRoutes.StaffAdminRoutes(r, db, blob)
}
