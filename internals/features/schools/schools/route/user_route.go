package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/features/schools/schools/controller"
	ossHelper "schoolku_backend/internals/helpers/oss"
)

// SchoolUserRoutes: r is the authenticated /api/u group.
func SchoolUserRoutes(r fiber.Router, db *gorm.DB, blob ossHelper.BlobService) {
	ctrl := controller.NewSchoolController(db, blob)

	g := r.Group("/schools")
	g.Get("/", ctrl.ListMySchools)
	g.Post("/", ctrl.CreateSchool)
	g.Post("/:school_id/select", ctrl.SelectSchool)
}
