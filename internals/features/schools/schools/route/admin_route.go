package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	"schoolku_backend/internals/features/schools/schools/controller"
	ossHelper "schoolku_backend/internals/helpers/oss"
	schoolCtx "schoolku_backend/internals/middlewares/school"
)

// SchoolAdminRoutes: r is the /api/a/:school_id group with the school context resolved.
func SchoolAdminRoutes(r fiber.Router, db *gorm.DB, blob ossHelper.BlobService) {
	ctrl := controller.NewSchoolController(db, blob)

	g := r.Group("/school")
	g.Get("/", ctrl.GetSchool)

	adminOnly := schoolCtx.RequireSchoolRole(constants.RoleErrorAdmin("school settings"), constants.AdminOnly...)
	g.Patch("/", adminOnly, ctrl.UpdateSchool)
	g.Post("/logo", adminOnly, ctrl.UploadLogo)
	g.Post("/admins", adminOnly, ctrl.AddAdmin)
}
