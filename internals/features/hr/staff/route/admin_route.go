package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	"schoolku_backend/internals/features/hr/staff/controller"
	ossHelper "schoolku_backend/internals/helpers/oss"
	schoolCtx "schoolku_backend/internals/middlewares/school"
)

// HR is admin only.
func StaffAdminRoutes(r fiber.Router, db *gorm.DB, blob ossHelper.BlobService) {
	ctrl := controller.NewStaffController(db, blob)

	g := r.Group("/staff", schoolCtx.RequireSchoolRole(constants.RoleErrorAdmin("staff records"), constants.AdminOnly...))
	g.Get("/", ctrl.List)
	g.Get("/stats", ctrl.Stats)
	g.Get("/export.csv", ctrl.ExportCSV)
	g.Post("/", ctrl.Create)
	g.Get("/:id", ctrl.Get)
	g.Put("/:id", ctrl.Update)
	g.Delete("/:id", ctrl.Delete)
	g.Post("/:id/photo", ctrl.UploadPhoto)
	g.Post("/:id/id-attachment", ctrl.UploadIDAttachment)
}
