package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	"schoolku_backend/internals/features/students/students/controller"
	ossHelper "schoolku_backend/internals/helpers/oss"
	schoolCtx "schoolku_backend/internals/middlewares/school"
)

func StudentAdminRoutes(r fiber.Router, db *gorm.DB, blob ossHelper.BlobService) {
	ctrl := controller.NewStudentController(db, blob)
	members := schoolCtx.RequireSchoolRole(constants.RoleErrorMember("students"), constants.StaffRoles...)

	g := r.Group("/students", members)
	g.Get("/", ctrl.List)
	// static paths before /:id
	g.Get("/export.csv", ctrl.ExportCSV)
	g.Get("/report.html", ctrl.ReportHTML)
	g.Get("/report.pdf", ctrl.ReportPDF)
	g.Post("/", ctrl.Create)
	g.Get("/:id", ctrl.Get)
	g.Get("/:id/summary", ctrl.Summary)
	g.Patch("/:id", ctrl.Update)
	g.Post("/:id/photo", ctrl.UploadPhoto)
	g.Delete("/:id", schoolCtx.RequireSchoolRole(constants.RoleErrorAdmin("student deletion"), constants.AdminOnly...), ctrl.Delete)
}
