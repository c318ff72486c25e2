package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	"schoolku_backend/internals/features/schools/classes/controller"
	schoolCtx "schoolku_backend/internals/middlewares/school"
)

func ClassAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctrl := controller.NewClassController(db)
	adminOnly := schoolCtx.RequireSchoolRole(constants.RoleErrorAdmin("class management"), constants.AdminOnly...)

	g := r.Group("/classes")
	g.Get("/", ctrl.List)
	g.Post("/", adminOnly, ctrl.Create)
	g.Patch("/:id", adminOnly, ctrl.Update)
	g.Delete("/:id", adminOnly, ctrl.Delete)
}
