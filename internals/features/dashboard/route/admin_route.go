package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	"schoolku_backend/internals/features/dashboard/controller"
	schoolCtx "schoolku_backend/internals/middlewares/school"
)

func DashboardAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctrl := controller.NewDashboardController(db)
	r.Get("/dashboard", schoolCtx.RequireSchoolRole(constants.RoleErrorMember("the dashboard"), constants.StaffRoles...), ctrl.Overview)
}
