package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/features/attendance/live"
	ossHelper "schoolku_backend/internals/helpers/oss"
	"schoolku_backend/internals/middlewares"
	authMiddleware "schoolku_backend/internals/middlewares/auth"
	schoolCtx "schoolku_backend/internals/middlewares/school"
	routeDetails "schoolku_backend/internals/route/details"
)

var startTime time.Time

// SetupRoutes mounts every group. blob may be nil when object storage is
// not configured; upload endpoints then answer 503.
func SetupRoutes(app *fiber.App, db *gorm.DB, blob ossHelper.BlobService) {
	startTime = time.Now()

	hub := live.NewHub(16)
	resolver := schoolCtx.NewGormResolver(db)

	BaseRoutes(app, db)

	// ===================== AUTH =====================
	log.Println("[INFO] Setting up AuthRoutes...")
	routeDetails.AuthRoutes(app, db)

	// ===================== USER (no school scope) =====================
	log.Println("[INFO] Setting up USER group...")
	user := app.Group("/api/u", authMiddleware.AuthMiddleware(db))
	routeDetails.SchoolUserRoutes(user, db, blob)

	// ===================== ADMIN (per school) =====================
	log.Println("[INFO] Setting up ADMIN group (Auth + SchoolContext)...")
	admin := app.Group("/api/a/:school_id",
		authMiddleware.AuthMiddleware(db),
		schoolCtx.SchoolContext(resolver),
	)
	routeDetails.SchoolAdminRoutes(admin, db, blob)
	routeDetails.AttendanceAdminRoutes(admin, db, hub)
	routeDetails.HRAdminRoutes(admin, db, blob)

	// ===================== KIOSK (PIN only) =====================
	log.Println("[INFO] Setting up KIOSK group...")
	kiosk := app.Group("/api/k/:school_id",
		middlewares.KioskRateLimiter(),
		middlewares.KioskSchoolRateLimiter(),
		schoolCtx.KioskSchool(resolver),
	)
	routeDetails.AttendanceKioskRoutes(kiosk, db, hub)
}
