package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"schoolku_backend/internals/configs"
)

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:8081",
	"http://127.0.0.1:5500",
	"https://app.schoolku.local",
}

func CorsMiddleware() fiber.Handler {
	origins := defaultOrigins
	if extra := configs.GetEnv("CORS_ALLOW_ORIGINS"); extra != "" {
		origins = append(append([]string{}, defaultOrigins...), strings.Split(extra, ",")...)
	}
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ", "),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Active-School-ID, X-Request-ID",
		ExposeHeaders:    "Content-Disposition, X-Request-ID",
		AllowCredentials: true,
	})
}
