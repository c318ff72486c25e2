package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/utils"

	"schoolku_backend/internals/configs"
	database "schoolku_backend/internals/databases"
	scheduler "schoolku_backend/internals/features/users/auth/scheduler"
	"schoolku_backend/internals/helpers/exportx"
	ossHelper "schoolku_backend/internals/helpers/oss"
	middlewares "schoolku_backend/internals/middlewares"
	routes "schoolku_backend/internals/route"
	"schoolku_backend/internals/seeds"
)

func main() {
	configs.LoadEnv()

	cfg := fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		Views:                 exportx.Engine(),
		BodyLimit:             12 << 20,
		DisableStartupMessage: true,
	}
	middlewares.ApplyProxyConfig(&cfg, configs.TrustedProxies())
	app := fiber.New(cfg)

	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// Request-ID + per request deadline (matches statement_timeout in the DB)
	timeout := configs.RequestTimeout()
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("reqid", id)
		ctx, cancel := context.WithTimeout(c.Context(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})

	middlewares.SetupMiddlewares(app)

	database.ConnectDB()
	database.TunePool()
	if configs.GetEnvBool("RUN_MIGRATIONS", false) {
		if err := database.Migrate(database.DB); err != nil {
			log.Fatalf("❌ migrate: %v", err)
		}
	}
	database.WarmUpQueries()
	if configs.GetEnvBool("RUN_SEEDS", false) {
		seeds.RunAllSeeds(database.DB)
	}

	scheduler.StartBlacklistCleanupScheduler(database.DB)

	// Object storage is optional: without it uploads answer 503 and the
	// reaper only purges soft-deleted rows.
	var blob ossHelper.BlobService
	ossSvc, err := ossHelper.NewOSSServiceFromEnv("")
	if err != nil {
		log.Printf("⚠️ OSS disabled: %v", err)
		ossSvc = nil
	} else {
		blob = ossHelper.NewOSSBlobService(ossSvc)
	}
	ossHelper.StartTrashReaperCron(database.DB, ossSvc)

	routes.SetupRoutes(app, database.DB, blob)

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	go func() {
		log.Printf("✅ Listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
