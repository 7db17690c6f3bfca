package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ahmedev192/skill-swap-sub000/internal/config"
	"github.com/ahmedev192/skill-swap-sub000/internal/database"
	"github.com/ahmedev192/skill-swap-sub000/internal/routes"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB()

	app := fiber.New()

	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	settlementService := routes.RegisterRoutes(app, cfg, database.DB, log)

	// Retries payouts for sessions that completed while the transfer
	// failed. Each run is idempotent.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SettlementSchedule, func() {
		if _, err := settlementService.SettleOutstanding(context.Background()); err != nil {
			log.WithError(err).Error("settlement sweep failed")
		}
	}); err != nil {
		log.Fatalf("Failed to schedule settlement sweep: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Infof("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
