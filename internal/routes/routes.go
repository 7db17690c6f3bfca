package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/ahmedev192/skill-swap-sub000/internal/config"
	"github.com/ahmedev192/skill-swap-sub000/internal/handlers"
	"github.com/ahmedev192/skill-swap-sub000/internal/middleware"
	"github.com/ahmedev192/skill-swap-sub000/internal/notify"
	"github.com/ahmedev192/skill-swap-sub000/internal/repository"
	"github.com/ahmedev192/skill-swap-sub000/internal/services"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, log *logrus.Logger) *services.SettlementService {
	skillRepo := repository.NewSkillRepository(db)
	userSkillRepo := repository.NewUserSkillRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	creditRepo := repository.NewCreditRepository(db)

	hub := notify.NewHub(log)
	go hub.Run()
	dispatcher := notify.NewDispatcher(hub, log)

	sessionService := services.NewSessionService(db, sessionRepo, creditRepo, userSkillRepo, dispatcher, log)
	creditService := services.NewCreditService(db, creditRepo)
	settlementService := services.NewSettlementService(db, sessionRepo, log)

	sessionHandler := handlers.NewSessionHandler(sessionService)
	creditHandler := handlers.NewCreditHandler(creditService)
	skillHandler := handlers.NewSkillHandler(skillRepo, userSkillRepo)
	notificationHandler := handlers.NewNotificationHandler(hub, cfg.JWTSecret)

	api := app.Group("/api")
	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	skills := authProtected.Group("/skills")
	skills.Get("", skillHandler.ListSkills)
	skills.Post("", skillHandler.CreateSkill)
	skills.Delete("/:id", skillHandler.DeactivateSkill)

	users := authProtected.Group("/users")
	users.Get("/skills", skillHandler.ListOwnSkills)
	users.Post("/skills", skillHandler.CreateUserSkill)
	users.Put("/skills/:id/availability", skillHandler.SetUserSkillAvailability)
	users.Get("/:id/skills", skillHandler.ListUserSkills)

	sessions := authProtected.Group("/sessions")
	sessions.Post("/book", sessionHandler.BookSession)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Post("/:id/confirm", sessionHandler.ConfirmSession)
	sessions.Post("/:id/cancel", sessionHandler.CancelSession)
	sessions.Post("/:id/complete", sessionHandler.CompleteSession)
	sessions.Put("/:id/schedule", sessionHandler.RescheduleSession)
	sessions.Post("/:id/dispute", sessionHandler.DisputeSession)

	credits := authProtected.Group("/credits")
	credits.Get("/balance", creditHandler.GetBalance)
	credits.Get("/transactions", creditHandler.ListTransactions)
	credits.Post("/bonus", creditHandler.AddBonus)
	credits.Post("/deduct", creditHandler.Deduct)
	credits.Post("/adjust", creditHandler.AdjustBalance)

	api.Use("/v1/ws", notificationHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(notificationHandler.HandleWebSocket))

	return settlementService
}
