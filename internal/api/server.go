package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Server is the fiber-backed admin/WebApp HTTP surface of §6, mounted in
// both the long-polling and webhook run modes so /health and the admin
// endpoints are always reachable.
type Server struct {
	App *fiber.App

	users         UserService
	plans         PlanService
	reminders     CustomReminderService
	stats         StatsService
	updates       UpdateHandler
	botToken      string
	webhookSecret string
	logger        *zap.Logger
}

// NewServer builds the fiber app and mounts every route of §6.
func NewServer(users UserService, plans PlanService, reminders CustomReminderService, stats StatsService, updates UpdateHandler, botToken, webhookSecret string, logger *zap.Logger) *Server {
	s := &Server{
		App:           fiber.New(fiber.Config{DisableStartupMessage: true}),
		users:         users,
		plans:         plans,
		reminders:     reminders,
		stats:         stats,
		updates:       updates,
		botToken:      botToken,
		webhookSecret: webhookSecret,
		logger:        logger,
	}

	s.App.Use(recover.New())

	s.App.Get("/health", s.handleHealth)
	s.App.Post("/webhook", s.handleWebhook)
	s.App.Post("/webhook/", s.handleWebhook)

	webapp := s.App.Group("/", s.requireWebAppUser)
	webapp.Get("/today", s.handleGetToday)
	webapp.Post("/plan/today", s.handlePostTodayPlan)
	webapp.Put("/tasks/:id/status", s.handlePutTaskStatus)
	webapp.Get("/settings", s.handleGetSettings)
	webapp.Put("/settings", s.handlePutSettings)
	webapp.Get("/stats", s.handleGetStats)
	webapp.Get("/history", s.handleGetHistory)
	webapp.Get("/reminders", s.handleListReminders)
	webapp.Post("/reminders", s.handleCreateReminder)
	webapp.Put("/reminders/:id", s.handleUpdateReminder)
	webapp.Delete("/reminders/:id", s.handleDeleteReminder)
	webapp.Get("/reminders/stats", s.handleReminderStats)

	return s
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleWebhook ACKs immediately and hands the raw body to the shared
// update router, which processes it asynchronously (§6).
func (s *Server) handleWebhook(c *fiber.Ctx) error {
	if s.webhookSecret != "" && c.Get("X-Webhook-Secret") != s.webhookSecret {
		return c.SendStatus(fiber.StatusForbidden)
	}

	if err := s.updates.HandleUpdateJSON(c.Body()); err != nil {
		s.logger.Error("webhook: decode update failed", zap.Error(err))
	}
	return c.SendStatus(fiber.StatusOK)
}
