package api

import (
	"github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"

	"github.com/aliskhannn/plannerbot/internal/apperr"
	"github.com/aliskhannn/plannerbot/internal/domain/entities"
)

type reminderView struct {
	ID                int64  `json:"id"`
	TimeOfDay         string `json:"time_of_day"`
	Description       string `json:"description"`
	RepeatIntervalMin int    `json:"repeat_interval_minutes"`
	MaxAttemptsPerDay int    `json:"max_attempts_per_day"`
	Enabled           bool   `json:"enabled"`
	DoneToday         bool   `json:"done_today"`
}

func viewReminder(r *entities.CustomReminder) reminderView {
	return reminderView{
		ID:                r.ID,
		TimeOfDay:         r.TimeOfDay,
		Description:       r.Description,
		RepeatIntervalMin: r.RepeatIntervalMin,
		MaxAttemptsPerDay: r.MaxAttemptsPerDay,
		Enabled:           r.Enabled,
		DoneToday:         r.DoneToday,
	}
}

func (s *Server) handleListReminders(c *fiber.Ctx) error {
	u := currentUser(c)
	list, err := s.reminders.List(c.UserContext(), u.ID)
	if err != nil {
		s.logger.Error("list reminders failed")
		return fiber.NewError(fiber.StatusInternalServerError, "could not load reminders")
	}
	views := make([]reminderView, 0, len(list))
	for _, r := range list {
		views = append(views, viewReminder(r))
	}
	return c.JSON(views)
}

type reminderRequest struct {
	TimeOfDay         string `json:"time_of_day"`
	Description       string `json:"description"`
	RepeatIntervalMin int    `json:"repeat_interval_minutes"`
	MaxAttemptsPerDay int    `json:"max_attempts_per_day"`
	Enabled           *bool  `json:"enabled"`
}

func (r reminderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TimeOfDay, validation.Required),
		validation.Field(&r.Description, validation.Required),
		validation.Field(&r.RepeatIntervalMin, validation.Required, validation.Min(1), validation.Max(1440)),
		validation.Field(&r.MaxAttemptsPerDay, validation.Required, validation.Min(1), validation.Max(50)),
	)
}

func (s *Server) handleCreateReminder(c *fiber.Ctx) error {
	u := currentUser(c)

	var req reminderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	cr, err := s.reminders.Create(c.UserContext(), u, req.TimeOfDay, req.Description, req.RepeatIntervalMin, req.MaxAttemptsPerDay)
	if err != nil {
		if apperr.Is(err, apperr.ErrInvalidInput) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid reminder fields")
		}
		s.logger.Error("create reminder failed")
		return fiber.NewError(fiber.StatusInternalServerError, "could not create reminder")
	}
	return c.Status(fiber.StatusCreated).JSON(viewReminder(cr))
}

func (s *Server) handleUpdateReminder(c *fiber.Ctx) error {
	u := currentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reminder id")
	}

	var req reminderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	cr, err := s.reminders.Get(c.UserContext(), u.ID, int64(id))
	if err != nil {
		if apperr.Is(err, apperr.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "reminder not found")
		}
		s.logger.Error("update reminder: load failed")
		return fiber.NewError(fiber.StatusInternalServerError, "could not load reminder")
	}

	enabled := cr.Enabled
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	if err := s.reminders.Update(c.UserContext(), cr, req.TimeOfDay, req.Description, req.RepeatIntervalMin, req.MaxAttemptsPerDay, enabled); err != nil {
		if apperr.Is(err, apperr.ErrInvalidInput) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid reminder fields")
		}
		s.logger.Error("update reminder failed")
		return fiber.NewError(fiber.StatusInternalServerError, "could not update reminder")
	}
	return c.JSON(viewReminder(cr))
}

func (s *Server) handleDeleteReminder(c *fiber.Ctx) error {
	u := currentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reminder id")
	}

	if err := s.reminders.Delete(c.UserContext(), u.ID, int64(id)); err != nil {
		if apperr.Is(err, apperr.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "reminder not found")
		}
		s.logger.Error("delete reminder failed")
		return fiber.NewError(fiber.StatusInternalServerError, "could not delete reminder")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleReminderStats reports a coarse count of enabled vs. disabled custom
// reminders for the WebApp's reminders dashboard.
func (s *Server) handleReminderStats(c *fiber.Ctx) error {
	u := currentUser(c)
	list, err := s.reminders.List(c.UserContext(), u.ID)
	if err != nil {
		s.logger.Error("reminder stats failed")
		return fiber.NewError(fiber.StatusInternalServerError, "could not load reminders")
	}

	enabled := 0
	for _, r := range list {
		if r.Enabled {
			enabled++
		}
	}
	return c.JSON(fiber.Map{"total": len(list), "enabled": enabled, "disabled": len(list) - enabled})
}
