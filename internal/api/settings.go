package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aliskhannn/plannerbot/internal/apperr"
)

type settingsView struct {
	Timezone                string `json:"timezone"`
	MorningTime             string `json:"morning_time"`
	EveningTime             string `json:"evening_time"`
	ReminderIntervalMinutes int    `json:"reminder_interval_minutes"`
	ReminderMaxAttempts     int    `json:"reminder_max_attempts"`
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	u := currentUser(c)
	return c.JSON(settingsView{
		Timezone:                u.Timezone,
		MorningTime:             u.MorningTime,
		EveningTime:             u.EveningTime,
		ReminderIntervalMinutes: u.MorningReminderIntervalMin,
		ReminderMaxAttempts:     u.MorningReminderMaxAttempts,
	})
}

type settingsUpdateRequest struct {
	Timezone                *string `json:"timezone"`
	MorningTime             *string `json:"morning_time"`
	EveningTime             *string `json:"evening_time"`
	ReminderIntervalMinutes *int    `json:"reminder_interval_minutes"`
	ReminderMaxAttempts     *int    `json:"reminder_max_attempts"`
}

// handlePutSettings accepts any subset of the five settable fields, per §6,
// applying each one that is present and leaving the rest untouched.
func (s *Server) handlePutSettings(c *fiber.Ctx) error {
	u := currentUser(c)

	var req settingsUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ctx := c.UserContext()

	if req.Timezone != nil {
		if err := s.users.SetTimezone(ctx, u, *req.Timezone); err != nil {
			return invalidOrInternal(s, err, "invalid timezone")
		}
	}
	if req.MorningTime != nil {
		if err := s.users.SetMorningTime(ctx, u, *req.MorningTime); err != nil {
			return invalidOrInternal(s, err, "invalid morning_time")
		}
	}
	if req.EveningTime != nil {
		if err := s.users.SetEveningTime(ctx, u, *req.EveningTime); err != nil {
			return invalidOrInternal(s, err, "invalid evening_time")
		}
	}
	if req.ReminderIntervalMinutes != nil || req.ReminderMaxAttempts != nil {
		interval := u.MorningReminderIntervalMin
		maxAttempts := u.MorningReminderMaxAttempts
		if req.ReminderIntervalMinutes != nil {
			interval = *req.ReminderIntervalMinutes
		}
		if req.ReminderMaxAttempts != nil {
			maxAttempts = *req.ReminderMaxAttempts
		}
		if err := s.users.SetMorningReminderCadence(ctx, u, interval, maxAttempts); err != nil {
			return invalidOrInternal(s, err, "invalid reminder settings")
		}
	}

	return c.JSON(fiber.Map{"ok": true})
}

func invalidOrInternal(s *Server, err error, badRequestMsg string) error {
	if apperr.Is(err, apperr.ErrInvalidInput) {
		return fiber.NewError(fiber.StatusBadRequest, badRequestMsg)
	}
	s.logger.Error("settings update failed")
	return fiber.NewError(fiber.StatusInternalServerError, "could not update settings")
}
