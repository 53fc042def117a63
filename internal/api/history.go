package api

import (
	"regexp"

	"github.com/gofiber/fiber/v2"
)

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

func (s *Server) handleGetStats(c *fiber.Ctx) error {
	u := currentUser(c)
	today, err := localToday(u)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid timezone")
	}

	overview, err := s.stats.Overview(c.UserContext(), u.ID, today)
	if err != nil {
		s.logger.Error("get stats failed")
		return fiber.NewError(fiber.StatusInternalServerError, "could not compute stats")
	}
	return c.JSON(overview)
}

func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	u := currentUser(c)

	month := c.Query("month")
	if month == "" {
		today, err := localToday(u)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid timezone")
		}
		month = today[:7]
	}
	if !monthPattern.MatchString(month) {
		return fiber.NewError(fiber.StatusBadRequest, "month must be YYYY-MM")
	}

	items, err := s.stats.History(c.UserContext(), u.ID, month)
	if err != nil {
		s.logger.Error("get history failed")
		return fiber.NewError(fiber.StatusInternalServerError, "could not load history")
	}
	return c.JSON(fiber.Map{"month": month, "items": items})
}
