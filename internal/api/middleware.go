package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/aliskhannn/plannerbot/internal/domain/entities"
)

const localsUser = "webapp_user"

// requireWebAppUser validates the X-Telegram-Init-Data header per §6 and
// resolves (or creates) the corresponding user, stashing it in locals for
// downstream handlers.
func (s *Server) requireWebAppUser(c *fiber.Ctx) error {
	initData := c.Get("X-Telegram-Init-Data")
	if initData == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing X-Telegram-Init-Data header")
	}

	auth, err := ValidateInitData(initData, s.botToken)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	u, err := s.users.GetOrCreate(c.UserContext(), auth.User.ID)
	if err != nil {
		s.logger.Error("webapp auth: get or create user failed", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "could not resolve user")
	}

	c.Locals(localsUser, u)
	return c.Next()
}

func currentUser(c *fiber.Ctx) *entities.User {
	u, _ := c.Locals(localsUser).(*entities.User)
	return u
}
