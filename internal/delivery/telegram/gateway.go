// Package telegram implements the chat transport: the delivery gateway
// adapter, the inbound event router, and the command/callback handlers.
package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/plannerbot/internal/apperr"
	"github.com/aliskhannn/plannerbot/internal/render"
)

// Gateway is the capability contract of §4 component 5: Send classifies the
// outcome of a single transport call so senders can decide whether to retry.
type Gateway struct {
	bot *tgbotapi.BotAPI
}

// NewGateway wraps a bot API client as a Gateway.
func NewGateway(bot *tgbotapi.BotAPI) *Gateway {
	return &Gateway{bot: bot}
}

// Send delivers a rendered message to chatID. The returned error, when
// non-nil, always wraps exactly one of apperr.ErrTransient or
// apperr.ErrPermanent so callers can classify with errors.Is.
func (g *Gateway) Send(chatID int64, msg render.Message) error {
	cfg := tgbotapi.NewMessage(chatID, msg.Text)
	cfg.ParseMode = tgbotapi.ModeMarkdownV2
	if msg.Keyboard != nil {
		cfg.ReplyMarkup = *msg.Keyboard
	}

	_, err := g.bot.Send(cfg)
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "message is not modified") {
		return nil
	}

	return classify(err)
}

// classify implements the permanent/transient rule of §6: a response whose
// text mentions a blocked/forbidden bot-to-bot recipient is permanent;
// everything else is treated as transient and eligible for retry.
func classify(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "Forbidden: bots can't send messages to bots") {
		return apperr.ErrPermanent
	}
	if strings.Contains(msg, "Forbidden:") && strings.Contains(msg, "bot") {
		return apperr.ErrPermanent
	}
	return apperr.ErrTransient
}
