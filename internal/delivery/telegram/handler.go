package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/plannerbot/internal/fsm"
)

// Handler is the inbound event router of §4/component 12: it receives chat
// updates, consults the conversation FSM, mutates state, and sends replies.
type Handler struct {
	bot       *tgbotapi.BotAPI
	logger    *zap.Logger
	users     UserService
	plans     PlanService
	reminders CustomReminderService
	ledger    Ledger
	fsm       *fsm.Store
}

// NewHandler creates a new Handler.
func NewHandler(bot *tgbotapi.BotAPI, logger *zap.Logger, users UserService, plans PlanService, reminders CustomReminderService, ledger Ledger, fsmStore *fsm.Store) *Handler {
	return &Handler{bot: bot, logger: logger, users: users, plans: plans, reminders: reminders, ledger: ledger, fsm: fsmStore}
}

// Run pulls updates via long polling and processes them until ctx is done.
func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			h.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes a single update; shared between the long-polling
// loop and the webhook HTTP handler.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID

	if update.Message.IsCommand() {
		h.handleCommand(ctx, chatID, update.Message)
		return
	}

	text := strings.TrimSpace(update.Message.Text)
	h.handleText(ctx, chatID, text)
}

// HandleUpdateJSON decodes a raw webhook request body and dispatches it the
// same way HandleUpdate does, detached from the request's own context since
// the webhook route ACKs before processing completes (§6).
func (h *Handler) HandleUpdateJSON(body []byte) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return fmt.Errorf("decode webhook update: %w", err)
	}
	go h.HandleUpdate(context.Background(), update)
	return nil
}

// send delivers a Telegram message, ignoring the harmless "not modified" error.
func (h *Handler) send(c tgbotapi.Chattable) error {
	_, err := h.bot.Send(c)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

func (h *Handler) reply(chatID int64, text string) {
	if err := h.send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.logger.Error("failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
