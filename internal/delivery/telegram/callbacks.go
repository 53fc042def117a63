package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/plannerbot/internal/domain/entities"
	"github.com/aliskhannn/plannerbot/internal/fsm"
	"github.com/aliskhannn/plannerbot/internal/render"
)

// handleCallback routes a decoded inline-button press, then acknowledges it
// so Telegram stops showing the loading clock on the tapped button.
func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	cbk := render.ParseCallback(cb.Data)

	switch cbk.Kind {
	case "task":
		h.handleTaskCallback(ctx, cb, cbk)
	case "reminder":
		h.handleReminderCallback(ctx, cb, cbk)
	case "day":
		h.handleDayCallback(ctx, cb, cbk)
	case "menu":
		h.handleMenuCallback(ctx, cb, cbk)
	default:
		h.logger.Warn("unknown callback data", zap.String("data", cb.Data))
	}

	answer := tgbotapi.NewCallback(cb.ID, "")
	if _, err := h.bot.Request(answer); err != nil {
		h.logger.Error("callback answer error", zap.Error(err), zap.String("data", cb.Data))
	}
}

func taskOutcomeFromString(s string) entities.TaskOutcome {
	switch entities.TaskOutcome(s) {
	case entities.TaskDone, entities.TaskFailed:
		return entities.TaskOutcome(s)
	default:
		return entities.TaskPartial
	}
}

func (h *Handler) handleTaskCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, cbk render.Callback) {
	chatID := cb.Message.Chat.ID

	sess, err := h.fsm.Get(ctx, chatID)
	if err != nil || sess.State != fsm.StateAwaitingConfirmation {
		h.logger.Warn("task callback outside confirmation state", zap.Int64("chat_id", chatID), zap.String("action", cbk.Action))
		return
	}
	var data fsm.ConfirmationData
	if err := fsm.DataInto(sess, &data); err != nil {
		h.logger.Error("task callback: decode fsm data failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	switch cbk.Action {
	case "comment":
		commentSess := fsm.Session{State: fsm.StateAwaitingComment}
		_ = fsm.SetData(&commentSess, fsm.CommentData{TaskID: cbk.TaskID, PendingOutcome: string(entities.TaskPartial), Return: data})
		if err := h.fsm.Set(ctx, chatID, commentSess); err != nil {
			h.logger.Error("task callback: fsm transition failed", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		h.reply(chatID, "Напишите комментарий к задаче.")
		return
	case "done", "partial", "failed":
		if err := h.plans.RecordTaskStatus(ctx, data.UserID, cbk.TaskID, taskOutcomeFromString(cbk.Action), ""); err != nil {
			h.logger.Error("task callback: record status failed", zap.Int64("user_id", data.UserID), zap.Int64("task_id", cbk.TaskID), zap.Error(err))
			return
		}
	default:
		h.logger.Warn("unknown task callback action", zap.String("action", cbk.Action))
		return
	}

	h.refreshEveningReview(ctx, cb, data)
}

// refreshEveningReview re-renders the evening review message in place after
// a task's status changed, so its per-task buttons reflect the new state.
func (h *Handler) refreshEveningReview(ctx context.Context, cb *tgbotapi.CallbackQuery, data fsm.ConfirmationData) {
	plan, err := h.plans.Today(ctx, data.UserID, data.PlanDate)
	if err != nil || plan == nil {
		h.logger.Error("refresh evening review: load plan failed", zap.Int64("user_id", data.UserID), zap.Error(err))
		return
	}

	msg := render.EveningReview(plan.ID, plan.Tasks)
	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, msg.Text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	if msg.Keyboard != nil {
		edit.ReplyMarkup = msg.Keyboard
	}
	if err := h.send(edit); err != nil {
		h.logger.Error("refresh evening review: send failed", zap.Int64("chat_id", cb.Message.Chat.ID), zap.Error(err))
	}
}

func (h *Handler) handleReminderCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, cbk render.Callback) {
	if cbk.Action != "done_today" {
		h.logger.Warn("unknown reminder callback action", zap.String("action", cbk.Action))
		return
	}

	u, err := h.users.GetOrCreate(ctx, cb.Message.Chat.ID)
	if err != nil {
		h.logger.Error("reminder callback: get user failed", zap.Int64("chat_id", cb.Message.Chat.ID), zap.Error(err))
		return
	}

	if err := h.reminders.MarkDoneToday(ctx, u.ID, cbk.ReminderID); err != nil {
		h.logger.Error("reminder callback: mark done failed", zap.Int64("user_id", u.ID), zap.Int64("reminder_id", cbk.ReminderID), zap.Error(err))
		return
	}
	h.reply(cb.Message.Chat.ID, "Отмечено, сегодня больше не напомню.")
}

func (h *Handler) handleDayCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, cbk render.Callback) {
	chatID := cb.Message.Chat.ID

	switch cbk.Action {
	case "skip_plan":
		if err := h.fsm.Reset(ctx, chatID); err != nil {
			h.logger.Error("day callback: fsm reset failed", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		edit := tgbotapi.NewEditMessageReplyMarkup(chatID, cb.Message.MessageID, tgbotapi.NewInlineKeyboardMarkup())
		if err := h.send(edit); err != nil {
			h.logger.Error("day callback: clear keyboard failed", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		h.reply(chatID, "Хорошо, сегодня без плана.")
	default:
		h.logger.Warn("unknown day callback action", zap.String("action", cbk.Action))
	}
}

func (h *Handler) handleMenuCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, cbk render.Callback) {
	chatID := cb.Message.Chat.ID

	var prompt string
	switch cbk.MenuPath {
	case "timezone":
		prompt = "Укажите новый часовой пояс в формате IANA, например Europe/Berlin."
	case "morning_time":
		prompt = "Укажите новое время утреннего плана, формат ЧЧ:ММ."
	case "evening_time":
		prompt = "Укажите новое время вечерней проверки, формат ЧЧ:ММ."
	case "interval":
		prompt = "Укажите интервал между напоминаниями в минутах."
	default:
		h.logger.Warn("unknown menu callback path", zap.String("path", cbk.MenuPath))
		return
	}

	sess := fsm.Session{State: fsm.StateSettingsInput}
	_ = fsm.SetData(&sess, fsm.SettingsInputData{Field: cbk.MenuPath})
	if err := h.fsm.Set(ctx, chatID, sess); err != nil {
		h.logger.Error("menu callback: fsm transition failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	h.reply(chatID, prompt)
}
