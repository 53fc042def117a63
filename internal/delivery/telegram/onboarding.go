package telegram

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/aliskhannn/plannerbot/internal/apperr"
	"github.com/aliskhannn/plannerbot/internal/fsm"
)

// handleText routes a plain text message by the chat's current FSM state,
// driving onboarding, plan submission, comments and settings input exactly
// as the state diagram of §4.5 describes.
func (h *Handler) handleText(ctx context.Context, chatID int64, text string) {
	sess, err := h.fsm.Get(ctx, chatID)
	if err != nil {
		h.logger.Error("handle text: load fsm session failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	switch sess.State {
	case fsm.StateOnboardingTZ:
		h.handleOnboardingTZ(ctx, chatID, text)
	case fsm.StateOnboardingMorning:
		h.handleOnboardingMorning(ctx, chatID, text)
	case fsm.StateOnboardingEvening:
		h.handleOnboardingEvening(ctx, chatID, text)
	case fsm.StateAwaitingPlan:
		h.handlePlanText(ctx, chatID, sess, text)
	case fsm.StateAwaitingComment:
		h.handleCommentText(ctx, chatID, sess, text)
	case fsm.StateSettingsInput:
		h.handleSettingsInputText(ctx, chatID, sess, text)
	default:
		h.reply(chatID, "Не понял сообщение. /help — список команд.")
	}
}

func (h *Handler) handleOnboardingTZ(ctx context.Context, chatID int64, text string) {
	u, err := h.users.GetOrCreate(ctx, chatID)
	if err != nil {
		h.logger.Error("onboarding tz: get user failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	if err := h.users.SetTimezone(ctx, u, strings.TrimSpace(text)); err != nil {
		if apperr.Is(err, apperr.ErrInvalidInput) {
			h.reply(chatID, "Не получилось распознать часовой пояс. Используйте формат IANA, например Europe/Berlin.")
			return
		}
		h.logger.Error("onboarding tz: set timezone failed", zap.Int64("user_id", u.ID), zap.Error(err))
		h.reply(chatID, "Что-то пошло не так, попробуйте ещё раз.")
		return
	}

	if err := h.fsm.Set(ctx, chatID, fsm.Session{State: fsm.StateOnboardingMorning}); err != nil {
		h.logger.Error("onboarding tz: fsm transition failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	h.reply(chatID, "Принято. Во сколько присылать утренний план? Формат ЧЧ:ММ, например 07:00.")
}

func (h *Handler) handleOnboardingMorning(ctx context.Context, chatID int64, text string) {
	u, err := h.users.GetOrCreate(ctx, chatID)
	if err != nil {
		h.logger.Error("onboarding morning: get user failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	if err := h.users.SetMorningTime(ctx, u, strings.TrimSpace(text)); err != nil {
		if apperr.Is(err, apperr.ErrInvalidInput) {
			h.reply(chatID, "Не получилось распознать время. Формат ЧЧ:ММ, например 07:00.")
			return
		}
		h.logger.Error("onboarding morning: set morning time failed", zap.Int64("user_id", u.ID), zap.Error(err))
		h.reply(chatID, "Что-то пошло не так, попробуйте ещё раз.")
		return
	}

	if err := h.fsm.Set(ctx, chatID, fsm.Session{State: fsm.StateOnboardingEvening}); err != nil {
		h.logger.Error("onboarding morning: fsm transition failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	h.reply(chatID, "А вечернюю проверку? Формат ЧЧ:ММ, например 21:00.")
}

func (h *Handler) handleOnboardingEvening(ctx context.Context, chatID int64, text string) {
	u, err := h.users.GetOrCreate(ctx, chatID)
	if err != nil {
		h.logger.Error("onboarding evening: get user failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	if err := h.users.SetEveningTime(ctx, u, strings.TrimSpace(text)); err != nil {
		if apperr.Is(err, apperr.ErrInvalidInput) {
			h.reply(chatID, "Не получилось распознать время. Формат ЧЧ:ММ, например 21:00.")
			return
		}
		h.logger.Error("onboarding evening: set evening time failed", zap.Int64("user_id", u.ID), zap.Error(err))
		h.reply(chatID, "Что-то пошло не так, попробуйте ещё раз.")
		return
	}

	if err := h.fsm.Reset(ctx, chatID); err != nil {
		h.logger.Error("onboarding evening: fsm reset failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	h.reply(chatID, "Готово! Буду присылать план по утрам и проверять его вечером. /help — список команд.")
}

func (h *Handler) handlePlanText(ctx context.Context, chatID int64, sess fsm.Session, text string) {
	var data fsm.PlanData
	if err := fsm.DataInto(sess, &data); err != nil {
		h.logger.Error("plan text: decode fsm data failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	u, err := h.users.GetOrCreate(ctx, chatID)
	if err != nil {
		h.logger.Error("plan text: get user failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	if _, err := h.plans.SubmitPlan(ctx, u.ID, data.PlanDate, text); err != nil {
		if apperr.Is(err, apperr.ErrInvalidInput) {
			h.reply(chatID, "Не удалось разобрать план. Пришлите список задач, каждая с новой строки.")
			return
		}
		h.logger.Error("plan text: submit plan failed", zap.Int64("user_id", u.ID), zap.Error(err))
		h.reply(chatID, "Не получилось сохранить план, попробуйте ещё раз.")
		return
	}

	if err := h.fsm.Reset(ctx, chatID); err != nil {
		h.logger.Error("plan text: fsm reset failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	h.reply(chatID, "План сохранён. Вечером пришлю проверку.")
}

func (h *Handler) handleCommentText(ctx context.Context, chatID int64, sess fsm.Session, text string) {
	var data fsm.CommentData
	if err := fsm.DataInto(sess, &data); err != nil {
		h.logger.Error("comment text: decode fsm data failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	u, err := h.users.GetOrCreate(ctx, chatID)
	if err != nil {
		h.logger.Error("comment text: get user failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	outcome := taskOutcomeFromString(data.PendingOutcome)
	if err := h.plans.RecordTaskStatus(ctx, u.ID, data.TaskID, outcome, text); err != nil {
		h.logger.Error("comment text: record task status failed", zap.Int64("user_id", u.ID), zap.Int64("task_id", data.TaskID), zap.Error(err))
		h.reply(chatID, "Не получилось сохранить комментарий.")
		return
	}

	confirmSess := fsm.Session{State: fsm.StateAwaitingConfirmation}
	_ = fsm.SetData(&confirmSess, data.Return)
	if err := h.fsm.Set(ctx, chatID, confirmSess); err != nil {
		h.logger.Error("comment text: fsm transition failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	h.reply(chatID, "Комментарий сохранён.")
}

func (h *Handler) handleSettingsInputText(ctx context.Context, chatID int64, sess fsm.Session, text string) {
	var data fsm.SettingsInputData
	if err := fsm.DataInto(sess, &data); err != nil {
		h.logger.Error("settings input: decode fsm data failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	u, err := h.users.GetOrCreate(ctx, chatID)
	if err != nil {
		h.logger.Error("settings input: get user failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	text = strings.TrimSpace(text)
	var applyErr error
	switch data.Field {
	case "timezone":
		applyErr = h.users.SetTimezone(ctx, u, text)
	case "morning_time":
		applyErr = h.users.SetMorningTime(ctx, u, text)
	case "evening_time":
		applyErr = h.users.SetEveningTime(ctx, u, text)
	case "interval":
		n, convErr := strconv.Atoi(text)
		if convErr != nil {
			h.reply(chatID, "Введите число минут, например 60.")
			return
		}
		applyErr = h.users.SetMorningReminderCadence(ctx, u, n, u.MorningReminderMaxAttempts)
	default:
		h.reply(chatID, "Неизвестная настройка.")
		return
	}

	if applyErr != nil {
		if apperr.Is(applyErr, apperr.ErrInvalidInput) {
			h.reply(chatID, "Значение не распознано, попробуйте ещё раз.")
			return
		}
		h.logger.Error("settings input: apply failed", zap.Int64("user_id", u.ID), zap.String("field", data.Field), zap.Error(applyErr))
		h.reply(chatID, "Не получилось сохранить настройку.")
		return
	}

	if err := h.fsm.Reset(ctx, chatID); err != nil {
		h.logger.Error("settings input: fsm reset failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	h.reply(chatID, "Настройка сохранена.")
}
