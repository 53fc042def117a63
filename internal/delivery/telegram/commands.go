package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/plannerbot/internal/domain/entities"
	"github.com/aliskhannn/plannerbot/internal/fsm"
	"github.com/aliskhannn/plannerbot/internal/render"
	"github.com/aliskhannn/plannerbot/internal/timeutil"
)

func (h *Handler) handleCommand(ctx context.Context, chatID int64, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.handleStart(ctx, chatID)
	case "today":
		h.handleToday(ctx, chatID)
	case "settings":
		h.handleSettings(ctx, chatID)
	case "reminders":
		h.handleReminders(ctx, chatID)
	case "retry_evening":
		h.handleRetryEvening(ctx, chatID)
	case "help":
		h.reply(chatID, helpText())
	default:
		h.reply(chatID, "Неизвестная команда. /help — список команд.")
	}
}

func helpText() string {
	return "/today — план на сегодня\n" +
		"/settings — настройки\n" +
		"/reminders — свои напоминания\n" +
		"/retry_evening — повторить вечернюю проверку\n" +
		"/help — это сообщение"
}

func (h *Handler) handleStart(ctx context.Context, chatID int64) {
	u, err := h.users.GetOrCreate(ctx, chatID)
	if err != nil {
		h.logger.Error("start: get or create user failed", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(chatID, "Что-то пошло не так, попробуйте ещё раз.")
		return
	}

	if u.OnboardedTimezone && u.OnboardedMorning && u.OnboardedEvening {
		h.reply(chatID, "С возвращением! /today покажет план на сегодня, /settings — настройки.")
		return
	}

	sess := fsm.Session{State: fsm.StateOnboardingTZ}
	if err := h.fsm.Set(ctx, chatID, sess); err != nil {
		h.logger.Error("start: fsm transition failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	h.reply(chatID, "Добро пожаловать! Укажите ваш часовой пояс в формате IANA, например Europe/Berlin.")
}

func (h *Handler) handleToday(ctx context.Context, chatID int64) {
	u, err := h.users.GetOrCreate(ctx, chatID)
	if err != nil {
		h.logger.Error("today: get user failed", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(chatID, "Не получилось загрузить план.")
		return
	}

	zone, err := timeutil.LoadZone(u.Timezone)
	if err != nil {
		h.reply(chatID, "Не удалось определить часовой пояс.")
		return
	}
	_, _, today := timeutil.NowInZone(zone, time.Now())

	plan, err := h.plans.Today(ctx, u.ID, today.String())
	if err != nil {
		h.logger.Error("today: load plan failed", zap.Int64("user_id", u.ID), zap.Error(err))
		h.reply(chatID, "Не получилось загрузить план.")
		return
	}
	if plan == nil || len(plan.Tasks) == 0 {
		h.reply(chatID, "На сегодня план ещё не записан.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("План на %s:\n", today.String()))
	for i, t := range plan.Tasks {
		sb.WriteString(fmt.Sprintf("%s %d. %s\n", entities.StatusIcon(t.Status), i+1, t.Text))
	}
	sb.WriteString(fmt.Sprintf("\nВыполнено: %d%%", entities.CompletionPercent(plan.Tasks)))
	h.reply(chatID, sb.String())
}

func (h *Handler) handleSettings(ctx context.Context, chatID int64) {
	u, err := h.users.GetOrCreate(ctx, chatID)
	if err != nil {
		h.logger.Error("settings: get user failed", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(chatID, "Не получилось загрузить настройки.")
		return
	}

	text := fmt.Sprintf(
		"Часовой пояс: %s\nУтро: %s\nВечер: %s\nИнтервал напоминаний: %d мин\nМакс. напоминаний: %d\n\nЧтобы изменить — выберите ниже.",
		u.Timezone, u.MorningTime, u.EveningTime, u.MorningReminderIntervalMin, u.MorningReminderMaxAttempts,
	)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = settingsMenuKeyboard()
	if err := h.send(msg); err != nil {
		h.logger.Error("settings: send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handler) handleReminders(ctx context.Context, chatID int64) {
	u, err := h.users.GetOrCreate(ctx, chatID)
	if err != nil {
		h.logger.Error("reminders: get user failed", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(chatID, "Не получилось загрузить напоминания.")
		return
	}

	list, err := h.reminders.List(ctx, u.ID)
	if err != nil {
		h.logger.Error("reminders: list failed", zap.Int64("user_id", u.ID), zap.Error(err))
		h.reply(chatID, "Не получилось загрузить напоминания.")
		return
	}
	if len(list) == 0 {
		h.reply(chatID, "У вас пока нет собственных напоминаний. Добавить их можно через WebApp настроек.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Ваши напоминания:\n")
	for _, r := range list {
		state := "включено"
		if !r.Enabled {
			state = "выключено"
		}
		sb.WriteString(fmt.Sprintf("%s — %s (%s, каждые %d мин, до %d раз/день)\n", r.TimeOfDay, r.Description, state, r.RepeatIntervalMin, r.MaxAttemptsPerDay))
	}
	h.reply(chatID, sb.String())
}

// handleRetryEvening implements the user-initiated retry command of §4.3:
// deleting the sent ledger row is the only supported way to force
// re-delivery for the same local day. It enqueues nothing itself: the
// evening review is sent again only if a later dispatcher tick falls inside
// the user's evening dispatch window.
func (h *Handler) handleRetryEvening(ctx context.Context, chatID int64) {
	u, err := h.users.GetOrCreate(ctx, chatID)
	if err != nil {
		h.logger.Error("retry evening: get user failed", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(chatID, "Не получилось выполнить команду.")
		return
	}

	zone, err := timeutil.LoadZone(u.Timezone)
	if err != nil {
		h.reply(chatID, "Не удалось определить часовой пояс.")
		return
	}
	_, _, today := timeutil.NowInZone(zone, time.Now())

	if err := h.ledger.ResetSent(ctx, u.ID, entities.ChannelEvening, today.String()); err != nil {
		h.logger.Error("retry evening: reset ledger failed", zap.Int64("user_id", u.ID), zap.Error(err))
		h.reply(chatID, "Не получилось выполнить команду.")
		return
	}
	h.reply(chatID, "Готово, вечерняя проверка придёт при следующем тике планировщика, если он попадёт в окно вечерней рассылки.")
}

func settingsMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Часовой пояс", render.BuildMenuCallback("timezone")),
			tgbotapi.NewInlineKeyboardButtonData("Утро", render.BuildMenuCallback("morning_time")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Вечер", render.BuildMenuCallback("evening_time")),
			tgbotapi.NewInlineKeyboardButtonData("Интервал", render.BuildMenuCallback("interval")),
		),
	)
}
