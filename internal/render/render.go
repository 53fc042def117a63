// Package render produces the textual body and keyboard payload for every
// outbound message kind, as a transport-agnostic struct the delivery
// gateway adapter turns into an actual Telegram call.
package render

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/plannerbot/internal/domain/entities"
)

// Kind names one of the six outbound message kinds of §2.4.
type Kind string

const (
	KindMorningPrompt   Kind = "morning_prompt"
	KindMorningReminder Kind = "morning_reminder"
	KindEveningReview   Kind = "evening_review"
	KindEveningReminder Kind = "evening_reminder"
	KindCustomReminder  Kind = "custom_reminder"
	KindGenericError    Kind = "generic_error"
)

// Message is the transport-agnostic output of the renderer.
type Message struct {
	Kind     Kind
	Text     string
	Keyboard *tgbotapi.InlineKeyboardMarkup
}

// md escapes plain text for MarkdownV2, the teacher's escaping idiom.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

// MorningPrompt renders the first morning send.
func MorningPrompt() Message {
	text := fmt.Sprintf("%s\n\n%s",
		bold("Доброе утро! ☀️"),
		md("Напишите план на сегодня — каждую задачу с новой строки."),
	)
	return Message{Kind: KindMorningPrompt, Text: text, Keyboard: skipKeyboard()}
}

// MorningReminder renders a repeated morning nudge.
func MorningReminder(attempt int) Message {
	text := fmt.Sprintf("%s\n\n%s",
		bold("Напоминание"),
		md("Вы ещё не прислали план на сегодня. Напишите его списком, каждая задача с новой строки."),
	)
	return Message{Kind: KindMorningReminder, Text: text, Keyboard: skipKeyboard()}
}

func skipKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Пропустить сегодня", buildDayCallback(actionSkipPlan)),
		),
	)
	return &kb
}

// EveningReview renders the plan summary with per-task action buttons for
// every task that has not yet been answered.
func EveningReview(planID int64, tasks []entities.Task) Message {
	var sb strings.Builder
	sb.WriteString(bold("Итоги дня 🌙"))
	sb.WriteString("\n\n")
	for i, t := range tasks {
		sb.WriteString(fmt.Sprintf("%s %d\\. %s\n", entities.StatusIcon(t.Status), i+1, md(t.Text)))
	}
	pct := entities.CompletionPercent(tasks)
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("Выполнено: %d%%", pct)))

	return Message{Kind: KindEveningReview, Text: sb.String(), Keyboard: eveningKeyboard(planID, tasks)}
}

// EveningNoPlan renders the "no plan today" evening message.
func EveningNoPlan() Message {
	return Message{Kind: KindEveningReview, Text: md("Сегодня вы не присылали план — отдыхайте! 🌙")}
}

// EveningReminder renders a repeated evening nudge for unanswered tasks.
func EveningReminder() Message {
	return Message{Kind: KindEveningReminder, Text: md("У вас остались неотмеченные задачи за сегодня. Отметьте их, пожалуйста.")}
}

func eveningKeyboard(planID int64, tasks []entities.Task) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range tasks {
		if t.Status != nil {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅", buildTaskCallback(actionTaskDone, t.ID)),
			tgbotapi.NewInlineKeyboardButtonData("⚠", buildTaskCallback(actionTaskPartial, t.ID)),
			tgbotapi.NewInlineKeyboardButtonData("❌", buildTaskCallback(actionTaskFailed, t.ID)),
			tgbotapi.NewInlineKeyboardButtonData("💬", buildTaskCallback(actionTaskComment, t.ID)),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// CustomReminder renders a user-defined reminder fire.
func CustomReminder(reminderID int64, description string) Message {
	text := fmt.Sprintf("%s\n\n%s", bold("Напоминание"), md(description))
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Готово на сегодня", buildReminderCallback(actionReminderDone, reminderID)),
		),
	)
	return Message{Kind: KindCustomReminder, Text: text, Keyboard: &kb}
}

// GenericError renders the best-effort failure notice sent to a user after
// retry exhaustion or a permanent delivery classification.
func GenericError() Message {
	return Message{Kind: KindGenericError, Text: md("Не получилось отправить сообщение. Попробуем снова позже.")}
}
