package render

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback action prefixes. Each maps to one branch of the typed Callback
// variant decoded by ParseCallback — raw callback strings never propagate
// past the router.
const (
	actionTask     = "task"
	actionMenu     = "menu"
	actionReminder = "reminder"
	actionDay      = "day"
)

// Task sub-actions.
const (
	actionTaskDone    = "done"
	actionTaskPartial = "partial"
	actionTaskFailed  = "failed"
	actionTaskComment = "comment"
)

// Reminder sub-actions.
const (
	actionReminderDone = "done_today"
)

// Day sub-actions.
const (
	actionSkipPlan     = "skip_plan"
	actionRetryEvening = "retry_evening"
)

// Callback is the typed decode of a raw Telegram callback_data string.
type Callback struct {
	Kind       string // "task" | "menu" | "reminder" | "day" | "unknown"
	Action     string
	TaskID     int64
	ReminderID int64
	MenuPath   string
}

func encode(kind, action string, id int64) string {
	if id == 0 {
		return fmt.Sprintf("%s:%s", kind, action)
	}
	return fmt.Sprintf("%s:%s:%d", kind, action, id)
}

func buildTaskCallback(action string, taskID int64) string {
	return encode(actionTask, action, taskID)
}

func buildReminderCallback(action string, reminderID int64) string {
	return encode(actionReminder, action, reminderID)
}

func buildDayCallback(action string) string {
	return encode(actionDay, action, 0)
}

// BuildMenuCallback builds callback data for navigating to a settings menu path.
func BuildMenuCallback(path string) string {
	return fmt.Sprintf("%s:%s", actionMenu, path)
}

// ParseCallback decodes a raw callback_data string into the typed variant,
// dispatched by prefix as described in the design notes.
func ParseCallback(data string) Callback {
	parts := strings.Split(data, ":")
	if len(parts) == 0 {
		return Callback{Kind: "unknown"}
	}

	kind := parts[0]
	switch kind {
	case actionTask:
		if len(parts) < 3 {
			return Callback{Kind: "unknown"}
		}
		id, _ := strconv.ParseInt(parts[2], 10, 64)
		return Callback{Kind: actionTask, Action: parts[1], TaskID: id}
	case actionReminder:
		if len(parts) < 2 {
			return Callback{Kind: "unknown"}
		}
		var id int64
		if len(parts) >= 3 {
			id, _ = strconv.ParseInt(parts[2], 10, 64)
		}
		return Callback{Kind: actionReminder, Action: parts[1], ReminderID: id}
	case actionDay:
		if len(parts) < 2 {
			return Callback{Kind: "unknown"}
		}
		return Callback{Kind: actionDay, Action: parts[1]}
	case actionMenu:
		if len(parts) < 2 {
			return Callback{Kind: "unknown"}
		}
		return Callback{Kind: actionMenu, MenuPath: parts[1]}
	default:
		return Callback{Kind: "unknown"}
	}
}
