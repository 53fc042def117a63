package render

import "testing"

func TestCustomReminderEncodesReminderID(t *testing.T) {
	msg := CustomReminder(99, "water the plants")
	if msg.Keyboard == nil || len(msg.Keyboard.InlineKeyboard) != 1 || len(msg.Keyboard.InlineKeyboard[0]) != 1 {
		t.Fatalf("unexpected keyboard shape: %+v", msg.Keyboard)
	}
	button := msg.Keyboard.InlineKeyboard[0][0]
	if button.CallbackData == nil {
		t.Fatal("callback data is nil")
	}
	cb := ParseCallback(*button.CallbackData)
	if cb.Kind != actionReminder || cb.Action != actionReminderDone || cb.ReminderID != 99 {
		t.Fatalf("parsed callback = %+v, want reminder id 99", cb)
	}
}
