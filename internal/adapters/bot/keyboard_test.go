package bot

import (
	"testing"

	"tg-sleep-bot/internal/usecase/form"
)

func TestFormKeyboardCoversEveryField(t *testing.T) {
	expected := map[string]bool{
		form.ActionEditBedtime:    false,
		form.ActionEditFallAsleep: false,
		form.ActionEditAlarm:      false,
		form.ActionEditWakeup:     false,
		form.ActionEditEnergy:     false,
		form.ActionEditClarity:    false,
		form.ActionSubmit:         false,
	}
	for _, row := range formKeyboard().InlineKeyboard {
		for _, button := range row {
			if button.CallbackData == nil {
				t.Fatalf("button %q has no callback data", button.Text)
			}
			if _, ok := expected[*button.CallbackData]; !ok {
				t.Fatalf("unexpected callback %q", *button.CallbackData)
			}
			expected[*button.CallbackData] = true
		}
	}
	for action, seen := range expected {
		if !seen {
			t.Fatalf("keyboard is missing %q", action)
		}
	}
}
