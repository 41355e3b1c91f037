package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tg-sleep-bot/internal/usecase/form"
)

func mainKeyboard() *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🌙 Log bedtime", "menu_sleep"),
			tgbotapi.NewInlineKeyboardButtonData("☀️ Wake up", "menu_wakeup"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Weekly report", "menu_report"),
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Help", "menu_help"),
		),
	)
	return &markup
}

func formKeyboard() *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛏 Bedtime", form.ActionEditBedtime),
			tgbotapi.NewInlineKeyboardButtonData("💤 Fell asleep in", form.ActionEditFallAsleep),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏰ First alarm", form.ActionEditAlarm),
			tgbotapi.NewInlineKeyboardButtonData("☀️ Woke up", form.ActionEditWakeup),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚡ Energy", form.ActionEditEnergy),
			tgbotapi.NewInlineKeyboardButtonData("🧠 Clarity", form.ActionEditClarity),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Submit", form.ActionSubmit),
		),
	)
	return &markup
}

func startMessage() string {
	lines := []string{
		"👋 Welcome to Sleep Bot!",
		"",
		"I keep a journal of your nights:",
		"1. 🌙 Send /sleep when you turn in — I note your bedtime.",
		"2. ☀️ Send /wakey in the morning and fill in the short form.",
		"3. 📊 Send /view any time for your last week.",
		"",
		"Missed a night? /add backfills it. Got something wrong? /edit fixes it.",
	}
	return strings.Join(lines, "\n")
}

func helpMessage() string {
	sections := []string{
		"📖 Commands:",
		"",
		"• /sleep — log that you're going to bed (evenings and mornings only).",
		"• /wakey — log your wake-up and fill in last night's details.",
		"• /add — add a record for a past date (DD/MM).",
		"• /edit — change an already submitted record.",
		"• /view — your sleep report for the last 7 days.",
		"• /cancel — drop the form you're in the middle of.",
		"",
		"Times are 24-hour without a colon (2230), durations look like 1h30m.",
	}
	return strings.Join(sections, "\n")
}
