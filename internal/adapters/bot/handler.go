package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-sleep-bot/internal/adapters/telegram"
	"tg-sleep-bot/internal/domain"
	"tg-sleep-bot/internal/infra/metrics"
	"tg-sleep-bot/internal/usecase/form"
	"tg-sleep-bot/internal/usecase/report"
)

// Handler serves the bot webhook: it classifies updates into commands,
// form button presses and free-text replies, and drives the form core.
type Handler struct {
	bot      *tgbotapi.BotAPI
	log      zerolog.Logger
	formUC   *form.Service
	reportUC *report.Service
	users    domain.UserRepo
	sessions domain.SessionStore
}

// NewHandler builds the handler.
func NewHandler(bot *tgbotapi.BotAPI, log zerolog.Logger, formUC *form.Service, reportUC *report.Service, users domain.UserRepo, sessions domain.SessionStore) *Handler {
	return &Handler{
		bot:      bot,
		log:      log,
		formUC:   formUC,
		reportUC: reportUC,
		users:    users,
		sessions: sessions,
	}
}

// HandleUpdate processes one incoming update.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		h.handleMessage(ctx, upd.Message)
	} else if upd.CallbackQuery != nil {
		h.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		h.handleFormText(ctx, msg.Chat.ID, msg.From, text)
		return
	}

	command := text
	if idx := strings.IndexAny(text, " @"); idx > 0 {
		command = text[:idx]
	}
	switch command {
	case "/start":
		h.handleStart(ctx, msg)
	case "/help":
		h.reply(msg.Chat.ID, helpMessage(), mainKeyboard())
	case "/sleep":
		h.handleSleep(ctx, msg.Chat.ID, msg.From)
	case "/wakey":
		h.handleWakeup(ctx, msg.Chat.ID, msg.From)
	case "/add":
		h.handleAdd(ctx, msg.Chat.ID, msg.From)
	case "/edit":
		h.handleEdit(ctx, msg.Chat.ID, msg.From)
	case "/view":
		h.handleView(ctx, msg.Chat.ID, msg.From)
	case "/cancel":
		h.handleCancel(ctx, msg.Chat.ID, msg.From)
	default:
		h.reply(msg.Chat.ID, "Unknown command. Try /help.", nil)
	}
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	_, err := h.users.UpsertByTGID(ctx, profileOf(msg.From))
	if err != nil {
		h.log.Error().Err(err).Int64("user", msg.From.ID).Msg("failed to upsert user")
		h.reply(msg.Chat.ID, "Could not save your profile, please try again later.", nil)
		return
	}
	h.reply(msg.Chat.ID, startMessage(), mainKeyboard())
}

func (h *Handler) handleSleep(ctx context.Context, chatID int64, from *tgbotapi.User) {
	user, ok := h.resolveUser(ctx, chatID, from)
	if !ok {
		return
	}
	reply := h.formUC.RecordBedtime(ctx, user.ID)
	h.sendReply(ctx, chatID, domain.Session{}, reply)
}

func (h *Handler) handleWakeup(ctx context.Context, chatID int64, from *tgbotapi.User) {
	user, ok := h.resolveUser(ctx, chatID, from)
	if !ok {
		return
	}
	sess, ok := h.loadSession(ctx, chatID, from.ID)
	if !ok {
		return
	}
	next, reply := h.formUC.BeginWakeup(ctx, sess, user.ID)
	h.saveSession(ctx, from.ID, next)
	h.sendReply(ctx, chatID, next, reply)
}

func (h *Handler) handleAdd(ctx context.Context, chatID int64, from *tgbotapi.User) {
	if _, ok := h.resolveUser(ctx, chatID, from); !ok {
		return
	}
	sess, ok := h.loadSession(ctx, chatID, from.ID)
	if !ok {
		return
	}
	next, reply := h.formUC.BeginAdd(sess)
	h.saveSession(ctx, from.ID, next)
	h.sendReply(ctx, chatID, next, reply)
}

func (h *Handler) handleEdit(ctx context.Context, chatID int64, from *tgbotapi.User) {
	if _, ok := h.resolveUser(ctx, chatID, from); !ok {
		return
	}
	sess, ok := h.loadSession(ctx, chatID, from.ID)
	if !ok {
		return
	}
	next, reply := h.formUC.BeginEdit(sess)
	h.saveSession(ctx, from.ID, next)
	h.sendReply(ctx, chatID, next, reply)
}

func (h *Handler) handleView(ctx context.Context, chatID int64, from *tgbotapi.User) {
	user, ok := h.resolveUser(ctx, chatID, from)
	if !ok {
		return
	}
	metrics.ReportRequestsTotal.Inc()
	text, err := h.reportUC.BuildWeekly(ctx, user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user", from.ID).Msg("failed to build report")
		h.reply(chatID, "Something went wrong, please try again later.", nil)
		return
	}
	h.reply(chatID, text, nil)
}

func (h *Handler) handleCancel(ctx context.Context, chatID int64, from *tgbotapi.User) {
	sess, ok := h.loadSession(ctx, chatID, from.ID)
	if !ok {
		return
	}
	next, reply := h.formUC.Cancel(sess)
	h.saveSession(ctx, from.ID, next)
	h.sendReply(ctx, chatID, next, reply)
}

func (h *Handler) handleFormText(ctx context.Context, chatID int64, from *tgbotapi.User, text string) {
	sess, ok := h.loadSession(ctx, chatID, from.ID)
	if !ok {
		return
	}
	if sess.Idle() {
		h.reply(chatID, "I wasn't expecting that. Try /help.", nil)
		return
	}
	user, ok := h.resolveUser(ctx, chatID, from)
	if !ok {
		return
	}
	next, reply := h.formUC.HandleText(ctx, sess, user.ID, text)
	h.saveSession(ctx, from.ID, next)
	h.sendReply(ctx, chatID, next, reply)
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data
	switch data {
	case "menu_sleep":
		h.handleSleep(ctx, chatID, cb.From)
	case "menu_wakeup":
		h.handleWakeup(ctx, chatID, cb.From)
	case "menu_report":
		h.handleView(ctx, chatID, cb.From)
	case "menu_help":
		h.reply(chatID, helpMessage(), mainKeyboard())
	case form.ActionSubmit:
		h.handleSubmit(ctx, chatID, cb.From)
	default:
		h.handleFieldSelect(ctx, chatID, cb.From, data)
	}

	start := time.Now()
	_, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, ""))
	metrics.ObserveNetworkRequest("telegram_bot", "answer_callback", strconv.FormatInt(cb.From.ID, 10), start, err)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to answer callback")
	}
}

func (h *Handler) handleSubmit(ctx context.Context, chatID int64, from *tgbotapi.User) {
	user, ok := h.resolveUser(ctx, chatID, from)
	if !ok {
		return
	}
	sess, ok := h.loadSession(ctx, chatID, from.ID)
	if !ok {
		return
	}
	next, reply := h.formUC.Submit(ctx, sess, user.ID)
	if reply.Submitted {
		metrics.FormSubmissionsTotal.Inc()
	}
	h.saveSession(ctx, from.ID, next)
	h.sendReply(ctx, chatID, next, reply)
}

func (h *Handler) handleFieldSelect(ctx context.Context, chatID int64, from *tgbotapi.User, action string) {
	sess, ok := h.loadSession(ctx, chatID, from.ID)
	if !ok {
		return
	}
	next, reply := h.formUC.SelectField(sess, action)
	h.saveSession(ctx, from.ID, next)
	h.sendReply(ctx, chatID, next, reply)
}

// ConsumeReminders delivers queued bedtime reminders until the context ends.
func (h *Handler) ConsumeReminders(ctx context.Context, queue domain.ReminderQueue, text string) {
	for {
		job, err := queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			h.log.Error().Err(err).Msg("reminder: pop failed")
			metrics.IncReminderJob("failed")
			continue
		}
		msg := tgbotapi.NewMessage(job.UserTGID, text)
		start := time.Now()
		_, err = h.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_reminder", strconv.FormatInt(job.UserTGID, 10), start, err)
		if err != nil {
			h.log.Error().Err(err).Str("job", job.ID).Int64("user", job.UserTGID).Msg("reminder: send failed")
			metrics.IncReminderJob("failed")
			continue
		}
		metrics.IncReminderJob("sent")
	}
}

func (h *Handler) resolveUser(ctx context.Context, chatID int64, from *tgbotapi.User) (domain.User, bool) {
	user, err := h.users.GetByTGID(ctx, from.ID)
	if err != nil {
		user, err = h.users.UpsertByTGID(ctx, profileOf(from))
	}
	if err != nil {
		h.log.Error().Err(err).Int64("user", from.ID).Msg("failed to resolve user")
		h.reply(chatID, "Could not load your profile, please try again later.", nil)
		return domain.User{}, false
	}
	return user, true
}

func (h *Handler) loadSession(ctx context.Context, chatID, tgUserID int64) (domain.Session, bool) {
	sess, err := h.sessions.Get(ctx, tgUserID)
	if err != nil {
		h.log.Error().Err(err).Int64("user", tgUserID).Msg("failed to load session")
		h.reply(chatID, "Something went wrong, please try again later.", nil)
		return domain.Session{}, false
	}
	return sess, true
}

func (h *Handler) saveSession(ctx context.Context, tgUserID int64, sess domain.Session) {
	var err error
	if sess.Idle() {
		err = h.sessions.Delete(ctx, tgUserID)
	} else {
		err = h.sessions.Put(ctx, tgUserID, sess)
	}
	if err != nil {
		h.log.Error().Err(err).Int64("user", tgUserID).Msg("failed to save session")
	}
}

func (h *Handler) sendReply(ctx context.Context, chatID int64, sess domain.Session, reply form.Reply) {
	if !reply.ShowForm {
		h.reply(chatID, reply.Text, nil)
		return
	}
	text := reply.Text + "\n\n" + form.Summary(sess.Draft)
	h.reply(chatID, text, formKeyboard())
}

func (h *Handler) reply(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	parts := telegram.SplitMessage(text)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		if i == len(parts)-1 && keyboard != nil {
			msg.ReplyMarkup = keyboard
		}
		start := time.Now()
		_, err := h.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			metrics.BotSendErrors.Inc()
			h.log.Error().Err(err).Msg("failed to send message")
			return
		}
	}
}

func profileOf(from *tgbotapi.User) domain.TelegramProfile {
	return domain.TelegramProfile{
		TGUserID: from.ID,
		Username: from.UserName,
		Locale:   from.LanguageCode,
	}
}
