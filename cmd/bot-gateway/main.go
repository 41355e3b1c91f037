package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tg-sleep-bot/internal/adapters/bot"
	"tg-sleep-bot/internal/adapters/repo"
	"tg-sleep-bot/internal/domain"
	"tg-sleep-bot/internal/infra/config"
	"tg-sleep-bot/internal/infra/db"
	infrahttp "tg-sleep-bot/internal/infra/http"
	"tg-sleep-bot/internal/infra/log"
	"tg-sleep-bot/internal/infra/metrics"
	"tg-sleep-bot/internal/infra/queue"
	"tg-sleep-bot/internal/infra/sessions"
	"tg-sleep-bot/internal/usecase/form"
	"tg-sleep-bot/internal/usecase/reminder"
	"tg-sleep-bot/internal/usecase/report"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		logger.Fatal().Err(err).Str("tz", cfg.TZ).Msg("invalid timezone")
	}

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to the database")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	var sessionStore domain.SessionStore
	if redisClient != nil {
		sessionStore = sessions.NewRedis(redisClient, time.Duration(cfg.Sessions.TTLHours)*time.Hour)
	} else {
		logger.Warn().Msg("REDIS_ADDR not set, using in-memory sessions")
		sessionStore = sessions.NewMemory()
	}

	formService := form.NewService(repoAdapter, loc)
	reportService := report.NewService(repoAdapter, loc)

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create the bot")
	}

	h := bot.NewHandler(botAPI, logger, formService, reportService, repoAdapter, sessionStore)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if reminders := newReminderQueue(cfg, redisClient, logger); reminders != nil {
		go h.ConsumeReminders(ctx, reminders, reminder.Message())
	} else {
		logger.Warn().Msg("no queue backend configured, bedtime reminders disabled")
	}

	srv := infrahttp.NewServer(logger)
	srv.Router.With(infrahttp.WebhookSecretMiddleware(cfg.Telegram.WebhookSecret)).
		Post("/bot/webhook", func(w http.ResponseWriter, r *http.Request) {
			var update tgbotapi.Update
			if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			h.HandleUpdate(r.Context(), update)
			w.WriteHeader(http.StatusOK)
		})

	go func() {
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func newReminderQueue(cfg config.AppConfig, redisClient *redis.Client, logger zerolog.Logger) domain.ReminderQueue {
	if cfg.AMQPURL != "" {
		q, err := queue.NewAMQPReminderQueue(cfg.AMQPURL, cfg.Reminder.QueueKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		return q
	}
	if redisClient != nil {
		return queue.NewRedisReminderQueue(redisClient, cfg.Reminder.QueueKey)
	}
	return nil
}

var (
	_ domain.UserRepo         = (*repo.Postgres)(nil)
	_ domain.SleepRepo        = (*repo.Postgres)(nil)
	_ domain.ReminderTaskRepo = (*repo.Postgres)(nil)
)
