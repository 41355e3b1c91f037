package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tg-sleep-bot/internal/adapters/repo"
	"tg-sleep-bot/internal/domain"
	"tg-sleep-bot/internal/infra/config"
	"tg-sleep-bot/internal/infra/db"
	"tg-sleep-bot/internal/infra/log"
	"tg-sleep-bot/internal/infra/metrics"
	"tg-sleep-bot/internal/infra/queue"
	"tg-sleep-bot/internal/usecase/reminder"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		logger.Fatal().Err(err).Str("tz", cfg.TZ).Msg("scheduler: invalid timezone")
	}

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: no database connection")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)
	reminderQueue := newReminderQueue(cfg, logger)
	service := reminder.NewService(repoAdapter, repoAdapter, repoAdapter, reminderQueue, logger, cfg.Reminder.Hour, loc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")

	logger.Info().Int("hour", cfg.Reminder.Hour).Msg("scheduler: started")
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler: stopped")
			return
		case <-ticker.C:
			if err := service.Tick(ctx, time.Now()); err != nil {
				logger.Error().Err(err).Msg("scheduler: tick failed")
			}
		}
	}
}

func newReminderQueue(cfg config.AppConfig, logger zerolog.Logger) domain.ReminderQueue {
	if cfg.AMQPURL != "" {
		q, err := queue.NewAMQPReminderQueue(cfg.AMQPURL, cfg.Reminder.QueueKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("scheduler: failed to connect to RabbitMQ")
		}
		return q
	}
	if cfg.RedisAddr == "" {
		logger.Fatal().Msg("scheduler: neither AMQP_URL nor REDIS_ADDR is set")
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return queue.NewRedisReminderQueue(client, cfg.Reminder.QueueKey)
}
