package config

import (
	"log"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds everything the services read from the environment.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Asia/Singapore"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Telegram struct {
		Token         string `envconfig:"TG_BOT_TOKEN"`
		WebhookURL    string `envconfig:"TG_WEBHOOK_URL"`
		WebhookSecret string `envconfig:"TG_WEBHOOK_SECRET"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`
	AMQPURL   string `envconfig:"AMQP_URL"`

	Sessions struct {
		TTLHours int `envconfig:"SESSION_TTL_HOURS" default:"24"`
	} `envconfig:""`

	Reminder struct {
		Hour     int    `envconfig:"REMINDER_HOUR" default:"22"`
		QueueKey string `envconfig:"REMINDER_QUEUE_KEY" default:"bedtime_reminders"`
	} `envconfig:""`
}

// Load reads the config from the environment.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
