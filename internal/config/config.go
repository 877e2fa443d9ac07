package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN       string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL       string `env:"RABBITMQ_URL,required=true"`
	RedisURL          string `env:"REDIS_URL,required=true"`
	MailgunBaseURL    string `env:"MAILGUN_BASE_URL,required=true"`
	MailgunDomain     string `env:"MAILGUN_DOMAIN,required=true"`
	MailgunAPIKey     string `env:"MAILGUN_API_KEY,required=true"`
	EmailBatchSize    int    `env:"EMAIL_BATCH_SIZE,default=1000"`
	ErrorMaxLength    int    `env:"EMAIL_ERROR_MAX_LENGTH,default=2000"`
	RateLimitPerSec   int    `env:"RATE_LIMIT_PER_SEC,default=10"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY,default=4"`
	APIPort           int    `env:"API_PORT,default=8080"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
