package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env              string                  `env:"ENV,default=local"`
	Logger           LoggerConfig            `env:",prefix=LOGGER_"`
	Observability    ObservabilityHTTPConfig `env:",prefix=OBSERVABILITY_"`
	ShutdownDuration time.Duration           `env:"SHUTDOWN_DURATION,default=30s"`
	DB               SQLiteConfig            `env:",prefix=DB_"`
	Billing          BillingConfig           `env:",prefix=BILLING_"`
	Watch            WatchConfig             `env:",prefix=WATCH_"`
}

type BillingConfig struct {
	PublicKey string        `env:"PUBLIC_KEY,required"`
	SecretKey string        `env:"SECRET_KEY,required"`
	BaseURL   string        `env:"BASE_URL,default=https://api.qiwi.com"`
	Timeout   time.Duration `env:"TIMEOUT,default=30s"`
	RateLimit struct {
		Burst int     `env:"BURST,default=1"`
		RPS   float64 `env:"RPS,default=5.0"`
	} `env:",prefix=RATE_LIMIT_"`
}

type WatchConfig struct {
	// Schedule is a cron expression for the reconcile worker that re-checks
	// unfinished bills.
	Schedule string `env:"SCHEDULE,default=@every 30s"`
}

type LoggerConfig struct {
	Level string `env:"LEVEL,default=debug"`
}

type ObservabilityHTTPConfig struct {
	Host         string        `env:"HOST,default=127.0.0.1"`
	Port         uint16        `env:"PORT,default=8383"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a ObservabilityHTTPConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type SQLiteConfig struct {
	Path         string `env:"PATH,default=./data/billpay.db"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS,default=25"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS,default=5"`
	MaxLifetime  string `env:"MAX_LIFETIME,default=5m"`
}
