package environment

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"billpay/internal/config"
	"billpay/internal/infra/sqlite3"
	"billpay/internal/metrics"
	"billpay/pkg/qiwi"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

type Clients struct {
	SQLiteDB *sqlite3.DB
	Billing  *qiwi.Client
}

func newClients(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Clients, error) {
	sqliteDB, err := provideSQLiteDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	billing := provideBillingClient(cfg, logger)

	return &Clients{
		SQLiteDB: sqliteDB,
		Billing:  billing,
	}, nil
}

func provideSQLiteDB(ctx context.Context, cfg config.Config) (*sqlite3.DB, error) {
	maxLifetimeStr := cfg.DB.MaxLifetime
	if maxLifetimeStr == "" {
		maxLifetimeStr = "5m"
	}
	maxLifetime, err := time.ParseDuration(maxLifetimeStr)
	if err != nil {
		return nil, err
	}

	opts := []sqlite3.Option{
		sqlite3.WithDSN(cfg.DB.Path),
		sqlite3.WithMaxOpenConns(cfg.DB.MaxOpenConns),
		sqlite3.WithMaxIdleConns(cfg.DB.MaxIdleConns),
		sqlite3.WithConnMaxLifetime(maxLifetime),
	}

	return sqlite3.New(ctx, opts...)
}

func provideBillingClient(cfg config.Config, logger *slog.Logger) *qiwi.Client {
	return qiwi.NewClient(qiwi.Config{
		Keys:     qiwi.NewKeys(cfg.Billing.PublicKey, cfg.Billing.SecretKey),
		BaseURL:  cfg.Billing.BaseURL,
		Client:   &http.Client{Timeout: cfg.Billing.Timeout},
		Limiter:  rate.NewLimiter(rate.Limit(cfg.Billing.RateLimit.RPS), cfg.Billing.RateLimit.Burst),
		Observer: metrics.NewRouteMetrics(prometheus.DefaultRegisterer),
		Logger:   logger.WithGroup("billing"),
	})
}
