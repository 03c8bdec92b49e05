package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"tanepro-b2b/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// Service wraps the connection pool of the remote backend
type Service interface {
	DB() *sql.DB
	// Health returns a map of health status information
	Health(ctx context.Context) map[string]string
	Close() error
}

type service struct {
	db     *sql.DB
	logger *zap.Logger
}

// DSN builds the pgx connection string for cfg
func DSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host + ":" + cfg.Port,
		Path:   cfg.Database,
	}
	q := u.Query()
	q.Set("sslmode", "disable")
	if cfg.Schema != "" {
		q.Set("search_path", cfg.Schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// New opens the pool and verifies the connection
func New(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (Service, error) {
	db, err := sql.Open("pgx", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database %s:%s: %w", cfg.Host, cfg.Port, err)
	}

	logger.Info("Connected to database",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
	)
	return &service{db: db, logger: logger}, nil
}

func (s *service) DB() *sql.DB {
	return s.db
}

func (s *service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	stats := make(map[string]string)
	if err := s.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		s.logger.Warn("Database health check failed", zap.Error(err))
		return stats
	}

	dbStats := s.db.Stats()
	stats["status"] = "up"
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	return stats
}

func (s *service) Close() error {
	s.logger.Info("Disconnected from database")
	return s.db.Close()
}
