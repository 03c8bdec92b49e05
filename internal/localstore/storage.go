// Package localstore is the durable key-value mirror that every collection and
// the session profile store write their last-known-good snapshots to.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("key not found")
	// ErrQuotaExceeded is returned when a write would exceed the storage quota
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Storage holds serialized snapshots under string keys
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config selects and configures a storage driver
type Config struct {
	Driver string
	// Path is the badger directory or the sqlite file. An empty badger path
	// runs badger in memory.
	Path   string
	Prefix string
	Redis  *redis.Options
	// MaxBytes bounds the memory driver; zero means unbounded
	MaxBytes int
}

// Open builds the configured driver wrapped in the key prefix
func Open(cfg Config, logger *zap.Logger) (Storage, error) {
	var (
		s   Storage
		err error
	)

	switch strings.ToLower(cfg.Driver) {
	case DriverBadger, "":
		s, err = NewBadger(cfg.Path, logger)
	case DriverSQLite:
		s, err = NewSQLite(cfg.Path)
	case DriverRedis:
		if cfg.Redis == nil {
			return nil, fmt.Errorf("redis driver requires redis options")
		}
		s, err = NewRedis(redis.NewClient(cfg.Redis))
	case DriverMemory:
		s = NewMemory(cfg.MaxBytes)
	default:
		return nil, fmt.Errorf("unknown local storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Driver, err)
	}

	logger.Info("Local storage opened",
		zap.String("driver", cfg.Driver),
		zap.String("path", cfg.Path),
		zap.String("prefix", cfg.Prefix),
	)

	return WithPrefix(s, cfg.Prefix), nil
}
