package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tanepro-b2b/internal/config"
	"tanepro-b2b/internal/database"
	"tanepro-b2b/internal/datastore"
	"tanepro-b2b/internal/localstore"
	"tanepro-b2b/internal/logger"
	"tanepro-b2b/internal/repository"
	"tanepro-b2b/internal/seed"
	"tanepro-b2b/internal/server"
	"tanepro-b2b/internal/service"
	"tanepro-b2b/internal/session"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}

func redisOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// connectRemote opens the remote database and applies migrations. A nil
// service means the process runs against local storage only.
func connectRemote(ctx context.Context, cfg *config.Config, log *zap.Logger) database.Service {
	db, err := database.New(ctx, cfg.Database, log.Named("database"))
	if err != nil {
		log.Warn("Remote database unavailable, running on local storage", zap.Error(err))
		return nil
	}
	if err := database.RunMigrations(db.DB(), log); err != nil {
		log.Error("Failed to run migrations, running on local storage", zap.Error(err))
		_ = db.Close()
		return nil
	}
	log.Info("Database migrations completed successfully")
	return db
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	log, err := logger.New(cfg.Server.Env, cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting B2B portal API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("auth_mode", cfg.Auth.Mode),
	)

	ctx := context.Background()

	local, err := localstore.Open(localstore.Config{
		Driver: cfg.LocalStorage.Driver,
		Path:   cfg.LocalStorage.Path,
		Prefix: cfg.LocalStorage.Prefix,
		Redis:  redisOptions(cfg.Redis),
	}, log.Named("localstore"))
	if err != nil {
		log.Fatal("Failed to open local storage", zap.Error(err))
	}

	db := connectRemote(ctx, cfg, log)

	var (
		catalog datastore.Catalog
		remote  session.RemoteAuth = session.OfflineAuth{}
	)
	if db != nil {
		catalog = repository.NewCatalog(
			repository.NewProductRepository(db.DB()),
			repository.NewCategoryRepository(db.DB()),
		)
		if cfg.Auth.Mode == config.AuthModeRemote {
			remote = service.NewAuthService(
				repository.NewUserRepository(db.DB()),
				repository.NewRefreshTokenRepository(db.DB()),
				service.AuthConfig{
					JWTSecret:     cfg.JWT.Secret,
					AccessExpiry:  time.Duration(cfg.JWT.AccessExpiry) * time.Minute,
					RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiry) * 24 * time.Hour,
				},
				log.Named("auth"),
			)
		}
	}

	store := datastore.New(local, catalog, log.Named("store"), datastore.WithRemoteTimeout(cfg.Auth.RemoteTimeout))
	if err := store.Init(ctx); err != nil {
		log.Fatal("Failed to initialize store", zap.Error(err))
	}

	profiles := session.NewProfileStore(local, service.BcryptCost)
	seeded, err := profiles.Seed(ctx, seed.Accounts(time.Now()))
	if err != nil {
		log.Fatal("Failed to seed user profiles", zap.Error(err))
	}
	if seeded {
		log.Info("Seeded demo user profiles")
	}

	var rdb *redis.Client
	if cfg.RateLimit.Requests > 0 {
		rdb = redis.NewClient(redisOptions(cfg.Redis))
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis unreachable, rate limiting fails open until it is back", zap.Error(err))
		}
		cancel()
	}

	srv := server.NewServer(server.Deps{
		Config:   cfg,
		Logger:   log,
		Store:    store,
		Remote:   remote,
		Profiles: profiles,
		Local:    local,
		Redis:    rdb,
		DB:       db,
	})

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
