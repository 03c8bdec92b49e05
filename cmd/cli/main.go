package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"tanepro-b2b/internal/config"
	"tanepro-b2b/internal/database"
	"tanepro-b2b/internal/datastore"
	"tanepro-b2b/internal/domain"
	"tanepro-b2b/internal/localstore"
	"tanepro-b2b/internal/logger"
	"tanepro-b2b/internal/repository"
	"tanepro-b2b/internal/seed"
	"tanepro-b2b/internal/service"
	"tanepro-b2b/internal/session"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const usage = "expected 'add-user', 'seed' or 'migrate' subcommand"

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Server.Env, cfg.Log.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(context.Background(), cfg, log, os.Args[1], os.Args[2:]); err != nil {
		log.Error("Command failed", zap.String("command", os.Args[1]), zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

// run executes one subcommand. Commands return their errors so that storage
// is closed before the process exits.
func run(ctx context.Context, cfg *config.Config, log *zap.Logger, name string, args []string) error {
	switch name {
	case "add-user":
		return addUser(ctx, cfg, log, args)
	case "seed":
		return seedStore(ctx, cfg, log, args)
	case "migrate":
		return migrate(ctx, cfg, log, args)
	}
	return errors.New(usage)
}

func openLocal(cfg *config.Config, log *zap.Logger) (localstore.Storage, error) {
	return localstore.Open(localstore.Config{
		Driver: cfg.LocalStorage.Driver,
		Path:   cfg.LocalStorage.Path,
		Prefix: cfg.LocalStorage.Prefix,
		Redis: &redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
	}, log.Named("localstore"))
}

func closeLocal(local localstore.Storage, log *zap.Logger) {
	if err := local.Close(); err != nil {
		log.Error("Failed to close local storage", zap.Error(err))
	}
}

// addUser registers a profile in local storage and records it as a supplier
// or customer
func addUser(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	cmd := flag.NewFlagSet("add-user", flag.ExitOnError)
	email := cmd.String("email", "", "Email of the new user")
	password := cmd.String("password", "", "Password of the new user")
	name := cmd.String("name", "", "Company or display name")
	role := cmd.String("role", string(domain.RoleCustomer), "admin, supplier or customer")
	phone := cmd.String("phone", "", "Phone number")
	tabdk := cmd.String("tabdk", "", "TABDK license number")
	address := cmd.String("address", "", "Address")
	_ = cmd.Parse(args)

	if *email == "" || *password == "" || *name == "" {
		cmd.PrintDefaults()
		return errors.New("email, password and name are required")
	}
	if !domain.Role(*role).Valid() {
		return fmt.Errorf("invalid role %q", *role)
	}

	local, err := openLocal(cfg, log)
	if err != nil {
		return err
	}
	defer closeLocal(local, log)

	profiles := session.NewProfileStore(local, service.BcryptCost)
	if _, err := profiles.Seed(ctx, seed.Accounts(time.Now())); err != nil {
		return fmt.Errorf("failed to seed user profiles: %w", err)
	}

	profile := domain.UserProfile{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Email:     strings.TrimSpace(*email),
		Name:      *name,
		Role:      domain.Role(*role),
		Phone:     *phone,
		TabdkNo:   *tabdk,
		Address:   *address,
		CreatedAt: time.Now(),
	}
	if err := profiles.Create(ctx, profile, *password); err != nil {
		return fmt.Errorf("failed to create user %s: %w", profile.Email, err)
	}

	store := datastore.New(local, nil, log.Named("store"))
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	if err := store.MirrorProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to record party: %w", err)
	}

	fmt.Printf("User '%s' created with id %s.\n", profile.Email, profile.ID)
	return nil
}

// seedStore initializes every collection against the configured storage and
// prints what it holds
func seedStore(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	cmd := flag.NewFlagSet("seed", flag.ExitOnError)
	offline := cmd.Bool("offline", false, "Skip the remote database")
	_ = cmd.Parse(args)

	local, err := openLocal(cfg, log)
	if err != nil {
		return err
	}
	defer closeLocal(local, log)

	var catalog datastore.Catalog
	if !*offline {
		db, err := database.New(ctx, cfg.Database, log.Named("database"))
		if err != nil {
			log.Warn("Remote database unavailable, seeding local storage only", zap.Error(err))
		} else {
			defer db.Close()
			catalog = repository.NewCatalog(
				repository.NewProductRepository(db.DB()),
				repository.NewCategoryRepository(db.DB()),
			)
		}
	}

	store := datastore.New(local, catalog, log.Named("store"), datastore.WithRemoteTimeout(cfg.Auth.RemoteTimeout))
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	profiles := session.NewProfileStore(local, service.BcryptCost)
	if _, err := profiles.Seed(ctx, seed.Accounts(time.Now())); err != nil {
		return fmt.Errorf("failed to seed user profiles: %w", err)
	}
	users, err := profiles.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list user profiles: %w", err)
	}

	fmt.Printf("products:   %d\n", len(store.Products()))
	fmt.Printf("categories: %d\n", len(store.Categories()))
	fmt.Printf("suppliers:  %d\n", len(store.Suppliers()))
	fmt.Printf("customers:  %d\n", len(store.Customers()))
	fmt.Printf("orders:     %d\n", len(store.Orders()))
	fmt.Printf("users:      %d\n", len(users))
	return nil
}

func migrate(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	cmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	status := cmd.Bool("status", false, "Print migration status instead of migrating")
	_ = cmd.Parse(args)

	db, err := database.New(ctx, cfg.Database, log.Named("database"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if *status {
		return database.MigrationStatus(db.DB())
	}
	return database.RunMigrations(db.DB(), log)
}
