package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zimmet/internal/api"
	"github.com/erazemk/zimmet/internal/audit"
	"github.com/erazemk/zimmet/internal/auth"
	"github.com/erazemk/zimmet/internal/cache"
	"github.com/erazemk/zimmet/internal/config"
	"github.com/erazemk/zimmet/internal/db"
	"github.com/erazemk/zimmet/internal/forms"
	"github.com/erazemk/zimmet/internal/jobs"
	"github.com/erazemk/zimmet/internal/logging"
	"github.com/erazemk/zimmet/internal/metrics"
	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/service"
	"github.com/erazemk/zimmet/internal/store"
)

func main() {
	cfg, err := config.Load(".env", os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := logging.Setup(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server error")
		closeLog()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	ctx := logger.WithContext(context.Background())

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	logger.Info().Str("path", cfg.DBPath).Msg("database ready")

	if err := bootstrapAdmin(ctx, database, cfg); err != nil {
		return err
	}

	// JWT secret is generated and persisted on first run.
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading JWT secret: %w", err)
	}
	issuer := auth.NewIssuer(jwtSecret, cfg.TokenIssuer, cfg.TokenTTL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	pending, closeCache, err := pendingCache(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeCache()

	sinks := []audit.Sink{audit.DBSink{DB: database}}
	if cfg.Audit.WebhookURL != "" {
		sinks = append(sinks, audit.NewWebhookSink(cfg.Audit.WebhookURL, cfg.Audit.WebhookToken, cfg.Audit.WebhookTimeout))
		logger.Info().Str("url", cfg.Audit.WebhookURL).Msg("audit webhook enabled")
	}
	recorder := audit.NewRecorder(m, sinks...)

	formStore, err := forms.NewStore(database, cfg.FormsDir, cfg.FormMaxBytes)
	if err != nil {
		return fmt.Errorf("opening form store: %w", err)
	}

	if cfg.Jobs.Enabled {
		scheduler := jobs.NewScheduler(cfg.Jobs, database, formStore, m, logger)
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	router := api.NewRouter(api.Deps{
		DB:       database,
		Issuer:   issuer,
		Services: service.Deps{Cache: pending},
		Forms:    formStore,
		Audit:    recorder,
		Metrics:  m,
		Gatherer: reg,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("server forced to shutdown")
		}
	}()

	logger.Info().Str("addr", cfg.Addr).Msg("server started")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	logger.Info().Msg("server stopped, closing database")
	return nil
}

// pendingCache picks Redis when configured and process memory otherwise.
func pendingCache(ctx context.Context, cfg config.RedisConfig) (cache.PendingCounter, func(), error) {
	if cfg.URL == "" {
		return cache.NewMemory(cfg.PendingCountTTL), func() {}, nil
	}
	r, err := cache.NewRedis(ctx, cfg.URL, cfg.PendingCountTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	zerolog.Ctx(ctx).Info().Msg("pending count cached in redis")
	return r, func() { r.Close() }, nil
}

// bootstrapAdmin creates the first admin account when the database has no
// users and prints its generated password.
func bootstrapAdmin(ctx context.Context, database *sql.DB, cfg config.Config) error {
	n, err := store.CountUsers(ctx, database)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if n > 0 {
		return nil
	}

	password, err := generatePassword(16)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if _, err := store.CreateUser(ctx, database, cfg.AdminUser, string(hash), model.RoleAdmin); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	printInitResult(cfg.DBPath, cfg.AdminUser, password)
	return nil
}

// printInitResult prints the first-run credentials to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database initialized: %s\n", dbPath)
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
	fmt.Println()
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
