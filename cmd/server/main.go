// Package main is the entry point for the sfgnexus API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"sfgnexus/internal/core/basenumber"
	"sfgnexus/internal/domain/allocation"
	"sfgnexus/internal/domain/truthfile"
	v1 "sfgnexus/internal/infrastructure/http/v1"
	"sfgnexus/internal/infrastructure/storage"
	"sfgnexus/internal/infrastructure/storage/postgres"
	"sfgnexus/pkg/logger"
)

var version = "dev"

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
		Fields:      map[string]any{"service": "sfgnexus", "version": version},
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting sfgnexus server")

	// --- Sequence store ---
	driver, err := storage.ParseDriver(getEnv("STORE_DRIVER", string(storage.DriverPostgres)))
	if err != nil {
		log.Fatalw("invalid store driver", "error", err)
	}

	storeCfg := storage.Config{
		Driver: driver,
		Path:   os.Getenv("STORE_PATH"),
	}
	if driver == storage.DriverPostgres {
		storeCfg.DSN = mustEnv("DATABASE_URL")
		pool := postgres.DefaultPoolConfig(storeCfg.DSN)
		if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
			pool.MaxConns = int32(maxConns)
		}
		storeCfg.Pool = &pool
	}

	store, closeStore, err := storage.Open(ctx, storeCfg)
	if err != nil {
		log.Fatalw("failed to open sequence store", "driver", driver, "error", err)
	}
	defer closeStore()

	// --- Allocation ---
	def := basenumber.DefaultConfig()
	allocCfg := basenumber.Config{
		SequenceID:   getEnv("SEQUENCE_ID", def.SequenceID),
		StartValue:   int64(getEnvInt("SEQUENCE_START", int(def.StartValue))),
		MaxAttempts:  getEnvInt("ALLOCATE_MAX_ATTEMPTS", def.MaxAttempts),
		RetryBackoff: getEnvDuration("ALLOCATE_RETRY_BACKOFF", def.RetryBackoff),
	}
	if err := allocCfg.Validate(); err != nil {
		log.Fatalw("invalid allocation config", "error", err)
	}
	allocator := allocation.NewService(store, allocCfg)
	log.Infow("allocator initialized",
		"sequence_id", allocator.Config().SequenceID,
		"start_value", allocator.Config().StartValue,
		"max_attempts", allocator.Config().MaxAttempts,
	)

	// --- Truth-file rules ---
	rules, err := truthfile.LoadRules(os.Getenv("TRUTHFILE_RULES"))
	if err != nil {
		log.Fatalw("failed to load truth-file rules", "error", err)
	}
	log.Infow("truth-file rules loaded", "version", rules.Version)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Allocator:   allocator,
		Store:       store,
		StoreDriver: string(driver),
		Validator:   truthfile.NewValidator(rules),
		Paths:       truthfile.NewPathBuilder(rules, nil),
		Logger:      log,
		Version:     version,
		Debug:       getEnv("APP_ENV", "development") == "development",
	})

	var handler http.Handler = router
	if getEnv("GZIP_ENABLED", "true") == "true" {
		handler = gzhttp.GzipHandler(router)
	}

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port, "store", driver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
