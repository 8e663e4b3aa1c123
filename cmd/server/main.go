// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/grocerlens/reviewharvest/internal/browser"
	"github.com/grocerlens/reviewharvest/internal/config"
	"github.com/grocerlens/reviewharvest/internal/logging"
	"github.com/grocerlens/reviewharvest/internal/monitoring"
	"github.com/grocerlens/reviewharvest/internal/pipeline"
	"github.com/grocerlens/reviewharvest/internal/server"
)

var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	log := logging.New()

	cfg := config.Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to load configuration")
		}
		cfg = loaded
	}

	poolSize := 2
	if v := os.Getenv("SESSION_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			poolSize = n
		}
	}

	metrics := monitoring.NewMetrics()
	health := monitoring.NewHealth(version)
	pool := browser.NewSessionPool(cfg.Browser, poolSize)
	defer pool.Close()

	runner := pipeline.NewRunner(cfg, pool, metrics, log)
	srv := server.New(runner, metrics, health, log)

	addr := ":" + envOr("PORT", "8080")
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// No write timeout: scrape runs stream SSE for minutes
	}

	go func() {
		log.Info().Str("addr", addr).Str("version", version).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown did not complete cleanly")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
