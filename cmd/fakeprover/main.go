// Command fakeprover serves the /prove contract with fake, request-bound proofs
// for local development against pqc --fake.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"qrypta/pqc/internal/api"
	"qrypta/pqc/internal/config"
	"qrypta/pqc/internal/prover"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envFile := flag.String("env-file", ".env", "path to a .env file (optional)")
	flag.Parse()

	envErr := godotenv.Load(*envFile)

	logger, err := initLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Fatal("Failed to load env file", zap.String("path", *envFile), zap.Error(envErr))
	}

	if err := run(logger); err != nil {
		logger.Fatal("Development prover stopped", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.LoadFakeProverConfig()
	if err != nil {
		return err
	}

	fake := prover.NewFakeProver(cfg.DeadlineMinutes, time.Now)
	router := api.SetupRouter(api.NewHandler(fake, logger.Named("api")), logger.Named("http"))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Development prover listening",
			zap.String("addr", server.Addr),
			zap.Int("default_deadline_minutes", cfg.DeadlineMinutes))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		server.Close()
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func initLogger() (*zap.Logger, error) {
	if os.Getenv("ENV") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
