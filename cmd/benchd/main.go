// Command benchd serves the model benchmarking engine over HTTP.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/modelbench/modelbench/api/rest"
	"github.com/modelbench/modelbench/bench"
	"github.com/modelbench/modelbench/evaluate"
	"github.com/modelbench/modelbench/internal/config"
	"github.com/modelbench/modelbench/internal/storage"
	"github.com/modelbench/modelbench/pkg/log"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Setup("info", os.Stderr)
		rootLogger := log.Root()
		rootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}
	log.Setup(cfg.LogLevel, os.Stderr)
	logger := log.With("benchd")

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("failed to open database")
	}
	defer store.Close()

	catalog := bench.DefaultCatalog()
	orchestrator := bench.NewOrchestrator(catalog, store.AuditSink())
	orchestrator.Seed = cfg.Bench.Seed
	orchestrator.CVFolds = cfg.Bench.CVFolds

	evaluator := evaluate.NewEvaluator(catalog)
	evaluator.Seed = cfg.Bench.Seed
	evaluator.CVFolds = cfg.Bench.CVFolds

	router := mux.NewRouter()
	rest.NewServer(orchestrator, evaluator, store).Routes(router)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}
