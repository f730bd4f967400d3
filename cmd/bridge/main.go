package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/machamp0714/linear-time-tracker/internal/adapters/linear"
	"github.com/machamp0714/linear-time-tracker/internal/adapters/timecrowd"
	"github.com/machamp0714/linear-time-tracker/internal/config"
	api "github.com/machamp0714/linear-time-tracker/internal/http"
	"github.com/machamp0714/linear-time-tracker/internal/jobs"
	"github.com/machamp0714/linear-time-tracker/internal/logger"
	"github.com/machamp0714/linear-time-tracker/internal/repo"
	"github.com/machamp0714/linear-time-tracker/internal/services"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db := repo.MustOpen(ctx, cfg, log)
	defer db.Close()
	repository := repo.NewRepository(db, log)
	if err := repository.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema init failed")
	}

	// Adapters
	tc := timecrowd.NewClient(cfg, log)
	lin := linear.NewClient(cfg, log)
	if !lin.Configured() {
		log.Info().Msg("linear api key not set, issue sync disabled")
	}

	// Services
	svc := services.New(cfg, log, repository, tc, lin)

	// Settle any timer left over from a previous run; the regular schedule
	// takes it from here.
	go func() {
		ctx2, cancel2 := context.WithTimeout(ctx, 30*time.Second)
		defer cancel2()
		if err := svc.ReconcileTick(ctx2); err != nil {
			log.Error().Err(err).Msg("startup reconcile failed")
		}
	}()

	// Cron
	cr := jobs.NewCron(cfg, log, svc, repository)
	cr.Start()
	defer cr.Stop()

	// HTTP server (Gin)
	router := api.NewRouter(cfg, log, svc)
	errCh := make(chan error, 1)
	go func() { errCh <- router.Run(cfg.HTTPAddr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info().Msg("shutting down...")
	case err := <-errCh:
		if err != nil { log.Error().Err(err).Msg("http server error") }
	}

	// Let detached Linear syncs finish before exiting.
	svc.WaitSyncs()
}
