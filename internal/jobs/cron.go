package jobs

import (
	"context"
	"time"

	"github.com/machamp0714/linear-time-tracker/internal/config"
	"github.com/machamp0714/linear-time-tracker/internal/repo"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type service interface {
	ReconcileTick(ctx context.Context) error
}

type Cron struct {
	cfg  config.Config
	log  zerolog.Logger
	svc  service
	repo *repo.Repository
	c    *cron.Cron
}

func NewCron(cfg config.Config, log zerolog.Logger, svc service, r *repo.Repository) *Cron {
	c := cron.New()
	cr := &Cron{cfg: cfg, log: log, svc: svc, repo: r, c: c}
	_, _ = c.AddFunc(cfg.PollCron, cr.tick)
	return cr
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { cr.c.Stop() }

func (cr *Cron) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	const lockKey int64 = 727270
	ok, err := cr.repo.TryAdvisoryLock(ctx, lockKey)
	if err != nil { cr.log.Error().Err(err).Msg("cron: lock error"); return }
	if !ok { cr.log.Info().Msg("cron: reconcile already running elsewhere"); return }
	defer func() { _ = cr.repo.AdvisoryUnlock(context.Background(), lockKey) }()
	if err := cr.svc.ReconcileTick(ctx); err != nil {
		// A failed tick stays scheduled; the next one retries naturally.
		cr.log.Error().Err(err).Msg("cron: reconcile failed")
	}
}
