// Package jobs runs scheduled maintenance: purging expired revoked tokens
// and signed forms that no assignment references.
package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/erazemk/zimmet/internal/config"
	"github.com/erazemk/zimmet/internal/metrics"
	"github.com/erazemk/zimmet/internal/store"
)

// Job names, as reported in logs and metrics.
const (
	TokenPurge = "token_purge"
	FormPurge  = "form_purge"
)

const runTimeout = 2 * time.Minute

// FormPurger removes unreferenced signed forms.
type FormPurger interface {
	PurgeOrphans(ctx context.Context, maxAge time.Duration) (int, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron    *cron.Cron
	cfg     config.JobsConfig
	db      *sql.DB
	forms   FormPurger
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// NewScheduler creates a scheduler. forms and m may be nil.
func NewScheduler(cfg config.JobsConfig, db *sql.DB, forms FormPurger, m *metrics.Metrics, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		cfg:     cfg,
		db:      db,
		forms:   forms,
		metrics: m,
		logger:  logger.With().Str("component", "jobs").Logger(),
		now:     time.Now,
	}
}

// Start registers the jobs and starts the scheduler. An invalid schedule is
// an error and nothing is started.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.TokenPurgeSchedule, func() { s.run(TokenPurge, s.PurgeTokens) }); err != nil {
		return fmt.Errorf("scheduling %s: %w", TokenPurge, err)
	}
	if s.forms != nil {
		if _, err := s.cron.AddFunc(s.cfg.FormPurgeSchedule, func() { s.run(FormPurge, s.PurgeForms) }); err != nil {
			return fmt.Errorf("scheduling %s: %w", FormPurge, err)
		}
	}

	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("starting scheduler")
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info().Msg("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run(name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	ctx = s.logger.With().Str("job", name).Logger().WithContext(ctx)

	start := s.now()
	err := job(ctx)
	s.metrics.Job(name, s.now().Sub(start), err)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("job failed")
	}
}

// PurgeTokens deletes revoked tokens that have expired anyway.
func (s *Scheduler) PurgeTokens(ctx context.Context) error {
	n, err := store.PurgeExpiredTokens(ctx, s.db, s.now())
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Int64("purged", n).Msg("expired revoked tokens purged")
	return nil
}

// PurgeForms deletes stored forms older than the configured age that no
// assignment references.
func (s *Scheduler) PurgeForms(ctx context.Context) error {
	n, err := s.forms.PurgeOrphans(ctx, s.cfg.OrphanFormMaxAge)
	if n > 0 || err == nil {
		zerolog.Ctx(ctx).Info().Int("purged", n).Msg("orphan forms purged")
	}
	return err
}
