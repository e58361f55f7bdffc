package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"videoads/internal/domain"
	"videoads/internal/providers/video"
)

// AbandonedMessage is recorded on in-progress jobs that cannot be resumed.
const AbandonedMessage = "abandoned: interrupted before completion"

// ReconcilerOptions configures a Reconciler. Without a Factory and APIKey no
// job can be resumed and every stale job is abandoned.
type ReconcilerOptions struct {
	Factory     video.Factory
	APIKey      string
	StaleAfter  time.Duration
	Concurrency int
	BatchSize   int
}

// Reconciler settles jobs left in progress by a previous process.
type Reconciler struct {
	store  domain.JobLogStore
	engine *Engine
	opts   ReconcilerOptions
	logger zerolog.Logger
}

// Report counts what one reconciliation pass did.
type Report struct {
	Scanned   int `json:"scanned"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Abandoned int `json:"abandoned"`
	Skipped   int `json:"skipped"`
}

func NewReconciler(store domain.JobLogStore, engine *Engine, opts ReconcilerOptions, logger zerolog.Logger) *Reconciler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	return &Reconciler{
		store:  store,
		engine: engine,
		opts:   opts,
		logger: logger.With().Str("component", "reconciler").Logger(),
	}
}

// Run settles every in-progress job created before startedAt minus the stale
// window. Jobs with a task id are resumed when a provider is available; the
// rest are marked failed.
func (r *Reconciler) Run(ctx context.Context, startedAt time.Time) (Report, error) {
	var report Report

	cutoff := startedAt.Add(-r.opts.StaleAfter)
	jobs, err := r.store.List(ctx, domain.ListFilter{
		Status:        domain.JobStatusInProgress,
		CreatedBefore: cutoff,
		Limit:         r.opts.BatchSize,
	})
	if err != nil {
		return report, fmt.Errorf("list stale jobs: %w", err)
	}
	report.Scanned = len(jobs)
	if len(jobs) == 0 {
		return report, nil
	}

	provider := r.provider()

	var mu sync.Mutex
	count := func(field *int) {
		mu.Lock()
		*field++
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for _, job := range jobs {
		if gctx.Err() != nil {
			count(&report.Skipped)
			continue
		}
		g.Go(func() error {
			log := r.logger.With().Int64("job_id", job.ID).Str("task_id", job.TaskID).Logger()

			if provider == nil || strings.TrimSpace(job.TaskID) == "" {
				err := r.store.Update(gctx, job.ID, domain.Fields{
					domain.ColStatus: domain.JobStatusFailed,
					domain.ColError:  AbandonedMessage,
				})
				switch {
				case errors.Is(err, domain.ErrInvalidTransition):
					count(&report.Skipped)
					return nil
				case err != nil:
					return fmt.Errorf("abandon job %d: %w", job.ID, err)
				}
				log.Warn().Msg("abandoned stale job")
				count(&report.Abandoned)
				return nil
			}

			if _, err := r.engine.Resume(gctx, provider, job); err != nil {
				if errors.Is(err, ErrEngineClosed) {
					count(&report.Skipped)
					return nil
				}
				log.Warn().Err(err).Msg("resumed job failed")
				count(&report.Failed)
				return nil
			}
			count(&report.Completed)
			return nil
		})
	}
	err = g.Wait()

	r.logger.Info().
		Int("scanned", report.Scanned).
		Int("completed", report.Completed).
		Int("failed", report.Failed).
		Int("abandoned", report.Abandoned).
		Int("skipped", report.Skipped).
		Msg("reconciliation finished")

	return report, err
}

func (r *Reconciler) provider() video.Provider {
	if r.opts.Factory == nil || strings.TrimSpace(r.opts.APIKey) == "" {
		return nil
	}
	p, err := r.opts.Factory.ForKey(r.opts.APIKey)
	if err != nil {
		r.logger.Warn().Err(err).Msg("no provider for resumption; stale jobs will be abandoned")
		return nil
	}
	return p
}
