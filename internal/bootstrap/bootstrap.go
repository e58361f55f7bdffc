// Package bootstrap wires the configured backends shared by the API server
// and the operator CLI.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"videoads/internal/adapter/repo"
	"videoads/internal/domain"
	"videoads/internal/infra"
	"videoads/internal/providers/video"
	"videoads/internal/workflow"
)

// OpenStore opens the job log selected by cfg.DBDriver and returns it with
// writes serialized. The close func releases the connection.
func OpenStore(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (domain.JobLogStore, func(), error) {
	switch cfg.DBDriver {
	case infra.DBDriverSQLite:
		db, err := infra.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, err := repo.NewJobRepositorySQLite(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info().Str("driver", cfg.DBDriver).Str("path", cfg.SQLitePath).Msg("job log opened")
		return repo.Serialize(store), func() { db.Close() }, nil

	case infra.DBDriverPostgres:
		version, err := infra.RunMigrations(cfg.DatabaseURL, infra.MigrateUp)
		if err != nil {
			return nil, nil, err
		}
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		runner := infra.NewSQLRunner(pool, logger)
		logger.Info().Str("driver", cfg.DBDriver).Uint("schema_version", version).Msg("job log opened")
		return repo.Serialize(repo.NewJobRepository(runner)), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

// GeminiFactory builds the provider factory from the Gemini settings.
func GeminiFactory(cfg *infra.Config, logger zerolog.Logger) *video.GeminiFactory {
	l := logger.With().Str("component", "genai").Logger()
	return video.NewGeminiFactory(video.GeminiOptions{
		BaseURL:     cfg.GeminiBaseURL,
		TextModel:   cfg.GeminiTextModel,
		VideoModel:  cfg.GeminiVideoModel,
		VerifyModel: cfg.GeminiVerifyModel,
		Logger:      &l,
	})
}

// PollPolicy maps the POLL_* and WORKFLOW_TIMEOUT settings.
func PollPolicy(cfg *infra.Config) workflow.PollPolicy {
	return workflow.PollPolicy{
		Interval:    cfg.PollInterval,
		MaxInterval: cfg.PollMaxInterval,
		Multiplier:  cfg.PollMultiplier,
		MaxAttempts: cfg.PollMaxAttempts,
		Timeout:     cfg.WorkflowTimeout,
	}
}
