// Command adctl runs video ad workflows and inspects the job log from a shell.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"videoads/internal/bootstrap"
	"videoads/internal/domain"
	"videoads/internal/infra"
	"videoads/internal/workflow"
)

var rootCmd = &cobra.Command{
	Use:           "adctl",
	Short:         "Generate video ads and inspect the job log",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one workflow from ad idea to video URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		idea, _ := cmd.Flags().GetString("idea")
		style, _ := cmd.Flags().GetString("style")
		model, _ := cmd.Flags().GetString("model")
		resolution, _ := cmd.Flags().GetString("resolution")
		aspect, _ := cmd.Flags().GetString("aspect-ratio")
		key, _ := cmd.Flags().GetString("key")

		return withRuntime(cmd.Context(), func(rt *runtime) error {
			if key == "" {
				key = rt.cfg.GeminiAPIKey
			}
			if key == "" {
				return fmt.Errorf("--key or GEMINI_API_KEY is required")
			}
			if model == "" {
				model = rt.cfg.GeminiVideoModel
			}
			provider, err := bootstrap.GeminiFactory(rt.cfg, rt.logger).ForKey(key)
			if err != nil {
				return err
			}
			engine := workflow.NewEngine(rt.store, bootstrap.PollPolicy(rt.cfg), rt.logger)
			res, err := engine.Run(rt.ctx, provider, workflow.Request{
				AdIdea:      idea,
				Prompt:      style,
				Model:       model,
				Resolution:  resolution,
				AspectRatio: aspect,
			})
			if err != nil {
				return err
			}
			return printJSON(res)
		})
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Resume or abandon jobs left in progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		stale, _ := cmd.Flags().GetDuration("stale")
		return withRuntime(cmd.Context(), func(rt *runtime) error {
			engine := workflow.NewEngine(rt.store, bootstrap.PollPolicy(rt.cfg), rt.logger)
			rec := workflow.NewReconciler(rt.store, engine, workflow.ReconcilerOptions{
				Factory:    bootstrap.GeminiFactory(rt.cfg, rt.logger),
				APIKey:     rt.cfg.GeminiAPIKey,
				StaleAfter: stale,
			}, rt.logger)
			report, err := rec.Run(rt.ctx, time.Now())
			if err != nil {
				return err
			}
			return printJSON(report)
		})
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect the job log",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent jobs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		return withRuntime(cmd.Context(), func(rt *runtime) error {
			jobs, err := rt.store.List(rt.ctx, domain.ListFilter{Status: domain.JobStatus(status), Limit: limit})
			if err != nil {
				return err
			}
			if jobs == nil {
				jobs = []domain.Job{}
			}
			return printJSON(jobs)
		})
	},
}

var jobsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid job id %q", args[0])
		}
		return withRuntime(cmd.Context(), func(rt *runtime) error {
			job, err := rt.store.Get(rt.ctx, id)
			if err != nil {
				return err
			}
			return printJSON(job)
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:       "migrate <up|down>",
	Short:     "Apply or roll back the PostgreSQL schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(infra.MigrateUp), string(infra.MigrateDown)},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbURL, _ := cmd.Flags().GetString("db")
		if dbURL == "" {
			dbURL = os.Getenv("DATABASE_URL")
		}
		if dbURL == "" {
			return fmt.Errorf("--db flag or DATABASE_URL required")
		}
		version, err := infra.RunMigrations(dbURL, infra.MigrateDirection(args[0]))
		if err != nil {
			return err
		}
		fmt.Printf("Migrations applied successfully (version %d)\n", version)
		return nil
	},
}

// runtime bundles what every job log command needs.
type runtime struct {
	ctx    context.Context
	cfg    *infra.Config
	logger zerolog.Logger
	store  domain.JobLogStore
}

func withRuntime(parent context.Context, fn func(rt *runtime) error) error {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	// The CLI prints results on stdout; logs go to stderr.
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel).Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	return fn(&runtime{ctx: ctx, cfg: cfg, logger: logger, store: store})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func init() {
	generateCmd.Flags().String("idea", "", "Ad idea to turn into a video")
	generateCmd.Flags().String("style", "", "Optional prompt template or style brief")
	generateCmd.Flags().String("model", "", "Video model (defaults to GEMINI_VIDEO_MODEL)")
	generateCmd.Flags().String("resolution", "", "Output resolution, e.g. 720p")
	generateCmd.Flags().String("aspect-ratio", "", "Output aspect ratio, e.g. 16:9")
	generateCmd.Flags().String("key", "", "Gemini API key (defaults to GEMINI_API_KEY)")
	_ = generateCmd.MarkFlagRequired("idea")

	reconcileCmd.Flags().Duration("stale", 0, "Only settle jobs older than this")

	jobsListCmd.Flags().String("status", "", "Filter by status (in_progress, completed, failed)")
	jobsListCmd.Flags().Int("limit", 20, "Maximum jobs to list")

	migrateCmd.Flags().String("db", "", "Database connection string (defaults to DATABASE_URL)")

	jobsCmd.AddCommand(jobsListCmd, jobsGetCmd)
	rootCmd.AddCommand(generateCmd, reconcileCmd, jobsCmd, migrateCmd)
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
