package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/classification"
	"github.com/Veraticus/partner-directory-sync/internal/cli"
	"github.com/Veraticus/partner-directory-sync/internal/common"
	"github.com/Veraticus/partner-directory-sync/internal/config"
	"github.com/Veraticus/partner-directory-sync/internal/engine"
	"github.com/Veraticus/partner-directory-sync/internal/geocache"
	"github.com/Veraticus/partner-directory-sync/internal/geocode"
	"github.com/Veraticus/partner-directory-sync/internal/metrics"
	"github.com/Veraticus/partner-directory-sync/internal/model"
	"github.com/Veraticus/partner-directory-sync/internal/normalize"
	"github.com/Veraticus/partner-directory-sync/internal/service"
	"github.com/Veraticus/partner-directory-sync/internal/shopify"
	"github.com/Veraticus/partner-directory-sync/internal/snapshot"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the partner directory snapshot",
		Long: `Fetch every customer from the shop, keep the eligible partners,
geocode new locations and write the geocode cache followed by the snapshot.

Any failure aborts the run and leaves both files as they were.`,
		RunE: runSyncCmd,
	}

	cmd.Flags().Bool("dry-run", false, "Run the full pipeline but write nothing")
	cmd.Flags().String("policy", "", "Classification policy (activity, badge)")
	cmd.Flags().String("snapshot", "", "Snapshot output path")
	cmd.Flags().String("cache", "", "Geocode cache path")
	cmd.Flags().String("metrics-textfile", "", "Write Prometheus metrics to this file after the run")
	cmd.Flags().Bool("no-history", false, "Do not record the run in the history database")
	cmd.Flags().Bool("no-progress", false, "Disable the progress spinner")

	_ = viper.BindPFlag("policy", cmd.Flags().Lookup("policy"))
	_ = viper.BindPFlag("output.snapshot_path", cmd.Flags().Lookup("snapshot"))
	_ = viper.BindPFlag("output.cache_path", cmd.Flags().Lookup("cache"))
	_ = viper.BindPFlag("metrics.textfile", cmd.Flags().Lookup("metrics-textfile"))

	return cmd
}

func runSyncCmd(cmd *cobra.Command, _ []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	cfg, err := loadSyncConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if noHistory {
		cfg.History.Enabled = false
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, cancel := handler.HandleInterrupts(cmd.Context())
	defer cancel()

	opts := syncOptions{dryRun: dryRun}
	if !noProgress {
		opts.progress = cli.NewProgress(cmd.ErrOrStderr())
	}

	stats, err := runSync(ctx, cfg, opts)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printSummary(cmd.OutOrStdout(), stats)
	return nil
}

// loadSyncConfig loads and validates the configuration. Validation failures
// become user errors that name what to set.
func loadSyncConfig(v *viper.Viper) (*config.Config, error) {
	cfg := config.Load(v)
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, common.ErrMissingConfig) {
			return nil, common.NewUserError("Set the missing environment variables or config keys and run again", err)
		}
		return nil, common.NewUserError("Fix the configuration and run again", err)
	}
	return cfg, nil
}

type syncOptions struct {
	progress    service.ProgressReporter
	clock       func() time.Time
	shopOptions []shopify.Option
	dryRun      bool
}

// runSync builds the pipeline from cfg, runs it once and records the outcome.
// History and metrics failures are logged and never fail the run.
func runSync(ctx context.Context, cfg *config.Config, opts syncOptions) (*model.RunStats, error) {
	eng, err := buildEngine(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	stats, runErr := eng.Run(ctx)

	// The run may have been interrupted; bookkeeping still happens.
	bookkeeping := context.WithoutCancel(ctx)
	recordRun(bookkeeping, cfg.History, stats, runErr)
	writeMetrics(cfg.Metrics, stats, runErr)

	return stats, runErr
}

func buildEngine(ctx context.Context, cfg *config.Config, opts syncOptions) (*engine.Engine, error) {
	tokens, err := shopify.NewTokenSource(ctx, cfg.Shop)
	if err != nil {
		return nil, err
	}

	source, err := shopify.NewClient(cfg.Shop, tokens, opts.shopOptions...)
	if err != nil {
		return nil, err
	}

	geocoder, err := geocode.NewClient(cfg.Geocoding)
	if err != nil {
		return nil, err
	}

	policy, err := classification.ForName(cfg.Policy)
	if err != nil {
		return nil, err
	}

	engineOpts := []engine.Option{}
	if opts.progress != nil {
		engineOpts = append(engineOpts, engine.WithProgress(opts.progress))
	}
	if opts.clock != nil {
		engineOpts = append(engineOpts, engine.WithClock(opts.clock))
	}

	return engine.New(engine.Deps{
		Source:     source,
		Geocoder:   geocoder,
		Cache:      geocache.Load(cfg.Output.CachePath),
		Snapshots:  snapshot.NewWriter(cfg.Output.SnapshotPath),
		Normalizer: normalize.New(cfg.Fields),
		Policy:     policy,
	}, engine.Config{
		PageDelay:    cfg.Throttle.PageDelay,
		GeocodeDelay: cfg.Throttle.GeocodeDelay,
		DryRun:       opts.dryRun,
	}, engineOpts...)
}

func recordRun(ctx context.Context, cfg config.HistoryConfig, stats *model.RunStats, runErr error) {
	if !cfg.Enabled || stats == nil {
		return
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		slog.Warn("Failed to open run history", "error", err)
		return
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Warn("Failed to close run history", "error", closeErr)
		}
	}()

	run := model.NewSyncRun(uuid.NewString(), stats, runErr)
	if err := store.RecordRun(ctx, run); err != nil {
		slog.Warn("Failed to record run", "run_id", run.ID, "error", err)
		return
	}
	slog.Debug("Recorded run", "run_id", run.ID, "status", run.Status)
}

func writeMetrics(cfg config.MetricsConfig, stats *model.RunStats, runErr error) {
	if cfg.Textfile == "" || stats == nil {
		return
	}

	reg := metrics.NewRegistry()
	reg.Observe(stats, runErr)
	if err := reg.WriteTextfile(cfg.Textfile); err != nil {
		slog.Warn("Failed to write metrics textfile", "path", cfg.Textfile, "error", err)
	}
}

func printSummary(w io.Writer, stats *model.RunStats) {
	if _, err := fmt.Fprintln(w, cli.RenderRunSummary(stats)); err != nil {
		slog.Warn("Failed to write summary", "error", err)
	}
}
