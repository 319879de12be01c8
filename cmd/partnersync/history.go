package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/partner-directory-sync/internal/cli"
	"github.com/Veraticus/partner-directory-sync/internal/common"
	"github.com/Veraticus/partner-directory-sync/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs",
		RunE:  runHistory,
	}

	cmd.Flags().Int("limit", 20, "Number of runs to show (0 for all)")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	cfg := config.Load(viper.GetViper())

	store, err := initStorage(cmd.Context(), cfg.History)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle("Sync History"))
	fmt.Fprintln(out, cli.RenderHistory(runs))

	last, err := store.LastSuccessfulRun(cmd.Context())
	switch {
	case errors.Is(err, common.ErrNotFound):
		fmt.Fprintln(out, "\n"+cli.FormatWarning("No successful sync has been recorded"))
	case err != nil:
		return err
	default:
		fmt.Fprintln(out, "\n"+cli.FormatSuccess(fmt.Sprintf("Last successful sync: %s (%d partners)",
			last.FinishedAt.Local().Format("2006-01-02 15:04:05"), last.Partners)))
	}

	return nil
}
