package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/partner-directory-sync/internal/cli"
	"github.com/Veraticus/partner-directory-sync/internal/common"
	"github.com/Veraticus/partner-directory-sync/internal/config"
	"github.com/Veraticus/partner-directory-sync/internal/geocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the geocode cache",
		Long: `Show the size of the geocode cache, or look up one location with
--lookup "zip,city,country". The cache is never modified.`,
		RunE: runCache,
	}

	cmd.Flags().String("lookup", "", `Location to look up as "zip,city,country"`)

	return cmd
}

func runCache(cmd *cobra.Command, _ []string) error {
	lookup, _ := cmd.Flags().GetString("lookup")
	cfg := config.Load(viper.GetViper())
	cache := geocache.Load(cfg.Output.CachePath)
	out := cmd.OutOrStdout()

	if lookup == "" {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d cached locations in %s", cache.Len(), cache.Path())))
		return nil
	}

	parts := strings.Split(lookup, ",")
	if len(parts) != 3 {
		return fmt.Errorf("%w: lookup must be \"zip,city,country\", got %q", common.ErrInvalidConfig, lookup)
	}

	key := geocache.Key(parts[0], parts[1], parts[2])
	entry, ok := cache.Lookup(key)
	if !ok {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%s is not cached", key)))
		return nil
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s → %.6f, %.6f (%s)", key, entry.Lat, entry.Lng, entry.Formatted)))
	return nil
}
