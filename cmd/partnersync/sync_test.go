package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/classification"
	"github.com/Veraticus/partner-directory-sync/internal/config"
	"github.com/Veraticus/partner-directory-sync/internal/geocache"
	"github.com/Veraticus/partner-directory-sync/internal/normalize"
	"github.com/Veraticus/partner-directory-sync/internal/shopify"
	"github.com/Veraticus/partner-directory-sync/internal/snapshot"
	"github.com/Veraticus/partner-directory-sync/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customersPage = `{
  "data": {
    "customers": {
      "pageInfo": {"endCursor": null, "hasNextPage": false},
      "nodes": [
        {
          "id": "gid://shopify/Customer/1",
          "firstName": "Ada",
          "lastName": "Lovelace",
          "email": "ada@example.com",
          "phone": null,
          "metafields": {"nodes": [
            {"key": "partner_map", "value": "true"},
            {"key": "zip", "value": "10115"},
            {"key": "city", "value": "Berlin"},
            {"key": "country", "value": "DE"}
          ]},
          "orders": {"nodes": [{"createdAt": "2025-03-10T10:00:00Z"}]}
        },
        {
          "id": "gid://shopify/Customer/2",
          "firstName": "Grace",
          "lastName": null,
          "email": null,
          "phone": null,
          "metafields": {"nodes": []},
          "orders": {"nodes": []}
        }
      ]
    }
  }
}`

const berlinResult = `{"status": "OK", "results": [{
  "formatted_address": "10115 Berlin, Germany",
  "geometry": {"location": {"lat": 52.5323, "lng": 13.3846}}
}]}`

type fixture struct {
	cfg          *config.Config
	shopURL      string
	geocodeCalls *int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	shop := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "shpat_test", r.Header.Get(shopify.AccessTokenHeader))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(customersPage))
	}))
	t.Cleanup(shop.Close)

	var geocodeCalls int32
	maps := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&geocodeCalls, 1)
		assert.Equal(t, "10115 Berlin, DE", r.URL.Query().Get("address"))
		assert.Equal(t, "maps-key", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(berlinResult))
	}))
	t.Cleanup(maps.Close)

	dir := t.TempDir()
	cfg := &config.Config{
		Fields: normalize.DefaultFieldMap(),
		Shop: config.ShopConfig{
			Domain:             "test-shop.myshopify.com",
			AccessToken:        "shpat_test",
			APIVersion:         config.DefaultAPIVersion,
			MetafieldNamespace: "custom",
			PageSize:           50,
		},
		Geocoding: config.GeocodingConfig{APIKey: "maps-key", Endpoint: maps.URL},
		Output: config.OutputConfig{
			SnapshotPath: filepath.Join(dir, "public", "partners.json"),
			CachePath:    filepath.Join(dir, "data", "geocode_cache.json"),
		},
		History: config.HistoryConfig{Enabled: true, Path: filepath.Join(dir, "history.db")},
		Metrics: config.MetricsConfig{Textfile: filepath.Join(dir, "metrics", "partnersync.prom")},
		Policy:  config.PolicyBadge,
	}
	require.NoError(t, cfg.Validate())

	return &fixture{cfg: cfg, shopURL: shop.URL, geocodeCalls: &geocodeCalls}
}

func (f *fixture) options(dryRun bool) syncOptions {
	return syncOptions{
		dryRun:      dryRun,
		clock:       func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) },
		shopOptions: []shopify.Option{shopify.WithEndpoint(f.shopURL)},
	}
}

func TestRunSync_EndToEnd(t *testing.T) {
	f := newFixture(t)

	stats, err := runSync(context.Background(), f.cfg, f.options(false))

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Customers)
	assert.Equal(t, 1, stats.Partners)
	assert.Equal(t, int32(1), atomic.LoadInt32(f.geocodeCalls))

	snap := snapshot.Load(f.cfg.Output.SnapshotPath)
	assert.Equal(t, classification.BadgeSchemaVersion, snap.SchemaVersion)
	require.Len(t, snap.Partners, 1)
	assert.Equal(t, "gid://shopify/Customer/1", snap.Partners[0].ID)
	assert.Equal(t, "Ada Lovelace", snap.Partners[0].DisplayName)
	assert.Equal(t, classification.BadgeActivePartner, *snap.Partners[0].Badge)

	entry, ok := geocache.Load(f.cfg.Output.CachePath).Lookup("10115|berlin|de")
	require.True(t, ok)
	assert.Equal(t, "10115 Berlin, Germany", entry.Formatted)

	store, err := storage.NewSQLiteStorage(f.cfg.History.Path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Partners)
	assert.Equal(t, 1, runs[0].SkippedByReason["ineligible"])

	prom, err := os.ReadFile(f.cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "partnersync_last_run_success 1")
	assert.Contains(t, string(prom), "partnersync_last_run_partners 1")

	// A second run is served from the cache.
	_, err = runSync(context.Background(), f.cfg, f.options(false))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(f.geocodeCalls))
}

func TestRunSync_DryRunWritesNoArtifacts(t *testing.T) {
	f := newFixture(t)
	f.cfg.History.Enabled = false

	stats, err := runSync(context.Background(), f.cfg, f.options(true))

	require.NoError(t, err)
	assert.True(t, stats.DryRun)
	for _, path := range []string{f.cfg.Output.SnapshotPath, f.cfg.Output.CachePath, f.cfg.History.Path} {
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), path)
	}
	_, statErr := os.Stat(f.cfg.Metrics.Textfile)
	assert.NoError(t, statErr, "metrics are still exported")
}

func TestRunSync_UnknownPolicyWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.cfg.Policy = "tiers"

	_, err := runSync(context.Background(), f.cfg, f.options(false))

	require.Error(t, err)
	_, statErr := os.Stat(f.cfg.Output.SnapshotPath)
	assert.True(t, os.IsNotExist(statErr))
}
