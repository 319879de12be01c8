package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStats() *model.RunStats {
	started := time.Date(2025, 3, 15, 6, 0, 0, 0, time.UTC)
	stats := model.NewRunStats(started, "badge")
	stats.FinishedAt = started.Add(95 * time.Second)
	stats.Pages = 3
	stats.Customers = 612
	stats.Partners = 40
	stats.CacheHits = 37
	stats.Geocoded = 4
	stats.Skip(model.SkipIneligible)
	stats.Skip(model.SkipIneligible)
	stats.Skip(model.SkipNoGeocode)
	return stats
}

func TestObserve_Success(t *testing.T) {
	r := NewRegistry()
	stats := sampleStats()

	r.Observe(stats, nil)

	assert.Equal(t, float64(stats.FinishedAt.Unix()), testutil.ToFloat64(r.LastRunTime))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.LastRunSuccess))
	assert.Equal(t, 95.0, testutil.ToFloat64(r.DurationSec))
	assert.Equal(t, 40.0, testutil.ToFloat64(r.Partners))
	assert.Equal(t, 612.0, testutil.ToFloat64(r.Customers))
	assert.Equal(t, 37.0, testutil.ToFloat64(r.CacheHits))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.GeocodeRequests))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.NoGeocodeResult))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Skipped.WithLabelValues("ineligible")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.Skipped.WithLabelValues("duplicate")))
	assert.Equal(t, len(SkipReasons), testutil.CollectAndCount(r.Skipped))
}

func TestObserve_Failure(t *testing.T) {
	r := NewRegistry()

	r.Observe(sampleStats(), errors.New("retries exhausted"))

	assert.Equal(t, 0.0, testutil.ToFloat64(r.LastRunSuccess))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.Observe(sampleStats(), nil)
	path := filepath.Join(t.TempDir(), "textfile", "partnersync.prom")

	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "# TYPE partnersync_last_run_success gauge")
	assert.Contains(t, text, "partnersync_last_run_success 1")
	assert.Contains(t, text, "partnersync_last_run_partners 40")
	assert.Contains(t, text, `partnersync_last_run_skipped{reason="ineligible"} 2`)
	assert.Contains(t, text, `partnersync_last_run_skipped{reason="no_geocode_result"} 1`)
}
