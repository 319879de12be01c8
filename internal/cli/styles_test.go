package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestRenderRunSummary(t *testing.T) {
	start := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	stats := model.NewRunStats(start, "badge")
	stats.FinishedAt = start.Add(1500 * time.Millisecond)
	stats.Pages = 2
	stats.Customers = 7
	stats.Partners = 3
	stats.CacheHits = 1
	stats.Geocoded = 2
	stats.Skip(model.SkipSuppressed)
	stats.Skip(model.SkipDuplicate)
	stats.Skip(model.SkipDuplicate)

	out := RenderRunSummary(stats)

	assert.Contains(t, out, "Sync Complete")
	assert.Contains(t, out, "Partners listed: 3")
	assert.Contains(t, out, "Skipped: 3")
	assert.Contains(t, out, "duplicate: 2")
	assert.Contains(t, out, "suppressed: 1")
	assert.Contains(t, out, "1.5s")
	assert.Less(t, bytes.Index([]byte(out), []byte("duplicate")), bytes.Index([]byte(out), []byte("suppressed")))

	stats.DryRun = true
	assert.Contains(t, RenderRunSummary(stats), "nothing written")
}

func TestRenderHistory(t *testing.T) {
	assert.Contains(t, RenderHistory(nil), "No sync runs recorded yet")

	start := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	runs := []model.SyncRun{
		{ID: "b", StartedAt: start, FinishedAt: start.Add(2 * time.Second), Status: model.RunFailed, Policy: "badge"},
		{ID: "a", StartedAt: start.Add(-time.Hour), FinishedAt: start.Add(-time.Hour), Status: model.RunSucceeded, Policy: "activity", Partners: 42, DryRun: true},
	}

	out := RenderHistory(runs)

	assert.Contains(t, out, "Started")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "(dry)")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "2s")
}
