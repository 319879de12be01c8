// Package snapshot builds and persists the public partner directory.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/model"
	"github.com/Veraticus/partner-directory-sync/internal/storage"
)

// New builds a snapshot generated at now, in UTC with second precision.
// A nil partner list is stored as an empty list.
func New(schemaVersion int, now time.Time, partners []model.Partner) *model.Snapshot {
	if partners == nil {
		partners = []model.Partner{}
	}
	return &model.Snapshot{
		SchemaVersion: schemaVersion,
		GeneratedAt:   now.UTC().Truncate(time.Second),
		Partners:      partners,
	}
}

// Writer implements service.SnapshotWriter on a file.
type Writer struct {
	logger *slog.Logger
	path   string
}

// NewWriter creates a writer for path.
func NewWriter(path string) *Writer {
	return &Writer{
		logger: slog.Default().With("component", "snapshot"),
		path:   path,
	}
}

// Path returns the snapshot file path.
func (w *Writer) Path() string {
	return w.path
}

// Write replaces the snapshot file atomically.
func (w *Writer) Write(ctx context.Context, snap *model.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("%w: snapshot", storage.ErrNilParameter)
	}
	if err := storage.WriteJSONAtomic(w.path, snap); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	w.logger.Info("Wrote partner snapshot",
		"path", w.path,
		"partners", len(snap.Partners),
		"schema_version", snap.SchemaVersion)
	return nil
}

// Load reads a snapshot. A missing or malformed file yields an empty
// snapshot and a warning, never an error.
func Load(path string) *model.Snapshot {
	empty := &model.Snapshot{Partners: []model.Partner{}}

	data, err := os.ReadFile(path) // #nosec G304 - path comes from configuration
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Could not read snapshot", "path", path, "error", err)
		}
		return empty
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.Warn("Snapshot is malformed, ignoring it", "path", path, "error", err)
		return empty
	}
	if snap.Partners == nil {
		snap.Partners = []model.Partner{}
	}
	return &snap
}
