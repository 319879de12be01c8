package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/partner-directory-sync/internal/common"
	"github.com/Veraticus/partner-directory-sync/internal/config"
	"github.com/Veraticus/partner-directory-sync/internal/storage"
)

// initStorage opens the run history database and brings its schema up to date.
func initStorage(ctx context.Context, cfg config.HistoryConfig) (*storage.SQLiteStorage, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: history path", common.ErrMissingConfig)
	}

	store, err := storage.NewSQLiteStorage(cfg.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}
