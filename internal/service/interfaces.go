// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/model"
)

// CustomerSource yields customers from the commerce platform one page at a time.
type CustomerSource interface {
	// FetchCustomers returns the page after cursor; "" requests the first page.
	FetchCustomers(ctx context.Context, cursor string) (*model.CustomerPage, error)
}

// Geocoder resolves a free-text address to coordinates.
// It returns common.ErrNoGeocodeResult when the provider has no match.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*model.GeocodeResult, error)
}

// AddressCache is the durable address to coordinate mapping.
type AddressCache interface {
	Lookup(key string) (model.CacheEntry, bool)
	// Store adds a new entry and reports whether it was added.
	// Existing keys are never overwritten.
	Store(key string, entry model.CacheEntry) bool
	Len() int
	Save(ctx context.Context) error
}

// SnapshotWriter persists the partner directory snapshot.
type SnapshotWriter interface {
	Write(ctx context.Context, snapshot *model.Snapshot) error
}

// RunRecorder keeps a history of sync runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *model.SyncRun) error
	ListRuns(ctx context.Context, limit int) ([]model.SyncRun, error)
	Close() error
}

// ProgressReporter receives per-record progress updates.
type ProgressReporter interface {
	Add(n int)
	Describe(description string)
	Finish()
}

// DefaultMaxDelay caps the exponential backoff.
const DefaultMaxDelay = 60 * time.Second

// RetryOptions configures retry behavior for API calls.
type RetryOptions struct {
	// RetryableStatus lists HTTP status codes treated as transient.
	RetryableStatus []int
	MaxAttempts     int
	MaxDelay        time.Duration
}

// TransientStatusCodes are the HTTP statuses both upstream APIs may return
// under load.
var TransientStatusCodes = []int{429, 500, 502, 503, 504}

// CommerceRetryOptions is the retry policy for the commerce data API.
func CommerceRetryOptions() RetryOptions {
	return RetryOptions{
		RetryableStatus: TransientStatusCodes,
		MaxAttempts:     6,
		MaxDelay:        DefaultMaxDelay,
	}
}

// GeocodingRetryOptions is the retry policy for the geocoding API.
func GeocodingRetryOptions() RetryOptions {
	return RetryOptions{
		RetryableStatus: TransientStatusCodes,
		MaxAttempts:     5,
		MaxDelay:        DefaultMaxDelay,
	}
}

// IsRetryableStatus reports whether code is in the transient set.
func (o RetryOptions) IsRetryableStatus(code int) bool {
	for _, c := range o.RetryableStatus {
		if c == code {
			return true
		}
	}
	return false
}
