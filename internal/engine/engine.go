// Package engine runs one partner directory sync from extraction to snapshot.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/classification"
	"github.com/Veraticus/partner-directory-sync/internal/common"
	"github.com/Veraticus/partner-directory-sync/internal/geocache"
	"github.com/Veraticus/partner-directory-sync/internal/model"
	"github.com/Veraticus/partner-directory-sync/internal/normalize"
	"github.com/Veraticus/partner-directory-sync/internal/service"
	"github.com/Veraticus/partner-directory-sync/internal/snapshot"
)

// Config holds configuration options for a sync run.
type Config struct {
	PageDelay    time.Duration
	GeocodeDelay time.Duration
	DryRun       bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PageDelay:    200 * time.Millisecond,
		GeocodeDelay: 20 * time.Millisecond,
	}
}

// Deps are the collaborators of a sync run.
type Deps struct {
	Source     service.CustomerSource
	Geocoder   service.Geocoder
	Cache      service.AddressCache
	Snapshots  service.SnapshotWriter
	Normalizer *normalize.Normalizer
	Policy     classification.Policy
}

func (d Deps) validate() error {
	switch {
	case d.Source == nil:
		return errors.New("engine: customer source is required")
	case d.Geocoder == nil:
		return errors.New("engine: geocoder is required")
	case d.Cache == nil:
		return errors.New("engine: address cache is required")
	case d.Snapshots == nil:
		return errors.New("engine: snapshot writer is required")
	case d.Normalizer == nil:
		return errors.New("engine: normalizer is required")
	case d.Policy == nil:
		return errors.New("engine: classification policy is required")
	}
	return nil
}

// Engine orchestrates a sync run. It is sequential and keeps no state
// between runs.
type Engine struct {
	deps     Deps
	progress service.ProgressReporter
	clock    func() time.Time
	sleep    common.Sleeper
	logger   *slog.Logger
	config   Config
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock sets the time source.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithSleeper replaces the sleep used for throttling.
func WithSleeper(sleep common.Sleeper) Option {
	return func(e *Engine) {
		e.sleep = sleep
	}
}

// WithProgress reports per-customer progress.
func WithProgress(p service.ProgressReporter) Option {
	return func(e *Engine) {
		e.progress = p
	}
}

// New creates an engine.
func New(deps Deps, config Config, opts ...Option) (*Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		deps:     deps,
		progress: noopProgress{},
		clock:    time.Now,
		sleep:    common.Sleep,
		logger:   slog.Default().With("component", "engine"),
		config:   config,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Run walks every customer page, builds the partner list and, unless this
// is a dry run, writes the cache and then the snapshot. Any error aborts the
// run before either artifact is written. Stats are returned in both cases.
func (e *Engine) Run(ctx context.Context) (*model.RunStats, error) {
	now := e.clock()
	stats := model.NewRunStats(now, e.deps.Policy.Name())
	stats.DryRun = e.config.DryRun
	defer e.progress.Finish()

	e.logger.Info("Starting sync",
		"policy", e.deps.Policy.Name(),
		"dry_run", e.config.DryRun)

	partners, err := e.collect(ctx, now, stats)
	if err != nil {
		stats.FinishedAt = e.clock()
		return stats, err
	}
	stats.Partners = len(partners)

	if e.config.DryRun {
		e.logger.Info("Dry run, not writing artifacts", "partners", len(partners))
	} else if err := e.persist(ctx, now, partners); err != nil {
		stats.FinishedAt = e.clock()
		return stats, err
	}

	stats.FinishedAt = e.clock()
	e.logger.Info("Sync complete",
		"partners", stats.Partners,
		"customers", stats.Customers,
		"pages", stats.Pages,
		"cache_hits", stats.CacheHits,
		"geocoded", stats.Geocoded,
		"skipped", stats.TotalSkipped(),
		"duration", stats.Duration())
	return stats, nil
}

func (e *Engine) collect(ctx context.Context, now time.Time, stats *model.RunStats) ([]model.Partner, error) {
	partners := []model.Partner{}
	seen := make(map[string]bool)
	cursor := ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.progress.Describe(fmt.Sprintf("page %d", stats.Pages+1))
		page, err := e.deps.Source.FetchCustomers(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch customers after %d pages: %w", stats.Pages, err)
		}
		stats.Pages++

		for _, customer := range page.Customers {
			stats.Customers++
			e.progress.Add(1)

			partner, err := e.process(ctx, customer, now, seen, stats)
			if err != nil {
				return nil, err
			}
			if partner != nil {
				partners = append(partners, *partner)
			}
		}

		if !page.HasNext {
			return partners, nil
		}
		if page.EndCursor == "" {
			return nil, &common.ProtocolError{Messages: []string{"page reports more results but no end cursor"}}
		}

		if err := e.sleep(ctx, e.config.PageDelay); err != nil {
			return nil, err
		}
		cursor = page.EndCursor
	}
}

// process turns one customer into a listed partner, or nil when skipped.
func (e *Engine) process(ctx context.Context, customer model.RawCustomer, now time.Time, seen map[string]bool, stats *model.RunStats) (*model.Partner, error) {
	partner, reason := e.deps.Normalizer.Normalize(customer)
	if reason != model.SkipNone {
		stats.Skip(reason)
		e.logger.Debug("Skipping customer", "customer", customer.ID, "reason", reason)
		return nil, nil
	}

	// An id is taken once a record with it is listed. A record that failed
	// to locate leaves the id free for a later one.
	if seen[partner.ID] {
		stats.Skip(model.SkipDuplicate)
		e.logger.Debug("Skipping duplicate customer", "customer", customer.ID)
		return nil, nil
	}

	located, err := e.locate(ctx, partner, stats)
	if err != nil {
		return nil, err
	}
	if !located {
		stats.Skip(model.SkipNoGeocode)
		return nil, nil
	}
	seen[partner.ID] = true

	e.deps.Policy.Classify(customer.OrderTimes, now).Apply(partner)
	return partner, nil
}

// locate fills in coordinates from the cache or the geocoder. It reports
// false when the address has no result.
func (e *Engine) locate(ctx context.Context, partner *model.Partner, stats *model.RunStats) (bool, error) {
	key := geocache.Key(partner.GeocodeKey())
	if entry, ok := e.deps.Cache.Lookup(key); ok {
		partner.Lat, partner.Lng = entry.Lat, entry.Lng
		stats.CacheHits++
		return true, nil
	}

	address := partner.GeocodeAddress()
	result, err := e.deps.Geocoder.Geocode(ctx, address)
	if errors.Is(err, common.ErrNoGeocodeResult) {
		e.logger.Warn("No geocoding result, partner not listed",
			"customer", partner.ID,
			"address", address)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to geocode partner %s: %w", partner.ID, err)
	}

	e.deps.Cache.Store(key, result.CacheEntry())
	stats.Geocoded++
	partner.Lat, partner.Lng = result.Lat, result.Lng

	if err := e.sleep(ctx, e.config.GeocodeDelay); err != nil {
		return false, err
	}
	return true, nil
}

// persist writes the cache first so a snapshot never references
// coordinates missing from the cache.
func (e *Engine) persist(ctx context.Context, now time.Time, partners []model.Partner) error {
	if err := e.deps.Cache.Save(ctx); err != nil {
		return fmt.Errorf("failed to save geocode cache: %w", err)
	}

	snap := snapshot.New(e.deps.Policy.SchemaVersion(), now, partners)
	if err := e.deps.Snapshots.Write(ctx, snap); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

type noopProgress struct{}

func (noopProgress) Add(int)         {}
func (noopProgress) Describe(string) {}
func (noopProgress) Finish()         {}
