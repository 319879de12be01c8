package geocode

import (
	"context"
	"fmt"

	"github.com/Veraticus/partner-directory-sync/internal/common"
	"github.com/Veraticus/partner-directory-sync/internal/model"
)

// MockGeocoder is a mock implementation of service.Geocoder for testing.
type MockGeocoder struct {
	// GeocodeFn overrides the Results lookup when set.
	GeocodeFn func(ctx context.Context, address string) (*model.GeocodeResult, error)

	// Results maps an address to its result. Unknown addresses have no result.
	Results map[string]model.GeocodeResult

	// Call tracking
	GeocodeCalls []string
}

// NewMockGeocoder creates a mock that answers from results.
func NewMockGeocoder(results map[string]model.GeocodeResult) *MockGeocoder {
	if results == nil {
		results = make(map[string]model.GeocodeResult)
	}
	return &MockGeocoder{
		Results:      results,
		GeocodeCalls: []string{},
	}
}

// Geocode implements service.Geocoder.
func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*model.GeocodeResult, error) {
	m.GeocodeCalls = append(m.GeocodeCalls, address)

	if m.GeocodeFn != nil {
		return m.GeocodeFn(ctx, address)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, ok := m.Results[address]
	if !ok {
		return nil, fmt.Errorf("mock: %w for %q", common.ErrNoGeocodeResult, address)
	}
	return &result, nil
}
