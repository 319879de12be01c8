package model

import "time"

// Snapshot is the public partner directory artifact.
type Snapshot struct {
	SchemaVersion int       `json:"schema_version"`
	GeneratedAt   time.Time `json:"generated_at"`
	Partners      []Partner `json:"partners"`
}

// CacheEntry is one resolved address in the geocode cache.
type CacheEntry struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Formatted string  `json:"formatted"`
}

// GeocodeResult is what the geocoding provider returns for an address.
type GeocodeResult struct {
	FormattedAddress string
	Lat              float64
	Lng              float64
}

// CacheEntry converts the result into its cached form.
func (r GeocodeResult) CacheEntry() CacheEntry {
	return CacheEntry{Lat: r.Lat, Lng: r.Lng, Formatted: r.FormattedAddress}
}
