// Package geocode resolves partner addresses with the Google Geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/Veraticus/partner-directory-sync/internal/common"
	"github.com/Veraticus/partner-directory-sync/internal/config"
	"github.com/Veraticus/partner-directory-sync/internal/httpclient"
	"github.com/Veraticus/partner-directory-sync/internal/model"
	"github.com/Veraticus/partner-directory-sync/internal/service"
)

// DefaultEndpoint is the Google Geocoding JSON endpoint.
const DefaultEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// Provider statuses.
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusInvalidRequest = "INVALID_REQUEST"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
)

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// Client implements service.Geocoder.
type Client struct {
	api      *httpclient.Client
	logger   *slog.Logger
	endpoint string
	apiKey   string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the retrying HTTP client.
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) {
		c.api = hc
	}
}

// NewClient creates a geocoder for the configured API key.
func NewClient(cfg config.GeocodingConfig, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s", common.ErrMissingConfig, config.EnvGeocodingKey)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("%w: geocoding endpoint: %v", common.ErrInvalidConfig, err)
	}

	c := &Client{
		api:      httpclient.New(service.GeocodingRetryOptions()),
		logger:   slog.Default().With("component", "geocode"),
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Geocode implements service.Geocoder. Provider statuses ZERO_RESULTS and
// INVALID_REQUEST yield common.ErrNoGeocodeResult; other non-OK statuses
// are retried.
func (c *Client) Geocode(ctx context.Context, address string) (*model.GeocodeResult, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid geocoding endpoint: %w", err)
	}
	q := u.Query()
	q.Set("address", address)
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()
	target := u.String()

	var result *model.GeocodeResult
	warned := false
	_, err = c.api.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	}, func(body []byte) error {
		r, checkErr := parseResponse(body)
		if checkErr != nil {
			var statusErr *StatusError
			if !warned && errors.As(checkErr, &statusErr) {
				warned = true
				c.logger.Warn("Geocoding provider refused request, retrying",
					"status", statusErr.Status,
					"error_message", statusErr.Message)
			}
			return checkErr
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to geocode %q: %w", address, err)
	}

	c.logger.Debug("Geocoded address", "address", address, "formatted", result.FormattedAddress)
	return result, nil
}

// parseResponse maps the provider status onto a result or an error.
func parseResponse(body []byte) (*model.GeocodeResult, error) {
	var resp geocodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, common.Transient(fmt.Errorf("invalid geocoding response: %w", err))
	}

	switch resp.Status {
	case StatusOK:
		if len(resp.Results) == 0 {
			return nil, common.ErrNoGeocodeResult
		}
		first := resp.Results[0]
		return &model.GeocodeResult{
			FormattedAddress: first.FormattedAddress,
			Lat:              first.Geometry.Location.Lat,
			Lng:              first.Geometry.Location.Lng,
		}, nil
	case StatusZeroResults, StatusInvalidRequest:
		return nil, fmt.Errorf("%w: %s", common.ErrNoGeocodeResult, resp.Status)
	default:
		return nil, common.Transient(&StatusError{Status: resp.Status, Message: resp.ErrorMessage})
	}
}

// StatusError is a provider status other than OK, ZERO_RESULTS and
// INVALID_REQUEST, such as REQUEST_DENIED or OVER_QUERY_LIMIT.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return "geocoding status " + e.Status
	}
	return fmt.Sprintf("geocoding status %s: %s", e.Status, e.Message)
}
