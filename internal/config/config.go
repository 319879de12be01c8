// Package config provides configuration loading and validation for the application.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/classification"
	"github.com/Veraticus/partner-directory-sync/internal/common"
	"github.com/Veraticus/partner-directory-sync/internal/normalize"
	"github.com/spf13/viper"
)

// Policy names.
const (
	PolicyActivity = classification.PolicyActivity
	PolicyBadge    = classification.PolicyBadge
)

// Environment variables read directly, without the PARTNERSYNC_ prefix.
const (
	EnvShop         = "SHOPIFY_SHOP"
	EnvAccessToken  = "SHOPIFY_ACCESS_TOKEN"
	EnvClientID     = "SHOPIFY_CLIENT_ID"
	EnvClientSecret = "SHOPIFY_CLIENT_SECRET"
	EnvAPIVersion   = "SHOPIFY_API_VERSION"
	EnvGeocodingKey = "GOOGLE_MAPS_API_KEY"
)

// DefaultAPIVersion is used when SHOPIFY_API_VERSION is not set.
const DefaultAPIVersion = "2025-01"

// Config holds everything a sync run needs.
type Config struct {
	Fields    normalize.FieldMap
	Shop      ShopConfig
	Geocoding GeocodingConfig
	Output    OutputConfig
	History   HistoryConfig
	Metrics   MetricsConfig
	Policy    string
	Throttle  ThrottleConfig
}

// ShopConfig describes the commerce platform connection.
type ShopConfig struct {
	Domain             string
	AccessToken        string
	ClientID           string
	ClientSecret       string
	APIVersion         string
	CustomerQuery      string
	MetafieldNamespace string
	PageSize           int
}

// UsesClientCredentials reports whether a token must be requested with
// the client credentials grant instead of a static access token.
func (s ShopConfig) UsesClientCredentials() bool {
	return s.AccessToken == "" && s.ClientID != "" && s.ClientSecret != ""
}

// GeocodingConfig describes the geocoding provider.
type GeocodingConfig struct {
	APIKey   string
	Endpoint string
}

// OutputConfig holds the artifact paths.
type OutputConfig struct {
	SnapshotPath string
	CachePath    string
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Path    string
	Enabled bool
}

// MetricsConfig controls the Prometheus textfile output.
type MetricsConfig struct {
	Textfile string
}

// ThrottleConfig holds the self-imposed delays between API calls.
type ThrottleConfig struct {
	PageDelay    time.Duration
	GeocodeDelay time.Duration
}

// SetDefaults registers default values and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	fields := normalize.DefaultFieldMap()

	v.SetDefault("shop.api_version", DefaultAPIVersion)
	v.SetDefault("shop.page_size", 250)
	v.SetDefault("shop.metafield_namespace", "custom")
	v.SetDefault("geocoding.endpoint", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("output.snapshot_path", "public/partners.json")
	v.SetDefault("output.cache_path", "data/geocode_cache.json")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "$HOME/.local/share/partnersync/history.db")
	v.SetDefault("policy", PolicyBadge)
	v.SetDefault("throttle.page_delay", 200*time.Millisecond)
	v.SetDefault("throttle.geocode_delay", 20*time.Millisecond)

	v.SetDefault("fields.eligible", fields.Eligible)
	v.SetDefault("fields.hidden", fields.Hidden)
	v.SetDefault("fields.zip", fields.Zip)
	v.SetDefault("fields.city", fields.City)
	v.SetDefault("fields.country", fields.Country)
	v.SetDefault("fields.display_name", fields.DisplayName)
	v.SetDefault("fields.contact_preference", fields.ContactPreference)
	v.SetDefault("fields.training", fields.Training)
	v.SetDefault("fields.websites", fields.Websites)
	v.SetDefault("fields.services", fields.Services)

	_ = v.BindEnv("shop.domain", EnvShop)
	_ = v.BindEnv("shop.access_token", EnvAccessToken)
	_ = v.BindEnv("shop.client_id", EnvClientID)
	_ = v.BindEnv("shop.client_secret", EnvClientSecret)
	_ = v.BindEnv("shop.api_version", EnvAPIVersion)
	_ = v.BindEnv("geocoding.api_key", EnvGeocodingKey)
}

// Load builds a Config from v. It does not validate.
func Load(v *viper.Viper) *Config {
	cfg := &Config{
		Shop: ShopConfig{
			Domain:             NormalizeShopDomain(v.GetString("shop.domain")),
			AccessToken:        strings.TrimSpace(v.GetString("shop.access_token")),
			ClientID:           strings.TrimSpace(v.GetString("shop.client_id")),
			ClientSecret:       strings.TrimSpace(v.GetString("shop.client_secret")),
			APIVersion:         strings.TrimSpace(v.GetString("shop.api_version")),
			CustomerQuery:      v.GetString("shop.customer_query"),
			MetafieldNamespace: v.GetString("shop.metafield_namespace"),
			PageSize:           v.GetInt("shop.page_size"),
		},
		Geocoding: GeocodingConfig{
			APIKey:   strings.TrimSpace(v.GetString("geocoding.api_key")),
			Endpoint: v.GetString("geocoding.endpoint"),
		},
		Output: OutputConfig{
			SnapshotPath: ExpandPath(v.GetString("output.snapshot_path")),
			CachePath:    ExpandPath(v.GetString("output.cache_path")),
		},
		History: HistoryConfig{
			Enabled: v.GetBool("history.enabled"),
			Path:    ExpandPath(v.GetString("history.path")),
		},
		Metrics: MetricsConfig{
			Textfile: ExpandPath(v.GetString("metrics.textfile")),
		},
		Policy: strings.ToLower(strings.TrimSpace(v.GetString("policy"))),
		Throttle: ThrottleConfig{
			PageDelay:    v.GetDuration("throttle.page_delay"),
			GeocodeDelay: v.GetDuration("throttle.geocode_delay"),
		},
		Fields: normalize.FieldMap{
			Eligible:          v.GetString("fields.eligible"),
			Hidden:            v.GetString("fields.hidden"),
			Zip:               v.GetString("fields.zip"),
			City:              v.GetString("fields.city"),
			Country:           v.GetString("fields.country"),
			DisplayName:       v.GetString("fields.display_name"),
			ContactPreference: v.GetString("fields.contact_preference"),
			Training:          v.GetString("fields.training"),
			Websites:          v.GetStringSlice("fields.websites"),
			Services:          v.GetStringMapString("fields.services"),
		},
	}

	if cfg.Shop.APIVersion == "" {
		cfg.Shop.APIVersion = DefaultAPIVersion
	}

	return cfg
}

// Validate checks that every required value is present. All missing values
// are reported at once.
func (c *Config) Validate() error {
	var missing []string

	if c.Shop.Domain == "" {
		missing = append(missing, EnvShop)
	}
	if c.Shop.AccessToken == "" && (c.Shop.ClientID == "" || c.Shop.ClientSecret == "") {
		missing = append(missing, EnvAccessToken+" (or "+EnvClientID+" and "+EnvClientSecret+")")
	}
	if c.Geocoding.APIKey == "" {
		missing = append(missing, EnvGeocodingKey)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", common.ErrMissingConfig, strings.Join(missing, ", "))
	}

	switch c.Policy {
	case PolicyActivity, PolicyBadge:
	default:
		return fmt.Errorf("%w: unknown policy %q (want %s or %s)", common.ErrInvalidConfig, c.Policy, PolicyActivity, PolicyBadge)
	}

	if c.Shop.PageSize <= 0 || c.Shop.PageSize > 250 {
		return fmt.Errorf("%w: page size must be between 1 and 250, got %d", common.ErrInvalidConfig, c.Shop.PageSize)
	}
	if c.Output.SnapshotPath == "" || c.Output.CachePath == "" {
		return fmt.Errorf("%w: snapshot and cache paths are required", common.ErrInvalidConfig)
	}
	if c.Output.SnapshotPath == c.Output.CachePath {
		return fmt.Errorf("%w: snapshot and cache must be different files", common.ErrInvalidConfig)
	}
	if c.Fields.Eligible == "" {
		return fmt.Errorf("%w: eligibility field name is required", common.ErrInvalidConfig)
	}

	return nil
}

// NormalizeShopDomain accepts "my-shop", "my-shop.myshopify.com" or a URL
// and returns the bare host.
func NormalizeShopDomain(raw string) string {
	domain := strings.TrimSpace(raw)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimRight(domain, "/")
	if domain == "" {
		return ""
	}
	if !strings.Contains(domain, ".") {
		domain += ".myshopify.com"
	}
	return strings.ToLower(domain)
}
