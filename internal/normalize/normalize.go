// Package normalize turns raw commerce customers into directory partners.
//
// Normalization is pure: it filters out records that must not be listed and
// shapes the fields the directory exposes. Coordinates and status labels are
// filled in later by the engine.
package normalize

import (
	"encoding/json"
	"strings"

	"github.com/Veraticus/partner-directory-sync/internal/model"
	"golang.org/x/text/unicode/norm"
)

// DefaultDisplayName is used when a customer has neither an override nor a name.
const DefaultDisplayName = "Partner"

// FieldMap names the customer attributes the normalizer reads.
type FieldMap struct {
	// Services maps the output service name to its attribute key.
	Services          map[string]string
	Eligible          string
	Hidden            string
	Zip               string
	City              string
	Country           string
	DisplayName       string
	ContactPreference string
	Training          string
	// Websites lists candidate attributes, first non-empty wins.
	Websites []string
}

// DefaultFieldMap returns the attribute names used by the storefront.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Eligible:          "partner_map",
		Hidden:            "partner_map_hidden",
		Zip:               "zip",
		City:              "city",
		Country:           "country",
		DisplayName:       "display_name",
		ContactPreference: "contact_preference",
		Training:          "training",
		Websites:          []string{"website", "webseite", "homepage", "url"},
		Services: map[string]string{
			"installation": "service_installation",
			"maintenance":  "service_maintenance",
			"consulting":   "service_consulting",
			"rental":       "service_rental",
		},
	}
}

// Normalizer applies the eligibility rules and field shaping.
type Normalizer struct {
	fields FieldMap
}

// New creates a normalizer for the given attribute names.
func New(fields FieldMap) *Normalizer {
	return &Normalizer{fields: fields}
}

// Normalize returns the partner for c, or nil and the reason it was rejected.
func (n *Normalizer) Normalize(c model.RawCustomer) (*model.Partner, model.SkipReason) {
	if !ParseBool(c.Attribute(n.fields.Eligible)) {
		return nil, model.SkipIneligible
	}

	if n.fields.Hidden != "" && ParseBool(c.Attribute(n.fields.Hidden)) {
		return nil, model.SkipSuppressed
	}

	zip := strings.TrimSpace(c.Attribute(n.fields.Zip))
	city := strings.TrimSpace(c.Attribute(n.fields.City))
	country := strings.TrimSpace(c.Attribute(n.fields.Country))
	if zip == "" || city == "" || country == "" {
		return nil, model.SkipMissingLocation
	}

	partner := &model.Partner{
		ID:          c.ID,
		DisplayName: ResolveDisplayName(c.Attribute(n.fields.DisplayName), c.FirstName, c.LastName),
		Zip:         zip,
		City:        city,
		Country:     country,
		Services:    n.services(c),
		Contact: model.Contact{
			Email:     strings.TrimSpace(c.Email),
			Phone:     strings.TrimSpace(c.Phone),
			Preferred: ParseContactPreference(c.Attribute(n.fields.ContactPreference)),
			Website:   NormalizeWebsite(n.firstWebsite(c)),
		},
	}
	if n.fields.Training != "" {
		partner.Training = strings.TrimSpace(c.Attribute(n.fields.Training))
	}

	return partner, model.SkipNone
}

func (n *Normalizer) services(c model.RawCustomer) map[string]bool {
	services := make(map[string]bool, len(n.fields.Services))
	for name, key := range n.fields.Services {
		services[name] = ParseBool(c.Attribute(key))
	}
	return services
}

func (n *Normalizer) firstWebsite(c model.RawCustomer) string {
	for _, key := range n.fields.Websites {
		if v := strings.TrimSpace(c.Attribute(key)); v != "" {
			return v
		}
	}
	return ""
}

// ParseBool reports whether s is one of "true", "1", "yes", "y", "on",
// ignoring case and surrounding space. Everything else is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// ResolveDisplayName picks the override, then "first last", then the
// placeholder. The result is never empty.
func ResolveDisplayName(override, first, last string) string {
	if name := strings.TrimSpace(override); name != "" {
		return norm.NFC.String(name)
	}
	if name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last)); name != "" {
		return norm.NFC.String(name)
	}
	return DefaultDisplayName
}

// ParseContactPreference accepts a JSON list of strings, a JSON string or a
// bare string and returns the non-empty entries in order.
func ParseContactPreference(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return []string{raw}
	}

	switch v := decoded.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
		return []string{}
	default:
		return []string{raw}
	}
}

// NormalizeWebsite returns an absolute URL, prefixing https:// when no
// scheme is present. Empty input yields nil.
func NormalizeWebsite(raw string) *string {
	site := strings.TrimSpace(raw)
	if site == "" {
		return nil
	}
	lower := strings.ToLower(site)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		site = "https://" + site
	}
	return &site
}
