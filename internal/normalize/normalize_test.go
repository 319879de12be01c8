package normalize_test

import (
	"testing"

	"github.com/Veraticus/partner-directory-sync/internal/model"
	"github.com/Veraticus/partner-directory-sync/internal/normalize"
	"github.com/Veraticus/partner-directory-sync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Eligibility(t *testing.T) {
	n := normalize.New(normalize.DefaultFieldMap())

	tests := []struct {
		name     string
		customer model.RawCustomer
		want     model.SkipReason
	}{
		{
			name:     "complete eligible customer",
			customer: testutil.ListedCustomer("c1").Build(),
			want:     model.SkipNone,
		},
		{
			name:     "eligibility flag absent",
			customer: testutil.NewCustomer("c2").WithLocation("10115", "Berlin", "DE").Build(),
			want:     model.SkipIneligible,
		},
		{
			name: "eligibility flag false",
			customer: testutil.ListedCustomer("c3").
				WithAttribute(testutil.AttrEligible, "false").Build(),
			want: model.SkipIneligible,
		},
		{
			name: "eligibility flag unusual truthy spelling",
			customer: testutil.ListedCustomer("c4").
				WithAttribute(testutil.AttrEligible, " YES ").Build(),
			want: model.SkipNone,
		},
		{
			name:     "suppressed even though eligible",
			customer: testutil.ListedCustomer("c5").Hidden().Build(),
			want:     model.SkipSuppressed,
		},
		{
			name: "suppression flag false",
			customer: testutil.ListedCustomer("c6").
				WithAttribute(testutil.AttrHidden, "false").Build(),
			want: model.SkipNone,
		},
		{
			name: "missing country",
			customer: testutil.ListedCustomer("c7").
				WithAttribute(testutil.AttrCountry, "").Build(),
			want: model.SkipMissingLocation,
		},
		{
			name: "whitespace-only city",
			customer: testutil.ListedCustomer("c8").
				WithAttribute(testutil.AttrCity, "   ").Build(),
			want: model.SkipMissingLocation,
		},
		{
			name: "missing zip",
			customer: testutil.NewCustomer("c9").Eligible().
				WithAttribute(testutil.AttrCity, "Berlin").
				WithAttribute(testutil.AttrCountry, "DE").Build(),
			want: model.SkipMissingLocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			partner, reason := n.Normalize(tt.customer)

			assert.Equal(t, tt.want, reason)
			if tt.want == model.SkipNone {
				require.NotNil(t, partner)
				assert.Equal(t, tt.customer.ID, partner.ID)
			} else {
				assert.Nil(t, partner)
			}
		})
	}
}

func TestNormalize_Fields(t *testing.T) {
	n := normalize.New(normalize.DefaultFieldMap())
	customer := testutil.ListedCustomer("gid://shopify/Customer/42").
		WithLocation(" 80331 ", " München ", " DE ").
		WithAttribute(testutil.AttrDisplayName, "  Alpine Service GmbH ").
		WithAttribute(testutil.AttrContactPreference, `["email", " phone ", ""]`).
		WithAttribute(testutil.AttrTraining, " Certified installer 2023 ").
		WithAttribute("homepage", "alpine.example").
		WithAttribute("service_installation", "true").
		WithAttribute("service_rental", "0").
		Build()

	partner, reason := n.Normalize(customer)

	require.Equal(t, model.SkipNone, reason)
	require.NotNil(t, partner)
	assert.Equal(t, "Alpine Service GmbH", partner.DisplayName)
	assert.Equal(t, "80331", partner.Zip)
	assert.Equal(t, "München", partner.City)
	assert.Equal(t, "DE", partner.Country)
	assert.Equal(t, "ada@example.com", partner.Contact.Email)
	assert.Equal(t, "+49 30 1234567", partner.Contact.Phone)
	assert.Equal(t, []string{"email", "phone"}, partner.Contact.Preferred)
	require.NotNil(t, partner.Contact.Website)
	assert.Equal(t, "https://alpine.example", *partner.Contact.Website)
	assert.Equal(t, "Certified installer 2023", partner.Training)
	assert.Equal(t, map[string]bool{
		"installation": true,
		"maintenance":  false,
		"consulting":   false,
		"rental":       false,
	}, partner.Services)
	assert.Nil(t, partner.Activity)
	assert.Nil(t, partner.Badge)
}

func TestNormalize_WebsiteCandidateOrder(t *testing.T) {
	n := normalize.New(normalize.DefaultFieldMap())
	customer := testutil.ListedCustomer("c1").
		WithAttribute("website", "  ").
		WithAttribute("webseite", "http://first.example").
		WithAttribute("url", "second.example").
		Build()

	partner, _ := n.Normalize(customer)

	require.NotNil(t, partner.Contact.Website)
	assert.Equal(t, "http://first.example", *partner.Contact.Website)
}

func TestNormalize_CustomFieldMap(t *testing.T) {
	fields := normalize.DefaultFieldMap()
	fields.Eligible = "show_on_map"
	fields.Hidden = ""
	fields.Services = map[string]string{"repair": "offers_repair"}

	n := normalize.New(fields)
	customer := testutil.NewCustomer("c1").
		WithAttribute("show_on_map", "on").
		WithAttribute(testutil.AttrHidden, "true").
		WithAttribute("offers_repair", "Y").
		WithLocation("1010", "Wien", "AT").
		Build()

	partner, reason := n.Normalize(customer)

	require.Equal(t, model.SkipNone, reason)
	assert.Equal(t, map[string]bool{"repair": true}, partner.Services)
}

func TestParseBool(t *testing.T) {
	truthy := []string{"true", "TRUE", "1", "yes", "Y", "on", " On "}
	falsy := []string{"", "false", "0", "no", "off", "2", "enabled", "tru"}

	for _, s := range truthy {
		assert.True(t, normalize.ParseBool(s), "%q", s)
	}
	for _, s := range falsy {
		assert.False(t, normalize.ParseBool(s), "%q", s)
	}
}

func TestResolveDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		override string
		first    string
		last     string
		want     string
	}{
		{name: "override wins", override: " Acme ", first: "Ada", last: "Lovelace", want: "Acme"},
		{name: "first and last", first: " Ada ", last: " Lovelace ", want: "Ada Lovelace"},
		{name: "first only", first: "Ada", want: "Ada"},
		{name: "last only", last: "Lovelace", want: "Lovelace"},
		{name: "nothing", override: "  ", want: normalize.DefaultDisplayName},
		{name: "decomposed umlaut is composed", override: "Mu\u0308ller", want: "M\u00fcller"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.ResolveDisplayName(tt.override, tt.first, tt.last))
		})
	}
}

func TestParseContactPreference(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: []string{}},
		{name: "whitespace", raw: "   ", want: []string{}},
		{name: "json list", raw: `["Telefon","E-Mail"]`, want: []string{"Telefon", "E-Mail"}},
		{name: "json list drops blanks and non-strings", raw: `["", " email ", 3, null]`, want: []string{"email"}},
		{name: "json empty list", raw: `[]`, want: []string{}},
		{name: "json string", raw: `"phone"`, want: []string{"phone"}},
		{name: "bare string", raw: " WhatsApp ", want: []string{"WhatsApp"}},
		{name: "broken json falls back to raw", raw: `["email",`, want: []string{`["email",`}},
		{name: "json number falls back to raw", raw: `42`, want: []string{"42"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.ParseContactPreference(tt.raw))
		})
	}
}

func TestNormalizeWebsite(t *testing.T) {
	tests := []struct {
		want *string
		name string
		raw  string
	}{
		{name: "bare domain", raw: "example.com", want: ptr("https://example.com")},
		{name: "http kept", raw: "http://x.com", want: ptr("http://x.com")},
		{name: "https kept", raw: "https://x.com/path", want: ptr("https://x.com/path")},
		{name: "scheme case-insensitive", raw: "HTTPS://X.com", want: ptr("HTTPS://X.com")},
		{name: "trimmed", raw: "  example.com  ", want: ptr("https://example.com")},
		{name: "empty", raw: "", want: nil},
		{name: "whitespace", raw: "   ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.NormalizeWebsite(tt.raw))
		})
	}
}

func ptr(s string) *string {
	return &s
}
