// Package testutil provides builders for test fixtures shared across packages.
//
// Example usage:
//
//	customer := testutil.NewCustomer("gid://shopify/Customer/1").
//		Eligible().
//		WithLocation("10115", "Berlin", "DE").
//		WithOrdersDaysAgo(now, 3, 40, 200).
//		Build()
package testutil

import (
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/model"
)

// Attribute keys of the default field map.
const (
	AttrEligible          = "partner_map"
	AttrHidden            = "partner_map_hidden"
	AttrZip               = "zip"
	AttrCity              = "city"
	AttrCountry           = "country"
	AttrDisplayName       = "display_name"
	AttrContactPreference = "contact_preference"
	AttrTraining          = "training"
	AttrWebsite           = "website"
)

// CustomerBuilder builds RawCustomer fixtures.
type CustomerBuilder struct {
	customer model.RawCustomer
}

// NewCustomer starts a builder for a customer with the given id.
func NewCustomer(id string) *CustomerBuilder {
	return &CustomerBuilder{
		customer: model.RawCustomer{
			ID:         id,
			Attributes: make(map[string]string),
		},
	}
}

// Eligible sets the eligibility flag.
func (b *CustomerBuilder) Eligible() *CustomerBuilder {
	return b.WithAttribute(AttrEligible, "true")
}

// Hidden sets the manual suppression flag.
func (b *CustomerBuilder) Hidden() *CustomerBuilder {
	return b.WithAttribute(AttrHidden, "true")
}

// WithName sets first and last name.
func (b *CustomerBuilder) WithName(first, last string) *CustomerBuilder {
	b.customer.FirstName = first
	b.customer.LastName = last
	return b
}

// WithContact sets email and phone.
func (b *CustomerBuilder) WithContact(email, phone string) *CustomerBuilder {
	b.customer.Email = email
	b.customer.Phone = phone
	return b
}

// WithLocation sets the three location attributes.
func (b *CustomerBuilder) WithLocation(zip, city, country string) *CustomerBuilder {
	b.customer.Attributes[AttrZip] = zip
	b.customer.Attributes[AttrCity] = city
	b.customer.Attributes[AttrCountry] = country
	return b
}

// WithAttribute sets an arbitrary attribute.
func (b *CustomerBuilder) WithAttribute(key, value string) *CustomerBuilder {
	b.customer.Attributes[key] = value
	return b
}

// WithOrders sets the order timestamps. They are stored as given.
func (b *CustomerBuilder) WithOrders(times ...time.Time) *CustomerBuilder {
	b.customer.OrderTimes = append([]time.Time(nil), times...)
	return b
}

// WithOrdersDaysAgo adds orders placed the given number of days before now,
// most recent first when days is ascending.
func (b *CustomerBuilder) WithOrdersDaysAgo(now time.Time, days ...int) *CustomerBuilder {
	times := make([]time.Time, 0, len(days))
	for _, d := range days {
		times = append(times, DaysAgo(now, d))
	}
	return b.WithOrders(times...)
}

// Build returns a copy of the customer.
func (b *CustomerBuilder) Build() model.RawCustomer {
	c := b.customer
	c.Attributes = make(map[string]string, len(b.customer.Attributes))
	for k, v := range b.customer.Attributes {
		c.Attributes[k] = v
	}
	c.OrderTimes = append([]time.Time(nil), b.customer.OrderTimes...)
	return c
}

// DaysAgo returns now minus the given number of days.
func DaysAgo(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}

// ListedCustomer is a complete, eligible customer located in Berlin.
func ListedCustomer(id string) *CustomerBuilder {
	return NewCustomer(id).
		Eligible().
		WithName("Ada", "Lovelace").
		WithContact("ada@example.com", "+49 30 1234567").
		WithLocation("10115", "Berlin", "DE")
}
