// Package model defines the core domain models used throughout the application.
package model

import "time"

// MaxOrderTimes bounds how many order timestamps are kept per customer.
const MaxOrderTimes = 250

// RawCustomer is one customer record as delivered by the commerce platform.
type RawCustomer struct {
	// Attributes holds the customer's metafields keyed by metafield key.
	Attributes map[string]string
	ID         string
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	// OrderTimes is ordered most recent first.
	OrderTimes []time.Time
}

// Attribute returns the named attribute, or "" when absent.
func (c RawCustomer) Attribute(name string) string {
	if c.Attributes == nil {
		return ""
	}
	return c.Attributes[name]
}

// CustomerPage is a single page of customers plus pagination state.
type CustomerPage struct {
	EndCursor string
	Customers []RawCustomer
	HasNext   bool
}
