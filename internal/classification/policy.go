// Package classification derives a partner's status from its order history.
package classification

import (
	"fmt"
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/model"
)

// Policy names.
const (
	PolicyActivity = "activity"
	PolicyBadge    = "badge"
)

const day = 24 * time.Hour

// Policy turns order timestamps into the status emitted for a partner.
type Policy interface {
	Name() string
	// SchemaVersion is the snapshot schema the emitted status belongs to.
	SchemaVersion() int
	// Classify expects orders most recent first.
	Classify(orders []time.Time, now time.Time) model.Status
}

// ForName returns the policy registered under name.
func ForName(name string) (Policy, error) {
	switch name {
	case PolicyActivity:
		return ActivityPolicy{}, nil
	case PolicyBadge, "":
		return BadgePolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown classification policy %q", name)
	}
}

// OrdersWithin counts the orders placed no more than days days before now.
func OrdersWithin(orders []time.Time, now time.Time, days int) int {
	window := time.Duration(days) * day
	count := 0
	for _, t := range orders {
		if now.Sub(t) <= window {
			count++
		}
	}
	return count
}

// LastOrder returns the newest timestamp, or nil when there are no orders.
func LastOrder(orders []time.Time) *time.Time {
	if len(orders) == 0 {
		return nil
	}
	newest := orders[0]
	for _, t := range orders[1:] {
		if t.After(newest) {
			newest = t
		}
	}
	return &newest
}

// DaysSinceLastOrder returns whole days since the newest order, or nil when
// there are no orders. Orders in the future count as today.
func DaysSinceLastOrder(orders []time.Time, now time.Time) *int {
	last := LastOrder(orders)
	if last == nil {
		return nil
	}
	days := int(now.Sub(*last) / day)
	if days < 0 {
		days = 0
	}
	return &days
}
