package classification

import (
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/model"
)

// Activity labels.
const (
	LabelHighActivity    = "Sehr aktiv"
	LabelRegularActivity = "Regelmäßig aktiv"
	LabelRecentlyActive  = "Kürzlich aktiv"
	LabelActive          = "Aktiv"
)

// Activity windows and thresholds.
const (
	Days6M  = 180
	Days12M = 365

	highOrders12M    = 10
	regularOrders6M  = 3
	regularOrders12M = 6
	recentDays       = 60
)

// ActivitySchemaVersion is the snapshot schema carrying activity objects.
const ActivitySchemaVersion = 2

// ActivityPolicy is the four-tier policy exposing order counts and recency.
type ActivityPolicy struct{}

// Name implements Policy.
func (ActivityPolicy) Name() string { return PolicyActivity }

// SchemaVersion implements Policy.
func (ActivityPolicy) SchemaVersion() int { return ActivitySchemaVersion }

// Classify implements Policy.
func (ActivityPolicy) Classify(orders []time.Time, now time.Time) model.Status {
	activity := &model.Activity{
		Orders6M:      OrdersWithin(orders, now, Days6M),
		Orders12M:     OrdersWithin(orders, now, Days12M),
		LastOrderDays: DaysSinceLastOrder(orders, now),
	}
	if last := LastOrder(orders); last != nil {
		at := last.UTC().Truncate(time.Second)
		activity.LastOrderAt = &at
	}
	if label := ClassifyActivity(activity.Orders6M, activity.Orders12M, activity.LastOrderDays); label != "" {
		activity.Label = &label
	}
	return model.Status{Activity: activity}
}

// ClassifyActivity returns the activity label, or "" for no label.
// Branches are evaluated in order and the first match wins.
func ClassifyActivity(orders6m, orders12m int, lastOrderDays *int) string {
	if orders12m <= 0 && lastOrderDays == nil {
		return ""
	}

	recent := lastOrderDays != nil && *lastOrderDays <= recentDays

	switch {
	case orders12m >= highOrders12M && recent:
		return LabelHighActivity
	case orders6m >= regularOrders6M || orders12m >= regularOrders12M:
		return LabelRegularActivity
	case recent:
		return LabelRecentlyActive
	case orders12m > 0:
		return LabelActive
	default:
		return ""
	}
}
