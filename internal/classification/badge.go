package classification

import (
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/model"
)

// Days10M approximates ten months. No calendar arithmetic is done.
const Days10M = 304

// BadgeSchemaVersion is the snapshot schema carrying badge objects.
const BadgeSchemaVersion = 4

const topPartnerOrders = 5

// Badges, in evaluation order.
var (
	BadgeNew = model.Badge{
		Label:   "Neu",
		Tooltip: "Neu im Partnernetzwerk.",
	}
	BadgeTopPartner = model.Badge{
		Label:   "Top-Partner",
		Tooltip: "Sehr viele Bestellungen in den letzten 10 Monaten.",
	}
	BadgeActivePartner = model.Badge{
		Label:   "Aktiver Partner",
		Tooltip: "Regelmäßige Bestellungen in den letzten 10 Monaten.",
	}
	BadgeOccasional = model.Badge{
		Label:   "Gelegentlich aktiv",
		Tooltip: "Keine Bestellungen in den letzten 10 Monaten.",
	}
)

// BadgePolicy is the three-tier policy. Counts and dates are not emitted.
type BadgePolicy struct{}

// Name implements Policy.
func (BadgePolicy) Name() string { return PolicyBadge }

// SchemaVersion implements Policy.
func (BadgePolicy) SchemaVersion() int { return BadgeSchemaVersion }

// Classify implements Policy.
func (BadgePolicy) Classify(orders []time.Time, now time.Time) model.Status {
	badge := ClassifyBadge(len(orders), OrdersWithin(orders, now, Days10M))
	return model.Status{Badge: &badge}
}

// ClassifyBadge picks the badge for total orders and orders in the last 304 days.
func ClassifyBadge(total, orders10m int) model.Badge {
	switch {
	case total <= 0:
		return BadgeNew
	case orders10m >= topPartnerOrders:
		return BadgeTopPartner
	case orders10m >= 1:
		return BadgeActivePartner
	default:
		return BadgeOccasional
	}
}
