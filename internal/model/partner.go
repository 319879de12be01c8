package model

import "time"

// Partner is a directory entry as persisted in the snapshot.
//
// Field order is the key order of the JSON artifact.
type Partner struct {
	ID          string          `json:"partner_id"`
	DisplayName string          `json:"display_name"`
	Zip         string          `json:"zip"`
	City        string          `json:"city"`
	Country     string          `json:"country"`
	Lat         float64         `json:"lat"`
	Lng         float64         `json:"lng"`
	Services    map[string]bool `json:"services"`
	Contact     Contact         `json:"contact"`
	Training    string          `json:"training,omitempty"`
	Activity    *Activity       `json:"activity,omitempty"`
	Badge       *Badge          `json:"badge,omitempty"`
}

// Contact holds the public contact details of a partner.
type Contact struct {
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Preferred []string `json:"preferred"`
	Website   *string  `json:"website"`
}

// Activity is the four-tier activity classification, exposing counts.
type Activity struct {
	Label         *string    `json:"label"`
	Orders6M      int        `json:"orders_6m"`
	Orders12M     int        `json:"orders_12m"`
	LastOrderAt   *time.Time `json:"last_order_at"`
	LastOrderDays *int       `json:"last_order_days"`
}

// Badge is the coarse three-tier classification; counts stay private.
type Badge struct {
	Label   string `json:"label"`
	Tooltip string `json:"tooltip"`
}

// Status is the output of a classification policy. Exactly one field is set.
type Status struct {
	Activity *Activity
	Badge    *Badge
}

// Apply copies the status onto the partner.
func (s Status) Apply(p *Partner) {
	p.Activity = s.Activity
	p.Badge = s.Badge
}

// GeocodeKey is the address triple used for geocoding.
func (p *Partner) GeocodeKey() (zip, city, country string) {
	return p.Zip, p.City, p.Country
}

// GeocodeAddress is the free-text address sent to the geocoding provider.
func (p *Partner) GeocodeAddress() string {
	return p.Zip + " " + p.City + ", " + p.Country
}
