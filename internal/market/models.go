package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing is a farmer's offer of stock. Quantity is mutated only through
// the stock ledger so it can never go negative.
type Listing struct {
	ID        string              `json:"id"`
	FarmerID  string              `json:"farmer_id"`
	Name      string              `json:"name"`
	Category  string              `json:"category,omitempty"`
	Quantity  decimal.Decimal     `json:"quantity"`
	Unit      string              `json:"unit"`
	UnitPrice decimal.Decimal     `json:"unit_price"`
	Status    ListingStatus       `json:"status"`
	Latitude  *float64            `json:"latitude,omitempty"`
	Longitude *float64            `json:"longitude,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Coordinates reports the listing position; listings without one never
// match a radius search.
func (l Listing) Coordinates() (float64, float64, bool) {
	if l.Latitude == nil || l.Longitude == nil {
		return 0, 0, false
	}
	return *l.Latitude, *l.Longitude, true
}

// Order is a collector's request. It is either an open demand (no listing
// bound yet, fed by proposals) or a direct order against one listing.
type Order struct {
	ID              string          `json:"id"`
	CollectorID     string          `json:"collector_id"`
	ProductName     string          `json:"product_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Status          OrderStatus     `json:"status"`
	Message         string          `json:"message,omitempty"`
	Territory       string          `json:"territory,omitempty"`
	Latitude        *float64        `json:"latitude,omitempty"`
	Longitude       *float64        `json:"longitude,omitempty"`
	RadiusKm        *float64        `json:"radius_km,omitempty"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	DeliveryDate    *time.Time      `json:"delivery_date,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Lines           []Line          `json:"lines,omitempty"`
}

// Line links one order to one listing contributed by one farmer. The set
// of an order's lines is the authoritative source for its aggregate status.
type Line struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ListingID string          `json:"listing_id"`
	FarmerID  string          `json:"farmer_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Status    LineStatus      `json:"status"`
	Comment   string          `json:"comment,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FarmerLine is a line enriched with its order and listing context, for
// the farmer-facing "received orders" view.
type FarmerLine struct {
	Line        Line        `json:"line"`
	OrderStatus OrderStatus `json:"order_status"`
	ProductName string      `json:"product_name"`
	Territory   string      `json:"territory,omitempty"`
	CollectorID string      `json:"collector_id"`
	ListingName string      `json:"listing_name"`
}

// Party is a referenced actor, collector or farmer. The core reads
// parties but never mutates them.
type Party struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Phone     string   `json:"phone,omitempty"`
	Role      string   `json:"role"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// OrderStats counts a party's orders per aggregate status.
type OrderStats struct {
	Total             int `json:"total"`
	Open              int `json:"open"`
	PartiallySupplied int `json:"partially_supplied"`
	Completed         int `json:"completed"`
	Pending           int `json:"pending"`
	Accepted          int `json:"accepted"`
	Paid              int `json:"paid"`
	Delivered         int `json:"delivered"`
	Cancelled         int `json:"cancelled"`
}
