package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request payloads are validated at the boundary, before any transaction
// starts.

// CreateDemand opens a demand: an order with no listing bound yet, seeking
// matches within a geographic radius.
type CreateDemand struct {
	ProductName     string          `json:"product_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Message         string          `json:"message,omitempty"`
	Territory       string          `json:"territory,omitempty"`
	Latitude        *float64        `json:"latitude,omitempty"`
	Longitude       *float64        `json:"longitude,omitempty"`
	RadiusKm        float64         `json:"radius_km,omitempty"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	DeliveryDate    *time.Time      `json:"delivery_date,omitempty"`
}

func (d CreateDemand) Validate() error {
	if d.ProductName == "" {
		return invalid("product_name is required")
	}
	if d.Quantity.Sign() <= 0 {
		return invalid("quantity must be positive")
	}
	if d.RadiusKm < 0 {
		return invalid("radius_km must not be negative")
	}
	return nil
}

// AllocationRequest creates a direct order against one listing.
type AllocationRequest struct {
	CollectorID     string           `json:"collector_id"`
	ListingID       string           `json:"listing_id"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	Message         string           `json:"message,omitempty"`
	DeliveryAddress string           `json:"delivery_address,omitempty"`
	DeliveryDate    *time.Time       `json:"delivery_date,omitempty"`
}

func (a AllocationRequest) Validate() error {
	if a.CollectorID == "" || a.ListingID == "" {
		return invalid("collector_id and listing_id are required")
	}
	if a.Quantity.Sign() <= 0 {
		return invalid("quantity must be positive")
	}
	if a.UnitPrice != nil && a.UnitPrice.Sign() <= 0 {
		return invalid("unit_price must be positive")
	}
	return nil
}

// ProposalRequest is a farmer's contribution toward an open demand.
type ProposalRequest struct {
	FarmerID  string           `json:"farmer_id"`
	ListingID string           `json:"listing_id"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

func (p ProposalRequest) Validate() error {
	if p.FarmerID == "" || p.ListingID == "" {
		return invalid("farmer_id and listing_id are required")
	}
	if p.Quantity.Sign() <= 0 {
		return invalid("quantity must be positive")
	}
	if p.UnitPrice != nil && p.UnitPrice.Sign() <= 0 {
		return invalid("unit_price must be positive")
	}
	return nil
}

// ProposalResult is what a successful proposal returns to the farmer.
type ProposalResult struct {
	Message     string      `json:"message"`
	OrderStatus OrderStatus `json:"order_status"`
	Line        Line        `json:"line"`
}

// Filter narrows order list queries.
type Filter struct {
	Status      OrderStatus
	ProductName string
	Territory   string
	CollectorID string
	DateFrom    *time.Time
	DateTo      *time.Time
}
