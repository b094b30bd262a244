package market

import "github.com/shopspring/decimal"

// Status values keep the historical French wire names.

type OrderStatus string

const (
	OrderOpen              OrderStatus = "ouverte"
	OrderPartiallySupplied OrderStatus = "partiellement_fournie"
	OrderComplete          OrderStatus = "complete"
	OrderPending           OrderStatus = "en_attente"
	OrderAccepted          OrderStatus = "acceptee"
	OrderPaid              OrderStatus = "payee"
	OrderDelivered         OrderStatus = "livree"
	OrderCancelled         OrderStatus = "annulee"
)

type LineStatus string

const (
	LinePending           LineStatus = "en_attente"
	LineAccepted          LineStatus = "acceptee"
	LinePartiallyAccepted LineStatus = "partiellement_acceptee"
	LineRefused           LineStatus = "rejetée"
	LineDelivered         LineStatus = "livree"
)

type ListingStatus string

const (
	ListingAvailable ListingStatus = "disponible"
	ListingExhausted ListingStatus = "rupture"
	ListingWithdrawn ListingStatus = "retire"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderOpen:              {OrderPartiallySupplied: true, OrderComplete: true, OrderCancelled: true},
	OrderPartiallySupplied: {OrderComplete: true, OrderCancelled: true},
	OrderComplete:          {OrderAccepted: true, OrderPaid: true, OrderCancelled: true},
	OrderPending:           {OrderAccepted: true, OrderCancelled: true},
	OrderAccepted:          {OrderPaid: true, OrderDelivered: true, OrderCancelled: true},
	OrderPaid:              {OrderDelivered: true, OrderCancelled: true},
	OrderDelivered:         {},
	OrderCancelled:         {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// Terminal reports whether no further transition can leave the status.
func (s OrderStatus) Terminal() bool {
	return len(validNext[s]) == 0
}

// Terminal line states block every further transition.
func (s LineStatus) Terminal() bool {
	return s == LineRefused || s == LineDelivered
}

// DetermineLineStatus derives the initial status of a direct allocation
// line. A price matching the listing's own price is accepted outright:
// partially when stock remains afterwards, fully when the request takes
// the remaining stock. Any other price needs the farmer's confirmation.
// A nil price defaults to the listing's price and therefore matches.
func DetermineLineStatus(qty decimal.Decimal, price *decimal.Decimal, available, listingPrice decimal.Decimal) LineStatus {
	priceMatches := price == nil || price.Equal(listingPrice)
	if !priceMatches {
		return LinePending
	}
	if qty.LessThan(available) {
		return LinePartiallyAccepted
	}
	return LineAccepted
}

// DeriveOrderStatus recomputes an order's aggregate status from its lines.
// ok is false when the lines are in a mixed state and the current order
// status must be left unchanged.
func DeriveOrderStatus(lines []Line) (status OrderStatus, ok bool) {
	if len(lines) == 0 {
		return "", false
	}
	allAccepted, allRefused, allDelivered := true, true, true
	for _, l := range lines {
		if l.Status != LineAccepted && l.Status != LinePartiallyAccepted {
			allAccepted = false
		}
		if l.Status != LineRefused {
			allRefused = false
		}
		if l.Status != LineDelivered {
			allDelivered = false
		}
	}
	switch {
	case allAccepted:
		return OrderAccepted, true
	case allRefused:
		return OrderCancelled, true
	case allDelivered:
		return OrderDelivered, true
	}
	return "", false
}

// PlanProposal applies the over-allocation rules to a prospective
// fulfillment line and returns the order status the proposal would leave
// behind. The order's requested total caps the active lines, regardless
// of how much listing stock remains.
func PlanProposal(requested, allocated, proposed decimal.Decimal) (OrderStatus, error) {
	if allocated.GreaterThanOrEqual(requested) {
		return "", invalid("la commande est déjà complète (%s/%s)", allocated, requested)
	}
	total := allocated.Add(proposed)
	if total.GreaterThan(requested) {
		return "", invalid("la proposition (%s) dépasse la quantité restante (%s)",
			proposed, requested.Sub(allocated))
	}
	if total.GreaterThanOrEqual(requested) {
		return OrderComplete, nil
	}
	return OrderPartiallySupplied, nil
}

// ActiveQuantity sums the quantities of the non-refused lines. It is what
// counts against the order's requested total.
func ActiveQuantity(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.Status == LineRefused {
			continue
		}
		total = total.Add(l.Quantity)
	}
	return total
}
