package market

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound covers missing entities and failed ownership checks
	// alike, so a caller cannot probe for other actors' orders.
	ErrNotFound = errors.New("introuvable")

	// ErrInvalidState is a business-rule violation: over-allocation,
	// re-transition of a terminal line, double cancellation.
	ErrInvalidState = errors.New("opération invalide")

	// ErrInsufficientStock is returned when a requested quantity exceeds
	// a listing's available stock.
	ErrInsufficientStock = errors.New("stock insuffisant")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func insufficientStock(requested, available decimal.Decimal) error {
	return fmt.Errorf("%w: la quantité demandée (%s) dépasse le stock disponible (%s)",
		ErrInsufficientStock, requested, available)
}

// txError wraps an unexpected persistence failure with the operation and
// the ids involved, for logging at the call site.
func txError(op, id string, err error) error {
	return fmt.Errorf("%s %s: %w", op, id, err)
}
