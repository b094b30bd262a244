package market

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Stock ledger. Both operations lock the listing row, so the availability
// check and the write are serialized per listing for the lifetime of the
// caller's transaction; two concurrent allocations cannot jointly oversell.

func decrementStock(ctx context.Context, tx pgx.Tx, listingID string, qty decimal.Decimal) error {
	var available decimal.Decimal
	var status ListingStatus
	err := tx.QueryRow(ctx,
		`SELECT quantity, status FROM listings WHERE id=$1 FOR UPDATE`, listingID).
		Scan(&available, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if available.LessThan(qty) {
		return insufficientStock(qty, available)
	}
	rest := available.Sub(qty)
	if rest.Sign() <= 0 {
		status = ListingExhausted
	}
	_, err = tx.Exec(ctx,
		`UPDATE listings SET quantity=$2, status=$3, updated_at=now() WHERE id=$1`,
		listingID, rest, status)
	return err
}

func incrementStock(ctx context.Context, tx pgx.Tx, listingID string, qty decimal.Decimal) error {
	var available decimal.Decimal
	var status ListingStatus
	err := tx.QueryRow(ctx,
		`SELECT quantity, status FROM listings WHERE id=$1 FOR UPDATE`, listingID).
		Scan(&available, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if status == ListingExhausted {
		status = ListingAvailable
	}
	_, err = tx.Exec(ctx,
		`UPDATE listings SET quantity=$2, status=$3, updated_at=now() WHERE id=$1`,
		listingID, available.Add(qty), status)
	return err
}
