package market

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const defaultCancelReason = "Commande annulée par le collecteur"

// Cancel marks every line refused, restores each line's quantity to its
// listing and sets the order to annulee, all in one transaction. Lines
// already refused gave their stock back at refusal time and are skipped.
// It returns the updated order plus the distinct farmers to notify.
func (r *Repo) Cancel(ctx context.Context, collectorID, orderID, reason string) (Order, []string, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, nil, txError("cancel", orderID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrderForCollector(ctx, tx, collectorID, orderID)
	if err != nil {
		return Order{}, nil, err
	}
	if o.Status == OrderCancelled {
		return Order{}, nil, invalid("commande déjà annulée")
	}
	if !CanTransition(o.Status, OrderCancelled) {
		return Order{}, nil, invalid("une commande %s ne peut pas être annulée", o.Status)
	}

	lines, err := loadLines(ctx, tx, orderID)
	if err != nil {
		return Order{}, nil, txError("cancel", orderID, err)
	}
	for _, l := range lines {
		if l.Status == LineRefused {
			continue
		}
		if err := incrementStock(ctx, tx, l.ListingID, l.Quantity); err != nil {
			return Order{}, nil, err
		}
	}
	if _, err := tx.Exec(ctx,
		`UPDATE order_lines SET status=$2, updated_at=now() WHERE order_id=$1`,
		orderID, LineRefused); err != nil {
		return Order{}, nil, txError("cancel lines", orderID, err)
	}

	if reason == "" {
		reason = defaultCancelReason
	}
	o.Status = OrderCancelled
	o.Message = reason
	err = tx.QueryRow(ctx,
		`UPDATE orders SET status=$2, message=$3, updated_at=now()
		 WHERE id=$1 RETURNING updated_at`,
		orderID, o.Status, o.Message).Scan(&o.UpdatedAt)
	if err != nil {
		return Order{}, nil, txError("cancel", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, nil, txError("cancel commit", orderID, err)
	}

	for i := range lines {
		lines[i].Status = LineRefused
	}
	o.Lines = lines
	return o, distinctFarmers(lines), nil
}

// MarkPaid sets the order to payee. No stock effect.
func (r *Repo) MarkPaid(ctx context.Context, collectorID, orderID string) (Order, []string, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, nil, txError("pay", orderID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrderForCollector(ctx, tx, collectorID, orderID)
	if err != nil {
		return Order{}, nil, err
	}
	if o.Status == OrderCancelled {
		return Order{}, nil, invalid("commande déjà annulée")
	}

	o.Status = OrderPaid
	err = tx.QueryRow(ctx,
		`UPDATE orders SET status=$2, updated_at=now() WHERE id=$1 RETURNING updated_at`,
		orderID, o.Status).Scan(&o.UpdatedAt)
	if err != nil {
		return Order{}, nil, txError("pay", orderID, err)
	}
	o.Lines, err = loadLines(ctx, tx, orderID)
	if err != nil {
		return Order{}, nil, txError("pay", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, nil, txError("pay commit", orderID, err)
	}
	return o, distinctFarmers(o.Lines), nil
}

func lockOrderForCollector(ctx context.Context, tx pgx.Tx, collectorID, orderID string) (Order, error) {
	o, err := scanOrder(tx.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id=$1 FOR UPDATE`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, txError("load order", orderID, err)
	}
	if o.CollectorID != collectorID {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func distinctFarmers(lines []Line) []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range lines {
		if !seen[l.FarmerID] {
			seen[l.FarmerID] = true
			out = append(out, l.FarmerID)
		}
	}
	return out
}
