package market

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Line status reconciliation. Each transition updates one farmer's line,
// then re-derives the order's aggregate status from all its lines inside
// the same transaction.

func (r *Repo) AcceptLine(ctx context.Context, farmerID, orderID string) (Line, error) {
	return r.transitionLine(ctx, farmerID, orderID, LineAccepted, "")
}

func (r *Repo) RefuseLine(ctx context.Context, farmerID, orderID, reason string) (Line, error) {
	return r.transitionLine(ctx, farmerID, orderID, LineRefused, reason)
}

func (r *Repo) DeliverLine(ctx context.Context, farmerID, orderID string) (Line, error) {
	return r.transitionLine(ctx, farmerID, orderID, LineDelivered, "")
}

func (r *Repo) transitionLine(ctx context.Context, farmerID, orderID string, to LineStatus, reason string) (Line, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Line{}, txError("line transition", orderID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lookup by (order, farmer) doubles as the ownership check.
	line, err := scanLine(tx.QueryRow(ctx,
		`SELECT `+lineCols+` FROM order_lines
		 WHERE order_id=$1 AND farmer_id=$2
		 ORDER BY created_at DESC LIMIT 1 FOR UPDATE`, orderID, farmerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Line{}, ErrNotFound
	}
	if err != nil {
		return Line{}, txError("line transition", orderID, err)
	}

	if line.Status == to {
		return Line{}, invalid("la ligne est déjà au statut %s", to)
	}
	if line.Status.Terminal() {
		return Line{}, invalid("la ligne %s ne peut plus changer de statut", line.Status)
	}

	if to == LineRefused {
		line.Comment = reason
		// A refused line gives its quantity back to the listing, so the
		// listing's available stock stays equal to initial stock minus
		// the non-refused lines.
		if err := incrementStock(ctx, tx, line.ListingID, line.Quantity); err != nil {
			return Line{}, err
		}
	}

	line.Status = to
	err = tx.QueryRow(ctx,
		`UPDATE order_lines SET status=$2, comment=$3, updated_at=now()
		 WHERE id=$1 RETURNING updated_at`,
		line.ID, line.Status, line.Comment).Scan(&line.UpdatedAt)
	if err != nil {
		return Line{}, txError("line transition", line.ID, err)
	}

	lines, err := loadLines(ctx, tx, orderID)
	if err != nil {
		return Line{}, txError("line transition", orderID, err)
	}
	if status, ok := DeriveOrderStatus(lines); ok {
		if _, err := tx.Exec(ctx,
			`UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, status); err != nil {
			return Line{}, txError("line transition", orderID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Line{}, txError("line transition commit", orderID, err)
	}
	return line, nil
}
