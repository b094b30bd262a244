package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Propose adds a farmer's fulfillment line to an open demand. The order
// row is locked first so two concurrent proposals cannot both pass the
// remaining-quantity check; the order cap governs, not raw listing stock.
// It returns the result plus the collector to notify.
func (r *Repo) Propose(ctx context.Context, orderID string, req ProposalRequest) (ProposalResult, string, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ProposalResult{}, "", txError("propose", orderID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id=$1 FOR UPDATE`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ProposalResult{}, "", ErrNotFound
	}
	if err != nil {
		return ProposalResult{}, "", txError("propose", orderID, err)
	}

	if o.Status != OrderOpen && o.Status != OrderPartiallySupplied {
		return ProposalResult{}, "", invalid("la commande n'accepte plus de propositions (statut %s)", o.Status)
	}

	lines, err := loadLines(ctx, tx, orderID)
	if err != nil {
		return ProposalResult{}, "", txError("propose", orderID, err)
	}
	allocated := ActiveQuantity(lines)
	status, err := PlanProposal(o.Quantity, allocated, req.Quantity)
	if err != nil {
		return ProposalResult{}, "", err
	}

	price := o.UnitPrice
	if req.UnitPrice != nil {
		price = *req.UnitPrice
	}
	line := Line{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		ListingID: req.ListingID,
		FarmerID:  req.FarmerID,
		Quantity:  req.Quantity,
		UnitPrice: price,
		Status:    LinePending,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO order_lines(id, order_id, listing_id, farmer_id, quantity, unit_price, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		line.ID, line.OrderID, line.ListingID, line.FarmerID, line.Quantity, line.UnitPrice, line.Status,
	).Scan(&line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return ProposalResult{}, "", txError("propose line", orderID, err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, status); err != nil {
		return ProposalResult{}, "", txError("propose status", orderID, err)
	}

	if err := decrementStock(ctx, tx, req.ListingID, req.Quantity); err != nil {
		return ProposalResult{}, "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return ProposalResult{}, "", txError("propose commit", orderID, err)
	}
	return ProposalResult{
		Message:     fmt.Sprintf("Proposition de %s %s enregistrée", req.Quantity, o.Unit),
		OrderStatus: status,
		Line:        line,
	}, o.CollectorID, nil
}
