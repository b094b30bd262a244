package market

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AllocateDirect creates a direct order against one listing: the order,
// its single fulfillment line and the stock decrement commit or roll back
// together. The listing row stays locked for the whole transaction.
// It returns the order with its line plus the listing owner to notify.
func (r *Repo) AllocateDirect(ctx context.Context, req AllocationRequest) (Order, string, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, "", txError("allocate", req.ListingID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	listing, err := scanListing(tx.QueryRow(ctx,
		`SELECT `+listingCols+` FROM listings WHERE id=$1 FOR UPDATE`, req.ListingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, "", ErrNotFound
	}
	if err != nil {
		return Order{}, "", txError("allocate", req.ListingID, err)
	}
	if listing.Quantity.LessThan(req.Quantity) {
		return Order{}, "", insufficientStock(req.Quantity, listing.Quantity)
	}

	lineStatus := DetermineLineStatus(req.Quantity, req.UnitPrice, listing.Quantity, listing.UnitPrice)
	orderStatus := OrderPending
	if lineStatus == LineAccepted {
		orderStatus = OrderAccepted
	}
	price := listing.UnitPrice
	if req.UnitPrice != nil {
		price = *req.UnitPrice
	}

	o := Order{
		ID:              uuid.NewString(),
		CollectorID:     req.CollectorID,
		ProductName:     listing.Name,
		Quantity:        req.Quantity,
		Unit:            listing.Unit,
		UnitPrice:       price,
		Status:          orderStatus,
		Message:         req.Message,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    req.DeliveryDate,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, collector_id, product_name, quantity, unit, unit_price, status,
			message, delivery_address, delivery_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		o.ID, o.CollectorID, o.ProductName, o.Quantity, o.Unit, o.UnitPrice, o.Status,
		o.Message, o.DeliveryAddress, o.DeliveryDate,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, "", txError("allocate order", o.ID, err)
	}

	line := Line{
		ID:        uuid.NewString(),
		OrderID:   o.ID,
		ListingID: listing.ID,
		FarmerID:  listing.FarmerID,
		Quantity:  req.Quantity,
		UnitPrice: price,
		Status:    lineStatus,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO order_lines(id, order_id, listing_id, farmer_id, quantity, unit_price, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		line.ID, line.OrderID, line.ListingID, line.FarmerID, line.Quantity, line.UnitPrice, line.Status,
	).Scan(&line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return Order{}, "", txError("allocate line", o.ID, err)
	}

	if err := decrementStock(ctx, tx, listing.ID, req.Quantity); err != nil {
		return Order{}, "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, "", txError("allocate commit", o.ID, err)
	}
	o.Lines = []Line{line}
	return o, listing.FarmerID, nil
}
