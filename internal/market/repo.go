package market

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrolink/backend/internal/geo"
)

type Repo struct{ DB *pgxpool.Pool }

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const orderCols = `id, collector_id, product_name, quantity, unit, unit_price, status,
	message, territory, latitude, longitude, radius_km, delivery_address, delivery_date,
	created_at, updated_at`

const lineCols = `id, order_id, listing_id, farmer_id, quantity, unit_price, status,
	comment, created_at, updated_at`

const listingCols = `id, farmer_id, name, category, quantity, unit, unit_price, status,
	latitude, longitude, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CollectorID, &o.ProductName, &o.Quantity, &o.Unit, &o.UnitPrice,
		&o.Status, &o.Message, &o.Territory, &o.Latitude, &o.Longitude, &o.RadiusKm,
		&o.DeliveryAddress, &o.DeliveryDate, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func scanLine(row pgx.Row) (Line, error) {
	var l Line
	err := row.Scan(&l.ID, &l.OrderID, &l.ListingID, &l.FarmerID, &l.Quantity, &l.UnitPrice,
		&l.Status, &l.Comment, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func scanListing(row pgx.Row) (Listing, error) {
	var l Listing
	err := row.Scan(&l.ID, &l.FarmerID, &l.Name, &l.Category, &l.Quantity, &l.Unit,
		&l.UnitPrice, &l.Status, &l.Latitude, &l.Longitude, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// CreateDemand records an open demand. Matching and farmer notification
// happen afterwards in the service; the demand exists either way.
func (r *Repo) CreateDemand(ctx context.Context, collectorID string, d CreateDemand) (Order, error) {
	o := Order{
		ID:              uuid.NewString(),
		CollectorID:     collectorID,
		ProductName:     d.ProductName,
		Quantity:        d.Quantity,
		Unit:            d.Unit,
		UnitPrice:       d.UnitPrice,
		Status:          OrderOpen,
		Message:         d.Message,
		Territory:       d.Territory,
		Latitude:        d.Latitude,
		Longitude:       d.Longitude,
		DeliveryAddress: d.DeliveryAddress,
		DeliveryDate:    d.DeliveryDate,
	}
	if d.RadiusKm > 0 {
		o.RadiusKm = &d.RadiusKm
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO orders(id, collector_id, product_name, quantity, unit, unit_price, status,
			message, territory, latitude, longitude, radius_km, delivery_address, delivery_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at`,
		o.ID, o.CollectorID, o.ProductName, o.Quantity, o.Unit, o.UnitPrice, o.Status,
		o.Message, o.Territory, o.Latitude, o.Longitude, o.RadiusKm,
		o.DeliveryAddress, o.DeliveryDate,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, txError("create demand", o.ID, err)
	}
	return o, nil
}

// GetOrder loads an order with all its lines.
func (r *Repo) GetOrder(ctx context.Context, orderID string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id=$1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.Lines, err = loadLines(ctx, r.DB, orderID)
	return o, err
}

func (r *Repo) GetOrderStatus(ctx context.Context, orderID string) (OrderStatus, error) {
	var s OrderStatus
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return s, err
}

func loadLines(ctx context.Context, q querier, orderID string) ([]Line, error) {
	rows, err := q.Query(ctx,
		`SELECT `+lineCols+` FROM order_lines WHERE order_id=$1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func loadLinesByOrders(ctx context.Context, q querier, orderIDs []string) (map[string][]Line, error) {
	if len(orderIDs) == 0 {
		return map[string][]Line{}, nil
	}
	rows, err := q.Query(ctx,
		`SELECT `+lineCols+` FROM order_lines WHERE order_id = ANY($1) ORDER BY created_at`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]Line{}
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out[l.OrderID] = append(out[l.OrderID], l)
	}
	return out, rows.Err()
}

func (f Filter) apply(conds []string, args []any) ([]string, []any) {
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status=$%d", f.Status)
	}
	if f.ProductName != "" {
		add("product_name ILIKE '%%'||$%d||'%%'", f.ProductName)
	}
	if f.Territory != "" {
		add("territory ILIKE '%%'||$%d||'%%'", f.Territory)
	}
	if f.CollectorID != "" {
		add("collector_id=$%d", f.CollectorID)
	}
	if f.DateFrom != nil {
		add("created_at >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("created_at <= $%d", *f.DateTo)
	}
	return conds, args
}

func (r *Repo) listOrders(ctx context.Context, conds []string, args []any, page, limit int) (PaginatedResult[Order], error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return PaginatedResult[Order]{}, err
	}

	args = append(args, limit, (page-1)*limit)
	sql := `SELECT ` + orderCols + ` FROM orders` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return PaginatedResult[Order]{}, err
	}
	defer rows.Close()

	var orders []Order
	ids := []string{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return PaginatedResult[Order]{}, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return PaginatedResult[Order]{}, err
	}

	byOrder, err := loadLinesByOrders(ctx, r.DB, ids)
	if err != nil {
		return PaginatedResult[Order]{}, err
	}
	for i := range orders {
		orders[i].Lines = byOrder[orders[i].ID]
	}
	return Paginate(orders, total, page, limit), nil
}

// ListCollectorOrders returns one collector's orders, newest first.
func (r *Repo) ListCollectorOrders(ctx context.Context, collectorID string, f Filter, page, limit int) (PaginatedResult[Order], error) {
	f.CollectorID = ""
	conds, args := f.apply([]string{"collector_id=$1"}, []any{collectorID})
	return r.listOrders(ctx, conds, args, page, limit)
}

// ListAdminOrders returns every collector's orders; the filter may still
// narrow to one collector.
func (r *Repo) ListAdminOrders(ctx context.Context, f Filter, page, limit int) (PaginatedResult[Order], error) {
	conds, args := f.apply(nil, nil)
	return r.listOrders(ctx, conds, args, page, limit)
}

// ListOpenDemandsForFarmer pages through open demands and keeps the ones
// the farmer can serve, meaning an available listing of theirs lies
// within the demand's radius.
func (r *Repo) ListOpenDemandsForFarmer(ctx context.Context, farmerID string, f Filter, page, limit int) (PaginatedResult[Order], error) {
	conds := []string{fmt.Sprintf("status IN ('%s','%s')", OrderOpen, OrderPartiallySupplied)}
	var args []any
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	res, err := r.listOrders(ctx, conds, args, page, limit)
	if err != nil {
		return PaginatedResult[Order]{}, err
	}

	var relevant []Order
	for _, o := range res.Data {
		if o.Latitude == nil || o.Longitude == nil {
			continue
		}
		radius := float64(geo.DefaultRadiusKm)
		if o.RadiusKm != nil {
			radius = *o.RadiusKm
		}
		listings, err := r.FindListingsWithinRadius(ctx, *o.Latitude, *o.Longitude, radius, "", farmerID)
		if err != nil {
			return PaginatedResult[Order]{}, err
		}
		if len(listings) > 0 {
			relevant = append(relevant, o)
		}
	}
	return Paginate(relevant, len(relevant), page, limit), nil
}

// FindListingsWithinRadius returns the available listings matching the
// product name (case-insensitive substring) whose position lies within
// radiusKm of the origin. farmerID, when set, restricts to one owner.
func (r *Repo) FindListingsWithinRadius(ctx context.Context, lat, lon, radiusKm float64, name, farmerID string) ([]Listing, error) {
	conds := []string{"status=$1"}
	args := []any{ListingAvailable}
	if name != "" {
		args = append(args, name)
		conds = append(conds, fmt.Sprintf("name ILIKE '%%'||$%d||'%%'", len(args)))
	}
	if farmerID != "" {
		args = append(args, farmerID)
		conds = append(conds, fmt.Sprintf("farmer_id=$%d", len(args)))
	}
	rows, err := r.DB.Query(ctx,
		`SELECT `+listingCols+` FROM listings WHERE `+strings.Join(conds, " AND "), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return geo.WithinRadius(lat, lon, radiusKm, listings), nil
}

// GetParty loads one referenced actor.
func (r *Repo) GetParty(ctx context.Context, id string) (Party, error) {
	var p Party
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, phone, role, latitude, longitude FROM users WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Phone, &p.Role, &p.Latitude, &p.Longitude)
	if errors.Is(err, pgx.ErrNoRows) {
		return Party{}, ErrNotFound
	}
	return p, err
}

// ListFarmerLines returns the lines contributed by a farmer with their
// order and listing context, newest first.
func (r *Repo) ListFarmerLines(ctx context.Context, farmerID string) ([]FarmerLine, error) {
	if _, err := r.GetParty(ctx, farmerID); err != nil {
		return nil, err
	}
	rows, err := r.DB.Query(ctx, `
		SELECT l.id, l.order_id, l.listing_id, l.farmer_id, l.quantity, l.unit_price,
		       l.status, l.comment, l.created_at, l.updated_at,
		       o.status, o.product_name, o.territory, o.collector_id, p.name
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		JOIN listings p ON p.id = l.listing_id
		WHERE l.farmer_id = $1
		ORDER BY l.created_at DESC`, farmerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FarmerLine
	for rows.Next() {
		var fl FarmerLine
		l := &fl.Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ListingID, &l.FarmerID, &l.Quantity,
			&l.UnitPrice, &l.Status, &l.Comment, &l.CreatedAt, &l.UpdatedAt,
			&fl.OrderStatus, &fl.ProductName, &fl.Territory, &fl.CollectorID, &fl.ListingName); err != nil {
			return nil, err
		}
		out = append(out, fl)
	}
	return out, rows.Err()
}

// CollectorStats counts a collector's orders per status.
func (r *Repo) CollectorStats(ctx context.Context, collectorID string) (OrderStats, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT status, COUNT(*) FROM orders WHERE collector_id=$1 GROUP BY status`, collectorID)
	if err != nil {
		return OrderStats{}, err
	}
	defer rows.Close()
	return scanStats(rows)
}

// FarmerStats counts the orders a farmer has at least one line on.
func (r *Repo) FarmerStats(ctx context.Context, farmerID string) (OrderStats, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.status, COUNT(DISTINCT o.id)
		FROM orders o
		JOIN order_lines l ON l.order_id = o.id
		WHERE l.farmer_id = $1
		GROUP BY o.status`, farmerID)
	if err != nil {
		return OrderStats{}, err
	}
	defer rows.Close()
	return scanStats(rows)
}

func scanStats(rows pgx.Rows) (OrderStats, error) {
	var st OrderStats
	for rows.Next() {
		var status OrderStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return OrderStats{}, err
		}
		st.Total += n
		switch status {
		case OrderOpen:
			st.Open = n
		case OrderPartiallySupplied:
			st.PartiallySupplied = n
		case OrderComplete:
			st.Completed = n
		case OrderPending:
			st.Pending = n
		case OrderAccepted:
			st.Accepted = n
		case OrderPaid:
			st.Paid = n
		case OrderDelivered:
			st.Delivered = n
		case OrderCancelled:
			st.Cancelled = n
		}
	}
	return st, rows.Err()
}
