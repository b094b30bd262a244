package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/agrolink/backend/internal/market"
	"github.com/agrolink/backend/internal/redisx"
)

// OrdersHandler carries every order- and demand-facing route. The actor
// id comes from the X-User-Id header; authentication happened upstream.
type OrdersHandler struct {
	Svc   *market.Service
	Repo  *market.Repo
	Redis *redis.Client
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/demands", h.createDemand)
	r.Get("/demands", h.listDemandsForFarmer)
	r.Post("/demands/{id}/proposals", h.propose)

	r.Post("/orders", h.allocateDirect)
	r.Get("/orders", h.listCollectorOrders)
	r.Get("/admin/orders", h.listAdminOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getOrderStatus)

	r.Patch("/orders/{id}/accept", h.acceptLine)
	r.Patch("/orders/{id}/refuse", h.refuseLine)
	r.Patch("/orders/{id}/deliver", h.deliverLine)
	r.Patch("/orders/{id}/cancel", h.cancelOrder)
	r.Patch("/orders/{id}/pay", h.payOrder)

	r.Get("/lines", h.listFarmerLines)
	r.Get("/stats/collector", h.collectorStats)
	r.Get("/stats/farmer", h.farmerStats)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, market.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, market.ErrInvalidState), errors.Is(err, market.ErrInsufficientStock):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "erreur interne"})
	}
}

func actorID(r *http.Request) string { return r.Header.Get("X-User-Id") }

func requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := actorID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing X-User-Id"})
		return "", false
	}
	return id, true
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, orderID string, status market.OrderStatus) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, status), redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) createDemand(w http.ResponseWriter, r *http.Request) {
	collectorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req market.CreateDemand
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Svc.CreateDemand(ctx, collectorID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) allocateDirect(w http.ResponseWriter, r *http.Request) {
	collectorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req market.AllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	req.CollectorID = collectorID
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Svc.AllocateDirect(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) propose(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := requireActor(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "id")
	var req market.ProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	req.FarmerID = farmerID
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.Propose(ctx, orderID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, orderID, res.OrderStatus)
	writeJSON(w, http.StatusCreated, res)
}

type lineTransitionReq struct {
	Reason string `json:"reason,omitempty"`
}

func (h *OrdersHandler) acceptLine(w http.ResponseWriter, r *http.Request) {
	h.transitionLine(w, r, func(ctx context.Context, farmerID, orderID, _ string) (market.Line, error) {
		return h.Svc.AcceptLine(ctx, farmerID, orderID)
	})
}

func (h *OrdersHandler) refuseLine(w http.ResponseWriter, r *http.Request) {
	h.transitionLine(w, r, func(ctx context.Context, farmerID, orderID, reason string) (market.Line, error) {
		return h.Svc.RefuseLine(ctx, farmerID, orderID, reason)
	})
}

func (h *OrdersHandler) deliverLine(w http.ResponseWriter, r *http.Request) {
	h.transitionLine(w, r, func(ctx context.Context, farmerID, orderID, _ string) (market.Line, error) {
		return h.Svc.DeliverLine(ctx, farmerID, orderID)
	})
}

func (h *OrdersHandler) transitionLine(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, farmerID, orderID, reason string) (market.Line, error)) {
	farmerID, ok := requireActor(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "id")

	var req lineTransitionReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	line, err := fn(ctx, farmerID, orderID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	// aggregate status may have moved, drop the cached one
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID)).Err()
	writeJSON(w, http.StatusOK, line)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	collectorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "id")
	var req lineTransitionReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Svc.Cancel(ctx, collectorID, orderID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) payOrder(w http.ResponseWriter, r *http.Request) {
	collectorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Svc.MarkPaid(ctx, collectorID, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Repo.GetOrder(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	status, err := h.Repo.GetOrderStatus(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, orderID, status)
	writeJSON(w, http.StatusOK, map[string]market.OrderStatus{"status": status})
}

func (h *OrdersHandler) listCollectorOrders(w http.ResponseWriter, r *http.Request) {
	collectorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	f, page, limit := parseListQuery(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Repo.ListCollectorOrders(ctx, collectorID, f, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrdersHandler) listAdminOrders(w http.ResponseWriter, r *http.Request) {
	f, page, limit := parseListQuery(r)
	f.CollectorID = r.URL.Query().Get("collector_id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Repo.ListAdminOrders(ctx, f, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrdersHandler) listDemandsForFarmer(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := requireActor(w, r)
	if !ok {
		return
	}
	f, page, limit := parseListQuery(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Repo.ListOpenDemandsForFarmer(ctx, farmerID, f, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrdersHandler) listFarmerLines(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	lines, err := h.Repo.ListFarmerLines(ctx, farmerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (h *OrdersHandler) collectorStats(w http.ResponseWriter, r *http.Request) {
	id, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := h.Repo.CollectorStats(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *OrdersHandler) farmerStats(w http.ResponseWriter, r *http.Request) {
	id, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := h.Repo.FarmerStats(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func parseListQuery(r *http.Request) (market.Filter, int, int) {
	q := r.URL.Query()
	f := market.Filter{
		Status:      market.OrderStatus(q.Get("status")),
		ProductName: q.Get("product"),
		Territory:   q.Get("territory"),
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.DateFrom = &t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.DateTo = &t
		}
	}
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return f, page, limit
}
