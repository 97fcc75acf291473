package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AlfazMahmudRizve/Urban-Harvest-Cafe/internal/domain/order"
)

type lineItemPayload struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type checkoutPayload struct {
	Customer struct {
		Name        string `json:"name"`
		Phone       string `json:"phone"`
		Address     string `json:"address"`
		TableNumber string `json:"tableNumber"`
		OrderType   string `json:"orderType"`
	} `json:"customer"`
	Cart            []lineItemPayload `json:"cart"`
	Total           decimal.Decimal   `json:"total"`
	LoyaltyEligible bool              `json:"loyaltyEligible"`
}

type orderResponse struct {
	ID              string             `json:"id"`
	CustomerID      string             `json:"customer_id"`
	Items           []lineItemPayload  `json:"items"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	Status          string             `json:"status"`
	OrderType       string             `json:"order_type"`
	TableNumber     string             `json:"table_number,omitempty"`
	DeliveryAddress string             `json:"delivery_address,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	Customer        *customerSummaryJS `json:"customer,omitempty"`
}

type customerSummaryJS struct {
	Name       string          `json:"name"`
	Phone      string          `json:"phone"`
	VisitCount int             `json:"visit_count"`
	TotalSpend decimal.Decimal `json:"total_spend"`
}

func toOrderResponse(o *order.WithCustomer) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		TotalAmount: o.Total,
		Status:      string(o.Status),
		OrderType:   string(o.Fulfillment.OrderType()),
		CreatedAt:   o.CreatedAt,
		Customer: &customerSummaryJS{
			Name:       o.Customer.Name,
			Phone:      o.Customer.Phone,
			VisitCount: o.Customer.VisitCount,
			TotalSpend: o.Customer.TotalSpend,
		},
	}
	switch f := o.Fulfillment.(type) {
	case order.DineIn:
		resp.TableNumber = f.Table
	case order.Delivery:
		resp.DeliveryAddress = f.Address
	}
	resp.Items = make([]lineItemPayload, len(o.Items))
	for i, item := range o.Items {
		resp.Items[i] = lineItemPayload{
			ID:       item.ItemID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		}
	}
	return resp
}

// placeOrder handles checkout requests from the storefront.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var payload checkoutPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	items := make([]order.LineItem, len(payload.Cart))
	for i, item := range payload.Cart {
		items[i] = order.LineItem{
			ItemID:   item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		}
	}

	placed, err := h.orders.PlaceOrder(r.Context(), order.CheckoutRequest{
		Name:            payload.Customer.Name,
		Phone:           payload.Customer.Phone,
		Address:         payload.Customer.Address,
		Table:           payload.Customer.TableNumber,
		Type:            payload.Customer.OrderType,
		Items:           items,
		DeclaredTotal:   payload.Total,
		LoyaltyEligible: payload.LoyaltyEligible,
	})
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"orderId": placed.ID,
	})
}

// writeOrderError maps pipeline errors to the uniform failure envelope.
// Persistence failures stay generic so storage internals never leak to users.
func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *order.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, vErr.Fields)
		return
	}

	var aErr *order.AvailabilityError
	if errors.As(err, &aErr) {
		writeError(w, http.StatusServiceUnavailable, "Store is currently closed. Please check back later!")
		return
	}

	var cErr *order.ConflictError
	if errors.As(err, &cErr) {
		writeError(w, http.StatusConflict, cErr.Error())
		return
	}

	if errors.Is(err, order.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}

	logFrom(r).Error("order operation failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Failed to place order")
}

// updateStatus handles staff transitions from the dashboard.
func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	if _, err := order.ParseStatus(payload.Status); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), payload.Status)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"order":   toOrderResponse(o),
	})
}

// listOrders serves dashboard and customer-history queries. Exactly one of
// status, customer_id or date selects the query.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		orders []order.WithCustomer
		err    error
	)
	switch {
	case q.Get("status") != "":
		orders, err = h.orders.ListByStatus(r.Context(), q.Get("status"))
	case q.Get("customer_id") != "":
		orders, err = h.orders.ListByCustomer(r.Context(), q.Get("customer_id"))
	case q.Get("date") != "":
		// The date is a calendar day in the store timezone, so a
		// late-night order lands on the store's day, not UTC's.
		var day time.Time
		day, err = time.ParseInLocation("2006-01-02", q.Get("date"), h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		orders, err = h.orders.ListForDay(r.Context(), day)
	default:
		writeError(w, http.StatusBadRequest, "one of status, customer_id or date is required")
		return
	}
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": resp})
}

// topCustomers serves the dashboard's highest-spend panel.
func (h *Handler) topCustomers(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	customers, err := h.customers.TopBySpend(r.Context(), limit)
	if err != nil {
		logFrom(r).Error("top customers query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load customers")
		return
	}

	type entry struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		Phone      string          `json:"phone"`
		TotalSpend decimal.Decimal `json:"total_spend"`
		VisitCount int             `json:"visit_count"`
	}
	resp := make([]entry, len(customers))
	for i, c := range customers {
		resp[i] = entry{
			ID:         c.ID,
			Name:       c.Name,
			Phone:      c.Phone,
			TotalSpend: c.TotalSpend,
			VisitCount: c.VisitCount,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "customers": resp})
}
