package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/menu-orders/internal/api/middleware"
	"github.com/example/menu-orders/internal/domain/order"
	"github.com/example/menu-orders/internal/domain/user"
)

// Handlers serves the order endpoints.
type Handlers struct {
	orders *order.Service
}

func NewHandlers(orders *order.Service) *Handlers {
	return &Handlers{orders: orders}
}

// CreateOrderRequest is the body for authenticated order creation.
type CreateOrderRequest struct {
	DeliveryStreet      string              `json:"delivery_street"`
	DeliveryHouseNumber string              `json:"delivery_house_number"`
	DeliveryLocation    string              `json:"delivery_location"`
	Phone               string              `json:"phone"`
	Notes               string              `json:"notes"`
	Items               []order.ItemRequest `json:"items"`
}

func (req CreateOrderRequest) delivery() order.Delivery {
	return order.Delivery{
		Street:      req.DeliveryStreet,
		HouseNumber: req.DeliveryHouseNumber,
		Location:    req.DeliveryLocation,
		Phone:       req.Phone,
		Notes:       req.Notes,
	}
}

// CreateOrder places an order for the authenticated principal. The order
// starts pending and is announced immediately.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.orders.Create(r.Context(), order.CreateInput{
		OwnerID:  middleware.GetUserID(r.Context()),
		Delivery: req.delivery(),
		Items:    req.Items,
	})
	if err != nil {
		respondOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, o)
}

// ListOrders returns the orders visible to the caller: owners see their own
// including drafts, staff see everything except drafts.
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context(), middleware.GetUserID(r.Context()), middleware.GetRole(r.Context()))
	if err != nil {
		log.Printf("[API] Error listing orders: %v", err)
		respondJSONError(w, "failed to list orders", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

// GetOrder returns one order if the caller may see it.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	o, err := h.orders.Get(r.Context(), id, middleware.GetUserID(r.Context()), middleware.GetRole(r.Context()))
	if err != nil {
		respondOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// ConfirmOrder is the owner's draft confirmation: draft/pending -> pending.
func (h *Handlers) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	h.ownerTransition(w, r, order.StatusPending)
}

// CancelOrder is the owner's self-service cancellation:
// pending/confirmed -> cancelled.
func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.ownerTransition(w, r, order.StatusCancelled)
}

func (h *Handlers) ownerTransition(w http.ResponseWriter, r *http.Request, target order.Status) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	o, err := h.orders.Transition(r.Context(), id, target, order.ActorOwner, middleware.GetUserID(r.Context()))
	if err != nil {
		respondOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// UpdateOrderStatusRequest is the staff PATCH body.
type UpdateOrderStatusRequest struct {
	Status order.Status `json:"status"`
}

// UpdateOrderStatus lets staff set any target status. Operational
// corrections may jump states; only drafts are off limits.
func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.orders.Transition(r.Context(), id, req.Status, order.ActorStaff, middleware.GetUserID(r.Context()))
	if err != nil {
		respondOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// Helper functions

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	path := strings.TrimPrefix(r.URL.Path, "/orders/")
	path = strings.TrimSuffix(path, "/confirm")
	path = strings.TrimSuffix(path, "/cancel")

	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		respondJSONError(w, "invalid order id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// respondOrderError maps domain errors to status codes, keeping the
// validation / authorization / conflict categories distinguishable for the
// caller.
func respondOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		respondJSONError(w, "order not found", http.StatusNotFound)
	case errors.Is(err, order.ErrForbidden), errors.Is(err, order.ErrForbiddenTransition):
		respondJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, order.ErrNoItems),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrProductNotFound),
		errors.Is(err, order.ErrProductUnavailable),
		errors.Is(err, order.ErrMissingDelivery),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrUnknownStatus):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, user.ErrAccountExists):
		respondJSONError(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("[API] Internal error: %v", err)
		respondJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
