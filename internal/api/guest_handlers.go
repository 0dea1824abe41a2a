package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/example/menu-orders/internal/domain/order"
	"github.com/example/menu-orders/internal/domain/user"
)

// GuestHandlers serves the unauthenticated guest-checkout flow.
type GuestHandlers struct {
	users  *user.Service
	orders *order.Service
}

func NewGuestHandlers(users *user.Service, orders *order.Service) *GuestHandlers {
	return &GuestHandlers{users: users, orders: orders}
}

// GuestCheckoutRequest is the guest checkout body: contact identity plus
// the order itself.
type GuestCheckoutRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	CreateOrderRequest
}

// Checkout resolves the guest identity, creates the order as an invisible
// draft, then immediately confirms it through the system transition
// draft -> pending. The two-step shape means an abandoned or failing guest
// submission never produces a notification.
func (h *GuestHandlers) Checkout(w http.ResponseWriter, r *http.Request) {
	var req GuestCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	guest, err := h.users.ResolveGuest(r.Context(), req.Email, req.Name, req.Phone)
	if err != nil {
		respondGuestError(w, err)
		return
	}

	draft, err := h.orders.Create(r.Context(), order.CreateInput{
		OwnerID:  guest.ID,
		Delivery: req.delivery(),
		Items:    req.Items,
		Draft:    true,
	})
	if err != nil {
		respondOrderError(w, err)
		return
	}

	placed, err := h.orders.Transition(r.Context(), draft.ID, order.StatusPending, order.ActorSystem, "")
	if err != nil {
		// The draft stays invisible; nothing was announced.
		log.Printf("[API] Guest order %d stuck in draft: %v", draft.ID, err)
		respondJSONError(w, "failed to place order", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, placed)
}

func respondGuestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrAccountExists):
		respondJSONError(w, "an account with this email exists, please log in to order", http.StatusConflict)
	case errors.Is(err, user.ErrInvalidEmail), errors.Is(err, user.ErrInvalidName):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("[API] Guest checkout error: %v", err)
		respondJSONError(w, "internal error", http.StatusInternalServerError)
	}
}
