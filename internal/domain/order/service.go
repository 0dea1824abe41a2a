package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/menu-orders/internal/catalog"
	"github.com/example/menu-orders/internal/dispatch"
	"github.com/example/menu-orders/internal/domain/user"
	"github.com/example/menu-orders/internal/notify"
)

var (
	// ErrForbidden is the authorization failure for viewing or acting on
	// somebody else's order. Callers must distinguish it from validation
	// errors.
	ErrForbidden = errors.New("not allowed to access this order")

	ErrMissingDelivery = errors.New("delivery street, house number, location and phone are required")
)

// Store is the persistence contract for orders. Create persists the order
// and its items in one transaction; UpdateStatus serializes transitions for
// one order behind a row lock, applying the mutation only if apply accepts
// the freshly loaded state.
type Store interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Order, error)
	ListActive(ctx context.Context) ([]*Order, error)
	UpdateStatus(ctx context.Context, id int64, apply func(*Order) error) (*Order, error)
}

// Publisher fans a committed order event out to the notification channels.
type Publisher interface {
	Publish(ctx context.Context, env notify.Envelope)
}

// Mailer sends the transactional order emails. Both methods run on the
// dispatcher pool, never on the request path.
type Mailer interface {
	OrderConfirmation(o *Order, owner notify.OwnerSummary) error
	OrderCancellation(o *Order, owner notify.OwnerSummary) error
}

// ItemRequest is one requested line item on order creation.
type ItemRequest struct {
	ProductID     int64           `json:"product_id"`
	Quantity      int             `json:"quantity"`
	Customization json.RawMessage `json:"customization,omitempty"`
}

// CreateInput carries everything needed to build a new order.
type CreateInput struct {
	OwnerID  string
	Delivery Delivery
	Items    []ItemRequest
	// Draft creates the order silently in draft status (guest flow);
	// otherwise the order starts pending and is announced immediately.
	Draft bool
}

// Service owns the order lifecycle: creation with price snapshotting,
// validated status transitions, and the post-commit fan-out and side
// effects.
type Service struct {
	store   Store
	catalog catalog.Lookup
	users   user.Store
	fanout  Publisher
	mailer  Mailer
	pool    *dispatch.Dispatcher
}

func NewService(store Store, cat catalog.Lookup, users user.Store, fanout Publisher, mailer Mailer, pool *dispatch.Dispatcher) *Service {
	return &Service{
		store:   store,
		catalog: cat,
		users:   users,
		fanout:  fanout,
		mailer:  mailer,
		pool:    pool,
	}
}

// Create validates the input, snapshots current catalog prices into line
// items, computes the total and persists everything atomically. A pending
// order is announced post-commit; a draft stays invisible until confirmed.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	if in.Delivery.Street == "" || in.Delivery.HouseNumber == "" || in.Delivery.Location == "" || in.Delivery.Phone == "" {
		return nil, ErrMissingDelivery
	}
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}

	items := make([]Item, 0, len(in.Items))
	for _, req := range in.Items {
		if req.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %d has quantity %d", ErrInvalidQuantity, req.ProductID, req.Quantity)
		}

		product, err := s.catalog.Product(ctx, req.ProductID)
		if err == catalog.ErrNotFound {
			return nil, fmt.Errorf("%w: product %d", ErrProductNotFound, req.ProductID)
		}
		if err != nil {
			return nil, err
		}
		if !product.Available {
			return nil, fmt.Errorf("%w: product %d", ErrProductUnavailable, req.ProductID)
		}

		item := Item{
			ProductID:     product.ID,
			ProductName:   product.Name,
			Quantity:      req.Quantity,
			UnitPrice:     product.Price,
			Customization: req.Customization,
		}
		item.ComputeSubtotal()
		items = append(items, item)
	}

	status := StatusPending
	if in.Draft {
		status = StatusDraft
	}

	now := time.Now()
	o := &Order{
		OwnerID:   in.OwnerID,
		Status:    status,
		Total:     RecomputeTotal(items),
		Delivery:  in.Delivery,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}

	if o.Status != StatusDraft {
		s.announce(ctx, o, notify.ActionCreated)
	}
	return o, nil
}

// Transition drives the order through the lifecycle state machine on behalf
// of actor. actorID identifies the principal when actor is ActorOwner; it is
// ignored for staff and system transitions.
//
// The storage layer serializes transitions per order, so the validation in
// apply always sees the committed current status. On success the event is
// fanned out and side effects are dispatched; their failures never reach the
// caller.
func (s *Service) Transition(ctx context.Context, id int64, target Status, actor Actor, actorID string) (*Order, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, target)
	}

	updated, err := s.store.UpdateStatus(ctx, id, func(o *Order) error {
		if actor == ActorOwner && o.OwnerID != actorID {
			return ErrForbidden
		}
		if err := CanTransition(o.Status, target, actor); err != nil {
			return err
		}
		o.Status = target
		o.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// A non-create save landing in pending is the order's public birth:
	// a draft confirmed by its owner or the guest flow. The outside world
	// never saw the draft, so it is announced as created.
	action := notify.ActionUpdated
	if updated.Status == StatusPending {
		action = notify.ActionCreated
	}
	s.announce(ctx, updated, action)
	return updated, nil
}

// Get retrieves one order, enforcing visibility: the owner always sees it,
// staff see everything except drafts, anyone else is rejected.
func (s *Service) Get(ctx context.Context, id int64, viewerID string, viewerRole user.Role) (*Order, error) {
	o, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.OwnerID == viewerID {
		return o, nil
	}
	if viewerRole.IsStaff() {
		if o.Status == StatusDraft {
			// Drafts are invisible to staff, not merely forbidden.
			return nil, ErrOrderNotFound
		}
		return o, nil
	}
	return nil, ErrForbidden
}

// List returns the orders visible to the viewer: owners get their own
// including drafts, staff get all orders excluding drafts.
func (s *Service) List(ctx context.Context, viewerID string, viewerRole user.Role) ([]*Order, error) {
	if viewerRole.IsStaff() {
		return s.store.ListActive(ctx)
	}
	return s.store.ListByOwner(ctx, viewerID)
}

// announce runs the post-commit fan-out and schedules the detached side
// effects. Every failure here is terminal: logged, never propagated.
func (s *Service) announce(ctx context.Context, o *Order, action notify.Action) {
	owner, err := s.ownerSummary(ctx, o.OwnerID)
	if err != nil {
		log.Printf("[Order] Skipping notification for order %d: owner lookup failed: %v", o.ID, err)
		return
	}

	s.fanout.Publish(ctx, Envelope(action, o, owner))

	if s.mailer == nil || s.pool == nil {
		return
	}
	// Orders are value copies by the time the task runs; the request may
	// long be gone.
	snapshot := *o
	switch {
	case action == notify.ActionCreated:
		s.pool.Dispatch("email.order-confirmation", func(ctx context.Context) error {
			return s.mailer.OrderConfirmation(&snapshot, owner)
		})
	case o.Status == StatusCancelled:
		s.pool.Dispatch("email.order-cancellation", func(ctx context.Context) error {
			return s.mailer.OrderCancellation(&snapshot, owner)
		})
	}
}

func (s *Service) ownerSummary(ctx context.Context, ownerID string) (notify.OwnerSummary, error) {
	p, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return notify.OwnerSummary{}, err
	}
	return notify.OwnerSummary{ID: p.ID, DisplayName: p.Name, Email: p.Email}, nil
}

// Envelope builds the notification envelope for one committed order event.
func Envelope(action notify.Action, o *Order, owner notify.OwnerSummary) notify.Envelope {
	return notify.Envelope{
		Action: action,
		Data: notify.EventData{
			OrderID:         o.ID,
			Status:          string(o.Status),
			Total:           o.Total,
			Owner:           owner,
			DeliveryAddress: o.Delivery.Address(),
			Phone:           o.Delivery.Phone,
			Notes:           o.Delivery.Notes,
			ItemsCount:      o.ItemsCount(),
			CreatedAt:       o.CreatedAt,
			UpdatedAt:       o.UpdatedAt,
		},
	}
}
