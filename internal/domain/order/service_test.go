package order_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/menu-orders/internal/catalog"
	"github.com/example/menu-orders/internal/dispatch"
	"github.com/example/menu-orders/internal/domain/order"
	"github.com/example/menu-orders/internal/domain/user"
	"github.com/example/menu-orders/internal/notify"
	"github.com/example/menu-orders/internal/storage/mocks"
)

// capturePublisher records every envelope the service fans out.
type capturePublisher struct {
	mu        sync.Mutex
	envelopes []notify.Envelope
}

func (c *capturePublisher) Publish(ctx context.Context, env notify.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.envelopes = append(c.envelopes, env)
}

func (c *capturePublisher) all() []notify.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]notify.Envelope, len(c.envelopes))
	copy(out, c.envelopes)
	return out
}

// fakeMailer records which emails were requested.
type fakeMailer struct {
	mu            sync.Mutex
	confirmations []int64
	cancellations []int64
}

func (f *fakeMailer) OrderConfirmation(o *order.Order, owner notify.OwnerSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmations = append(f.confirmations, o.ID)
	return nil
}

func (f *fakeMailer) OrderCancellation(o *order.Order, owner notify.OwnerSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancellations = append(f.cancellations, o.ID)
	return nil
}

type fixture struct {
	store   *mocks.MockOrderStore
	catalog *mocks.MockCatalog
	users   *mocks.MockUserStore
	fanout  *capturePublisher
	mailer  *fakeMailer
	pool    *dispatch.Dispatcher
	service *order.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:   mocks.NewMockOrderStore(),
		catalog: mocks.NewMockCatalog(),
		users:   mocks.NewMockUserStore(),
		fanout:  &capturePublisher{},
		mailer:  &fakeMailer{},
		pool:    dispatch.New(2, 16, time.Second),
	}
	f.catalog.Add(catalog.Product{ID: 1, Name: "Margherita", Price: decimal.RequireFromString("10.00"), Available: true})
	f.catalog.Add(catalog.Product{ID: 2, Name: "Tiramisu", Price: decimal.RequireFromString("5.00"), Available: true})
	f.catalog.Add(catalog.Product{ID: 3, Name: "Calzone", Price: decimal.RequireFromString("12.00"), Available: false})
	f.users.Seed(&user.Principal{ID: "owner-1", Email: "anna@example.com", Name: "Anna", Role: user.RoleCustomer})

	f.service = order.NewService(f.store, f.catalog, f.users, f.fanout, f.mailer, f.pool)
	t.Cleanup(f.pool.Close)
	return f
}

func validInput() order.CreateInput {
	return order.CreateInput{
		OwnerID: "owner-1",
		Delivery: order.Delivery{
			Street:      "Calle Principal",
			HouseNumber: "12",
			Location:    "Ardales",
			Phone:       "+34600000000",
		},
		Items: []order.ItemRequest{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	}
}

// ============================================
// Create: validation
// ============================================

func TestService_Create_MissingDelivery(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Delivery.Street = ""

	_, err := f.service.Create(context.Background(), in)

	assert.ErrorIs(t, err, order.ErrMissingDelivery)
	assert.Equal(t, 0, f.store.CreateCalls)
}

func TestService_Create_NoItems(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Items = nil

	_, err := f.service.Create(context.Background(), in)

	assert.ErrorIs(t, err, order.ErrNoItems)
}

func TestService_Create_InvalidQuantity(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Items[0].Quantity = 0

	_, err := f.service.Create(context.Background(), in)

	assert.ErrorIs(t, err, order.ErrInvalidQuantity)
}

func TestService_Create_ProductNotFound(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Items[0].ProductID = 999

	_, err := f.service.Create(context.Background(), in)

	assert.ErrorIs(t, err, order.ErrProductNotFound)
}

func TestService_Create_ProductUnavailable(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Items = append(in.Items, order.ItemRequest{ProductID: 3, Quantity: 1})

	_, err := f.service.Create(context.Background(), in)

	assert.ErrorIs(t, err, order.ErrProductUnavailable)
	assert.Equal(t, 0, f.store.CreateCalls)
}

// ============================================
// Create: price snapshot and total
// ============================================

func TestService_Create_SnapshotsPricesAndTotal(t *testing.T) {
	f := newFixture(t)

	o, err := f.service.Create(context.Background(), validInput())
	require.NoError(t, err)

	require.Len(t, o.Items, 2)
	assert.Equal(t, "Margherita", o.Items[0].ProductName)
	assert.True(t, o.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, o.Items[0].Subtotal.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, o.Items[1].Subtotal.Equal(decimal.RequireFromString("5.00")))
	assert.True(t, o.Total.Equal(decimal.RequireFromString("25.00")))
	assert.Equal(t, order.StatusPending, o.Status)
}

func TestService_Create_SnapshotSurvivesCatalogChange(t *testing.T) {
	f := newFixture(t)

	o, err := f.service.Create(context.Background(), validInput())
	require.NoError(t, err)

	// Catalog price changes after the order is placed
	f.catalog.Add(catalog.Product{ID: 1, Name: "Margherita", Price: decimal.RequireFromString("99.00"), Available: true})

	stored, err := f.store.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, stored.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, stored.Total.Equal(decimal.RequireFromString("25.00")))
}

// ============================================
// Create: announcement
// ============================================

func TestService_Create_PendingIsAnnounced(t *testing.T) {
	f := newFixture(t)

	o, err := f.service.Create(context.Background(), validInput())
	require.NoError(t, err)

	envs := f.fanout.all()
	require.Len(t, envs, 1)
	assert.Equal(t, notify.ActionCreated, envs[0].Action)
	assert.Equal(t, o.ID, envs[0].Data.OrderID)
	assert.Equal(t, "pending", envs[0].Data.Status)
	assert.Equal(t, "anna@example.com", envs[0].Data.Owner.Email)
	assert.Equal(t, "Calle Principal, 12, Ardales", envs[0].Data.DeliveryAddress)
	assert.Equal(t, 3, envs[0].Data.ItemsCount)
}

func TestService_Create_DraftIsSilent(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Draft = true

	o, err := f.service.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDraft, o.Status)

	f.pool.Close()
	assert.Empty(t, f.fanout.all())
	assert.Empty(t, f.mailer.confirmations)
}

func TestService_Create_DispatchesConfirmationEmail(t *testing.T) {
	f := newFixture(t)

	o, err := f.service.Create(context.Background(), validInput())
	require.NoError(t, err)

	f.pool.Close()
	assert.Equal(t, []int64{o.ID}, f.mailer.confirmations)
	assert.Empty(t, f.mailer.cancellations)
}

// ============================================
// Transition
// ============================================

func TestService_Transition_DraftConfirmedBySystemAnnouncedAsCreated(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Draft = true
	o, err := f.service.Create(context.Background(), in)
	require.NoError(t, err)

	updated, err := f.service.Transition(context.Background(), o.ID, order.StatusPending, order.ActorSystem, "")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, updated.Status)

	envs := f.fanout.all()
	require.Len(t, envs, 1)
	assert.Equal(t, notify.ActionCreated, envs[0].Action, "a draft going pending is the order's public birth")
}

func TestService_Transition_StaffUpdateAnnouncedAsUpdated(t *testing.T) {
	f := newFixture(t)
	o, err := f.service.Create(context.Background(), validInput())
	require.NoError(t, err)

	updated, err := f.service.Transition(context.Background(), o.ID, order.StatusConfirmed, order.ActorStaff, "")
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, updated.Status)

	envs := f.fanout.all()
	require.Len(t, envs, 2)
	assert.Equal(t, notify.ActionUpdated, envs[1].Action)
	assert.Equal(t, "confirmed", envs[1].Data.Status)
}

func TestService_Transition_OwnerCancelDispatchesCancellationEmail(t *testing.T) {
	f := newFixture(t)
	o, err := f.service.Create(context.Background(), validInput())
	require.NoError(t, err)

	_, err = f.service.Transition(context.Background(), o.ID, order.StatusCancelled, order.ActorOwner, "owner-1")
	require.NoError(t, err)

	f.pool.Close()
	assert.Equal(t, []int64{o.ID}, f.mailer.cancellations)
}

func TestService_Transition_ForeignOwnerRejected(t *testing.T) {
	f := newFixture(t)
	o, err := f.service.Create(context.Background(), validInput())
	require.NoError(t, err)

	_, err = f.service.Transition(context.Background(), o.ID, order.StatusCancelled, order.ActorOwner, "somebody-else")
	assert.ErrorIs(t, err, order.ErrForbidden)

	stored, err := f.store.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, stored.Status, "rejected transition must not change status")
}

func TestService_Transition_OwnerCannotCancelCompleted(t *testing.T) {
	f := newFixture(t)
	o, err := f.service.Create(context.Background(), validInput())
	require.NoError(t, err)
	_, err = f.service.Transition(context.Background(), o.ID, order.StatusCompleted, order.ActorStaff, "")
	require.NoError(t, err)

	_, err = f.service.Transition(context.Background(), o.ID, order.StatusCancelled, order.ActorOwner, "owner-1")
	assert.ErrorIs(t, err, order.ErrForbiddenTransition)
}

func TestService_Transition_UnknownTarget(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Transition(context.Background(), 1, order.Status("shipped"), order.ActorStaff, "")
	assert.ErrorIs(t, err, order.ErrUnknownStatus)
}

func TestService_Transition_OrderNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Transition(context.Background(), 404, order.StatusCancelled, order.ActorStaff, "")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

// ============================================
// Visibility
// ============================================

func TestService_Get_OwnerSeesOwnDraft(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Draft = true
	o, err := f.service.Create(context.Background(), in)
	require.NoError(t, err)

	got, err := f.service.Get(context.Background(), o.ID, "owner-1", user.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
}

func TestService_Get_StaffCannotSeeDraft(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Draft = true
	o, err := f.service.Create(context.Background(), in)
	require.NoError(t, err)

	_, err = f.service.Get(context.Background(), o.ID, "staff-1", user.RoleStaff)
	assert.ErrorIs(t, err, order.ErrOrderNotFound, "drafts are invisible to staff, not merely forbidden")
}

func TestService_Get_StaffSeesPending(t *testing.T) {
	f := newFixture(t)
	o, err := f.service.Create(context.Background(), validInput())
	require.NoError(t, err)

	got, err := f.service.Get(context.Background(), o.ID, "staff-1", user.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
}

func TestService_Get_StrangerForbidden(t *testing.T) {
	f := newFixture(t)
	o, err := f.service.Create(context.Background(), validInput())
	require.NoError(t, err)

	_, err = f.service.Get(context.Background(), o.ID, "somebody-else", user.RoleCustomer)
	assert.ErrorIs(t, err, order.ErrForbidden)
}

func TestService_List_StaffExcludesDrafts(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Create(context.Background(), validInput())
	require.NoError(t, err)
	in := validInput()
	in.Draft = true
	_, err = f.service.Create(context.Background(), in)
	require.NoError(t, err)

	staffList, err := f.service.List(context.Background(), "staff-1", user.RoleStaff)
	require.NoError(t, err)
	assert.Len(t, staffList, 1)

	ownerList, err := f.service.List(context.Background(), "owner-1", user.RoleCustomer)
	require.NoError(t, err)
	assert.Len(t, ownerList, 2)
}
