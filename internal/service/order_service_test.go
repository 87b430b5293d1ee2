package service

import (
	"context"
	"testing"

	"shopadmin/internal/model"
	"shopadmin/internal/repository"
	ws "shopadmin/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeOrderRepo struct {
	orders map[uuid.UUID]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (f *fakeOrderRepo) Create(_ context.Context, o *model.Order) error {
	o.ID = uuid.New()
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *o
	return &copied, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	o, ok := f.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeOrderRepo) List(_ context.Context, _ repository.OrderFilter) ([]model.Order, int64, error) {
	out := make([]model.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

// noTx runs the function directly; repo fakes keep no transactional state.
type noTx struct{}

func (noTx) RunInTx(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }

var (
	_ repository.OrderRepository    = (*fakeOrderRepo)(nil)
	_ repository.TransactionManager = noTx{}
)

func newOrderServiceForTest(repo *fakeOrderRepo) OrderService {
	hub := ws.NewHub()
	go hub.Run()
	return NewOrderService(repo, &auditRecorder{}, noTx{}, hub)
}

func TestCreateOrderComputesTotals(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderServiceForTest(repo)

	order, err := svc.CreateOrder(context.Background(), uuid.NewString(), CreateOrderRequest{
		Discount: "5.50",
		Items: []OrderItemRequest{
			{ProductID: uuid.NewString(), Quantity: 2, UnitPrice: "10.00"},
			{ProductID: uuid.NewString(), Quantity: 1, UnitPrice: "3.25"},
		},
	})
	require.NoError(t, err)

	assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("23.25")))
	assert.True(t, order.Discount.Equal(decimal.RequireFromString("5.50")))
	assert.True(t, order.Total.Equal(decimal.RequireFromString("17.75")))
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.NotEmpty(t, order.Code)
}

func TestCreateOrderRejectsDiscountOverSubtotal(t *testing.T) {
	svc := newOrderServiceForTest(newFakeOrderRepo())

	_, err := svc.CreateOrder(context.Background(), uuid.NewString(), CreateOrderRequest{
		Discount: "100",
		Items: []OrderItemRequest{
			{ProductID: uuid.NewString(), Quantity: 1, UnitPrice: "10.00"},
		},
	})
	require.Error(t, err)
}

func TestUpdateStatusFollowsLifecycle(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderServiceForTest(repo)

	order, err := svc.CreateOrder(context.Background(), uuid.NewString(), CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: uuid.NewString(), Quantity: 1, UnitPrice: "1.00"}},
	})
	require.NoError(t, err)

	for _, status := range []string{
		model.OrderStatusConfirmed,
		model.OrderStatusShipping,
		model.OrderStatusCompleted,
	} {
		updated, err := svc.UpdateStatus(context.Background(), uuid.NewString(), order.ID.String(),
			UpdateOrderStatusRequest{Status: status})
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	// COMPLETED is terminal.
	_, err = svc.UpdateStatus(context.Background(), uuid.NewString(), order.ID.String(),
		UpdateOrderStatusRequest{Status: model.OrderStatusCancelled})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatusRejectsSkippedStates(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newOrderServiceForTest(repo)

	order, err := svc.CreateOrder(context.Background(), uuid.NewString(), CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: uuid.NewString(), Quantity: 1, UnitPrice: "1.00"}},
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), uuid.NewString(), order.ID.String(),
		UpdateOrderStatusRequest{Status: model.OrderStatusCompleted})
	require.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := repo.FindByIDWithItems(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, stored.Status)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	svc := newOrderServiceForTest(newFakeOrderRepo())

	_, err := svc.UpdateStatus(context.Background(), uuid.NewString(), uuid.NewString(),
		UpdateOrderStatusRequest{Status: model.OrderStatusConfirmed})
	require.ErrorIs(t, err, ErrOrderNotFound)
}
