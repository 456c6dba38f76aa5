package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/eventbus"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/notify"
	"github.com/example/dinein/pkg/store"
	"github.com/example/dinein/pkg/store/memstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderStore struct {
	mock.Mock
	store.OrderStore
}

func (m *MockOrderStore) FetchActiveOrderItems(ctx context.Context) ([]models.OrderItem, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]models.OrderItem)
	return items, args.Error(1)
}

func (m *MockOrderStore) MarkItemPrepared(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOrderStore) MarkItemDelivered(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func newClock() func() time.Time {
	t := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// seed places one order per table, each with the given lines.
func seed(t *testing.T, s *memstore.Store, tables ...string) {
	t.Helper()
	ctx := context.Background()
	for _, name := range tables {
		table, err := s.CreateTable(ctx, name)
		require.NoError(t, err)
		c, err := s.FetchActiveCart(ctx, table.ID)
		require.NoError(t, err)
		raw, err := models.EncodeLines([]models.CartItem{
			{ItemID: "A", Name: "Item A", UnitPrice: decimal.NewFromInt(100), Quantity: 2},
			{ItemID: "B", Name: "Item B", UnitPrice: decimal.NewFromInt(50), Quantity: 1},
		})
		require.NoError(t, err)
		_, err = s.UpdateCart(ctx, models.CartUpdate{CartID: c.ID, ItemsJSON: raw})
		require.NoError(t, err)
		_, err = s.Checkout(ctx, c.ID, models.PaymentCash)
		require.NoError(t, err)
	}
}

func newStore(t *testing.T) *memstore.Store {
	t.Helper()
	s, err := memstore.New(memstore.WithClock(newClock()))
	require.NoError(t, err)
	return s
}

func TestKitchenCountsAndFilters(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seed(t, s, "T-1", "T-2")

	bus := eventbus.New(nil)
	var announced []eventbus.ItemPrepared
	bus.Subscribe(eventbus.TopicItemPrepared, func(p any) error {
		announced = append(announced, p.(eventbus.ItemPrepared))
		return nil
	})

	k := NewKitchenBoard(s, bus, Options{})
	require.NoError(t, k.Refresh(ctx))
	assert.Equal(t, StatusCounts{Pending: 4}, k.Counts())
	assert.Equal(t, []string{AllTables, "T-1", "T-2"}, k.Tables())

	t1 := k.Filter("T-1", "")
	require.Len(t, t1, 2)
	assert.Equal(t, "Item B", t1[0].Name, "newest first")

	require.NoError(t, k.MarkPrepared(ctx, t1[1].ID))
	assert.Equal(t, StatusCounts{Pending: 3, Prepared: 1}, k.Counts())
	require.Len(t, announced, 1)
	assert.Equal(t, "T-1", announced[0].TableName)

	require.NoError(t, s.MarkItemDelivered(ctx, t1[1].ID))
	require.NoError(t, k.Refresh(ctx))
	assert.Equal(t, StatusCounts{Pending: 3}, k.Counts())

	prepared := k.Filter(AllTables, models.ItemPrepared)
	require.Len(t, prepared, 1)
	assert.Equal(t, models.ItemDelivered, prepared[0].Status)
	assert.False(t, CanMarkPrepared(prepared[0]))
	assert.Len(t, k.Filter("", models.ItemPending), 3)
}

func TestKitchenRejectsIllegalWithoutStoreCall(t *testing.T) {
	ctx := context.Background()
	m := &MockOrderStore{}
	m.On("FetchActiveOrderItems", mock.Anything).Return([]models.OrderItem{
		{ID: "i1", Status: models.ItemPrepared},
		{ID: "i2", Status: models.ItemDelivered},
	}, nil)

	k := NewKitchenBoard(m, nil, Options{})
	require.NoError(t, k.Refresh(ctx))

	assert.True(t, apperr.IsStateTransition(k.MarkPrepared(ctx, "i1")))
	assert.True(t, apperr.IsStateTransition(k.MarkPrepared(ctx, "i2")))
	assert.True(t, apperr.IsValidation(k.MarkPrepared(ctx, "nope")))
	m.AssertNotCalled(t, "MarkItemPrepared", mock.Anything, mock.Anything)
}

func TestKitchenStoreFailureNotifies(t *testing.T) {
	ctx := context.Background()
	m := &MockOrderStore{}
	m.On("FetchActiveOrderItems", mock.Anything).Return([]models.OrderItem{{ID: "i1", Status: models.ItemPending}}, nil)
	m.On("MarkItemPrepared", mock.Anything, "i1").Return(apperr.Store("markItemPrepared", errors.New("down")))
	rec := &notify.Recorder{}

	k := NewKitchenBoard(m, nil, Options{Notifier: rec})
	require.NoError(t, k.Refresh(ctx))

	assert.True(t, apperr.IsStore(k.MarkPrepared(ctx, "i1")))
	assert.Equal(t, 1, rec.Count(notify.LevelError))
	assert.Equal(t, models.ItemPending, k.Items()[0].Status)
}

func TestServiceBoard(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seed(t, s, "T-1")

	k := NewKitchenBoard(s, nil, Options{})
	svc := NewServiceBoard(s, Options{})
	require.NoError(t, k.Refresh(ctx))
	require.NoError(t, svc.Refresh(ctx))
	assert.Empty(t, svc.Filter(""))

	items := k.Items()
	err := svc.MarkDelivered(ctx, items[0].ID)
	assert.True(t, apperr.IsStateTransition(err), "pending items cannot be delivered")

	require.NoError(t, k.MarkPrepared(ctx, items[0].ID))
	require.NoError(t, k.MarkPrepared(ctx, items[1].ID))

	assert.True(t, apperr.IsStateTransition(svc.MarkDelivered(ctx, items[0].ID)), "stale snapshot still shows Pending")
	require.NoError(t, svc.Refresh(ctx))
	require.NoError(t, svc.MarkDelivered(ctx, items[0].ID))

	assert.Len(t, svc.Filter(models.ItemDelivered), 1)
	assert.Len(t, svc.Filter(models.ItemPrepared), 1)
	assert.Len(t, svc.Filter(""), 2)

	require.NoError(t, svc.UndoDelivery(ctx, items[0].ID))
	assert.Len(t, svc.Filter(models.ItemPrepared), 2)
	assert.True(t, apperr.IsStateTransition(svc.UndoDelivery(ctx, items[0].ID)))
}
