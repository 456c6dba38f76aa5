package checkout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/cart"
	"github.com/example/dinein/pkg/checkout"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/store/memstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCartStore struct {
	mock.Mock
}

func (m *MockCartStore) FetchActiveCart(ctx context.Context, tableID string) (*models.Cart, error) {
	args := m.Called(ctx, tableID)
	c, _ := args.Get(0).(*models.Cart)
	return c, args.Error(1)
}

func (m *MockCartStore) UpdateCart(ctx context.Context, u models.CartUpdate) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCartStore) Checkout(ctx context.Context, cartID string, method models.PaymentMethod) (*models.Order, error) {
	args := m.Called(ctx, cartID, method)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func TestBuildOrder(t *testing.T) {
	now := time.Date(2026, 3, 1, 19, 30, 0, 0, time.UTC)
	c := models.Cart{ID: "cart-1", TableID: "table-1", Status: models.CartActive}
	lines := []models.CartItem{
		{ItemID: "A", Name: "Item A", UnitPrice: decimal.NewFromInt(100), Quantity: 2},
		{ItemID: "X", Name: "Ghost", UnitPrice: decimal.NewFromInt(10), Quantity: 0},
		{ItemID: "B", Name: "Item B", UnitPrice: decimal.NewFromInt(50), Quantity: 1},
	}

	sub, err := checkout.BuildOrder(c, lines, models.PaymentCash, "T-1", now)
	require.NoError(t, err)

	assert.True(t, sub.Order.TotalAmount.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, sub.Snapshot.ID, sub.Order.CartSnapshotID)
	assert.Equal(t, models.CartCheckedOut, sub.Snapshot.Status)
	require.Len(t, sub.Items, 2)
	for i, item := range sub.Items {
		assert.Equal(t, models.ItemPending, item.Status)
		assert.Equal(t, sub.Order.ID, item.OrderID)
		assert.Equal(t, i+1, item.LineNo)
		assert.Equal(t, "T-1", item.TableLabel)
	}

	frozen, err := models.DecodeLines(sub.Order.ItemsJSON)
	require.NoError(t, err)
	assert.Len(t, frozen, 2)
	assert.Len(t, lines, 3, "input lines untouched")
}

func TestBuildOrderOneItemPerMenuItem(t *testing.T) {
	c := models.Cart{ID: "cart-1", TableID: "table-1", Status: models.CartActive}
	lines := []models.CartItem{
		{ItemID: "A", Name: "Item A", UnitPrice: decimal.NewFromInt(100), Quantity: 1},
		{ItemID: "A", Name: "Item A", UnitPrice: decimal.NewFromInt(100), Quantity: 1},
	}

	sub, err := checkout.BuildOrder(c, lines, models.PaymentUPI, "T-1", time.Now())
	require.NoError(t, err)
	require.Len(t, sub.Items, 1)
	assert.Equal(t, 2, sub.Items[0].Quantity)
	assert.True(t, sub.Order.TotalAmount.Equal(decimal.NewFromInt(200)))
}

func TestBuildOrderRejectsEmpty(t *testing.T) {
	_, err := checkout.BuildOrder(models.Cart{}, nil, models.PaymentCash, "", time.Now())
	assert.EqualError(t, err, checkout.ErrMsgCartEmpty)
}

func TestValidatePaymentMethod(t *testing.T) {
	tests := []struct {
		name     string
		method   models.PaymentMethod
		accepted []models.PaymentMethod
		wantErr  bool
	}{
		{"cash by default", models.PaymentCash, nil, false},
		{"upi by default", models.PaymentUPI, nil, false},
		{"missing", "", nil, true},
		{"unknown", "Cheque", nil, true},
		{"restricted set", models.PaymentCard, []models.PaymentMethod{models.PaymentCash}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkout.ValidatePaymentMethod(tt.method, tt.accepted)
			if tt.wantErr {
				assert.True(t, apperr.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubmitEmptyCartNeverReachesStore(t *testing.T) {
	ctx := context.Background()
	m := &MockCartStore{}
	m.On("FetchActiveCart", mock.Anything, "t1").Return(&models.Cart{ID: "c1", TableID: "t1", ItemsJSON: "[]", Version: 1}, nil)

	engine := cart.New(m, "t1", cart.Options{})
	require.NoError(t, engine.Load(ctx))

	svc := checkout.NewService(m, nil, nil)
	order, err := svc.Submit(ctx, engine, models.PaymentCash)

	assert.Nil(t, order)
	assert.True(t, apperr.IsValidation(err))
	assert.EqualError(t, err, "Cart is empty")
	m.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "UpdateCart", mock.Anything, mock.Anything)
}

func TestSubmitStoreFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	m := &MockCartStore{}
	m.On("FetchActiveCart", mock.Anything, "t1").Return(&models.Cart{ID: "c1", TableID: "t1", ItemsJSON: `[{"id":"A","name":"Item A","price":100,"quantity":1}]`, Version: 1}, nil)
	m.On("UpdateCart", mock.Anything, mock.Anything).Return(int64(2), nil)
	m.On("Checkout", mock.Anything, "c1", models.PaymentUPI).Return(nil, apperr.Store("checkout", errors.New("timeout")))

	engine := cart.New(m, "t1", cart.Options{})
	require.NoError(t, engine.Load(ctx))

	_, err := checkout.NewService(m, nil, nil).Submit(ctx, engine, models.PaymentUPI)
	assert.True(t, apperr.IsStore(err))
	assert.Len(t, engine.Lines(), 1)
	m.AssertExpectations(t)
}

func TestSubmitAgainstStore(t *testing.T) {
	ctx := context.Background()
	s, err := memstore.New()
	require.NoError(t, err)
	table, err := s.CreateTable(ctx, "T-3")
	require.NoError(t, err)

	engine := cart.New(s, table.ID, cart.Options{})
	require.NoError(t, engine.Load(ctx))
	require.NoError(t, engine.AddItem(ctx, models.MenuItemRef{ID: "A", Name: "Item A", Price: decimal.NewFromInt(100)}))
	require.NoError(t, engine.AddItem(ctx, models.MenuItemRef{ID: "A", Name: "Item A", Price: decimal.NewFromInt(100)}))
	require.NoError(t, engine.AddItem(ctx, models.MenuItemRef{ID: "B", Name: "Item B", Price: decimal.NewFromInt(50)}))

	svc := checkout.NewService(s, nil, nil)
	_, err = svc.Submit(ctx, engine, "Barter")
	assert.True(t, apperr.IsValidation(err))

	order, err := svc.Submit(ctx, engine, models.PaymentCash)
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(250)))
	assert.True(t, engine.Empty())

	items, err := s.FetchOrderItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)

	stored, err := s.FetchActiveCart(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, "[]", stored.ItemsJSON)
}
