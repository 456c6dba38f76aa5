package repository

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/config"
	"github.com/example/dinein/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Runs against a real MySQL when DINE_TEST_MYSQL_HOST is set.
func mysqlStore(t *testing.T) *GormStore {
	t.Helper()
	host := os.Getenv("DINE_TEST_MYSQL_HOST")
	if host == "" {
		t.Skip("DINE_TEST_MYSQL_HOST not set")
	}
	cfg := &config.MySQLConfig{
		Host:         host,
		Port:         3306,
		Username:     "root",
		Password:     os.Getenv("DINE_TEST_MYSQL_PASSWORD"),
		Database:     "dinein_test",
		MaxIdleConns: 2,
		MaxOpenConns: 4,
	}
	s, err := NewMySQLStore(cfg, NewLogMailer(zap.NewNop()), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGormStoreOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	s := mysqlStore(t)

	table, err := s.CreateTable(ctx, "")
	require.NoError(t, err)
	_, err = s.CreateCustomer(ctx, models.CustomerFields{TableID: table.ID, Name: "Asha"})
	require.NoError(t, err)

	cart, err := s.FetchActiveCart(ctx, table.ID)
	require.NoError(t, err)
	raw, err := models.EncodeLines([]models.CartItem{
		{ItemID: "A", Name: "A", UnitPrice: decimal.NewFromInt(100), Quantity: 2},
		{ItemID: "B", Name: "B", UnitPrice: decimal.NewFromInt(50), Quantity: 1},
	})
	require.NoError(t, err)
	v, err := s.UpdateCart(ctx, models.CartUpdate{CartID: cart.ID, ItemsJSON: raw, Total: decimal.NewFromInt(250), IfVersion: cart.Version})
	require.NoError(t, err)
	assert.Equal(t, cart.Version+1, v)

	_, err = s.UpdateCart(ctx, models.CartUpdate{CartID: cart.ID, ItemsJSON: raw, Total: decimal.NewFromInt(250), IfVersion: cart.Version})
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

	order, err := s.Checkout(ctx, cart.ID, models.PaymentCash)
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(250)))

	items, err := s.FetchOrderItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	err = s.MarkItemDelivered(ctx, items[0].ID)
	assert.True(t, apperr.IsStateTransition(err))
	require.NoError(t, s.MarkItemPrepared(ctx, items[0].ID))
	require.NoError(t, s.MarkItemDelivered(ctx, items[0].ID))

	bill := &models.Bill{OrderID: order.ID, TableID: table.ID, TotalAmount: order.TotalAmount, Status: models.BillDraft}
	require.NoError(t, s.CreateBill(ctx, bill))
	err = s.CreateBill(ctx, &models.Bill{OrderID: order.ID, Status: models.BillDraft})
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

	require.NoError(t, s.UpdateBillStatus(ctx, bill.ID, models.BillConfirmed, 0))
	active, err := s.FetchActiveOrderItems(ctx)
	require.NoError(t, err)
	for _, it := range active {
		assert.NotEqual(t, order.ID, it.OrderID)
	}

	_, err = s.FetchOrder(ctx, "missing")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestGormStoreConcurrentBillNumbers(t *testing.T) {
	ctx := context.Background()
	s := mysqlStore(t)

	raw, err := models.EncodeLines([]models.CartItem{
		{ItemID: "A", Name: "A", UnitPrice: decimal.NewFromInt(100), Quantity: 1},
	})
	require.NoError(t, err)

	orders := make([]*models.Order, 6)
	for i := range orders {
		table, err := s.CreateTable(ctx, "")
		require.NoError(t, err)
		cart, err := s.FetchActiveCart(ctx, table.ID)
		require.NoError(t, err)
		_, err = s.UpdateCart(ctx, models.CartUpdate{CartID: cart.ID, ItemsJSON: raw, Total: decimal.NewFromInt(100)})
		require.NoError(t, err)
		orders[i], err = s.Checkout(ctx, cart.ID, models.PaymentUPI)
		require.NoError(t, err)
	}

	bills := make([]*models.Bill, len(orders))
	errs := make([]error, len(orders))
	var wg sync.WaitGroup
	for i, o := range orders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bills[i] = &models.Bill{OrderID: o.ID, TableID: o.TableID, TotalAmount: o.TotalAmount, Status: models.BillDraft}
			errs[i] = s.CreateBill(ctx, bills[i])
		}()
	}
	wg.Wait()

	numbers := map[string]bool{}
	for i := range bills {
		require.NoError(t, errs[i])
		assert.True(t, strings.HasPrefix(bills[i].Number, "BILL-"))
		numbers[bills[i].Number] = true
	}
	assert.Len(t, numbers, len(orders))
}

func TestGormStoreConcurrentDefaultTableNames(t *testing.T) {
	ctx := context.Background()
	s := mysqlStore(t)

	names := make([]string, 6)
	errs := make([]error, len(names))
	var wg sync.WaitGroup
	for i := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table, err := s.CreateTable(ctx, "")
			if err == nil {
				names[i] = table.DisplayName
			}
			errs[i] = err
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for i, n := range names {
		require.NoError(t, errs[i])
		seen[n] = true
	}
	assert.Len(t, seen, len(names))
}
