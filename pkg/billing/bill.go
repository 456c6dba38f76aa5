// Package billing derives bills from orders and reconciles their payment at
// the cashier desk.
package billing

import (
	"context"
	"slices"
	"time"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultCustomerName = "Guest"

// Derive builds a Draft bill from the order's frozen lines.
func Derive(order models.Order, customerName string, now time.Time) (*models.Bill, error) {
	lines, err := models.DecodeLines(order.ItemsJSON)
	if err != nil {
		return nil, err
	}
	snapshot, err := models.EncodeLines(lines)
	if err != nil {
		return nil, err
	}
	if customerName == "" {
		customerName = defaultCustomerName
	}
	return &models.Bill{
		ID:            models.NewID(),
		OrderID:       order.ID,
		TableID:       order.TableID,
		CustomerName:  customerName,
		ItemsJSON:     snapshot,
		ItemCount:     models.CountUnits(lines),
		TotalAmount:   models.SumLines(lines),
		PaymentMethod: order.PaymentMethod,
		Status:        models.BillDraft,
		CreatedAt:     now,
	}, nil
}

type Service struct {
	orders           store.OrderStore
	bills            store.BillStore
	customers        store.CustomerStore
	requireDelivered bool
	logger           *zap.Logger
	now              func() time.Time
}

type Config struct {
	// RequireDelivered refuses to bill an order while any item is undelivered.
	RequireDelivered bool
	Logger           *zap.Logger
}

func NewService(s store.RecordStore, cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{
		orders:           s,
		bills:            s,
		customers:        s,
		requireDelivered: cfg.RequireDelivered,
		logger:           cfg.Logger,
		now:              time.Now,
	}
}

// Generate returns the bill of an order, creating it on first call. A bill
// once created is never re-derived.
func (s *Service) Generate(ctx context.Context, orderID string) (*models.Bill, error) {
	existing, err := s.bills.FetchBillForOrder(ctx, orderID)
	if err == nil {
		return existing, nil
	}
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		return nil, err
	}

	order, err := s.orders.FetchOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if s.requireDelivered {
		items, err := s.orders.FetchOrderItems(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if slices.ContainsFunc(items, func(i models.OrderItem) bool { return i.Status != models.ItemDelivered }) {
			return nil, apperr.Validation("order", "All items must be delivered before billing")
		}
	}

	bill, err := Derive(*order, s.customerName(ctx, order.TableID), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.bills.CreateBill(ctx, bill); err != nil {
		if apperr.CodeOf(err) == apperr.CodeConflict {
			return s.bills.FetchBillForOrder(ctx, orderID)
		}
		s.logger.Error("Failed to create bill", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Bill created",
		zap.String("bill_id", bill.ID),
		zap.String("order_id", orderID),
		zap.String("total", bill.TotalAmount.StringFixed(2)))
	return bill, nil
}

func (s *Service) customerName(ctx context.Context, tableID string) string {
	customers, err := s.customers.FetchCustomersByTable(ctx, tableID)
	if err != nil {
		s.logger.Warn("Failed to fetch customers for bill", zap.String("table_id", tableID), zap.Error(err))
		return defaultCustomerName
	}
	if len(customers) == 0 {
		return defaultCustomerName
	}
	return customers[0].Name
}

// Breakdown splits a total into subtotal, tax and grand total for display.
type Breakdown struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Grand    decimal.Decimal
}

func BreakdownOf(subtotal, rate decimal.Decimal) Breakdown {
	tax := subtotal.Mul(rate).Round(2)
	return Breakdown{Subtotal: subtotal, Tax: tax, Grand: subtotal.Add(tax)}
}
