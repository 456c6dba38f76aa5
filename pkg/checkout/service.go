// Package checkout turns a customer's cart into an order.
package checkout

import (
	"context"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/store"
	"go.uber.org/zap"
)

// Cart is the customer-side cart being submitted.
type Cart interface {
	CartID() string
	Empty() bool
	Flush()
	Save(ctx context.Context) error
	Reset()
	Load(ctx context.Context) error
}

type Service struct {
	store    store.CartStore
	accepted []models.PaymentMethod
	logger   *zap.Logger
}

func NewService(s store.CartStore, accepted []models.PaymentMethod, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, accepted: accepted, logger: logger}
}

// Submit validates the cart and payment method, writes the latest cart,
// and checks it out. On success the local cart is emptied and re-read.
func (s *Service) Submit(ctx context.Context, c Cart, method models.PaymentMethod) (*models.Order, error) {
	if c.Empty() {
		return nil, apperr.Validation("", ErrMsgCartEmpty)
	}
	if err := ValidatePaymentMethod(method, s.accepted); err != nil {
		return nil, err
	}

	c.Flush()
	if err := c.Save(ctx); err != nil {
		s.logger.Error("Failed to save cart before checkout", zap.String("cart_id", c.CartID()), zap.Error(err))
		return nil, err
	}

	order, err := s.store.Checkout(ctx, c.CartID(), method)
	if err != nil {
		s.logger.Error("Failed to check out cart", zap.String("cart_id", c.CartID()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("table_id", order.TableID),
		zap.String("payment_method", string(order.PaymentMethod)),
		zap.String("total", order.TotalAmount.StringFixed(2)))

	c.Reset()
	if err := c.Load(ctx); err != nil {
		s.logger.Warn("Failed to reload cart after checkout", zap.Error(err))
	}
	return order, nil
}
