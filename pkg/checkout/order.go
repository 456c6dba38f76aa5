package checkout

import (
	"slices"
	"time"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/models"
)

const ErrMsgCartEmpty = "Cart is empty"

// Submission is everything a Record Store writes for one checkout.
type Submission struct {
	Order    models.Order
	Items    []models.OrderItem
	Snapshot models.Cart
}

// BuildOrder converts the lines of an active cart into an order with one
// Pending item per line, plus a checked-out copy of the cart that the order
// references. Lines sharing an item id are merged and lines with no quantity
// are dropped.
func BuildOrder(cart models.Cart, lines []models.CartItem, method models.PaymentMethod, tableName string, now time.Time) (*Submission, error) {
	lines = models.MergeLines(lines)
	if len(lines) == 0 {
		return nil, apperr.Validation("", ErrMsgCartEmpty)
	}
	if method == "" {
		return nil, apperr.Validation("payment_method", "Payment method is required")
	}

	itemsJSON, err := models.EncodeLines(lines)
	if err != nil {
		return nil, err
	}
	total := models.SumLines(lines)

	snapshot := models.Cart{
		ID:          models.NewID(),
		TableID:     cart.TableID,
		ItemsJSON:   itemsJSON,
		TotalAmount: total,
		Status:      models.CartCheckedOut,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	order := models.Order{
		ID:             models.NewID(),
		TableID:        cart.TableID,
		CartSnapshotID: snapshot.ID,
		PaymentMethod:  method,
		ItemsJSON:      itemsJSON,
		TotalAmount:    total,
		CreatedAt:      now,
	}

	items := make([]models.OrderItem, 0, len(lines))
	for i, l := range lines {
		items = append(items, models.OrderItem{
			ID:         models.NewID(),
			OrderID:    order.ID,
			TableID:    cart.TableID,
			TableLabel: tableName,
			MenuItemID: l.ItemID,
			Name:       l.Name,
			UnitPrice:  l.UnitPrice,
			Quantity:   l.Quantity,
			LineNo:     i + 1,
			Status:     models.ItemPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	return &Submission{Order: order, Items: items, Snapshot: snapshot}, nil
}

// ValidatePaymentMethod checks method against the accepted set.
func ValidatePaymentMethod(method models.PaymentMethod, accepted []models.PaymentMethod) error {
	if method == "" {
		return apperr.Validation("payment_method", "Payment method is required")
	}
	if len(accepted) == 0 {
		accepted = models.DefaultPaymentMethods
	}
	if !slices.Contains(accepted, method) {
		return apperr.Validation("payment_method", "Unsupported payment method "+string(method))
	}
	return nil
}
