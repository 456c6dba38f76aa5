// Package store declares the Record Store contract shared by every console.
//
// Implementations return *apperr.StoreError for every failure and hand out
// copies: mutating a returned record never changes stored state.
package store

import (
	"context"

	"github.com/example/dinein/pkg/models"
)

type TableStore interface {
	FetchTables(ctx context.Context) ([]models.Table, error)
	FetchTable(ctx context.Context, id string) (*models.Table, error)
	CreateTable(ctx context.Context, displayName string) (*models.Table, error)
	UpdateTable(ctx context.Context, id string, fields models.TableFields) error
	DeleteTable(ctx context.Context, id string) error
}

type CustomerStore interface {
	FetchCustomersByTable(ctx context.Context, tableID string) ([]models.Customer, error)
	// CreateCustomer inserts the customer and marks its table occupied in
	// the same write.
	CreateCustomer(ctx context.Context, fields models.CustomerFields) (*models.Customer, error)
	UpdateCustomers(ctx context.Context, updates []models.CustomerUpdate) error
	// UnassignCustomer detaches the customer; the table becomes free when no
	// customer remains.
	UnassignCustomer(ctx context.Context, customerID string) error
}

type CartStore interface {
	// FetchActiveCart returns the table's active cart, creating an empty one
	// on first use.
	FetchActiveCart(ctx context.Context, tableID string) (*models.Cart, error)
	// UpdateCart replaces the items blob and returns the new version.
	UpdateCart(ctx context.Context, u models.CartUpdate) (int64, error)
	// Checkout turns the cart into an order with one Pending item per line
	// and resets the cart to empty.
	Checkout(ctx context.Context, cartID string, method models.PaymentMethod) (*models.Order, error)
}

type OrderStore interface {
	FetchOrder(ctx context.Context, id string) (*models.Order, error)
	FetchOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	// FetchActiveOrderItems lists items of orders not yet settled by a
	// confirmed bill.
	FetchActiveOrderItems(ctx context.Context) ([]models.OrderItem, error)
	MarkItemPrepared(ctx context.Context, itemID string) error
	MarkItemDelivered(ctx context.Context, itemID string) error
	UndoItemDelivery(ctx context.Context, itemID string) error
}

type BillStore interface {
	FetchBillForOrder(ctx context.Context, orderID string) (*models.Bill, error)
	CreateBill(ctx context.Context, bill *models.Bill) error
	// UpdateBillStatus sets the status. ifVersion of zero writes
	// unconditionally.
	UpdateBillStatus(ctx context.Context, billID string, status models.BillStatus, ifVersion int64) error
	SendBillEmail(ctx context.Context, billID, address string) error
}

type MenuStore interface {
	FetchMenuItems(ctx context.Context, category string) ([]models.MenuItem, error)
	SubmitDishFeedback(ctx context.Context, fb models.DishFeedback) error
}

// RecordStore is the full set of operations a console may call.
type RecordStore interface {
	TableStore
	CustomerStore
	CartStore
	OrderStore
	BillStore
	MenuStore
}

// Mailer delivers a bill by email. Transport is outside this module.
type Mailer interface {
	SendBill(ctx context.Context, bill *models.Bill, address string) error
}
