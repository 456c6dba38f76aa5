package console

import (
	"github.com/example/dinein/pkg/billing"
	"github.com/example/dinein/pkg/dashboard"
	"github.com/example/dinein/pkg/feedback"
	"github.com/example/dinein/pkg/models"
	"github.com/shopspring/decimal"
)

// Replies shared by every console.
type Ack struct{}

type Failure struct {
	Err error
}

// Customer console

type LoadCart struct{}

type BrowseMenu struct {
	Category string
}

type Menu struct {
	Items []models.MenuItem
}

type AddToCart struct {
	Item models.MenuItemRef
}

type RemoveOne struct {
	ItemID string
}

type SetQuantity struct {
	ItemID   string
	Quantity int
}

type ClearCart struct{}

type CartView struct {
	CartID    string
	Lines     []models.CartItem
	Total     decimal.Decimal
	ItemCount int
	Version   int64
}

type PlaceOrder struct {
	Method models.PaymentMethod
}

type OrderPlaced struct {
	Order models.Order
}

// RequestBill generates the bill of an order and hands it to the cashier.
type RequestBill struct {
	OrderID string
}

type BillReady struct {
	Bill    models.Bill
	Summary billing.Summary
	// Queued is false when no cashier console received the request.
	Queued bool
}

type GetBill struct{}

type EmailBill struct {
	Address string
}

type RateDishes struct {
	Ratings map[string]feedback.Rating
}

// Kitchen and service consoles

type RefreshItems struct{}

type FilterItems struct {
	Table  string
	Status models.ItemStatus
}

type Items struct {
	Items []models.OrderItem
}

type KitchenView struct {
	Counts dashboard.StatusCounts
	Tables []string
	Items  []models.OrderItem
}

type MarkPrepared struct {
	ItemID string
}

type MarkDelivered struct {
	ItemID string
}

type UndoDelivery struct {
	ItemID string
}

// Cashier console

type ListPayments struct{}

type Payments struct {
	Pending []models.PaymentRequest
}

type ConfirmPayment struct {
	BillID string
}

// Host console

type SeatCustomer struct {
	Fields models.CustomerFields
	// AnyTable seats the party at a random free table when Fields.TableID
	// is empty.
	AnyTable bool
}

type Seated struct {
	Customer models.Customer
	Table    models.Table
}

type ReleaseCustomer struct {
	CustomerID string
}

type ListTables struct {
	// Visible hides disabled tables.
	Visible bool
}

type Tables struct {
	Tables []models.Table
}

// internal notifications delivered from bus handlers
// ping is answered with Ack once the console has handled Started.
type ping struct{}

type paymentConfirmed struct {
	BillID string
}

type itemPrepared struct {
	ItemID string
}
