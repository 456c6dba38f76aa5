package billing

import (
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/notify"
	"github.com/shopspring/decimal"
)

// Summary is what a console shows for one bill.
type Summary struct {
	BillID        string
	Number        string
	TableName     string
	CustomerName  string
	PaymentMethod models.PaymentMethod
	Status        models.BillStatus
	ItemCount     int
	Lines         []models.CartItem
	Total         decimal.Decimal
	Breakdown     Breakdown
}

// Summarize reads the bill snapshot for display. An unreadable snapshot
// shows as no lines plus a warning notice; the stored totals are kept.
func Summarize(b models.Bill, tableName string, taxRate decimal.Decimal, n notify.Notifier) Summary {
	lines, err := models.DecodeLines(b.ItemsJSON)
	if err != nil && n != nil {
		n.Notify(notify.Notice{
			Level:   notify.LevelWarning,
			Title:   "Warning",
			Message: "Failed to parse order items",
			Err:     err,
		})
	}
	customer := b.CustomerName
	if customer == "" {
		customer = defaultCustomerName
	}
	return Summary{
		BillID:        b.ID,
		Number:        b.Number,
		TableName:     tableName,
		CustomerName:  customer,
		PaymentMethod: b.PaymentMethod,
		Status:        b.Status,
		ItemCount:     b.ItemCount,
		Lines:         lines,
		Total:         b.TotalAmount,
		Breakdown:     BreakdownOf(b.TotalAmount, taxRate),
	}
}
