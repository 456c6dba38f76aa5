package eventbus

import "github.com/example/dinein/pkg/models"

const (
	TopicPaymentRequested = "payment.requested"
	TopicPaymentConfirmed = "payment.confirmed"
	TopicItemPrepared     = "item.prepared"
	TopicCartChanged      = "cart.changed"
)

type PaymentRequested struct {
	Request models.PaymentRequest
}

type PaymentConfirmed struct {
	BillID string
}

type ItemPrepared struct {
	ItemID    string
	TableName string
}

type CartChanged struct {
	CartID    string
	ItemCount int
}
