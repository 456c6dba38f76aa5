package models

import "fmt"

type CartStatus string

const (
	CartActive     CartStatus = "Active"
	CartCheckedOut CartStatus = "CheckedOut"
)

func (s CartStatus) Valid() bool {
	return s == CartActive || s == CartCheckedOut
}

// ItemStatus is the preparation status of a single order line.
type ItemStatus string

const (
	ItemPending   ItemStatus = "Pending"
	ItemPreparing ItemStatus = "Preparing"
	ItemPrepared  ItemStatus = "Prepared"
	ItemDelivered ItemStatus = "Delivered"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemPending, ItemPreparing, ItemPrepared, ItemDelivered:
		return true
	}
	return false
}

func ParseItemStatus(s string) (ItemStatus, error) {
	st := ItemStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown item status %q", s)
	}
	return st, nil
}

type BillStatus string

const (
	BillDraft     BillStatus = "Draft"
	BillConfirmed BillStatus = "Confirmed"
)

func (s BillStatus) Valid() bool {
	return s == BillDraft || s == BillConfirmed
}

func ParseBillStatus(s string) (BillStatus, error) {
	st := BillStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown bill status %q", s)
	}
	return st, nil
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "Cash"
	PaymentCard PaymentMethod = "Card"
	PaymentUPI  PaymentMethod = "UPI"
)

// DefaultPaymentMethods is the set offered when none is configured.
var DefaultPaymentMethods = []PaymentMethod{PaymentUPI, PaymentCash, PaymentCard}
