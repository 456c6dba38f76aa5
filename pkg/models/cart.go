package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TableID     string          `gorm:"type:varchar(36);not null;index" json:"table_id"`
	ItemsJSON   string          `gorm:"column:items;type:text" json:"items"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2)" json:"total_amount"`
	Status      CartStatus      `gorm:"type:varchar(20);default:'Active'" json:"status"`
	Version     int64           `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem is one line of a cart. Orders and bills freeze copies of these.
type CartItem struct {
	ItemID    string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (c CartItem) LineTotal() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// CartUpdate replaces the items blob and total of a cart. IfVersion of zero
// writes unconditionally; any other value must match the stored version.
type CartUpdate struct {
	CartID    string          `json:"cart_id"`
	ItemsJSON string          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	IfVersion int64           `json:"if_version,omitempty"`
}
