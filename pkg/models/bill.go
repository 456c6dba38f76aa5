package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Bill struct {
	ID            string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Number        string          `gorm:"type:varchar(20);uniqueIndex" json:"number"`
	OrderID       string          `gorm:"type:varchar(36);not null;uniqueIndex" json:"order_id"`
	TableID       string          `gorm:"type:varchar(36);index" json:"table_id"`
	CustomerName  string          `gorm:"type:varchar(100)" json:"customer_name"`
	ItemsJSON     string          `gorm:"column:items;type:text" json:"items"`
	ItemCount     int             `json:"item_count"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2)" json:"total_amount"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(10)" json:"payment_method"`
	Status        BillStatus      `gorm:"type:varchar(20);default:'Draft'" json:"status"`
	Version       int64           `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Bill) TableName() string {
	return "bills"
}

// PaymentRequest is held only in the cashier console's memory.
type PaymentRequest struct {
	BillID      string    `json:"bill_id"`
	TableID     string    `json:"table_id"`
	TableName   string    `json:"table_name"`
	RequestedAt time.Time `json:"requested_at"`
}
