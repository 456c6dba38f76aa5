package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID             string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TableID        string          `gorm:"type:varchar(36);not null;index" json:"table_id"`
	CartSnapshotID string          `gorm:"type:varchar(36)" json:"cart_snapshot_id"`
	PaymentMethod  PaymentMethod   `gorm:"type:varchar(10)" json:"payment_method"`
	ItemsJSON      string          `gorm:"column:items;type:text" json:"items"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(10,2)" json:"total_amount"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID         string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID    string          `gorm:"type:varchar(36);not null;index" json:"order_id"`
	TableID    string          `gorm:"type:varchar(36);index" json:"table_id"`
	TableLabel string          `gorm:"type:varchar(50)" json:"table_name"`
	MenuItemID string          `gorm:"type:varchar(36)" json:"menu_item_id"`
	Name       string          `gorm:"type:varchar(100)" json:"name"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2)" json:"unit_price"`
	Quantity   int             `json:"quantity"`
	LineNo     int             `json:"line_no"`
	Status     ItemStatus      `gorm:"type:varchar(20);default:'Pending';index" json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
