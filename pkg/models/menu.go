package models

import "github.com/shopspring/decimal"

// MenuCategoryAll selects every category.
const MenuCategoryAll = "All"

type MenuItem struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string          `gorm:"type:varchar(100);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	Category  string          `gorm:"type:varchar(50);index" json:"category"`
	Veg       bool            `json:"veg"`
	Available bool            `gorm:"not null" json:"available"`
}

func (MenuItem) TableName() string {
	return "menu_items"
}

// Ref is the part of a menu item a cart line copies.
func (m MenuItem) Ref() MenuItemRef {
	return MenuItemRef{ID: m.ID, Name: m.Name, Price: m.Price}
}

type MenuItemRef struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type DishFeedback struct {
	ID         string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	BillID     string `gorm:"type:varchar(36);not null;index" json:"bill_id"`
	MenuItemID string `gorm:"type:varchar(36);not null" json:"menu_item_id"`
	Rating     int    `json:"rating"`
	Comments   string `gorm:"type:varchar(500)" json:"comments"`
}

func (DishFeedback) TableName() string {
	return "dish_feedback"
}
