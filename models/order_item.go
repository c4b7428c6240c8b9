package models

import (
	"time"
)

// OrderItem is a product copied by value into an order at checkout, so later
// catalog edits never change historical orders.
type OrderItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    string    `gorm:"type:varchar(36);not null;index" json:"order_id"`
	ProductID  string    `gorm:"type:varchar(36);not null" json:"product_id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	UnitPrice  float64   `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	OfferPrice float64   `gorm:"type:decimal(10,2);not null;default:0.00" json:"offer_price"`
	Category   string    `gorm:"type:varchar(100)" json:"category"`
	IsVeg      bool      `json:"is_veg"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (i OrderItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}
