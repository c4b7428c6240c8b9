package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a menu entry. Price is the selling price; OfferPrice is the
// discount amount shown on the card, so the pre-discount price is Price+OfferPrice.
type Product struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Price       float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	OfferPrice  float64   `gorm:"type:decimal(10,2);not null;default:0.00" json:"offer_price,omitempty"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"type:varchar(100);not null;index" json:"category"`
	ImageURL    string    `gorm:"type:varchar(512)" json:"image_url"`
	ImageFocus  int       `gorm:"default:50" json:"image_focus"`
	IsVeg       bool      `json:"is_veg"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// OriginalPrice is the price before the offer discount.
func (p Product) OriginalPrice() float64 {
	return p.Price + p.OfferPrice
}

// DiscountPercent rounds the offer to a whole percentage of the original price.
func (p Product) DiscountPercent() int {
	if p.OfferPrice <= 0 {
		return 0
	}
	return int(p.OfferPrice/p.OriginalPrice()*100 + 0.5)
}

// Categories offered on the menu, in display order.
var Categories = []string{"Main Course", "Rice & Biryani", "Starters", "Breads", "Desserts"}
