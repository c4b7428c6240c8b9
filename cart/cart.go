// Package cart keeps each table session's cart until checkout. Carts are never
// part of the order history; checkout copies the lines into an order and
// clears the cart.
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/yummyfi/yummyfi-backend/models"
)

var (
	ErrItemNotFound   = errors.New("item is not in the cart")
	ErrMissingSession = errors.New("cart session is required")
)

// Item is one cart line: the product as it was when added, plus a quantity.
type Item struct {
	ProductID  string    `json:"product_id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	OfferPrice float64   `json:"offer_price,omitempty"`
	Category   string    `json:"category"`
	IsVeg      bool      `json:"is_veg"`
	ImageURL   string    `json:"image_url,omitempty"`
	Quantity   int       `json:"quantity"`
	AddedAt    time.Time `json:"added_at"`
}

func (i Item) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// FromProduct starts a line for p with quantity 1.
func FromProduct(p models.Product, at time.Time) Item {
	return Item{
		ProductID:  p.ID,
		Name:       p.Name,
		Price:      p.Price,
		OfferPrice: p.OfferPrice,
		Category:   p.Category,
		IsVeg:      p.IsVeg,
		ImageURL:   p.ImageURL,
		Quantity:   1,
		AddedAt:    at,
	}
}

// Total sums the line subtotals.
func Total(items []Item) float64 {
	var total float64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

// Store holds carts keyed by session. Every mutating call returns the cart as
// it is after the change, in the order lines were first added.
type Store interface {
	Items(ctx context.Context, session string) ([]Item, error)
	// Add puts one more of p in the cart.
	Add(ctx context.Context, session string, p models.Product) ([]Item, error)
	// UpdateQuantity adds delta to a line. A change that would take the
	// quantity below 1 is ignored; use Remove to drop a line.
	UpdateQuantity(ctx context.Context, session, productID string, delta int) ([]Item, error)
	Remove(ctx context.Context, session, productID string) ([]Item, error)
	Clear(ctx context.Context, session string) error
	// Take empties the cart and returns what it held, as one step. Of two
	// concurrent takes on a session only one sees the lines.
	Take(ctx context.Context, session string) ([]Item, error)
	// Restore puts taken lines back, merging quantities with lines added since.
	Restore(ctx context.Context, session string, items []Item) error
}
