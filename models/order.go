package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// AllStatuses lists every order status in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusReady,
	StatusCompleted,
	StatusCancelled,
}

// ParseStatus accepts a status name in any letter case.
func ParseStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllStatuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// Title returns the status with an upper-case first letter, e.g. "Confirmed".
func (s OrderStatus) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Actor records who cancelled an order.
type Actor string

const (
	ActorUser  Actor = "user"
	ActorAdmin Actor = "admin"
)

type Order struct {
	ID            string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	TableNumber   string      `gorm:"type:varchar(50);not null;index" json:"table_number"`
	CustomerName  string      `gorm:"type:varchar(255);not null;default:'Guest'" json:"customer_name"`
	CustomerEmail *string     `gorm:"type:varchar(255)" json:"customer_email,omitempty"`
	Items         []OrderItem `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
	TotalAmount   float64     `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_amount"`
	Status        OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt     time.Time   `gorm:"not null;index" json:"created_at"`
	ConfirmedAt   *time.Time  `json:"confirmed_at,omitempty"`
	ReadyAt       *time.Time  `json:"ready_at,omitempty"`
	CancelledAt   *time.Time  `json:"cancelled_at,omitempty"`
	CancelledBy   *Actor      `gorm:"type:varchar(10)" json:"cancelled_by,omitempty"`
	UpdatedAt     time.Time   `gorm:"not null" json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// BillNumber is the short customer-facing reference printed on receipts.
func (o *Order) BillNumber() string {
	id := strings.ReplaceAll(o.ID, "-", "")
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return "ORD-" + strings.ToUpper(id)
}

// ItemCount sums quantities across all lines.
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}
