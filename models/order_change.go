package models

import (
	"time"
)

const (
	ChangeInsert = "INSERT"
	ChangeUpdate = "UPDATE"
	ChangeDelete = "DELETE"
)

// OrderChange is one row of the append-only change feed written alongside
// every order mutation. Readers follow it by ID.
type OrderChange struct {
	ID        uint      `gorm:"primaryKey"`
	OrderID   string    `gorm:"type:varchar(36);not null;index"`
	Action    string    `gorm:"type:varchar(10);not null"`
	ChangedAt time.Time `gorm:"not null;index"`
}
