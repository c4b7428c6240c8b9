package models

import "time"

// User is a staff account. Whether a user may use the admin dashboard is
// decided by the configured email allow-list, not by this record.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"type:varchar(255); not null"`
	Email     string `gorm:"type:varchar(255); unique;not null"`
	Password  string `gorm:"type:varchar(255); not null"`
	Role      string `gorm:"type:varchar(255); not null;default:'staff'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
