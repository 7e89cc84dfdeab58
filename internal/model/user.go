package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a platform account. Token issuance lives elsewhere; this
// table backs identity resolution for trade operations.
type User struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Email     string         `json:"email" gorm:"type:varchar(255);unique;not null"`
	Name      string         `json:"name" gorm:"type:varchar(100)"`
	Phone     string         `json:"phone" gorm:"type:varchar(32)"`
	CompanyID *uint          `json:"company_id" gorm:"index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Company represents a trading party. Coordinates feed delivered-price
// calculation when a listing has no purchase point of its own.
type Company struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	Address   string         `json:"address" gorm:"type:varchar(512)"`
	Latitude  *float64       `json:"latitude"`
	Longitude *float64       `json:"longitude"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
