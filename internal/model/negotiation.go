package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NegotiationStatus is the closed status set of a negotiation record.
type NegotiationStatus string

const (
	NegotiationOffered  NegotiationStatus = "OFFERED"
	NegotiationAccepted NegotiationStatus = "ACCEPTED"
	NegotiationDeclined NegotiationStatus = "DECLINED"
)

// Valid reports whether s is a member of the closed set.
func (s NegotiationStatus) Valid() bool {
	switch s {
	case NegotiationOffered, NegotiationAccepted, NegotiationDeclined:
		return true
	}
	return false
}

// Negotiation is the persisted outcome of a price negotiation between two
// companies. The messaging transport lives elsewhere; contract formation
// consumes accepted records.
type Negotiation struct {
	ID              uint              `json:"id" gorm:"primarykey"`
	BuyerCompanyID  uint              `json:"buyer_company_id" gorm:"index;not null"`
	SellerCompanyID uint              `json:"seller_company_id" gorm:"index;not null"`
	BuyerUserID     uint              `json:"buyer_user_id" gorm:"not null"`
	SellerUserID    uint              `json:"seller_user_id" gorm:"not null"`
	ProductName     string            `json:"product_name" gorm:"type:varchar(255);not null"`
	CategoryName    string            `json:"category_name" gorm:"type:varchar(100)"`
	Quantity        decimal.Decimal   `json:"quantity" gorm:"type:decimal(18,3);not null"`
	Unit            string            `json:"unit" gorm:"type:varchar(20)"`
	UnitPrice       decimal.Decimal   `json:"unit_price" gorm:"type:decimal(18,2);not null"`
	DeliveryAddress string            `json:"delivery_address" gorm:"type:varchar(512)"`
	DeliveryDate    *time.Time        `json:"delivery_date"`
	PaymentMethod   string            `json:"payment_method" gorm:"type:varchar(50)"`
	DeliveryMode    string            `json:"delivery_mode" gorm:"type:varchar(50)"`
	Status          NegotiationStatus `json:"status" gorm:"type:varchar(20);not null;default:'OFFERED'"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	DeletedAt       gorm.DeletedAt    `json:"deleted_at,omitempty" gorm:"index"`
}
