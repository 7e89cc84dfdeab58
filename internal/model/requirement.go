package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Requirement is a buyer's purchase listing. Quantity may be nil for an
// unbounded requirement; unbounded requirements cannot be deal-confirmed.
type Requirement struct {
	ID              uint             `json:"id" gorm:"primarykey"`
	CompanyID       uint             `json:"company_id" gorm:"index;not null"`
	UserID          uint             `json:"user_id" gorm:"index;not null"`
	CategoryName    string           `json:"category_name" gorm:"type:varchar(100);not null"`
	Quantity        *decimal.Decimal `json:"quantity" gorm:"type:decimal(18,3)"`
	ExpectedPrice   *decimal.Decimal `json:"expected_price" gorm:"type:decimal(18,2)"`
	Packaging       string           `json:"packaging" gorm:"type:varchar(100)"`
	InvoiceType     string           `json:"invoice_type" gorm:"type:varchar(50)"`
	PaymentMethod   string           `json:"payment_method" gorm:"type:varchar(50)"`
	DeliveryMethod  string           `json:"delivery_method" gorm:"type:varchar(50)"`
	Remark          string           `json:"remark" gorm:"type:text"`
	ExpireMinutes   *int             `json:"expire_minutes"`
	ExpireTime      *time.Time       `json:"expire_time" gorm:"index"`
	PurchaseLat     *float64         `json:"purchase_lat"`
	PurchaseLng     *float64         `json:"purchase_lng"`
	PurchaseAddress string           `json:"purchase_address" gorm:"type:varchar(512)"`
	Status          ListingStatus    `json:"status" gorm:"not null;default:0"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `json:"deleted_at,omitempty" gorm:"index"`
}
