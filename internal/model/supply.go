package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Supply is a seller's sale listing. It is priced either flat via
// ExFactoryPrice or through basis-quote lines referencing futures contracts.
type Supply struct {
	ID             uint             `json:"id" gorm:"primarykey"`
	CompanyID      uint             `json:"company_id" gorm:"index;not null"`
	UserID         uint             `json:"user_id" gorm:"index;not null"`
	CategoryName   string           `json:"category_name" gorm:"type:varchar(100);not null"`
	Quantity       *decimal.Decimal `json:"quantity" gorm:"type:decimal(18,3)"`
	ExFactoryPrice *decimal.Decimal `json:"ex_factory_price" gorm:"type:decimal(18,2)"`
	Packaging      string           `json:"packaging" gorm:"type:varchar(100)"`
	DeliveryMode   string           `json:"delivery_mode" gorm:"type:varchar(50)"`
	Remark         string           `json:"remark" gorm:"type:text"`
	ExpireMinutes  *int             `json:"expire_minutes"`
	ExpireTime     *time.Time       `json:"expire_time" gorm:"index"`
	Status         ListingStatus    `json:"status" gorm:"not null;default:0"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `json:"deleted_at,omitempty" gorm:"index"`

	BasisQuotes []SupplyBasis `json:"basis_quotes,omitempty" gorm:"foreignKey:SupplyID"`
}

// SupplyBasis is a basis-quote line: price = futures last price + basis.
// Basis is positive for premium, negative for discount.
type SupplyBasis struct {
	ID           uint             `json:"id" gorm:"primarykey"`
	SupplyID     uint             `json:"supply_id" gorm:"index;not null"`
	ContractCode string           `json:"contract_code" gorm:"type:varchar(20);not null"`
	BasisPrice   decimal.Decimal  `json:"basis_price" gorm:"type:decimal(18,2);not null"`
	AvailableQty *decimal.Decimal `json:"available_qty" gorm:"type:decimal(18,3)"`
	SoldQty      decimal.Decimal  `json:"sold_qty" gorm:"type:decimal(18,3);not null;default:0"`
	Remark       string           `json:"remark" gorm:"type:varchar(255)"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `json:"deleted_at,omitempty" gorm:"index"`

	// ReferencePrice is computed at read time, never stored.
	ReferencePrice *decimal.Decimal `json:"reference_price,omitempty" gorm:"-"`
	ContractName   string           `json:"contract_name,omitempty" gorm:"-"`
	LastPrice      *decimal.Decimal `json:"last_price,omitempty" gorm:"-"`
}

// FuturesContract carries the exchange quote a basis line prices against.
type FuturesContract struct {
	ID        uint             `json:"id" gorm:"primarykey"`
	Code      string           `json:"code" gorm:"type:varchar(20);unique;not null"`
	Name      string           `json:"name" gorm:"type:varchar(100)"`
	LastPrice *decimal.Decimal `json:"last_price" gorm:"type:decimal(18,2)"`
	QuotedAt  *time.Time       `json:"quoted_at"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
