package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DealStatus is the lifecycle status of a confirmed deal.
type DealStatus int

const (
	DealConfirmed DealStatus = 0
	DealCancelled DealStatus = 1
)

// Deal is an immutable confirmation joining one requirement and one supply.
// Confirmed deals are the ledger entries remaining quantity is computed from.
type Deal struct {
	ID                  uint             `json:"id" gorm:"primarykey"`
	RequirementID       uint             `json:"requirement_id" gorm:"index;not null"`
	SupplyID            uint             `json:"supply_id" gorm:"index;not null"`
	BuyerCompanyID      uint             `json:"buyer_company_id" gorm:"index;not null"`
	SellerCompanyID     uint             `json:"seller_company_id" gorm:"index;not null"`
	BuyerUserID         uint             `json:"buyer_user_id" gorm:"not null"`
	SellerUserID        uint             `json:"seller_user_id" gorm:"not null"`
	Quantity            decimal.Decimal  `json:"quantity" gorm:"type:decimal(18,3);not null"`
	FinalExFactoryPrice decimal.Decimal  `json:"final_ex_factory_price" gorm:"type:decimal(18,2);not null"`
	DeliveryMode        string           `json:"delivery_mode" gorm:"type:varchar(50)"`
	DistanceKm          *decimal.Decimal `json:"distance_km" gorm:"type:decimal(18,3)"`
	FreightRatePerTonKm decimal.Decimal  `json:"freight_rate_per_ton_km" gorm:"type:decimal(18,4);not null"`
	DeliveredPrice      *decimal.Decimal `json:"delivered_price" gorm:"type:decimal(18,2)"`
	Status              DealStatus       `json:"status" gorm:"not null;default:0"`
	Remark              string           `json:"remark" gorm:"type:text"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
	DeletedAt           gorm.DeletedAt   `json:"deleted_at,omitempty" gorm:"index"`
}
