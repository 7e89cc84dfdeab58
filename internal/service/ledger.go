package service

import (
	"agritrade/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Remaining returns total minus confirmed, or nil when the listing is
// unbounded (nil total). Remaining can go to zero but the ledger never
// admits a deal that would push it negative.
func Remaining(total *decimal.Decimal, confirmed decimal.Decimal) *decimal.Decimal {
	if total == nil {
		return nil
	}
	r := total.Sub(confirmed)
	return &r
}

// DeriveListingStatus computes the status a listing should hold given its
// confirmed total. Withdrawn is sticky: the ledger never revives a withdrawn
// listing. An unbounded listing keeps its previous status.
func DeriveListingStatus(prev model.ListingStatus, total *decimal.Decimal, confirmed decimal.Decimal) model.ListingStatus {
	if prev == model.ListingWithdrawn {
		return model.ListingWithdrawn
	}
	if total == nil {
		return prev
	}
	if confirmed.GreaterThanOrEqual(*total) {
		return model.ListingFilled
	}
	if confirmed.GreaterThan(decimal.Zero) {
		return model.ListingPartial
	}
	return prev
}

// sumConfirmedByRequirement totals confirmed deal quantity against a
// requirement. Must run inside the caller's transaction when the result
// feeds a remaining-quantity check.
func sumConfirmedByRequirement(tx *gorm.DB, requirementID uint) (decimal.Decimal, error) {
	var out struct{ Total decimal.Decimal }
	err := tx.Model(&model.Deal{}).
		Select("COALESCE(SUM(quantity), 0) AS total").
		Where("requirement_id = ? AND status = ?", requirementID, model.DealConfirmed).
		Scan(&out).Error
	return out.Total, err
}

// sumConfirmedBySupply totals confirmed deal quantity against a supply.
func sumConfirmedBySupply(tx *gorm.DB, supplyID uint) (decimal.Decimal, error) {
	var out struct{ Total decimal.Decimal }
	err := tx.Model(&model.Deal{}).
		Select("COALESCE(SUM(quantity), 0) AS total").
		Where("supply_id = ? AND status = ?", supplyID, model.DealConfirmed).
		Scan(&out).Error
	return out.Total, err
}
