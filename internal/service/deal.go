package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"agritrade/internal/apperr"
	"agritrade/internal/geo"
	"agritrade/internal/model"
	"agritrade/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DealService confirms deals against requirement and supply listings and
// keeps both listing statuses in step with the quantity ledger.
type DealService struct {
	db          *gorm.DB
	freightRate decimal.Decimal
}

func NewDealService(db *gorm.DB, freightRate decimal.Decimal) *DealService {
	return &DealService{db: db, freightRate: freightRate}
}

// DealCreateInput is the buyer's confirmation request.
type DealCreateInput struct {
	RequirementID       uint             `json:"requirement_id"`
	SupplyID            uint             `json:"supply_id"`
	Quantity            decimal.Decimal  `json:"quantity"`
	FinalExFactoryPrice *decimal.Decimal `json:"final_ex_factory_price"`
	DeliveryMode        string           `json:"delivery_mode"`
	Remark              string           `json:"remark"`
}

// Confirm records a deal for the given buyer. The whole read-check-insert
// runs in one transaction whose first statements touch the requirement and
// supply rows, so concurrent confirmations against the same listings
// serialize and the remaining-quantity check always sees committed deals.
func (s *DealService) Confirm(ctx context.Context, buyerUserID uint, in DealCreateInput) (uint, error) {
	if in.RequirementID == 0 || in.SupplyID == 0 {
		return 0, apperr.New(apperr.Validation, "requirement_id and supply_id are required")
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return 0, apperr.New(apperr.Validation, "deal quantity must be greater than 0")
	}

	var dealID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		buyer, err := resolveUser(tx, buyerUserID)
		if err != nil {
			return err
		}

		// Touch both listing rows before reading anything. The updates
		// acquire the row locks, so a competing confirmation blocks here
		// until this transaction commits.
		now := time.Now()
		res := tx.Model(&model.Requirement{}).Where("id = ?", in.RequirementID).Update("updated_at", now)
		if res.Error != nil {
			return apperr.Wrap(apperr.Internal, "lock requirement", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.NotFound, "requirement not found")
		}
		res = tx.Model(&model.Supply{}).Where("id = ?", in.SupplyID).Update("updated_at", now)
		if res.Error != nil {
			return apperr.Wrap(apperr.Internal, "lock supply", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.NotFound, "supply not found")
		}

		var req model.Requirement
		if err := tx.First(&req, in.RequirementID).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "load requirement", err)
		}
		if req.UserID != buyerUserID {
			return apperr.New(apperr.Unauthorized, "only the requirement owner can confirm a deal")
		}
		if req.Status == model.ListingWithdrawn {
			return apperr.New(apperr.InvalidState, "requirement is withdrawn")
		}
		if req.Quantity == nil {
			return apperr.New(apperr.Validation, "requirement has no total quantity; incremental deals are not supported")
		}

		var sup model.Supply
		if err := tx.First(&sup, in.SupplyID).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "load supply", err)
		}
		if sup.Status == model.ListingWithdrawn || sup.Status == model.ListingFilled {
			return apperr.New(apperr.InvalidState, "supply is not open for deals")
		}
		if sup.Quantity == nil {
			return apperr.New(apperr.Validation, "supply has no total quantity; incremental deals are not supported")
		}
		if req.CategoryName != "" && sup.CategoryName != "" &&
			!strings.EqualFold(strings.TrimSpace(req.CategoryName), strings.TrimSpace(sup.CategoryName)) {
			return apperr.New(apperr.Validation, "supply category does not match requirement category")
		}

		confirmedSup, err := sumConfirmedBySupply(tx, sup.ID)
		if err != nil {
			return apperr.Wrap(apperr.Internal, "sum supply deals", err)
		}
		if remaining := Remaining(sup.Quantity, confirmedSup); remaining.LessThan(in.Quantity) {
			return apperr.Newf(apperr.QuantityExceeded, "quantity exceeds supply remaining %s", remaining)
		}

		confirmedReq, err := sumConfirmedByRequirement(tx, req.ID)
		if err != nil {
			return apperr.Wrap(apperr.Internal, "sum requirement deals", err)
		}
		if remaining := Remaining(req.Quantity, confirmedReq); remaining.LessThan(in.Quantity) {
			return apperr.Newf(apperr.QuantityExceeded, "quantity exceeds requirement remaining %s", remaining)
		}

		finalEx := in.FinalExFactoryPrice
		if finalEx == nil {
			finalEx = sup.ExFactoryPrice
		}
		if finalEx == nil || finalEx.IsNegative() {
			return apperr.New(apperr.Validation, "final ex-factory price is missing or negative")
		}

		deliveryMode := in.DeliveryMode
		if deliveryMode == "" {
			deliveryMode = sup.DeliveryMode
		}

		buyerCompany, err := loadCompany(tx, *buyer.CompanyID)
		if err != nil {
			return err
		}
		sellerCompany, err := loadCompany(tx, sup.CompanyID)
		if err != nil {
			return err
		}

		// Origin prefers the requirement's purchase point over the buyer
		// company's registered coordinates.
		var fromLat, fromLng, toLat, toLng *float64
		if buyerCompany != nil {
			fromLat, fromLng = buyerCompany.Latitude, buyerCompany.Longitude
		}
		if req.PurchaseLat != nil && req.PurchaseLng != nil {
			fromLat, fromLng = req.PurchaseLat, req.PurchaseLng
		}
		if sellerCompany != nil {
			toLat, toLng = sellerCompany.Latitude, sellerCompany.Longitude
		}

		km := geo.DistanceKm(fromLat, fromLng, toLat, toLng)
		delivered := geo.DeliveredPrice(*finalEx, km, s.freightRate)

		deal := model.Deal{
			RequirementID:       req.ID,
			SupplyID:            sup.ID,
			BuyerCompanyID:      *buyer.CompanyID,
			SellerCompanyID:     sup.CompanyID,
			BuyerUserID:         buyerUserID,
			SellerUserID:        sup.UserID,
			Quantity:            in.Quantity,
			FinalExFactoryPrice: *finalEx,
			DeliveryMode:        deliveryMode,
			DistanceKm:          km,
			FreightRatePerTonKm: s.freightRate,
			DeliveredPrice:      delivered,
			Status:              model.DealConfirmed,
			Remark:              in.Remark,
		}
		if err := tx.Create(&deal).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "insert deal", err)
		}

		// Re-derive both listing statuses from the ledger including the
		// new deal.
		confirmedReq = confirmedReq.Add(in.Quantity)
		if newStatus := DeriveListingStatus(req.Status, req.Quantity, confirmedReq); newStatus != req.Status {
			if err := tx.Model(&model.Requirement{}).Where("id = ?", req.ID).
				Update("status", newStatus).Error; err != nil {
				return apperr.Wrap(apperr.Internal, "update requirement status", err)
			}
		}
		confirmedSup = confirmedSup.Add(in.Quantity)
		if newStatus := DeriveListingStatus(sup.Status, sup.Quantity, confirmedSup); newStatus != sup.Status {
			if err := tx.Model(&model.Supply{}).Where("id = ?", sup.ID).
				Update("status", newStatus).Error; err != nil {
				return apperr.Wrap(apperr.Internal, "update supply status", err)
			}
		}

		dealID = deal.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.FromStdContext(ctx).Info("deal confirmed",
		zap.Uint("deal_id", dealID),
		zap.Uint("requirement_id", in.RequirementID),
		zap.Uint("supply_id", in.SupplyID),
		zap.String("quantity", in.Quantity.String()),
	)
	return dealID, nil
}

// GetByID returns a deal visible to either party.
func (s *DealService) GetByID(ctx context.Context, id uint) (*model.Deal, error) {
	var deal model.Deal
	if err := s.db.WithContext(ctx).First(&deal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "deal not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "load deal", err)
	}
	return &deal, nil
}

// ListByRequirement returns all deals confirmed against a requirement.
func (s *DealService) ListByRequirement(ctx context.Context, requirementID uint) ([]model.Deal, error) {
	if requirementID == 0 {
		return nil, apperr.New(apperr.Validation, "requirement_id is required")
	}
	var deals []model.Deal
	if err := s.db.WithContext(ctx).
		Where("requirement_id = ?", requirementID).
		Order("id").
		Find(&deals).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list deals", err)
	}
	return deals, nil
}
