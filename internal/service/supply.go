package service

import (
	"context"
	"errors"
	"strings"

	"agritrade/internal/apperr"
	"agritrade/internal/geo"
	"agritrade/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SupplyService manages seller listings, their basis quotes, and the
// expiry sweep.
type SupplyService struct {
	db          *gorm.DB
	freightRate decimal.Decimal
}

func NewSupplyService(db *gorm.DB, freightRate decimal.Decimal) *SupplyService {
	return &SupplyService{db: db, freightRate: freightRate}
}

// BasisQuoteInput is one basis line of a basis-priced supply.
type BasisQuoteInput struct {
	ContractCode string           `json:"contract_code"`
	BasisPrice   decimal.Decimal  `json:"basis_price"`
	AvailableQty *decimal.Decimal `json:"available_qty"`
	Remark       string           `json:"remark"`
}

// SupplyCreateInput carries the publishable fields of a supply. A supply is
// priced either flat (ExFactoryPrice) or through BasisQuotes; one of the two
// is required.
type SupplyCreateInput struct {
	CategoryName   string            `json:"category_name"`
	Quantity       *decimal.Decimal  `json:"quantity"`
	ExFactoryPrice *decimal.Decimal  `json:"ex_factory_price"`
	Packaging      string            `json:"packaging"`
	DeliveryMode   string            `json:"delivery_mode"`
	Remark         string            `json:"remark"`
	ExpireMinutes  *int              `json:"expire_minutes"`
	BasisQuotes    []BasisQuoteInput `json:"basis_quotes"`
}

// SupplyView is a supply enriched with ledger and geo fields computed at
// read time.
type SupplyView struct {
	model.Supply
	RemainingQuantity *decimal.Decimal `json:"remaining_quantity,omitempty"`
	DistanceKm        *decimal.Decimal `json:"distance_km,omitempty"`
	DeliveredPrice    *decimal.Decimal `json:"delivered_price,omitempty"`
}

// Create publishes a supply for the user's company.
func (s *SupplyService) Create(ctx context.Context, userID uint, in SupplyCreateInput) (uint, error) {
	if strings.TrimSpace(in.CategoryName) == "" {
		return 0, apperr.New(apperr.Validation, "category_name is required")
	}
	if len(in.BasisQuotes) == 0 && in.ExFactoryPrice == nil {
		return 0, apperr.New(apperr.Validation, "either ex_factory_price or basis_quotes is required")
	}
	for _, bq := range in.BasisQuotes {
		if strings.TrimSpace(bq.ContractCode) == "" {
			return 0, apperr.New(apperr.Validation, "basis quote contract_code is required")
		}
	}

	var supplyID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := resolveUser(tx, userID)
		if err != nil {
			return err
		}

		sup := model.Supply{
			CompanyID:      *user.CompanyID,
			UserID:         userID,
			CategoryName:   strings.TrimSpace(in.CategoryName),
			Quantity:       in.Quantity,
			ExFactoryPrice: in.ExFactoryPrice,
			Packaging:      strings.TrimSpace(in.Packaging),
			DeliveryMode:   strings.TrimSpace(in.DeliveryMode),
			Remark:         strings.TrimSpace(in.Remark),
			Status:         model.ListingPublished,
		}
		sup.ExpireMinutes, sup.ExpireTime = normalizeExpiry(in.ExpireMinutes)

		if err := tx.Create(&sup).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "insert supply", err)
		}

		for _, bq := range in.BasisQuotes {
			line := model.SupplyBasis{
				SupplyID:     sup.ID,
				ContractCode: strings.TrimSpace(bq.ContractCode),
				BasisPrice:   bq.BasisPrice,
				AvailableQty: bq.AvailableQty,
				Remark:       strings.TrimSpace(bq.Remark),
			}
			if err := tx.Create(&line).Error; err != nil {
				return apperr.Wrap(apperr.Internal, "insert basis quote", err)
			}
		}

		supplyID = sup.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return supplyID, nil
}

// GetByID returns one supply with basis quotes and remaining quantity.
func (s *SupplyService) GetByID(ctx context.Context, id uint) (*SupplyView, error) {
	db := s.db.WithContext(ctx)
	var sup model.Supply
	if err := db.First(&sup, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "supply not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "load supply", err)
	}

	view := SupplyView{Supply: sup}
	if err := s.fillBasisQuotes(db, &view.Supply); err != nil {
		return nil, err
	}
	if sup.Quantity != nil {
		confirmed, err := sumConfirmedBySupply(db, sup.ID)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "sum supply deals", err)
		}
		view.RemainingQuantity = Remaining(sup.Quantity, confirmed)
	}
	return &view, nil
}

// List returns supplies for the hall page. Expired listings are swept to
// withdrawn before the page is read, so callers never see a stale open
// listing. Logged-in viewers with company coordinates also get distance and
// delivered-price previews.
func (s *SupplyService) List(ctx context.Context, viewerUserID uint, q ListQuery) ([]SupplyView, error) {
	db := s.db.WithContext(ctx)

	if _, err := ExpireListings(db); err != nil {
		return nil, err
	}

	scope := db.Model(&model.Supply{})
	if q.CategoryName != "" {
		scope = scope.Where("category_name = ?", q.CategoryName)
	}
	if q.CompanyID != 0 {
		scope = scope.Where("company_id = ?", q.CompanyID)
	}
	scope = scope.Order("created_at DESC")

	var sups []model.Supply
	if err := scope.Find(&sups).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list supplies", err)
	}

	viewerCompany, err := viewerCompanyOf(db, viewerUserID)
	if err != nil {
		return nil, err
	}

	out := make([]SupplyView, 0, len(sups))
	for _, sup := range sups {
		view := SupplyView{Supply: sup}
		if err := s.fillBasisQuotes(db, &view.Supply); err != nil {
			return nil, err
		}
		if sup.Quantity != nil {
			confirmed, err := sumConfirmedBySupply(db, sup.ID)
			if err != nil {
				return nil, apperr.Wrap(apperr.Internal, "sum supply deals", err)
			}
			view.RemainingQuantity = Remaining(sup.Quantity, confirmed)
		}
		if viewerCompany != nil && viewerCompany.Latitude != nil && viewerCompany.Longitude != nil {
			sellerCompany, err := loadCompany(db, sup.CompanyID)
			if err != nil {
				return nil, err
			}
			if sellerCompany != nil {
				view.DistanceKm = geo.DistanceKm(
					viewerCompany.Latitude, viewerCompany.Longitude,
					sellerCompany.Latitude, sellerCompany.Longitude,
				)
				if sup.ExFactoryPrice != nil {
					view.DeliveredPrice = geo.DeliveredPrice(*sup.ExFactoryPrice, view.DistanceKm, s.freightRate)
				}
			}
		}
		out = append(out, view)
	}

	switch {
	case strings.EqualFold(q.OrderBy, "distance"):
		sortByDecimal(out, strings.EqualFold(q.Order, "asc"), func(v SupplyView) *decimal.Decimal {
			return v.DistanceKm
		})
	case strings.EqualFold(q.OrderBy, "delivered_price"):
		sortByDecimal(out, strings.EqualFold(q.Order, "asc"), func(v SupplyView) *decimal.Decimal {
			return v.DeliveredPrice
		})
	}
	return out, nil
}

// SupplyUpdateInput carries owner-editable fields; nil means unchanged.
type SupplyUpdateInput struct {
	CategoryName   *string          `json:"category_name"`
	Quantity       *decimal.Decimal `json:"quantity"`
	ExFactoryPrice *decimal.Decimal `json:"ex_factory_price"`
	Packaging      *string          `json:"packaging"`
	DeliveryMode   *string          `json:"delivery_mode"`
	Remark         *string          `json:"remark"`
	ExpireMinutes  *int             `json:"expire_minutes"`
}

// Update edits an owner's supply.
func (s *SupplyService) Update(ctx context.Context, userID, id uint, in SupplyUpdateInput) error {
	updates := map[string]interface{}{}
	setString(updates, "category_name", in.CategoryName)
	setString(updates, "packaging", in.Packaging)
	setString(updates, "delivery_mode", in.DeliveryMode)
	setString(updates, "remark", in.Remark)
	if in.Quantity != nil {
		updates["quantity"] = *in.Quantity
	}
	if in.ExFactoryPrice != nil {
		updates["ex_factory_price"] = *in.ExFactoryPrice
	}
	if in.ExpireMinutes != nil {
		minutes, expireAt := normalizeExpiry(in.ExpireMinutes)
		updates["expire_minutes"] = minutes
		updates["expire_time"] = expireAt
	}
	if len(updates) == 0 {
		return nil
	}

	res := s.db.WithContext(ctx).Model(&model.Supply{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, "update supply", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "supply not found")
	}
	return nil
}

// Withdraw takes the owner's supply off the hall.
func (s *SupplyService) Withdraw(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Model(&model.Supply{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("status", model.ListingWithdrawn)
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, "withdraw supply", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "supply not found")
	}
	return nil
}

// Delete soft-deletes the owner's supply.
func (s *SupplyService) Delete(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Supply{})
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, "delete supply", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "supply not found")
	}
	return nil
}

// fillBasisQuotes loads basis lines and computes reference prices from the
// latest futures quotes. Reference price = last price + basis.
func (s *SupplyService) fillBasisQuotes(db *gorm.DB, sup *model.Supply) error {
	var lines []model.SupplyBasis
	if err := db.Where("supply_id = ?", sup.ID).Order("id").Find(&lines).Error; err != nil {
		return apperr.Wrap(apperr.Internal, "load basis quotes", err)
	}
	for i := range lines {
		var fc model.FuturesContract
		err := db.Where("code = ?", lines[i].ContractCode).First(&fc).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return apperr.Wrap(apperr.Internal, "load futures contract", err)
		}
		lines[i].ContractName = fc.Name
		lines[i].LastPrice = fc.LastPrice
		if fc.LastPrice != nil {
			ref := fc.LastPrice.Add(lines[i].BasisPrice)
			lines[i].ReferencePrice = &ref
		}
	}
	sup.BasisQuotes = lines
	return nil
}

// ExpireListings withdraws every open listing whose expiry has passed.
// Returns the number of listings swept. Used inline before supply listing
// and periodically by the cron job.
func ExpireListings(db *gorm.DB) (int64, error) {
	var swept int64
	res := db.Model(&model.Supply{}).
		Where("expire_time IS NOT NULL AND expire_time <= CURRENT_TIMESTAMP AND status IN ?",
			[]model.ListingStatus{model.ListingPublished, model.ListingPartial}).
		Update("status", model.ListingWithdrawn)
	if res.Error != nil {
		return 0, apperr.Wrap(apperr.Internal, "expire supplies", res.Error)
	}
	swept += res.RowsAffected

	res = db.Model(&model.Requirement{}).
		Where("expire_time IS NOT NULL AND expire_time <= CURRENT_TIMESTAMP AND status IN ?",
			[]model.ListingStatus{model.ListingPublished, model.ListingPartial}).
		Update("status", model.ListingWithdrawn)
	if res.Error != nil {
		return 0, apperr.Wrap(apperr.Internal, "expire requirements", res.Error)
	}
	swept += res.RowsAffected
	return swept, nil
}
