package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"agritrade/internal/apperr"
	"agritrade/internal/geo"
	"agritrade/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxExpireMinutes caps listing validity at 7 days.
const maxExpireMinutes = 7 * 24 * 60

// RequirementService manages buyer purchase listings.
type RequirementService struct {
	db *gorm.DB
}

func NewRequirementService(db *gorm.DB) *RequirementService {
	return &RequirementService{db: db}
}

// RequirementCreateInput carries the publishable fields of a requirement.
type RequirementCreateInput struct {
	CategoryName    string           `json:"category_name"`
	Quantity        *decimal.Decimal `json:"quantity"`
	ExpectedPrice   *decimal.Decimal `json:"expected_price"`
	Packaging       string           `json:"packaging"`
	InvoiceType     string           `json:"invoice_type"`
	PaymentMethod   string           `json:"payment_method"`
	DeliveryMethod  string           `json:"delivery_method"`
	Remark          string           `json:"remark"`
	ExpireMinutes   *int             `json:"expire_minutes"`
	PurchaseLat     *float64         `json:"purchase_lat"`
	PurchaseLng     *float64         `json:"purchase_lng"`
	PurchaseAddress string           `json:"purchase_address"`
}

// RequirementView is a requirement enriched with ledger and geo fields
// computed at read time.
type RequirementView struct {
	model.Requirement
	RemainingQuantity *decimal.Decimal `json:"remaining_quantity,omitempty"`
	DistanceKm        *decimal.Decimal `json:"distance_km,omitempty"`
}

// ListQuery filters and orders a listing page.
type ListQuery struct {
	CategoryName string `query:"category_name"`
	CompanyID    uint   `query:"company_id"`
	OrderBy      string `query:"order_by"`
	Order        string `query:"order"`
}

// Create publishes a requirement for the user's company. The purchase
// address defaults to the company address when the caller leaves it empty.
func (s *RequirementService) Create(ctx context.Context, userID uint, in RequirementCreateInput) (uint, error) {
	if strings.TrimSpace(in.CategoryName) == "" {
		return 0, apperr.New(apperr.Validation, "category_name is required")
	}

	db := s.db.WithContext(ctx)
	user, err := resolveUser(db, userID)
	if err != nil {
		return 0, err
	}

	addr := strings.TrimSpace(in.PurchaseAddress)
	if addr == "" {
		company, err := loadCompany(db, *user.CompanyID)
		if err != nil {
			return 0, err
		}
		if company != nil {
			addr = company.Address
		}
	}

	req := model.Requirement{
		CompanyID:       *user.CompanyID,
		UserID:          userID,
		CategoryName:    strings.TrimSpace(in.CategoryName),
		Quantity:        in.Quantity,
		ExpectedPrice:   in.ExpectedPrice,
		Packaging:       strings.TrimSpace(in.Packaging),
		InvoiceType:     strings.TrimSpace(in.InvoiceType),
		PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
		DeliveryMethod:  strings.TrimSpace(in.DeliveryMethod),
		Remark:          strings.TrimSpace(in.Remark),
		PurchaseLat:     in.PurchaseLat,
		PurchaseLng:     in.PurchaseLng,
		PurchaseAddress: addr,
		Status:          model.ListingPublished,
	}
	req.ExpireMinutes, req.ExpireTime = normalizeExpiry(in.ExpireMinutes)

	if err := db.Create(&req).Error; err != nil {
		return 0, apperr.Wrap(apperr.Internal, "insert requirement", err)
	}
	return req.ID, nil
}

// GetByID returns one requirement with its remaining quantity.
func (s *RequirementService) GetByID(ctx context.Context, id uint) (*RequirementView, error) {
	db := s.db.WithContext(ctx)
	var req model.Requirement
	if err := db.First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "requirement not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "load requirement", err)
	}

	view := RequirementView{Requirement: req}
	if req.Quantity != nil {
		confirmed, err := sumConfirmedByRequirement(db, req.ID)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "sum requirement deals", err)
		}
		view.RemainingQuantity = Remaining(req.Quantity, confirmed)
	}
	return &view, nil
}

// List returns open requirements for the hall page. Anonymous viewers
// (viewerUserID 0) get no distance column.
func (s *RequirementService) List(ctx context.Context, viewerUserID uint, q ListQuery) ([]RequirementView, error) {
	db := s.db.WithContext(ctx)

	scope := db.Model(&model.Requirement{})
	if q.CategoryName != "" {
		scope = scope.Where("category_name = ?", q.CategoryName)
	}
	if q.CompanyID != 0 {
		scope = scope.Where("company_id = ?", q.CompanyID)
	}
	scope = scope.Order("created_at DESC")

	var reqs []model.Requirement
	if err := scope.Find(&reqs).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list requirements", err)
	}

	viewerCompany, err := viewerCompanyOf(db, viewerUserID)
	if err != nil {
		return nil, err
	}

	out := make([]RequirementView, 0, len(reqs))
	for _, req := range reqs {
		view := RequirementView{Requirement: req}
		if req.Quantity != nil {
			confirmed, err := sumConfirmedByRequirement(db, req.ID)
			if err != nil {
				return nil, apperr.Wrap(apperr.Internal, "sum requirement deals", err)
			}
			view.RemainingQuantity = Remaining(req.Quantity, confirmed)
		}
		if viewerCompany != nil && viewerCompany.Latitude != nil && viewerCompany.Longitude != nil {
			toLat, toLng := req.PurchaseLat, req.PurchaseLng
			if toLat == nil || toLng == nil {
				buyerCompany, err := loadCompany(db, req.CompanyID)
				if err != nil {
					return nil, err
				}
				if buyerCompany != nil {
					toLat, toLng = buyerCompany.Latitude, buyerCompany.Longitude
				}
			}
			view.DistanceKm = geo.DistanceKm(viewerCompany.Latitude, viewerCompany.Longitude, toLat, toLng)
		}
		out = append(out, view)
	}

	if strings.EqualFold(q.OrderBy, "distance") {
		sortByDecimal(out, strings.EqualFold(q.Order, "asc"), func(v RequirementView) *decimal.Decimal {
			return v.DistanceKm
		})
	}
	return out, nil
}

// RequirementUpdateInput carries owner-editable fields; nil means unchanged.
type RequirementUpdateInput struct {
	CategoryName    *string          `json:"category_name"`
	Quantity        *decimal.Decimal `json:"quantity"`
	ExpectedPrice   *decimal.Decimal `json:"expected_price"`
	Packaging       *string          `json:"packaging"`
	InvoiceType     *string          `json:"invoice_type"`
	PaymentMethod   *string          `json:"payment_method"`
	DeliveryMethod  *string          `json:"delivery_method"`
	Remark          *string          `json:"remark"`
	ExpireMinutes   *int             `json:"expire_minutes"`
	PurchaseLat     *float64         `json:"purchase_lat"`
	PurchaseLng     *float64         `json:"purchase_lng"`
	PurchaseAddress *string          `json:"purchase_address"`
}

// Update edits an owner's requirement. Resetting expiry republishes the
// validity window.
func (s *RequirementService) Update(ctx context.Context, userID, id uint, in RequirementUpdateInput) error {
	db := s.db.WithContext(ctx)

	updates := map[string]interface{}{}
	setString(updates, "category_name", in.CategoryName)
	setString(updates, "packaging", in.Packaging)
	setString(updates, "invoice_type", in.InvoiceType)
	setString(updates, "payment_method", in.PaymentMethod)
	setString(updates, "delivery_method", in.DeliveryMethod)
	setString(updates, "remark", in.Remark)
	setString(updates, "purchase_address", in.PurchaseAddress)
	if in.Quantity != nil {
		updates["quantity"] = *in.Quantity
	}
	if in.ExpectedPrice != nil {
		updates["expected_price"] = *in.ExpectedPrice
	}
	if in.PurchaseLat != nil {
		updates["purchase_lat"] = *in.PurchaseLat
	}
	if in.PurchaseLng != nil {
		updates["purchase_lng"] = *in.PurchaseLng
	}
	if in.ExpireMinutes != nil {
		minutes, expireAt := normalizeExpiry(in.ExpireMinutes)
		updates["expire_minutes"] = minutes
		updates["expire_time"] = expireAt
	}
	if len(updates) == 0 {
		return nil
	}

	res := db.Model(&model.Requirement{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, "update requirement", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "requirement not found")
	}
	return nil
}

// Withdraw takes the owner's requirement off the hall. Withdrawn is sticky.
func (s *RequirementService) Withdraw(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Model(&model.Requirement{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("status", model.ListingWithdrawn)
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, "withdraw requirement", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "requirement not found")
	}
	return nil
}

// Delete soft-deletes the owner's requirement.
func (s *RequirementService) Delete(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Requirement{})
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, "delete requirement", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "requirement not found")
	}
	return nil
}

// viewerCompanyOf resolves the viewer's company for distance previews.
// Anonymous or company-less viewers simply get no distances.
func viewerCompanyOf(db *gorm.DB, viewerUserID uint) (*model.Company, error) {
	if viewerUserID == 0 {
		return nil, nil
	}
	var user model.User
	if err := db.First(&user, viewerUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.Internal, "load viewer", err)
	}
	if user.CompanyID == nil {
		return nil, nil
	}
	return loadCompany(db, *user.CompanyID)
}

// normalizeExpiry clamps expire minutes to at most 7 days and derives the
// absolute expiry. Non-positive or nil minutes mean no expiry.
func normalizeExpiry(minutes *int) (*int, *time.Time) {
	if minutes == nil || *minutes <= 0 {
		return nil, nil
	}
	m := *minutes
	if m > maxExpireMinutes {
		m = maxExpireMinutes
	}
	at := time.Now().Add(time.Duration(m) * time.Minute)
	return &m, &at
}

func setString(updates map[string]interface{}, column string, value *string) {
	if value != nil {
		updates[column] = strings.TrimSpace(*value)
	}
}

// sortByDecimal orders views by a nullable decimal key, nils last.
func sortByDecimal[T any](items []T, asc bool, key func(T) *decimal.Decimal) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := key(items[i]), key(items[j])
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		if asc {
			return a.LessThan(*b)
		}
		return a.GreaterThan(*b)
	})
}
