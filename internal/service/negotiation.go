package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agritrade/internal/apperr"
	"agritrade/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NegotiationService persists negotiation outcomes. The seller offers,
// the buyer accepts or declines; accepted records feed contract formation.
type NegotiationService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewNegotiationService(db *gorm.DB, notifier Notifier) *NegotiationService {
	return &NegotiationService{db: db, notifier: notifier}
}

// NegotiationCreateInput records an offer made to a buyer.
type NegotiationCreateInput struct {
	BuyerUserID     uint            `json:"buyer_user_id"`
	ProductName     string          `json:"product_name"`
	CategoryName    string          `json:"category_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DeliveryAddress string          `json:"delivery_address"`
	DeliveryDate    string          `json:"delivery_date"`
	PaymentMethod   string          `json:"payment_method"`
	DeliveryMode    string          `json:"delivery_mode"`
}

// Create records an offer from the calling seller to a buyer.
func (s *NegotiationService) Create(ctx context.Context, sellerUserID uint, in NegotiationCreateInput) (uint, error) {
	if in.BuyerUserID == 0 {
		return 0, apperr.New(apperr.Validation, "buyer_user_id is required")
	}
	if strings.TrimSpace(in.ProductName) == "" {
		return 0, apperr.New(apperr.Validation, "product_name is required")
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return 0, apperr.New(apperr.Validation, "quantity must be greater than 0")
	}
	if !in.UnitPrice.GreaterThan(decimal.Zero) {
		return 0, apperr.New(apperr.Validation, "unit_price must be greater than 0")
	}

	var negID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seller, err := resolveUser(tx, sellerUserID)
		if err != nil {
			return err
		}
		buyer, err := resolveUser(tx, in.BuyerUserID)
		if err != nil {
			if apperr.Is(err, apperr.Unauthenticated) {
				return apperr.New(apperr.NotFound, "buyer not found")
			}
			return err
		}
		if *buyer.CompanyID == *seller.CompanyID {
			return apperr.New(apperr.Validation, "cannot negotiate within one company")
		}

		neg := model.Negotiation{
			BuyerCompanyID:  *buyer.CompanyID,
			SellerCompanyID: *seller.CompanyID,
			BuyerUserID:     in.BuyerUserID,
			SellerUserID:    sellerUserID,
			ProductName:     strings.TrimSpace(in.ProductName),
			CategoryName:    strings.TrimSpace(in.CategoryName),
			Quantity:        in.Quantity,
			Unit:            strings.TrimSpace(in.Unit),
			UnitPrice:       in.UnitPrice,
			DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
			DeliveryDate:    parseDeliveryDate(in.DeliveryDate),
			PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
			DeliveryMode:    strings.TrimSpace(in.DeliveryMode),
			Status:          model.NegotiationOffered,
		}
		if err := tx.Create(&neg).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "insert negotiation", err)
		}
		negID = neg.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	notify(ctx, s.notifier, in.BuyerUserID, "negotiation.offered",
		fmt.Sprintf("you received an offer for %s", strings.TrimSpace(in.ProductName)))
	return negID, nil
}

// Accept marks an offered negotiation as accepted. Only the buyer side may
// accept.
func (s *NegotiationService) Accept(ctx context.Context, userID, id uint) error {
	return s.resolve(ctx, userID, id, model.NegotiationAccepted)
}

// Decline marks an offered negotiation as declined. Only the buyer side may
// decline.
func (s *NegotiationService) Decline(ctx context.Context, userID, id uint) error {
	return s.resolve(ctx, userID, id, model.NegotiationDeclined)
}

func (s *NegotiationService) resolve(ctx context.Context, userID, id uint, to model.NegotiationStatus) error {
	var sellerUserID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var neg model.Negotiation
		if err := tx.First(&neg, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "negotiation not found")
			}
			return apperr.Wrap(apperr.Internal, "load negotiation", err)
		}
		if neg.BuyerUserID != userID {
			return apperr.New(apperr.Unauthorized, "only the buyer can resolve an offer")
		}
		if neg.Status != model.NegotiationOffered {
			return apperr.New(apperr.InvalidState, "negotiation is already resolved")
		}
		if err := tx.Model(&model.Negotiation{}).Where("id = ?", id).
			Update("status", to).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "resolve negotiation", err)
		}
		sellerUserID = neg.SellerUserID
		return nil
	})
	if err != nil {
		return err
	}

	event := "negotiation.accepted"
	if to == model.NegotiationDeclined {
		event = "negotiation.declined"
	}
	notify(ctx, s.notifier, sellerUserID, event,
		fmt.Sprintf("negotiation %d was %s", id, strings.ToLower(string(to))))
	return nil
}

// GetByID returns a negotiation to one of its parties.
func (s *NegotiationService) GetByID(ctx context.Context, userID, id uint) (*model.Negotiation, error) {
	db := s.db.WithContext(ctx)
	user, err := resolveUser(db, userID)
	if err != nil {
		return nil, err
	}
	var neg model.Negotiation
	if err := db.First(&neg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "negotiation not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "load negotiation", err)
	}
	if *user.CompanyID != neg.BuyerCompanyID && *user.CompanyID != neg.SellerCompanyID {
		return nil, apperr.New(apperr.Unauthorized, "not a party to this negotiation")
	}
	return &neg, nil
}

// List returns the negotiations the viewer's company takes part in.
func (s *NegotiationService) List(ctx context.Context, userID uint) ([]model.Negotiation, error) {
	db := s.db.WithContext(ctx)
	user, err := resolveUser(db, userID)
	if err != nil {
		return nil, err
	}
	var negs []model.Negotiation
	if err := db.
		Where("buyer_company_id = ? OR seller_company_id = ?", *user.CompanyID, *user.CompanyID).
		Order("created_at DESC").
		Find(&negs).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list negotiations", err)
	}
	return negs, nil
}
