package service

import (
	"context"
	"strings"

	"agritrade/internal/apperr"
	"agritrade/internal/model"

	"gorm.io/gorm"
)

// SealService manages a company's registered seals.
type SealService struct {
	db *gorm.DB
}

func NewSealService(db *gorm.DB) *SealService {
	return &SealService{db: db}
}

// SealCreateInput registers a new seal for the caller's company.
type SealCreateInput struct {
	SealType  string `json:"seal_type"`
	SealName  string `json:"seal_name"`
	SealURL   string `json:"seal_url"`
	IsDefault bool   `json:"is_default"`
}

// Create registers a seal. Marking a seal default clears the previous
// default within the company.
func (s *SealService) Create(ctx context.Context, userID uint, in SealCreateInput) (uint, error) {
	sealType := strings.TrimSpace(in.SealType)
	if sealType == "" {
		sealType = "official"
	}

	var sealID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := resolveUser(tx, userID)
		if err != nil {
			return err
		}

		if in.IsDefault {
			if err := tx.Model(&model.CompanySeal{}).
				Where("company_id = ? AND is_default = ?", *user.CompanyID, true).
				Update("is_default", false).Error; err != nil {
				return apperr.Wrap(apperr.Internal, "clear default seal", err)
			}
		}

		seal := model.CompanySeal{
			CompanyID: *user.CompanyID,
			UserID:    userID,
			SealType:  sealType,
			SealName:  strings.TrimSpace(in.SealName),
			SealURL:   strings.TrimSpace(in.SealURL),
			IsDefault: in.IsDefault,
		}
		if err := tx.Create(&seal).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "insert seal", err)
		}
		sealID = seal.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sealID, nil
}

// List returns the caller's company seals.
func (s *SealService) List(ctx context.Context, userID uint) ([]model.CompanySeal, error) {
	db := s.db.WithContext(ctx)
	user, err := resolveUser(db, userID)
	if err != nil {
		return nil, err
	}
	var seals []model.CompanySeal
	if err := db.Where("company_id = ?", *user.CompanyID).Order("id").Find(&seals).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list seals", err)
	}
	return seals, nil
}

// Delete soft-deletes a seal within the caller's company.
func (s *SealService) Delete(ctx context.Context, userID, sealID uint) error {
	db := s.db.WithContext(ctx)
	user, err := resolveUser(db, userID)
	if err != nil {
		return err
	}
	res := db.Where("id = ? AND company_id = ?", sealID, *user.CompanyID).
		Delete(&model.CompanySeal{})
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, "delete seal", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "seal not found")
	}
	return nil
}
