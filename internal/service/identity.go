package service

import (
	"errors"

	"agritrade/internal/apperr"
	"agritrade/internal/model"

	"gorm.io/gorm"
)

// resolveUser loads a user and requires a bound company. Every trade
// operation acts on behalf of a company, never a bare account.
func resolveUser(tx *gorm.DB, userID uint) (*model.User, error) {
	if userID == 0 {
		return nil, apperr.New(apperr.Unauthenticated, "not logged in")
	}
	var user model.User
	if err := tx.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.Unauthenticated, "not logged in")
		}
		return nil, apperr.Wrap(apperr.Internal, "load user", err)
	}
	if user.CompanyID == nil {
		return nil, apperr.New(apperr.Validation, "user has no company profile")
	}
	return &user, nil
}

// loadCompany returns the company or nil when it does not exist. Missing
// companies degrade distance to unknown rather than failing the operation.
func loadCompany(tx *gorm.DB, companyID uint) (*model.Company, error) {
	var company model.Company
	if err := tx.First(&company, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.Internal, "load company", err)
	}
	return &company, nil
}
