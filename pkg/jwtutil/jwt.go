package jwtutil

import (
	"time"

	"agritrade/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	signingKey      []byte
	expirationHours int
)

// UserClaims represents the JWT claims for user authentication
type UserClaims struct {
	UserID    uint   `json:"user_id"`
	CompanyID *uint  `json:"company_id,omitempty"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Initialize sets up the JWT utility with configuration
func Initialize(config *config.Config) {
	signingKey = []byte(config.JWT.SigningKey)
	expirationHours = config.JWT.ExpirationHours
}

// GenerateToken creates a signed token for the given user
func GenerateToken(userID uint, companyID *uint, email string) (string, error) {
	claims := UserClaims{
		UserID:    userID,
		CompanyID: companyID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expirationHours) * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return signingKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
