package service

import (
	"testing"

	"agritrade/internal/model"
	"agritrade/pkg/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func fp(v float64) *float64 { return &v }

func ip(v int) *int { return &v }

func seedCompany(t *testing.T, db *gorm.DB, name string, lat, lng *float64) *model.Company {
	t.Helper()
	company := model.Company{Name: name, Address: name + " street 1", Latitude: lat, Longitude: lng}
	require.NoError(t, db.Create(&company).Error)
	return &company
}

func seedUser(t *testing.T, db *gorm.DB, email string, companyID uint) *model.User {
	t.Helper()
	user := model.User{Email: email, Name: email, CompanyID: &companyID}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// testRate is the freight rate used across service tests.
var testRate = d("0.8")
