package service

import (
	"context"
	"testing"

	"agritrade/internal/apperr"
	"agritrade/internal/geo"
	"agritrade/internal/model"
	"agritrade/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type dealFixture struct {
	db          *gorm.DB
	buyer       *model.User
	seller      *model.User
	requirement *model.Requirement
	supply      *model.Supply
}

func newDealFixture(t *testing.T) *dealFixture {
	t.Helper()
	db := newTestDB(t)

	buyerCo := seedCompany(t, db, "buyer co", fp(30.25), fp(120.16))
	sellerCo := seedCompany(t, db, "seller co", fp(31.23), fp(121.47))
	buyer := seedUser(t, db, "buyer@"+t.Name(), buyerCo.ID)
	seller := seedUser(t, db, "seller@"+t.Name(), sellerCo.ID)

	requirement := model.Requirement{
		CompanyID:    buyerCo.ID,
		UserID:       buyer.ID,
		CategoryName: "corn",
		Quantity:     dp("100"),
		Status:       model.ListingPublished,
	}
	require.NoError(t, db.Create(&requirement).Error)

	supply := model.Supply{
		CompanyID:      sellerCo.ID,
		UserID:         seller.ID,
		CategoryName:   "corn",
		Quantity:       dp("60"),
		ExFactoryPrice: dp("2500.00"),
		DeliveryMode:   "truck",
		Status:         model.ListingPublished,
	}
	require.NoError(t, db.Create(&supply).Error)

	return &dealFixture{db: db, buyer: buyer, seller: seller, requirement: &requirement, supply: &supply}
}

func TestDealConfirmPartialThenFilled(t *testing.T) {
	fx := newDealFixture(t)
	svc := NewDealService(fx.db, testRate)
	ctx := context.Background()

	_, err := svc.Confirm(ctx, fx.buyer.ID, DealCreateInput{
		RequirementID: fx.requirement.ID,
		SupplyID:      fx.supply.ID,
		Quantity:      d("40"),
	})
	require.NoError(t, err)

	var req model.Requirement
	var sup model.Supply
	require.NoError(t, fx.db.First(&req, fx.requirement.ID).Error)
	require.NoError(t, fx.db.First(&sup, fx.supply.ID).Error)
	require.Equal(t, model.ListingPartial, req.Status)
	require.Equal(t, model.ListingPartial, sup.Status)

	_, err = svc.Confirm(ctx, fx.buyer.ID, DealCreateInput{
		RequirementID: fx.requirement.ID,
		SupplyID:      fx.supply.ID,
		Quantity:      d("20"),
	})
	require.NoError(t, err)

	require.NoError(t, fx.db.First(&req, fx.requirement.ID).Error)
	require.NoError(t, fx.db.First(&sup, fx.supply.ID).Error)
	require.Equal(t, model.ListingPartial, req.Status)
	require.Equal(t, model.ListingFilled, sup.Status)

	// A filled supply accepts no further deals.
	_, err = svc.Confirm(ctx, fx.buyer.ID, DealCreateInput{
		RequirementID: fx.requirement.ID,
		SupplyID:      fx.supply.ID,
		Quantity:      d("1"),
	})
	require.True(t, apperr.Is(err, apperr.InvalidState))
}

func TestDealConfirmQuantityExceeded(t *testing.T) {
	fx := newDealFixture(t)
	require.NoError(t, fx.db.Model(&model.Supply{}).
		Where("id = ?", fx.supply.ID).Update("quantity", d("200")).Error)
	svc := NewDealService(fx.db, testRate)

	_, err := svc.Confirm(context.Background(), fx.buyer.ID, DealCreateInput{
		RequirementID: fx.requirement.ID,
		SupplyID:      fx.supply.ID,
		Quantity:      d("120"),
	})
	require.True(t, apperr.Is(err, apperr.QuantityExceeded))

	// A rejected confirmation leaves no deal behind.
	var count int64
	require.NoError(t, fx.db.Model(&model.Deal{}).Count(&count).Error)
	require.Zero(t, count)
}

// Two simultaneous confirms of 60 against a requirement of 100: each fits
// the remaining quantity alone but not together. The row lock serializes
// them, so exactly one wins and the loser re-reads the winner's committed
// deal.
func TestDealConfirmConcurrentOverRemaining(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	// sqlite's shared cache reports lock conflicts instead of blocking the
	// way a row lock does; a single pooled connection makes the second
	// transaction queue behind the first.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	buyerCo := seedCompany(t, db, "buyer co", nil, nil)
	sellerCo := seedCompany(t, db, "seller co", nil, nil)
	buyer := seedUser(t, db, "buyer@"+t.Name(), buyerCo.ID)
	seller := seedUser(t, db, "seller@"+t.Name(), sellerCo.ID)

	requirement := model.Requirement{
		CompanyID:    buyerCo.ID,
		UserID:       buyer.ID,
		CategoryName: "corn",
		Quantity:     dp("100"),
		Status:       model.ListingPublished,
	}
	require.NoError(t, db.Create(&requirement).Error)
	supply := model.Supply{
		CompanyID:      sellerCo.ID,
		UserID:         seller.ID,
		CategoryName:   "corn",
		Quantity:       dp("200"),
		ExFactoryPrice: dp("2500.00"),
		Status:         model.ListingPublished,
	}
	require.NoError(t, db.Create(&supply).Error)

	svc := NewDealService(db, testRate)
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.Confirm(context.Background(), buyer.ID, DealCreateInput{
				RequirementID: requirement.ID,
				SupplyID:      supply.ID,
				Quantity:      d("60"),
			})
			errs <- err
		}()
	}
	var failures []error
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			failures = append(failures, err)
		}
	}
	require.Len(t, failures, 1)
	require.True(t, apperr.Is(failures[0], apperr.QuantityExceeded))

	var deals []model.Deal
	require.NoError(t, db.Find(&deals).Error)
	require.Len(t, deals, 1)
	require.Equal(t, "60", deals[0].Quantity.String())

	var req model.Requirement
	require.NoError(t, db.First(&req, requirement.ID).Error)
	require.Equal(t, model.ListingPartial, req.Status)
}

func TestDealConfirmSupplyRemainingCheckedFirst(t *testing.T) {
	fx := newDealFixture(t)
	svc := NewDealService(fx.db, testRate)

	// 80 fits the requirement (100) but not the supply (60).
	_, err := svc.Confirm(context.Background(), fx.buyer.ID, DealCreateInput{
		RequirementID: fx.requirement.ID,
		SupplyID:      fx.supply.ID,
		Quantity:      d("80"),
	})
	require.True(t, apperr.Is(err, apperr.QuantityExceeded))
	require.Contains(t, err.Error(), "supply remaining")
}

func TestDealConfirmOnlyRequirementOwner(t *testing.T) {
	fx := newDealFixture(t)
	otherCo := seedCompany(t, fx.db, "other co", nil, nil)
	other := seedUser(t, fx.db, "other@"+t.Name(), otherCo.ID)
	svc := NewDealService(fx.db, testRate)

	_, err := svc.Confirm(context.Background(), other.ID, DealCreateInput{
		RequirementID: fx.requirement.ID,
		SupplyID:      fx.supply.ID,
		Quantity:      d("10"),
	})
	require.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestDealConfirmCategoryMismatch(t *testing.T) {
	fx := newDealFixture(t)
	require.NoError(t, fx.db.Model(&model.Supply{}).
		Where("id = ?", fx.supply.ID).Update("category_name", "wheat").Error)
	svc := NewDealService(fx.db, testRate)

	_, err := svc.Confirm(context.Background(), fx.buyer.ID, DealCreateInput{
		RequirementID: fx.requirement.ID,
		SupplyID:      fx.supply.ID,
		Quantity:      d("10"),
	})
	require.True(t, apperr.Is(err, apperr.Validation))
}

func TestDealConfirmWithdrawnSupply(t *testing.T) {
	fx := newDealFixture(t)
	require.NoError(t, fx.db.Model(&model.Supply{}).
		Where("id = ?", fx.supply.ID).Update("status", model.ListingWithdrawn).Error)
	svc := NewDealService(fx.db, testRate)

	_, err := svc.Confirm(context.Background(), fx.buyer.ID, DealCreateInput{
		RequirementID: fx.requirement.ID,
		SupplyID:      fx.supply.ID,
		Quantity:      d("10"),
	})
	require.True(t, apperr.Is(err, apperr.InvalidState))
}

func TestDealConfirmComputesDeliveredPrice(t *testing.T) {
	fx := newDealFixture(t)
	svc := NewDealService(fx.db, testRate)

	id, err := svc.Confirm(context.Background(), fx.buyer.ID, DealCreateInput{
		RequirementID: fx.requirement.ID,
		SupplyID:      fx.supply.ID,
		Quantity:      d("10"),
	})
	require.NoError(t, err)

	var deal model.Deal
	require.NoError(t, fx.db.First(&deal, id).Error)

	// Price defaults from the supply when the input carries none.
	require.Equal(t, "2500", deal.FinalExFactoryPrice.String())

	wantKm := geo.DistanceKm(fp(30.25), fp(120.16), fp(31.23), fp(121.47))
	require.NotNil(t, deal.DistanceKm)
	require.True(t, deal.DistanceKm.Equal(*wantKm))

	wantPrice := geo.DeliveredPrice(d("2500"), wantKm, testRate)
	require.NotNil(t, deal.DeliveredPrice)
	require.True(t, deal.DeliveredPrice.Equal(*wantPrice))
}

func TestDealConfirmUnknownDistance(t *testing.T) {
	fx := newDealFixture(t)
	require.NoError(t, fx.db.Model(&model.Company{}).
		Where("id = ?", fx.supply.CompanyID).
		Updates(map[string]interface{}{"latitude": nil, "longitude": nil}).Error)
	svc := NewDealService(fx.db, testRate)

	id, err := svc.Confirm(context.Background(), fx.buyer.ID, DealCreateInput{
		RequirementID: fx.requirement.ID,
		SupplyID:      fx.supply.ID,
		Quantity:      d("10"),
	})
	require.NoError(t, err)

	var deal model.Deal
	require.NoError(t, fx.db.First(&deal, id).Error)
	require.Nil(t, deal.DistanceKm)
	require.Nil(t, deal.DeliveredPrice)
}

func TestDealConfirmPurchasePointPreferred(t *testing.T) {
	fx := newDealFixture(t)
	require.NoError(t, fx.db.Model(&model.Requirement{}).
		Where("id = ?", fx.requirement.ID).
		Updates(map[string]interface{}{"purchase_lat": 32.06, "purchase_lng": 118.78}).Error)
	svc := NewDealService(fx.db, testRate)

	id, err := svc.Confirm(context.Background(), fx.buyer.ID, DealCreateInput{
		RequirementID: fx.requirement.ID,
		SupplyID:      fx.supply.ID,
		Quantity:      d("10"),
	})
	require.NoError(t, err)

	var deal model.Deal
	require.NoError(t, fx.db.First(&deal, id).Error)
	wantKm := geo.DistanceKm(fp(32.06), fp(118.78), fp(31.23), fp(121.47))
	require.NotNil(t, deal.DistanceKm)
	require.True(t, deal.DistanceKm.Equal(*wantKm))
}
