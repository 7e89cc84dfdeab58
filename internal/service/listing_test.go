package service

import (
	"context"
	"testing"
	"time"

	"agritrade/internal/apperr"
	"agritrade/internal/model"

	"github.com/stretchr/testify/require"
)

func TestRequirementCreateDefaultsAddress(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "buyer co", nil, nil)
	user := seedUser(t, db, "buyer@"+t.Name(), company.ID)
	svc := NewRequirementService(db)

	id, err := svc.Create(context.Background(), user.ID, RequirementCreateInput{
		CategoryName: "corn",
		Quantity:     dp("100"),
	})
	require.NoError(t, err)

	var req model.Requirement
	require.NoError(t, db.First(&req, id).Error)
	require.Equal(t, company.Address, req.PurchaseAddress)
	require.Equal(t, model.ListingPublished, req.Status)
}

func TestNormalizeExpiryClamp(t *testing.T) {
	minutes, at := normalizeExpiry(ip(20000))
	require.NotNil(t, minutes)
	require.Equal(t, maxExpireMinutes, *minutes)
	require.NotNil(t, at)
	require.WithinDuration(t, time.Now().Add(7*24*time.Hour), *at, time.Minute)

	minutes, at = normalizeExpiry(ip(0))
	require.Nil(t, minutes)
	require.Nil(t, at)

	minutes, at = normalizeExpiry(nil)
	require.Nil(t, minutes)
	require.Nil(t, at)

	minutes, at = normalizeExpiry(ip(60))
	require.NotNil(t, minutes)
	require.Equal(t, 60, *minutes)
	require.WithinDuration(t, time.Now().Add(time.Hour), *at, time.Minute)
}

func TestRequirementUpdateScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "buyer co", nil, nil)
	owner := seedUser(t, db, "owner@"+t.Name(), company.ID)
	stranger := seedUser(t, db, "stranger@"+t.Name(), company.ID)
	svc := NewRequirementService(db)
	ctx := context.Background()

	id, err := svc.Create(ctx, owner.ID, RequirementCreateInput{CategoryName: "corn"})
	require.NoError(t, err)

	remark := "urgent"
	err = svc.Update(ctx, stranger.ID, id, RequirementUpdateInput{Remark: &remark})
	require.True(t, apperr.Is(err, apperr.NotFound))

	require.NoError(t, svc.Update(ctx, owner.ID, id, RequirementUpdateInput{Remark: &remark}))

	var req model.Requirement
	require.NoError(t, db.First(&req, id).Error)
	require.Equal(t, "urgent", req.Remark)
}

func TestRequirementWithdraw(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "buyer co", nil, nil)
	user := seedUser(t, db, "buyer@"+t.Name(), company.ID)
	svc := NewRequirementService(db)
	ctx := context.Background()

	id, err := svc.Create(ctx, user.ID, RequirementCreateInput{CategoryName: "corn"})
	require.NoError(t, err)
	require.NoError(t, svc.Withdraw(ctx, user.ID, id))

	var req model.Requirement
	require.NoError(t, db.First(&req, id).Error)
	require.Equal(t, model.ListingWithdrawn, req.Status)
}

func TestSupplyCreateRequiresPriceOrBasis(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "seller co", nil, nil)
	user := seedUser(t, db, "seller@"+t.Name(), company.ID)
	svc := NewSupplyService(db, testRate)

	_, err := svc.Create(context.Background(), user.ID, SupplyCreateInput{CategoryName: "corn"})
	require.True(t, apperr.Is(err, apperr.Validation))
}

func TestSupplyBasisReferencePrice(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "seller co", nil, nil)
	user := seedUser(t, db, "seller@"+t.Name(), company.ID)
	svc := NewSupplyService(db, testRate)
	ctx := context.Background()

	fc := model.FuturesContract{Code: "C2609", Name: "corn 2609", LastPrice: dp("3000.00")}
	require.NoError(t, db.Create(&fc).Error)
	unquoted := model.FuturesContract{Code: "C2701", Name: "corn 2701"}
	require.NoError(t, db.Create(&unquoted).Error)

	id, err := svc.Create(ctx, user.ID, SupplyCreateInput{
		CategoryName: "corn",
		Quantity:     dp("500"),
		BasisQuotes: []BasisQuoteInput{
			{ContractCode: "C2609", BasisPrice: d("50.00"), AvailableQty: dp("300")},
			{ContractCode: "C2701", BasisPrice: d("-20.00")},
		},
	})
	require.NoError(t, err)

	view, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, view.BasisQuotes, 2)

	quoted := view.BasisQuotes[0]
	require.Equal(t, "corn 2609", quoted.ContractName)
	require.NotNil(t, quoted.ReferencePrice)
	require.Equal(t, "3050", quoted.ReferencePrice.String())

	// No futures quote means no reference price.
	require.Nil(t, view.BasisQuotes[1].ReferencePrice)
}

func TestExpireListingsSweep(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "co", nil, nil)
	user := seedUser(t, db, "user@"+t.Name(), company.ID)

	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(48 * time.Hour)

	expiredSup := model.Supply{
		CompanyID: company.ID, UserID: user.ID, CategoryName: "corn",
		ExFactoryPrice: dp("2500"), ExpireTime: &past, Status: model.ListingPublished,
	}
	freshSup := model.Supply{
		CompanyID: company.ID, UserID: user.ID, CategoryName: "corn",
		ExFactoryPrice: dp("2500"), ExpireTime: &future, Status: model.ListingPublished,
	}
	openEnded := model.Supply{
		CompanyID: company.ID, UserID: user.ID, CategoryName: "corn",
		ExFactoryPrice: dp("2500"), Status: model.ListingPublished,
	}
	expiredReq := model.Requirement{
		CompanyID: company.ID, UserID: user.ID, CategoryName: "corn",
		ExpireTime: &past, Status: model.ListingPartial,
	}
	require.NoError(t, db.Create(&expiredSup).Error)
	require.NoError(t, db.Create(&freshSup).Error)
	require.NoError(t, db.Create(&openEnded).Error)
	require.NoError(t, db.Create(&expiredReq).Error)

	swept, err := ExpireListings(db)
	require.NoError(t, err)
	require.Equal(t, int64(2), swept)

	var sup model.Supply
	require.NoError(t, db.First(&sup, expiredSup.ID).Error)
	require.Equal(t, model.ListingWithdrawn, sup.Status)
	sup = model.Supply{}
	require.NoError(t, db.First(&sup, freshSup.ID).Error)
	require.Equal(t, model.ListingPublished, sup.Status)
	sup = model.Supply{}
	require.NoError(t, db.First(&sup, openEnded.ID).Error)
	require.Equal(t, model.ListingPublished, sup.Status)

	var req model.Requirement
	require.NoError(t, db.First(&req, expiredReq.ID).Error)
	require.Equal(t, model.ListingWithdrawn, req.Status)

	// A second sweep finds nothing.
	swept, err = ExpireListings(db)
	require.NoError(t, err)
	require.Zero(t, swept)
}

func TestSupplyListDistanceAndDeliveredPrice(t *testing.T) {
	db := newTestDB(t)
	buyerCo := seedCompany(t, db, "buyer co", fp(30.25), fp(120.16))
	nearCo := seedCompany(t, db, "near co", fp(30.30), fp(120.20))
	farCo := seedCompany(t, db, "far co", fp(39.90), fp(116.40))
	buyer := seedUser(t, db, "buyer@"+t.Name(), buyerCo.ID)
	near := seedUser(t, db, "near@"+t.Name(), nearCo.ID)
	far := seedUser(t, db, "far@"+t.Name(), farCo.ID)
	svc := NewSupplyService(db, testRate)
	ctx := context.Background()

	_, err := svc.Create(ctx, far.ID, SupplyCreateInput{CategoryName: "corn", ExFactoryPrice: dp("2400.00")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, near.ID, SupplyCreateInput{CategoryName: "corn", ExFactoryPrice: dp("2500.00")})
	require.NoError(t, err)

	views, err := svc.List(ctx, buyer.ID, ListQuery{OrderBy: "distance", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, nearCo.ID, views[0].CompanyID)
	require.NotNil(t, views[0].DistanceKm)
	require.NotNil(t, views[0].DeliveredPrice)
	require.True(t, views[0].DistanceKm.LessThan(*views[1].DistanceKm))

	// Anonymous viewers get the hall without distances.
	anon, err := svc.List(ctx, 0, ListQuery{})
	require.NoError(t, err)
	require.Len(t, anon, 2)
	require.Nil(t, anon[0].DistanceKm)
	require.Nil(t, anon[0].DeliveredPrice)
}

func TestRequirementRemainingQuantity(t *testing.T) {
	fx := newDealFixture(t)
	deals := NewDealService(fx.db, testRate)
	reqs := NewRequirementService(fx.db)
	ctx := context.Background()

	_, err := deals.Confirm(ctx, fx.buyer.ID, DealCreateInput{
		RequirementID: fx.requirement.ID,
		SupplyID:      fx.supply.ID,
		Quantity:      d("40"),
	})
	require.NoError(t, err)

	view, err := reqs.GetByID(ctx, fx.requirement.ID)
	require.NoError(t, err)
	require.NotNil(t, view.RemainingQuantity)
	require.Equal(t, "60", view.RemainingQuantity.String())
}
