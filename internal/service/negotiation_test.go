package service

import (
	"context"
	"testing"

	"agritrade/internal/apperr"
	"agritrade/internal/model"

	"github.com/stretchr/testify/require"
)

func TestNegotiationOfferAndAccept(t *testing.T) {
	fx := newContractFixture(t)
	svc := NewNegotiationService(fx.db, nil)
	ctx := context.Background()

	id, err := svc.Create(ctx, fx.seller.ID, NegotiationCreateInput{
		BuyerUserID: fx.buyer.ID,
		ProductName: "soybean",
		Quantity:    d("50"),
		UnitPrice:   d("4200.00"),
	})
	require.NoError(t, err)

	neg, err := svc.GetByID(ctx, fx.buyer.ID, id)
	require.NoError(t, err)
	require.Equal(t, model.NegotiationOffered, neg.Status)

	// The seller cannot resolve their own offer.
	err = svc.Accept(ctx, fx.seller.ID, id)
	require.True(t, apperr.Is(err, apperr.Unauthorized))

	require.NoError(t, svc.Accept(ctx, fx.buyer.ID, id))
	neg, err = svc.GetByID(ctx, fx.seller.ID, id)
	require.NoError(t, err)
	require.Equal(t, model.NegotiationAccepted, neg.Status)

	// A resolved negotiation stays resolved.
	err = svc.Decline(ctx, fx.buyer.ID, id)
	require.True(t, apperr.Is(err, apperr.InvalidState))
}

func TestNegotiationDecline(t *testing.T) {
	fx := newContractFixture(t)
	svc := NewNegotiationService(fx.db, nil)
	ctx := context.Background()

	id, err := svc.Create(ctx, fx.seller.ID, NegotiationCreateInput{
		BuyerUserID: fx.buyer.ID,
		ProductName: "soybean",
		Quantity:    d("50"),
		UnitPrice:   d("4200.00"),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Decline(ctx, fx.buyer.ID, id))

	neg, err := svc.GetByID(ctx, fx.buyer.ID, id)
	require.NoError(t, err)
	require.Equal(t, model.NegotiationDeclined, neg.Status)
}

func TestNegotiationWithinOneCompany(t *testing.T) {
	fx := newContractFixture(t)
	svc := NewNegotiationService(fx.db, nil)

	colleague := seedUser(t, fx.db, "colleague@"+t.Name(), *fx.seller.CompanyID)
	_, err := svc.Create(context.Background(), fx.seller.ID, NegotiationCreateInput{
		BuyerUserID: colleague.ID,
		ProductName: "soybean",
		Quantity:    d("50"),
		UnitPrice:   d("4200.00"),
	})
	require.True(t, apperr.Is(err, apperr.Validation))
}

func TestNegotiationListScopedToParty(t *testing.T) {
	fx := newContractFixture(t)
	svc := NewNegotiationService(fx.db, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, fx.seller.ID, NegotiationCreateInput{
		BuyerUserID: fx.buyer.ID,
		ProductName: "soybean",
		Quantity:    d("50"),
		UnitPrice:   d("4200.00"),
	})
	require.NoError(t, err)

	otherCo := seedCompany(t, fx.db, "other co", nil, nil)
	other := seedUser(t, fx.db, "other@"+t.Name(), otherCo.ID)

	mine, err := svc.List(ctx, fx.buyer.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	theirs, err := svc.List(ctx, other.ID)
	require.NoError(t, err)
	require.Empty(t, theirs)
}
