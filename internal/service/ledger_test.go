package service

import (
	"testing"

	"agritrade/internal/model"

	"github.com/stretchr/testify/require"
)

func TestRemaining(t *testing.T) {
	require.Nil(t, Remaining(nil, d("40")))

	r := Remaining(dp("100"), d("40"))
	require.NotNil(t, r)
	require.Equal(t, "60", r.String())

	r = Remaining(dp("100"), d("100"))
	require.NotNil(t, r)
	require.True(t, r.IsZero())
}

func TestDeriveListingStatus(t *testing.T) {
	// Nothing confirmed keeps the previous status.
	require.Equal(t, model.ListingPublished,
		DeriveListingStatus(model.ListingPublished, dp("100"), d("0")))

	require.Equal(t, model.ListingPartial,
		DeriveListingStatus(model.ListingPublished, dp("100"), d("40")))

	require.Equal(t, model.ListingFilled,
		DeriveListingStatus(model.ListingPartial, dp("100"), d("100")))

	// Overfill still reads as filled.
	require.Equal(t, model.ListingFilled,
		DeriveListingStatus(model.ListingPartial, dp("100"), d("120")))

	// An unbounded listing never changes status from the ledger.
	require.Equal(t, model.ListingPublished,
		DeriveListingStatus(model.ListingPublished, nil, d("40")))
}

func TestDeriveListingStatusWithdrawnSticky(t *testing.T) {
	require.Equal(t, model.ListingWithdrawn,
		DeriveListingStatus(model.ListingWithdrawn, dp("100"), d("0")))
	require.Equal(t, model.ListingWithdrawn,
		DeriveListingStatus(model.ListingWithdrawn, dp("100"), d("100")))
}
