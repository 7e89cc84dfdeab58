package service

import (
	"context"
	"testing"

	"agritrade/internal/apperr"
	"agritrade/internal/model"

	"github.com/stretchr/testify/require"
)

func TestSealDefaultClearsPrevious(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "co", nil, nil)
	user := seedUser(t, db, "user@"+t.Name(), company.ID)
	svc := NewSealService(db)
	ctx := context.Background()

	firstID, err := svc.Create(ctx, user.ID, SealCreateInput{SealName: "round", IsDefault: true})
	require.NoError(t, err)
	secondID, err := svc.Create(ctx, user.ID, SealCreateInput{SealName: "contract", IsDefault: true})
	require.NoError(t, err)

	var first, second model.CompanySeal
	require.NoError(t, db.First(&first, firstID).Error)
	require.NoError(t, db.First(&second, secondID).Error)
	require.False(t, first.IsDefault)
	require.True(t, second.IsDefault)

	// Type defaults to official.
	require.Equal(t, "official", first.SealType)
}

func TestSealDeleteScopedToCompany(t *testing.T) {
	db := newTestDB(t)
	company := seedCompany(t, db, "co", nil, nil)
	otherCo := seedCompany(t, db, "other co", nil, nil)
	user := seedUser(t, db, "user@"+t.Name(), company.ID)
	other := seedUser(t, db, "other@"+t.Name(), otherCo.ID)
	svc := NewSealService(db)
	ctx := context.Background()

	id, err := svc.Create(ctx, user.ID, SealCreateInput{SealName: "round"})
	require.NoError(t, err)

	err = svc.Delete(ctx, other.ID, id)
	require.True(t, apperr.Is(err, apperr.NotFound))

	require.NoError(t, svc.Delete(ctx, user.ID, id))
	seals, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, seals)
}
