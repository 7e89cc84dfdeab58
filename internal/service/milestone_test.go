package service

import (
	"context"
	"testing"

	"agritrade/internal/apperr"
	"agritrade/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedActiveContract(t *testing.T, fx *contractFixture) uint {
	t.Helper()
	contract := model.Contract{
		ContractNo:      "CT202608280001",
		BuyerCompanyID:  *fx.buyer.CompanyID,
		SellerCompanyID: *fx.seller.CompanyID,
		CreatorUserID:   fx.buyer.ID,
		ProductName:     "corn",
		Quantity:        d("100"),
		UnitPrice:       d("2500.00"),
		TotalAmount:     d("250000.00"),
		Status:          model.ContractActive,
	}
	require.NoError(t, fx.db.Create(&contract).Error)
	return contract.ID
}

func contractStatus(t *testing.T, db *gorm.DB, id uint) model.ContractStatus {
	t.Helper()
	var contract model.Contract
	require.NoError(t, db.First(&contract, id).Error)
	return contract.Status
}

func TestMilestoneAddMovesContractToExecuting(t *testing.T) {
	fx := newContractFixture(t)
	svc := NewMilestoneService(fx.db, nil)
	ctx := context.Background()
	contractID := seedActiveContract(t, fx)

	id, err := svc.Add(ctx, fx.seller.ID, contractID, MilestoneCreateInput{
		MilestoneType: model.MilestoneShip,
		MilestoneName: "ship first lot",
	})
	require.NoError(t, err)
	require.NotZero(t, id)
	require.Equal(t, model.ContractExecuting, contractStatus(t, fx.db, contractID))

	// A second milestone leaves the contract executing.
	_, err = svc.Add(ctx, fx.buyer.ID, contractID, MilestoneCreateInput{
		MilestoneName: "payment",
	})
	require.NoError(t, err)
	require.Equal(t, model.ContractExecuting, contractStatus(t, fx.db, contractID))

	// The type defaults to custom when omitted.
	milestones, err := svc.ListByContract(ctx, fx.buyer.ID, contractID)
	require.NoError(t, err)
	require.Len(t, milestones, 2)
	require.Equal(t, model.MilestoneCustom, milestones[1].MilestoneType)
}

func TestMilestoneAddRequiresActiveContract(t *testing.T) {
	fx := newContractFixture(t)
	svc := NewMilestoneService(fx.db, nil)
	contractID := seedActiveContract(t, fx)
	require.NoError(t, fx.db.Model(&model.Contract{}).
		Where("id = ?", contractID).Update("status", model.ContractPending).Error)

	_, err := svc.Add(context.Background(), fx.seller.ID, contractID, MilestoneCreateInput{
		MilestoneName: "too early",
	})
	require.True(t, apperr.Is(err, apperr.InvalidState))
}

func TestMilestoneSubmitConfirmCompletesContract(t *testing.T) {
	fx := newContractFixture(t)
	svc := NewMilestoneService(fx.db, nil)
	ctx := context.Background()
	contractID := seedActiveContract(t, fx)

	id, err := svc.Add(ctx, fx.seller.ID, contractID, MilestoneCreateInput{
		MilestoneType: model.MilestoneShip,
		MilestoneName: "ship everything",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Submit(ctx, fx.seller.ID, id, MilestoneSubmitInput{
		EvidenceURLs: []string{"https://files.example/waybill.pdf"},
		Remark:       "left the warehouse",
	}))

	var milestone model.ContractMilestone
	require.NoError(t, fx.db.First(&milestone, id).Error)
	require.Equal(t, model.MilestoneSubmitted, milestone.Status)
	require.NotNil(t, milestone.ActualDate)
	require.Contains(t, milestone.EvidenceJSON, "waybill.pdf")

	// The submitter cannot confirm their own submission.
	_, err = svc.Confirm(ctx, fx.seller.ID, id)
	require.True(t, apperr.Is(err, apperr.Unauthorized))

	completed, err := svc.Confirm(ctx, fx.buyer.ID, id)
	require.NoError(t, err)
	require.True(t, completed)
	require.Equal(t, model.ContractCompleted, contractStatus(t, fx.db, contractID))

	require.NoError(t, fx.db.First(&milestone, id).Error)
	require.Equal(t, model.MilestoneConfirmed, milestone.Status)
	require.NotNil(t, milestone.ConfirmUserID)
	require.Equal(t, fx.buyer.ID, *milestone.ConfirmUserID)
}

func TestMilestoneRejectedBlocksCompletion(t *testing.T) {
	fx := newContractFixture(t)
	svc := NewMilestoneService(fx.db, nil)
	ctx := context.Background()
	contractID := seedActiveContract(t, fx)

	shipID, err := svc.Add(ctx, fx.seller.ID, contractID, MilestoneCreateInput{MilestoneName: "ship"})
	require.NoError(t, err)
	payID, err := svc.Add(ctx, fx.seller.ID, contractID, MilestoneCreateInput{MilestoneName: "pay"})
	require.NoError(t, err)

	require.NoError(t, svc.Submit(ctx, fx.seller.ID, shipID, MilestoneSubmitInput{
		EvidenceURLs: []string{"https://files.example/lot-7.jpg"},
		Remark:       "lot 7 shipped",
	}))
	require.NoError(t, svc.Reject(ctx, fx.buyer.ID, shipID, "wrong lot"))

	// The rejection reason does not clobber the submission record.
	var rejected model.ContractMilestone
	require.NoError(t, fx.db.First(&rejected, shipID).Error)
	require.Equal(t, model.MilestoneRejected, rejected.Status)
	require.Equal(t, "wrong lot", rejected.RejectReason)
	require.Equal(t, "lot 7 shipped", rejected.Remark)
	require.Contains(t, rejected.EvidenceJSON, "lot-7.jpg")

	// Rejected is terminal; it cannot be resubmitted.
	err = svc.Submit(ctx, fx.seller.ID, shipID, MilestoneSubmitInput{})
	require.True(t, apperr.Is(err, apperr.InvalidState))

	// Confirming the other milestone does not complete the contract while
	// the rejected one stays open.
	require.NoError(t, svc.Submit(ctx, fx.seller.ID, payID, MilestoneSubmitInput{}))
	completed, err := svc.Confirm(ctx, fx.buyer.ID, payID)
	require.NoError(t, err)
	require.False(t, completed)
	require.Equal(t, model.ContractExecuting, contractStatus(t, fx.db, contractID))
}

// Milestone writes serialize on the contract row the same way signatures
// do, so a concurrent add cannot slip past a confirm's completeness count.
// The touch is visible as an updated_at bump on the contract.
func TestMilestoneWritesSerializeOnContractRow(t *testing.T) {
	fx := newContractFixture(t)
	svc := NewMilestoneService(fx.db, nil)
	ctx := context.Background()
	contractID := seedActiveContract(t, fx)

	var before model.Contract
	require.NoError(t, fx.db.First(&before, contractID).Error)

	shipID, err := svc.Add(ctx, fx.seller.ID, contractID, MilestoneCreateInput{MilestoneName: "ship"})
	require.NoError(t, err)
	var afterAdd model.Contract
	require.NoError(t, fx.db.First(&afterAdd, contractID).Error)
	require.True(t, afterAdd.UpdatedAt.After(before.UpdatedAt))

	_, err = svc.Add(ctx, fx.seller.ID, contractID, MilestoneCreateInput{MilestoneName: "pay"})
	require.NoError(t, err)
	require.NoError(t, fx.db.First(&afterAdd, contractID).Error)

	// A confirm that does not complete the contract still takes the lock.
	require.NoError(t, svc.Submit(ctx, fx.seller.ID, shipID, MilestoneSubmitInput{}))
	completed, err := svc.Confirm(ctx, fx.buyer.ID, shipID)
	require.NoError(t, err)
	require.False(t, completed)
	var afterConfirm model.Contract
	require.NoError(t, fx.db.First(&afterConfirm, contractID).Error)
	require.True(t, afterConfirm.UpdatedAt.After(afterAdd.UpdatedAt))
	require.Equal(t, model.ContractExecuting, afterConfirm.Status)
}

func TestMilestoneDeletePendingOnly(t *testing.T) {
	fx := newContractFixture(t)
	svc := NewMilestoneService(fx.db, nil)
	ctx := context.Background()
	contractID := seedActiveContract(t, fx)

	id, err := svc.Add(ctx, fx.seller.ID, contractID, MilestoneCreateInput{MilestoneName: "ship"})
	require.NoError(t, err)
	require.NoError(t, svc.Submit(ctx, fx.seller.ID, id, MilestoneSubmitInput{}))

	err = svc.Delete(ctx, fx.seller.ID, id)
	require.True(t, apperr.Is(err, apperr.InvalidState))

	pendingID, err := svc.Add(ctx, fx.seller.ID, contractID, MilestoneCreateInput{MilestoneName: "pay"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, fx.seller.ID, pendingID))

	milestones, err := svc.ListByContract(ctx, fx.seller.ID, contractID)
	require.NoError(t, err)
	require.Len(t, milestones, 1)
}

func TestMilestoneOutsiderRejected(t *testing.T) {
	fx := newContractFixture(t)
	svc := NewMilestoneService(fx.db, nil)
	contractID := seedActiveContract(t, fx)

	otherCo := seedCompany(t, fx.db, "other co", nil, nil)
	other := seedUser(t, fx.db, "other@"+t.Name(), otherCo.ID)

	_, err := svc.Add(context.Background(), other.ID, contractID, MilestoneCreateInput{MilestoneName: "x"})
	require.True(t, apperr.Is(err, apperr.Unauthorized))
}
