package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"agritrade/internal/apperr"
	"agritrade/internal/model"
	"agritrade/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MilestoneService runs the fulfilment milestone engine. Milestones move
// pending → submitted → confirmed or rejected; rejected is terminal, a
// retry means adding a new milestone. Confirming the last open milestone
// completes the contract in the same transaction.
type MilestoneService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewMilestoneService(db *gorm.DB, notifier Notifier) *MilestoneService {
	return &MilestoneService{db: db, notifier: notifier}
}

// MilestoneCreateInput describes a new fulfilment step.
type MilestoneCreateInput struct {
	MilestoneType model.MilestoneType `json:"milestone_type"`
	MilestoneName string              `json:"milestone_name"`
	Description   string              `json:"description"`
	ExpectedDate  *time.Time          `json:"expected_date"`
	SortOrder     int                 `json:"sort_order"`
}

// Add attaches a milestone to an active or executing contract. Adding the
// first milestone to an active contract moves it to executing.
func (s *MilestoneService) Add(ctx context.Context, userID, contractID uint, in MilestoneCreateInput) (uint, error) {
	milestoneType := in.MilestoneType
	if milestoneType == "" {
		milestoneType = model.MilestoneCustom
	}
	if !milestoneType.Valid() {
		return 0, apperr.New(apperr.Validation, "unknown milestone type")
	}
	if strings.TrimSpace(in.MilestoneName) == "" {
		return 0, apperr.New(apperr.Validation, "milestone_name is required")
	}

	var milestoneID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock first so an add cannot slip a fresh pending milestone past a
		// concurrent confirm's completeness count.
		if err := lockContract(tx, contractID); err != nil {
			return err
		}
		contract, err := loadContractForParty(tx, userID, contractID)
		if err != nil {
			return err
		}
		if contract.Status != model.ContractActive && contract.Status != model.ContractExecuting {
			return apperr.New(apperr.InvalidState, "contract is not active or executing")
		}

		milestone := model.ContractMilestone{
			ContractID:    contractID,
			MilestoneType: milestoneType,
			MilestoneName: strings.TrimSpace(in.MilestoneName),
			Description:   strings.TrimSpace(in.Description),
			ExpectedDate:  in.ExpectedDate,
			SortOrder:     in.SortOrder,
			Status:        model.MilestonePending,
		}
		if err := tx.Create(&milestone).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "insert milestone", err)
		}

		if contract.Status == model.ContractActive {
			if err := tx.Model(&model.Contract{}).Where("id = ?", contractID).
				Update("status", model.ContractExecuting).Error; err != nil {
				return apperr.Wrap(apperr.Internal, "move contract to executing", err)
			}
			logChange(tx, contractID, "STATUS", "first milestone added, contract executing", userID)
		}
		logChange(tx, contractID, "MILESTONE", "milestone added: "+milestone.MilestoneName, userID)
		milestoneID = milestone.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return milestoneID, nil
}

// ListByContract returns a contract's milestones to one of its parties.
func (s *MilestoneService) ListByContract(ctx context.Context, userID, contractID uint) ([]model.ContractMilestone, error) {
	db := s.db.WithContext(ctx)
	if _, err := loadContractForParty(db, userID, contractID); err != nil {
		return nil, err
	}
	var milestones []model.ContractMilestone
	if err := db.Where("contract_id = ?", contractID).
		Order("sort_order, id").
		Find(&milestones).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list milestones", err)
	}
	return milestones, nil
}

// MilestoneSubmitInput carries the fulfilment evidence.
type MilestoneSubmitInput struct {
	EvidenceURLs []string   `json:"evidence_urls"`
	ActualDate   *time.Time `json:"actual_date"`
	Remark       string     `json:"remark"`
}

// Submit marks a pending milestone as done, with evidence, by one party.
func (s *MilestoneService) Submit(ctx context.Context, userID, milestoneID uint, in MilestoneSubmitInput) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		milestone, contract, err := s.loadMilestoneForParty(tx, userID, milestoneID)
		if err != nil {
			return err
		}
		if milestone.Status != model.MilestonePending {
			return apperr.New(apperr.InvalidState, "milestone has already been submitted or resolved")
		}

		evidenceJSON := ""
		if len(in.EvidenceURLs) > 0 {
			if b, err := json.Marshal(in.EvidenceURLs); err == nil {
				evidenceJSON = string(b)
			}
		}
		actualDate := in.ActualDate
		if actualDate == nil {
			now := time.Now()
			actualDate = &now
		}

		if err := tx.Model(&model.ContractMilestone{}).Where("id = ?", milestoneID).
			Updates(map[string]interface{}{
				"status":           model.MilestoneSubmitted,
				"operator_user_id": userID,
				"actual_date":      actualDate,
				"evidence_json":    evidenceJSON,
				"remark":           strings.TrimSpace(in.Remark),
			}).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "submit milestone", err)
		}
		logChange(tx, contract.ID, "MILESTONE", "milestone submitted: "+milestone.MilestoneName, userID)
		return nil
	})
}

// Confirm accepts a submitted milestone. The submitter cannot confirm
// their own submission. When every non-deleted milestone of the contract is
// confirmed, the contract completes in the same transaction. Returns whether
// this confirmation completed the contract.
func (s *MilestoneService) Confirm(ctx context.Context, userID, milestoneID uint) (bool, error) {
	var completedContractID uint
	var notifyUserID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the contract row before any read that feeds the completeness
		// count, so concurrent confirms of the last open milestones and
		// concurrent adds serialize.
		var ref model.ContractMilestone
		if err := tx.Select("contract_id").First(&ref, milestoneID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "milestone not found")
			}
			return apperr.Wrap(apperr.Internal, "load milestone", err)
		}
		if err := lockContract(tx, ref.ContractID); err != nil {
			return err
		}

		milestone, contract, err := s.loadMilestoneForParty(tx, userID, milestoneID)
		if err != nil {
			return err
		}
		if milestone.Status != model.MilestoneSubmitted {
			return apperr.New(apperr.InvalidState, "milestone is not awaiting confirmation")
		}
		if milestone.OperatorUserID != nil && *milestone.OperatorUserID == userID {
			return apperr.New(apperr.Unauthorized, "cannot confirm your own submission")
		}

		now := time.Now()
		if err := tx.Model(&model.ContractMilestone{}).Where("id = ?", milestoneID).
			Updates(map[string]interface{}{
				"status":          model.MilestoneConfirmed,
				"confirm_user_id": userID,
				"confirm_time":    now,
			}).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "confirm milestone", err)
		}
		logChange(tx, contract.ID, "MILESTONE", "milestone confirmed: "+milestone.MilestoneName, userID)

		// A contract with zero milestones never auto-completes; this path
		// always has at least the one just confirmed.
		var open int64
		if err := tx.Model(&model.ContractMilestone{}).
			Where("contract_id = ? AND status <> ?", contract.ID, model.MilestoneConfirmed).
			Count(&open).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "count open milestones", err)
		}
		if open == 0 && contract.Status == model.ContractExecuting {
			if err := tx.Model(&model.Contract{}).Where("id = ?", contract.ID).
				Update("status", model.ContractCompleted).Error; err != nil {
				return apperr.Wrap(apperr.Internal, "complete contract", err)
			}
			logChange(tx, contract.ID, "STATUS", "all milestones confirmed, contract completed", userID)
			completedContractID = contract.ID
			notifyUserID = contract.CreatorUserID
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if completedContractID != 0 {
		logger.FromStdContext(ctx).Info("contract completed",
			zap.Uint("contract_id", completedContractID))
		notify(ctx, s.notifier, notifyUserID, "contract.completed",
			fmt.Sprintf("contract %d is completed", completedContractID))
	}
	return completedContractID != 0, nil
}

// Reject declines a submitted milestone. Rejected is terminal; fulfilment
// continues by adding a fresh milestone.
func (s *MilestoneService) Reject(ctx context.Context, userID, milestoneID uint, reason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		milestone, contract, err := s.loadMilestoneForParty(tx, userID, milestoneID)
		if err != nil {
			return err
		}
		if milestone.Status != model.MilestoneSubmitted {
			return apperr.New(apperr.InvalidState, "milestone is not awaiting confirmation")
		}
		if milestone.OperatorUserID != nil && *milestone.OperatorUserID == userID {
			return apperr.New(apperr.Unauthorized, "cannot reject your own submission")
		}

		// The submitter's remark and evidence stay untouched; the reason
		// lives in its own column.
		if err := tx.Model(&model.ContractMilestone{}).Where("id = ?", milestoneID).
			Updates(map[string]interface{}{
				"status":          model.MilestoneRejected,
				"confirm_user_id": userID,
				"reject_reason":   strings.TrimSpace(reason),
			}).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "reject milestone", err)
		}
		logChange(tx, contract.ID, "MILESTONE", "milestone rejected: "+milestone.MilestoneName, userID)
		return nil
	})
}

// Delete soft-deletes a pending milestone.
func (s *MilestoneService) Delete(ctx context.Context, userID, milestoneID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		milestone, contract, err := s.loadMilestoneForParty(tx, userID, milestoneID)
		if err != nil {
			return err
		}
		if milestone.Status != model.MilestonePending {
			return apperr.New(apperr.InvalidState, "only pending milestones can be deleted")
		}
		if err := tx.Delete(&model.ContractMilestone{}, milestoneID).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "delete milestone", err)
		}
		logChange(tx, contract.ID, "MILESTONE", "milestone deleted: "+milestone.MilestoneName, userID)
		return nil
	})
}

// loadMilestoneForParty loads a milestone plus its contract and verifies
// the user is a contract party.
func (s *MilestoneService) loadMilestoneForParty(tx *gorm.DB, userID, milestoneID uint) (*model.ContractMilestone, *model.Contract, error) {
	var milestone model.ContractMilestone
	if err := tx.First(&milestone, milestoneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.NotFound, "milestone not found")
		}
		return nil, nil, apperr.Wrap(apperr.Internal, "load milestone", err)
	}
	contract, err := loadContractForParty(tx, userID, milestone.ContractID)
	if err != nil {
		return nil, nil, err
	}
	return &milestone, contract, nil
}
