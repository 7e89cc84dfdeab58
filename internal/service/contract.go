package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"agritrade/internal/apperr"
	"agritrade/internal/model"
	"agritrade/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// deliveryDateLayouts are the accepted delivery date formats, tried in
// order. Anything unparseable means no delivery date, never an error.
var deliveryDateLayouts = []string{
	"2006-01-02",
	"20060102",
	"2006/01/02",
	"2006.01.02",
	time.RFC3339,
}

// ContractService forms contracts, runs the signature workflow, and owns
// the contract state machine transitions that are not milestone-driven.
type ContractService struct {
	db       *gorm.DB
	renderer DocumentRenderer
	notifier Notifier
}

func NewContractService(db *gorm.DB, renderer DocumentRenderer, notifier Notifier) *ContractService {
	if renderer == nil {
		renderer = TextRenderer{}
	}
	return &ContractService{db: db, renderer: renderer, notifier: notifier}
}

// ContractDraftInput carries the fields of a manually drafted contract.
// The caller's company becomes the buyer side.
type ContractDraftInput struct {
	ContractNo      string           `json:"contract_no"`
	SellerCompanyID uint             `json:"seller_company_id"`
	Title           string           `json:"title"`
	ProductName     string           `json:"product_name"`
	CategoryName    string           `json:"category_name"`
	Quantity        decimal.Decimal  `json:"quantity"`
	Unit            string           `json:"unit"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	DeliveryAddress string           `json:"delivery_address"`
	DeliveryDate    string           `json:"delivery_date"`
	PaymentMethod   string           `json:"payment_method"`
	DeliveryMode    string           `json:"delivery_mode"`
	BasisPrice      *decimal.Decimal `json:"basis_price"`
	ContractCode    string           `json:"contract_code"`
	Status          *int             `json:"status"`
}

// CreateDraft drafts a contract with the caller's company as buyer. An
// unrecognized requested status normalizes to draft rather than failing.
// The total amount is always recomputed server-side.
func (s *ContractService) CreateDraft(ctx context.Context, userID uint, in ContractDraftInput) (uint, error) {
	if in.SellerCompanyID == 0 {
		return 0, apperr.New(apperr.Validation, "seller_company_id is required")
	}
	if strings.TrimSpace(in.ProductName) == "" {
		return 0, apperr.New(apperr.Validation, "product_name is required")
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return 0, apperr.New(apperr.Validation, "quantity must be greater than 0")
	}
	if in.UnitPrice.IsNegative() {
		return 0, apperr.New(apperr.Validation, "unit_price must not be negative")
	}

	status := model.ContractDraft
	if in.Status != nil && model.ContractStatus(*in.Status).Valid() {
		status = model.ContractStatus(*in.Status)
	}

	contractNo := strings.TrimSpace(in.ContractNo)
	if contractNo == "" {
		contractNo = generateContractNo()
	}

	var contractID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := resolveUser(tx, userID)
		if err != nil {
			return err
		}

		contract := model.Contract{
			ContractNo:      contractNo,
			BuyerCompanyID:  *user.CompanyID,
			SellerCompanyID: in.SellerCompanyID,
			CreatorUserID:   userID,
			Title:           strings.TrimSpace(in.Title),
			ProductName:     strings.TrimSpace(in.ProductName),
			CategoryName:    strings.TrimSpace(in.CategoryName),
			Quantity:        in.Quantity,
			Unit:            strings.TrimSpace(in.Unit),
			UnitPrice:       in.UnitPrice,
			TotalAmount:     in.Quantity.Mul(in.UnitPrice).Round(2),
			DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
			DeliveryDate:    parseDeliveryDate(in.DeliveryDate),
			PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
			DeliveryMode:    strings.TrimSpace(in.DeliveryMode),
			BasisPrice:      in.BasisPrice,
			ContractCode:    strings.TrimSpace(in.ContractCode),
			Status:          status,
		}
		if err := tx.Create(&contract).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "insert contract", err)
		}
		logChange(tx, contract.ID, "CREATE", "contract drafted", userID)
		contractID = contract.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return contractID, nil
}

// NegotiationContractInput carries the caller overrides applied on top of
// an accepted negotiation's terms.
type NegotiationContractInput struct {
	NegotiationID   uint   `json:"negotiation_id"`
	Title           string `json:"title"`
	DeliveryAddress string `json:"delivery_address"`
	DeliveryDate    string `json:"delivery_date"`
	PaymentMethod   string `json:"payment_method"`
}

// CreateFromNegotiation forms a contract from an accepted negotiation and
// puts it straight into pending-signature. A negotiation produces at most
// one contract.
func (s *ContractService) CreateFromNegotiation(ctx context.Context, userID uint, in NegotiationContractInput) (uint, error) {
	if in.NegotiationID == 0 {
		return 0, apperr.New(apperr.Validation, "negotiation_id is required")
	}

	var contractID uint
	var counterpartyUserID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := resolveUser(tx, userID)
		if err != nil {
			return err
		}

		var neg model.Negotiation
		if err := tx.First(&neg, in.NegotiationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "negotiation not found")
			}
			return apperr.Wrap(apperr.Internal, "load negotiation", err)
		}
		if *user.CompanyID != neg.BuyerCompanyID && *user.CompanyID != neg.SellerCompanyID {
			return apperr.New(apperr.Unauthorized, "not a party to this negotiation")
		}
		if neg.Status != model.NegotiationAccepted {
			return apperr.New(apperr.InvalidState, "negotiation is not accepted")
		}

		var count int64
		if err := tx.Model(&model.Contract{}).
			Where("negotiation_id = ?", neg.ID).
			Count(&count).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "check existing contract", err)
		}
		if count > 0 {
			return apperr.New(apperr.Conflict, "a contract already exists for this negotiation")
		}

		if !neg.Quantity.GreaterThan(decimal.Zero) {
			return apperr.New(apperr.Validation, "negotiation has no quantity")
		}
		if !neg.UnitPrice.GreaterThan(decimal.Zero) {
			return apperr.New(apperr.Validation, "negotiation has no price")
		}

		unit := neg.Unit
		if unit == "" {
			unit = "ton"
		}

		deliveryDate := parseDeliveryDate(in.DeliveryDate)
		if deliveryDate == nil {
			deliveryDate = neg.DeliveryDate
		}
		deliveryAddress := strings.TrimSpace(in.DeliveryAddress)
		if deliveryAddress == "" {
			deliveryAddress = neg.DeliveryAddress
		}
		paymentMethod := strings.TrimSpace(in.PaymentMethod)
		if paymentMethod == "" {
			paymentMethod = neg.PaymentMethod
		}

		negID := neg.ID
		contract := model.Contract{
			ContractNo:      generateContractNo(),
			NegotiationID:   &negID,
			BuyerCompanyID:  neg.BuyerCompanyID,
			SellerCompanyID: neg.SellerCompanyID,
			CreatorUserID:   userID,
			Title:           strings.TrimSpace(in.Title),
			ProductName:     neg.ProductName,
			CategoryName:    neg.CategoryName,
			Quantity:        neg.Quantity,
			Unit:            unit,
			UnitPrice:       neg.UnitPrice,
			TotalAmount:     neg.Quantity.Mul(neg.UnitPrice).Round(2),
			DeliveryAddress: deliveryAddress,
			DeliveryDate:    deliveryDate,
			PaymentMethod:   paymentMethod,
			DeliveryMode:    neg.DeliveryMode,
			TermsJSON:       defaultTermsJSON(neg.ProductName, neg.Quantity, unit, neg.UnitPrice),
			Status:          model.ContractPending,
		}
		if err := tx.Create(&contract).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "insert contract", err)
		}
		logChange(tx, contract.ID, "CREATE", "contract formed from negotiation", userID)

		contractID = contract.ID
		if userID == neg.BuyerUserID {
			counterpartyUserID = neg.SellerUserID
		} else {
			counterpartyUserID = neg.BuyerUserID
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	notify(ctx, s.notifier, counterpartyUserID, "contract.pending_signature",
		fmt.Sprintf("contract %d awaits your signature", contractID))
	return contractID, nil
}

// ContractUpdateInput carries draft-stage edits; nil means unchanged.
type ContractUpdateInput struct {
	Title           *string          `json:"title"`
	ProductName     *string          `json:"product_name"`
	Quantity        *decimal.Decimal `json:"quantity"`
	Unit            *string          `json:"unit"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	DeliveryAddress *string          `json:"delivery_address"`
	DeliveryDate    *string          `json:"delivery_date"`
	PaymentMethod   *string          `json:"payment_method"`
}

// Update edits a draft. The total amount is recomputed whenever quantity
// or price moves.
func (s *ContractService) Update(ctx context.Context, userID, id uint, in ContractUpdateInput) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := loadContractForParty(tx, userID, id)
		if err != nil {
			return err
		}
		if contract.Status != model.ContractDraft {
			return apperr.New(apperr.InvalidState, "only draft contracts can be updated")
		}

		quantity := contract.Quantity
		unitPrice := contract.UnitPrice
		updates := map[string]interface{}{}
		setString(updates, "title", in.Title)
		setString(updates, "product_name", in.ProductName)
		setString(updates, "unit", in.Unit)
		setString(updates, "delivery_address", in.DeliveryAddress)
		setString(updates, "payment_method", in.PaymentMethod)
		if in.Quantity != nil {
			if !in.Quantity.GreaterThan(decimal.Zero) {
				return apperr.New(apperr.Validation, "quantity must be greater than 0")
			}
			quantity = *in.Quantity
			updates["quantity"] = quantity
		}
		if in.UnitPrice != nil {
			if in.UnitPrice.IsNegative() {
				return apperr.New(apperr.Validation, "unit_price must not be negative")
			}
			unitPrice = *in.UnitPrice
			updates["unit_price"] = unitPrice
		}
		if in.DeliveryDate != nil {
			updates["delivery_date"] = parseDeliveryDate(*in.DeliveryDate)
		}
		updates["total_amount"] = quantity.Mul(unitPrice).Round(2)

		if err := tx.Model(&model.Contract{}).Where("id = ?", id).
			Updates(updates).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "update contract", err)
		}
		logChange(tx, id, "UPDATE", "contract terms updated", userID)
		return nil
	})
}

// Delete soft-deletes a draft. Only the creator's side may delete.
func (s *ContractService) Delete(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := loadContractForParty(tx, userID, id)
		if err != nil {
			return err
		}
		if contract.Status != model.ContractDraft {
			return apperr.New(apperr.InvalidState, "only draft contracts can be deleted")
		}
		if contract.CreatorUserID != userID {
			return apperr.New(apperr.Unauthorized, "only the contract creator can delete a draft")
		}
		if err := tx.Delete(&model.Contract{}, id).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "delete contract", err)
		}
		return nil
	})
}

// Cancel moves any non-terminal contract to cancelled.
func (s *ContractService) Cancel(ctx context.Context, userID, id uint, reason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := loadContractForParty(tx, userID, id)
		if err != nil {
			return err
		}
		if contract.Status.Terminal() {
			return apperr.New(apperr.InvalidState, "contract is already completed or cancelled")
		}
		if err := tx.Model(&model.Contract{}).Where("id = ?", id).
			Update("status", model.ContractCancelled).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "cancel contract", err)
		}
		desc := "contract cancelled"
		if strings.TrimSpace(reason) != "" {
			desc += ": " + strings.TrimSpace(reason)
		}
		logChange(tx, id, "STATUS", desc, userID)
		return nil
	})
}

// SendForSigning moves a draft into pending-signature.
func (s *ContractService) SendForSigning(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := loadContractForParty(tx, userID, id)
		if err != nil {
			return err
		}
		if contract.Status != model.ContractDraft {
			return apperr.New(apperr.InvalidState, "only draft contracts can be sent for signing")
		}
		if err := tx.Model(&model.Contract{}).Where("id = ?", id).
			Update("status", model.ContractPending).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "send for signing", err)
		}
		logChange(tx, id, "STATUS", "contract sent for signing", userID)
		return nil
	})
}

// SignInput is one party's signature request.
type SignInput struct {
	Method       model.SignMethod `json:"method"`
	SealID       *uint            `json:"seal_id"`
	SignatureURL string           `json:"signature_url"`
	SignerName   string           `json:"signer_name"`
	SignerTitle  string           `json:"signer_title"`
	SignIP       string           `json:"-"`
}

// Sign records a party's signature. Each party signs once; seal methods
// require a live seal owned by the signer's company. When the second party
// signs, the contract transitions to active in the same transaction.
func (s *ContractService) Sign(ctx context.Context, userID, contractID uint, in SignInput) error {
	if !in.Method.Valid() {
		return apperr.New(apperr.Validation, "unknown sign method")
	}

	var bothSigned bool
	var creatorUserID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := resolveUser(tx, userID)
		if err != nil {
			return err
		}

		// Lock first so the both-signed check sees the other party's
		// committed signature.
		if err := lockContract(tx, contractID); err != nil {
			return err
		}

		var contract model.Contract
		if err := tx.First(&contract, contractID).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "load contract", err)
		}
		if contract.Status != model.ContractPending {
			return apperr.New(apperr.InvalidState, "contract is not awaiting signatures")
		}

		var party model.PartyRole
		switch *user.CompanyID {
		case contract.BuyerCompanyID:
			party = model.PartyBuyer
		case contract.SellerCompanyID:
			party = model.PartySeller
		default:
			return apperr.New(apperr.Unauthorized, "not a signing party of this contract")
		}

		var signed int64
		if err := tx.Model(&model.ContractSignature{}).
			Where("contract_id = ? AND party_role = ?", contractID, party).
			Count(&signed).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "check existing signature", err)
		}
		if signed > 0 {
			return apperr.New(apperr.Conflict, "this party has already signed")
		}

		var sealID *uint
		if in.Method.RequiresSeal() {
			if in.SealID == nil {
				return apperr.New(apperr.Validation, "seal_id is required for seal signatures")
			}
			var seal model.CompanySeal
			if err := tx.First(&seal, *in.SealID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.New(apperr.NotFound, "seal not found")
				}
				return apperr.Wrap(apperr.Internal, "load seal", err)
			}
			if seal.CompanyID != *user.CompanyID {
				return apperr.New(apperr.Unauthorized, "seal belongs to another company")
			}
			sealID = in.SealID
		}

		now := time.Now()
		sig := model.ContractSignature{
			ContractID:   contractID,
			UserID:       userID,
			CompanyID:    *user.CompanyID,
			PartyRole:    party,
			SignMethod:   in.Method,
			SealID:       sealID,
			SignatureURL: strings.TrimSpace(in.SignatureURL),
			SignerName:   strings.TrimSpace(in.SignerName),
			SignerTitle:  strings.TrimSpace(in.SignerTitle),
			SignIP:       in.SignIP,
			SignTime:     now,
		}
		if err := tx.Create(&sig).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "insert signature", err)
		}

		signTimeColumn := "buyer_sign_time"
		if party == model.PartySeller {
			signTimeColumn = "seller_sign_time"
		}
		if err := tx.Model(&model.Contract{}).Where("id = ?", contractID).
			Update(signTimeColumn, now).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "stamp sign time", err)
		}
		logChange(tx, contractID, "SIGN", string(party)+" signed the contract", userID)

		var parties int64
		if err := tx.Model(&model.ContractSignature{}).
			Where("contract_id = ?", contractID).
			Distinct("party_role").
			Count(&parties).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "count signed parties", err)
		}
		if parties >= 2 {
			if err := tx.Model(&model.Contract{}).Where("id = ?", contractID).
				Update("status", model.ContractActive).Error; err != nil {
				return apperr.Wrap(apperr.Internal, "activate contract", err)
			}
			logChange(tx, contractID, "STATUS", "both parties signed, contract active", userID)
			bothSigned = true
		}

		creatorUserID = contract.CreatorUserID
		return nil
	})
	if err != nil {
		return err
	}

	if bothSigned {
		logger.FromStdContext(ctx).Info("contract fully signed",
			zap.Uint("contract_id", contractID))
		notify(ctx, s.notifier, creatorUserID, "contract.active",
			fmt.Sprintf("contract %d is now active", contractID))
	}
	return nil
}

// ContractView is a contract enriched with party names and sign flags.
type ContractView struct {
	model.Contract
	BuyerCompanyName  string `json:"buyer_company_name,omitempty"`
	SellerCompanyName string `json:"seller_company_name,omitempty"`
	BuyerSigned       bool   `json:"buyer_signed"`
	SellerSigned      bool   `json:"seller_signed"`
}

// GetByID returns a contract to one of its parties.
func (s *ContractService) GetByID(ctx context.Context, viewerUserID, id uint) (*ContractView, error) {
	db := s.db.WithContext(ctx)
	contract, err := loadContractForParty(db, viewerUserID, id)
	if err != nil {
		return nil, err
	}
	view, err := s.toView(db, contract)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ContractQuery filters the viewer's contract list.
type ContractQuery struct {
	Status  *int   `query:"status"`
	Keyword string `query:"keyword"`
}

// List returns the contracts the viewer's company is party to.
func (s *ContractService) List(ctx context.Context, viewerUserID uint, q ContractQuery) ([]ContractView, error) {
	db := s.db.WithContext(ctx)
	user, err := resolveUser(db, viewerUserID)
	if err != nil {
		return nil, err
	}

	scope := db.Model(&model.Contract{}).
		Where("buyer_company_id = ? OR seller_company_id = ?", *user.CompanyID, *user.CompanyID)
	if q.Status != nil {
		scope = scope.Where("status = ?", *q.Status)
	}
	if keyword := strings.TrimSpace(q.Keyword); keyword != "" {
		if len(keyword) > 64 {
			keyword = keyword[:64]
		}
		like := "%" + keyword + "%"
		scope = scope.Where("contract_no LIKE ? OR product_name LIKE ?", like, like)
	}

	var contracts []model.Contract
	if err := scope.Order("created_at DESC").Find(&contracts).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list contracts", err)
	}

	out := make([]ContractView, 0, len(contracts))
	for i := range contracts {
		view, err := s.toView(db, &contracts[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *view)
	}
	return out, nil
}

// RenderDocument renders the contract document, stores its SHA-256 tag,
// and returns the bytes with the tag.
func (s *ContractService) RenderDocument(ctx context.Context, viewerUserID, id uint) ([]byte, string, error) {
	db := s.db.WithContext(ctx)
	contract, err := loadContractForParty(db, viewerUserID, id)
	if err != nil {
		return nil, "", err
	}

	buyerName, sellerName := "", ""
	if c, err := loadCompany(db, contract.BuyerCompanyID); err == nil && c != nil {
		buyerName = c.Name
	}
	if c, err := loadCompany(db, contract.SellerCompanyID); err == nil && c != nil {
		sellerName = c.Name
	}

	bytes, err := s.renderer.Render(contract, buyerName, sellerName)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.Internal, "render contract document", err)
	}

	sum := sha256.Sum256(bytes)
	tag := "SHA256:" + hex.EncodeToString(sum[:])
	if err := db.Model(&model.Contract{}).Where("id = ?", id).
		Update("pdf_hash", tag).Error; err != nil {
		return nil, "", apperr.Wrap(apperr.Internal, "store document hash", err)
	}
	return bytes, tag, nil
}

// ListChangeLog returns the audit trail of a contract to one of its parties.
func (s *ContractService) ListChangeLog(ctx context.Context, viewerUserID, id uint) ([]model.ContractChangeLog, error) {
	db := s.db.WithContext(ctx)
	if _, err := loadContractForParty(db, viewerUserID, id); err != nil {
		return nil, err
	}
	var logs []model.ContractChangeLog
	if err := db.Where("contract_id = ?", id).Order("id").Find(&logs).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list change log", err)
	}
	return logs, nil
}

// loadContractForParty loads a contract and verifies the user's company is
// one of its parties.
// lockContract touches the contract row inside the caller's transaction so
// concurrent writers on the same contract serialize and reads after the
// lock wait see committed state.
func lockContract(tx *gorm.DB, contractID uint) error {
	res := tx.Model(&model.Contract{}).Where("id = ?", contractID).
		Update("updated_at", time.Now())
	if res.Error != nil {
		return apperr.Wrap(apperr.Internal, "lock contract", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "contract not found")
	}
	return nil
}

func loadContractForParty(tx *gorm.DB, userID, contractID uint) (*model.Contract, error) {
	user, err := resolveUser(tx, userID)
	if err != nil {
		return nil, err
	}
	var contract model.Contract
	if err := tx.First(&contract, contractID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "contract not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "load contract", err)
	}
	if *user.CompanyID != contract.BuyerCompanyID && *user.CompanyID != contract.SellerCompanyID {
		return nil, apperr.New(apperr.Unauthorized, "not a party to this contract")
	}
	return &contract, nil
}

func (s *ContractService) toView(db *gorm.DB, contract *model.Contract) (*ContractView, error) {
	view := ContractView{Contract: *contract}
	if c, err := loadCompany(db, contract.BuyerCompanyID); err != nil {
		return nil, err
	} else if c != nil {
		view.BuyerCompanyName = c.Name
	}
	if c, err := loadCompany(db, contract.SellerCompanyID); err != nil {
		return nil, err
	} else if c != nil {
		view.SellerCompanyName = c.Name
	}

	var sigs []model.ContractSignature
	if err := db.Where("contract_id = ?", contract.ID).Find(&sigs).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load signatures", err)
	}
	for _, sig := range sigs {
		switch sig.PartyRole {
		case model.PartyBuyer:
			view.BuyerSigned = true
		case model.PartySeller:
			view.SellerSigned = true
		}
	}
	return &view, nil
}

// logChange appends an audit row. Audit writes share the operation's
// transaction so a rolled-back change leaves no trail.
func logChange(tx *gorm.DB, contractID uint, changeType, desc string, operatorUserID uint) {
	entry := model.ContractChangeLog{
		ContractID:     contractID,
		ChangeType:     changeType,
		ChangeDesc:     desc,
		OperatorUserID: operatorUserID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		zap.L().Warn("change log write failed",
			zap.Uint("contract_id", contractID),
			zap.String("change_type", changeType),
			zap.Error(err),
		)
	}
}

// generateContractNo produces CT<yyyyMMdd><4 random digits>.
func generateContractNo() string {
	return fmt.Sprintf("CT%s%04d", time.Now().Format("20060102"), rand.Intn(10000))
}

// parseDeliveryDate tries the accepted layouts in order. Unparseable input
// yields nil.
func parseDeliveryDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range deliveryDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// defaultTermsJSON renders the boilerplate terms block for negotiated
// contracts.
func defaultTermsJSON(product string, quantity decimal.Decimal, unit string, unitPrice decimal.Decimal) string {
	return fmt.Sprintf(
		`{"product":{"name":%q,"quantity":%q,"unit":%q,"unitPrice":%q},"liability":"The breaching party bears liability for breach of contract.","dispute":"Disputes are settled by negotiation, failing that by the court at the buyer's seat."}`,
		product, quantity.String(), unit, unitPrice.String(),
	)
}
