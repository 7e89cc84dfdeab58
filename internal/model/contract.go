package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContractStatus is the closed contract state machine.
//
//	draft → pending-signature → active → executing → completed
//
// Cancelled is reachable from every non-terminal state. Only the signature
// workflow performs pending→active; only the milestone engine performs
// active→executing and executing→completed.
type ContractStatus int

const (
	ContractDraft     ContractStatus = 0
	ContractPending   ContractStatus = 1
	ContractActive    ContractStatus = 2
	ContractExecuting ContractStatus = 3
	ContractCompleted ContractStatus = 4
	ContractCancelled ContractStatus = 5
)

func (s ContractStatus) String() string {
	switch s {
	case ContractDraft:
		return "draft"
	case ContractPending:
		return "pending_signature"
	case ContractActive:
		return "active"
	case ContractExecuting:
		return "executing"
	case ContractCompleted:
		return "completed"
	case ContractCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a member of the closed set.
func (s ContractStatus) Valid() bool {
	switch s {
	case ContractDraft, ContractPending, ContractActive, ContractExecuting, ContractCompleted, ContractCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves s.
func (s ContractStatus) Terminal() bool {
	return s == ContractCompleted || s == ContractCancelled
}

// PartyRole identifies which side of a contract an actor stands on.
type PartyRole string

const (
	PartyBuyer  PartyRole = "buyer"
	PartySeller PartyRole = "seller"
)

// SignMethod is the closed set of signature methods.
type SignMethod string

const (
	SignSeal          SignMethod = "seal"
	SignHandwrite     SignMethod = "handwrite"
	SignTyped         SignMethod = "typed"
	SignSealHandwrite SignMethod = "seal_handwrite"
)

// Valid reports whether m is a member of the closed set.
func (m SignMethod) Valid() bool {
	switch m {
	case SignSeal, SignHandwrite, SignTyped, SignSealHandwrite:
		return true
	}
	return false
}

// RequiresSeal reports whether m needs a company seal reference.
func (m SignMethod) RequiresSeal() bool {
	return m == SignSeal || m == SignSealHandwrite
}

// Contract is the agreement formed from a negotiation or drafted manually.
type Contract struct {
	ID              uint             `json:"id" gorm:"primarykey"`
	ContractNo      string           `json:"contract_no" gorm:"type:varchar(20);unique;not null"`
	DealID          *uint            `json:"deal_id" gorm:"index"`
	NegotiationID   *uint            `json:"negotiation_id" gorm:"index"`
	BuyerCompanyID  uint             `json:"buyer_company_id" gorm:"index;not null"`
	SellerCompanyID uint             `json:"seller_company_id" gorm:"index;not null"`
	CreatorUserID   uint             `json:"creator_user_id" gorm:"not null"`
	Title           string           `json:"title" gorm:"type:varchar(255)"`
	ProductName     string           `json:"product_name" gorm:"type:varchar(255);not null"`
	CategoryName    string           `json:"category_name" gorm:"type:varchar(100)"`
	Quantity        decimal.Decimal  `json:"quantity" gorm:"type:decimal(18,3);not null"`
	Unit            string           `json:"unit" gorm:"type:varchar(20)"`
	UnitPrice       decimal.Decimal  `json:"unit_price" gorm:"type:decimal(18,2);not null"`
	TotalAmount     decimal.Decimal  `json:"total_amount" gorm:"type:decimal(18,2);not null"`
	DeliveryAddress string           `json:"delivery_address" gorm:"type:varchar(512)"`
	DeliveryDate    *time.Time       `json:"delivery_date"`
	PaymentMethod   string           `json:"payment_method" gorm:"type:varchar(50)"`
	DeliveryMode    string           `json:"delivery_mode" gorm:"type:varchar(50)"`
	TermsJSON       string           `json:"terms_json" gorm:"type:text"`
	BasisPrice      *decimal.Decimal `json:"basis_price" gorm:"type:decimal(18,2)"`
	ContractCode    string           `json:"contract_code" gorm:"type:varchar(20)"`
	Status          ContractStatus   `json:"status" gorm:"not null;default:0"`
	BuyerSignTime   *time.Time       `json:"buyer_sign_time"`
	SellerSignTime  *time.Time       `json:"seller_sign_time"`
	PdfHash         string           `json:"pdf_hash" gorm:"type:varchar(80)"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `json:"deleted_at,omitempty" gorm:"index"`
}

// ContractSignature records one party's signature on a contract.
type ContractSignature struct {
	ID           uint           `json:"id" gorm:"primarykey"`
	ContractID   uint           `json:"contract_id" gorm:"index;not null"`
	UserID       uint           `json:"user_id" gorm:"not null"`
	CompanyID    uint           `json:"company_id" gorm:"not null"`
	PartyRole    PartyRole      `json:"party_role" gorm:"type:varchar(10);not null"`
	SignMethod   SignMethod     `json:"sign_method" gorm:"type:varchar(20);not null"`
	SealID       *uint          `json:"seal_id"`
	SignatureURL string         `json:"signature_url" gorm:"type:varchar(512)"`
	SignerName   string         `json:"signer_name" gorm:"type:varchar(100)"`
	SignerTitle  string         `json:"signer_title" gorm:"type:varchar(100)"`
	SignIP       string         `json:"sign_ip" gorm:"type:varchar(45)"`
	SignTime     time.Time      `json:"sign_time" gorm:"not null"`
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// MilestoneType is the closed set of fulfilment milestone types.
type MilestoneType string

const (
	MilestoneShip    MilestoneType = "SHIP"
	MilestoneReceive MilestoneType = "RECEIVE"
	MilestonePay     MilestoneType = "PAY"
	MilestoneInspect MilestoneType = "INSPECT"
	MilestoneCustom  MilestoneType = "CUSTOM"
)

// Valid reports whether t is a member of the closed set.
func (t MilestoneType) Valid() bool {
	switch t {
	case MilestoneShip, MilestoneReceive, MilestonePay, MilestoneInspect, MilestoneCustom:
		return true
	}
	return false
}

// MilestoneStatus is the closed milestone state machine:
// pending → submitted → confirmed | rejected. Rejected is terminal.
type MilestoneStatus string

const (
	MilestonePending   MilestoneStatus = "pending"
	MilestoneSubmitted MilestoneStatus = "submitted"
	MilestoneConfirmed MilestoneStatus = "confirmed"
	MilestoneRejected  MilestoneStatus = "rejected"
)

// ContractMilestone is one fulfilment step of an executing contract.
type ContractMilestone struct {
	ID             uint            `json:"id" gorm:"primarykey"`
	ContractID     uint            `json:"contract_id" gorm:"index;not null"`
	MilestoneType  MilestoneType   `json:"milestone_type" gorm:"type:varchar(20);not null"`
	MilestoneName  string          `json:"milestone_name" gorm:"type:varchar(100);not null"`
	Description    string          `json:"description" gorm:"type:text"`
	ExpectedDate   *time.Time      `json:"expected_date"`
	ActualDate     *time.Time      `json:"actual_date"`
	OperatorUserID *uint           `json:"operator_user_id"`
	EvidenceJSON   string          `json:"evidence_json" gorm:"type:text"`
	Remark         string          `json:"remark" gorm:"type:text"`
	RejectReason   string          `json:"reject_reason" gorm:"type:varchar(255)"`
	Status         MilestoneStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	ConfirmUserID  *uint           `json:"confirm_user_id"`
	ConfirmTime    *time.Time      `json:"confirm_time"`
	SortOrder      int             `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

// ContractChangeLog is the audit trail of a contract.
type ContractChangeLog struct {
	ID             uint      `json:"id" gorm:"primarykey"`
	ContractID     uint      `json:"contract_id" gorm:"index;not null"`
	ChangeType     string    `json:"change_type" gorm:"type:varchar(20);not null"`
	ChangeDesc     string    `json:"change_desc" gorm:"type:varchar(512)"`
	OperatorUserID uint      `json:"operator_user_id" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at"`
}

// CompanySeal is a registered seal usable in seal signatures.
type CompanySeal struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CompanyID uint           `json:"company_id" gorm:"index;not null"`
	UserID    uint           `json:"user_id" gorm:"not null"`
	SealType  string         `json:"seal_type" gorm:"type:varchar(20);not null;default:'official'"`
	SealName  string         `json:"seal_name" gorm:"type:varchar(100)"`
	SealURL   string         `json:"seal_url" gorm:"type:varchar(512)"`
	IsDefault bool           `json:"is_default" gorm:"not null;default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
