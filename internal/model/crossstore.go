package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Allocation reimbursement sub-state constants
const (
	AllocationNotRequired = "NOT_REQUIRED"
	AllocationPending     = "PENDING"
	AllocationCompleted   = "COMPLETED"
)

// CrossStorePayment records funds disbursed by one store on behalf of others.
// Invariant: Σ allocations.allocated_amount == amount within 0.01.
type CrossStorePayment struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SourceStoreID uuid.UUID       `gorm:"type:uuid;not null;index" json:"source_store_id"`
	SourceStore   *Store          `gorm:"foreignKey:SourceStoreID" json:"source_store,omitempty"`
	PaymentDate   time.Time       `gorm:"not null;index" json:"payment_date"`
	Method        string          `gorm:"type:varchar(10);not null" json:"method"` // CASH, BANK, CHECK, CARD
	Payee         string          `gorm:"type:varchar(255)" json:"payee"`          // who was actually paid
	Reference     string          `gorm:"type:varchar(100)" json:"reference"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Notes         string          `gorm:"type:text" json:"notes"`

	Allocations []StoreAllocation `gorm:"foreignKey:CrossStorePaymentID;constraint:OnDelete:CASCADE" json:"allocations"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoreAllocation is the portion of a cross-store payment attributed to one
// target store, each with its own reimbursement lifecycle.
type StoreAllocation struct {
	ID                  uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CrossStorePaymentID uuid.UUID `gorm:"type:uuid;not null;index" json:"cross_store_payment_id"`
	TargetStoreID       uuid.UUID `gorm:"type:uuid;not null;index" json:"target_store_id"`
	TargetStore         *Store    `gorm:"foreignKey:TargetStoreID" json:"target_store,omitempty"`

	AllocatedAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"allocated_amount"`
	Memo            string          `gorm:"type:text" json:"memo"`
	TargetType      string          `gorm:"type:varchar(50)" json:"target_type"` // free-form classification

	ReimbursementRequired bool            `gorm:"default:true" json:"reimbursement_required"`
	ReimbursementStatus   string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"reimbursement_status"` // NOT_REQUIRED, PENDING, COMPLETED
	ReimbursementNote     string          `gorm:"type:text" json:"reimbursement_note"`
	ReimbursedAt          *time.Time      `json:"reimbursed_at"`
	ReimbursedAmount      decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"reimbursed_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
