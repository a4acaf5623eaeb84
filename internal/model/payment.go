package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment records funds applied to close out one or more invoices of a single
// store. Payments are append-only: corrections are new records, never edits.
type Payment struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID     uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`
	PaymentDate time.Time `gorm:"not null;index" json:"payment_date"`

	// Method is set for single-method payments; split payments leave it
	// empty and carry their components in Splits.
	Method       string          `gorm:"type:varchar(10)" json:"method"` // CASH, CHECK, CARD
	CheckNumber  string          `gorm:"type:varchar(50)" json:"check_number"`
	CreditCardID *uuid.UUID      `gorm:"type:uuid" json:"credit_card_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"` // Σ covered invoice amounts

	Splits   []PaymentSplit `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE" json:"splits"`
	Invoices []Invoice      `gorm:"foreignKey:PaymentID" json:"invoices,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaymentSplit is one method component of a split payment.
// Invariant: Σ splits.amount == payment.amount within 0.01.
type PaymentSplit struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PaymentID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"payment_id"`
	Method       string          `gorm:"type:varchar(10);not null" json:"method"` // CASH, CHECK, CARD
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	CheckNumber  string          `gorm:"type:varchar(50)" json:"check_number"`  // required when CHECK
	CreditCardID *uuid.UUID      `gorm:"type:uuid" json:"credit_card_id"`       // required when CARD
	CreatedAt    time.Time       `json:"created_at"`
}
