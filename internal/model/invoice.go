package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseType enum constants
const (
	PurchaseTypeCash       = "CASH"
	PurchaseTypeInvoice    = "INVOICE"
	PurchaseTypeCreditMemo = "CREDIT_MEMO"
)

// PaymentMethod enum constants, shared by purchase-time payment,
// batch payments, split components and reimbursement settlements.
const (
	MethodCash  = "CASH"
	MethodBank  = "BANK"
	MethodCheck = "CHECK"
	MethodCard  = "CARD"
)

// AmountSource marks whether Invoice.Amount was typed in by the user or
// derived from the item list. Recalculation only overwrites DERIVED amounts.
const (
	AmountSourceManual  = "MANUAL"
	AmountSourceDerived = "DERIVED"
)

// RevenueMethod enum constants
const (
	RevenueMethodNone             = "NONE"
	RevenueMethodManual           = "MANUAL"
	RevenueMethodProductSelection = "PRODUCT_SELECTION"
	RevenueMethodAutoCalculate    = "AUTO_CALCULATE"
)

// ReimbursementStatus enum constants (invoice-level, third-party payer)
const (
	ReimbursementNone       = "NONE"
	ReimbursementPending    = "PENDING"
	ReimbursementReimbursed = "REIMBURSED"
)

// Derived invoice status values — never stored, always computed.
const (
	InvoiceStatusPending   = "PENDING"
	InvoiceStatusPaid      = "PAID"
	InvoiceStatusOverdue   = "OVERDUE"
	InvoiceStatusCancelled = "CANCELLED"
)

// DefaultDueDays applies to INVOICE purchases whose vendor carries no payment terms
const DefaultDueDays = 30

// Invoice represents a vendor purchase owed or already settled by a store.
type Invoice struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"store_id"`
	Store        *Store     `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	VendorID     *uuid.UUID `gorm:"type:uuid;index" json:"vendor_id"`
	Vendor       *Vendor    `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	PurchaseDate time.Time  `gorm:"not null;index" json:"purchase_date"`
	DueDate      *time.Time `gorm:"index" json:"due_date"` // purchase_date + due_days, INVOICE purchases only

	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	AmountSource  string          `gorm:"type:varchar(10);not null;default:'MANUAL'" json:"amount_source"` // MANUAL, DERIVED
	PurchaseType  string          `gorm:"type:varchar(20);not null;index" json:"purchase_type"`            // CASH, INVOICE, CREDIT_MEMO
	InvoiceNumber string          `gorm:"type:varchar(100)" json:"invoice_number"`                         // required unless CASH

	// Payment-on-purchase: either a direct method (+ bank/card reference)
	// or the third-party path below, never both.
	PaidOnPurchase bool        `gorm:"default:false" json:"paid_on_purchase"`
	PurchaseMethod string      `gorm:"type:varchar(10)" json:"purchase_method"` // CASH, BANK, CHECK, CARD
	BankAccountID  *uuid.UUID  `gorm:"type:uuid" json:"bank_account_id"`
	CreditCardID   *uuid.UUID  `gorm:"type:uuid" json:"credit_card_id"`
	CreditCard     *CreditCard `gorm:"foreignKey:CreditCardID" json:"credit_card,omitempty"`

	// Third-party payer awaiting reimbursement
	IsReimbursable      bool            `gorm:"default:false" json:"is_reimbursable"`
	ReimbursementTo     string          `gorm:"type:varchar(255)" json:"reimbursement_to"`
	ReimbursementStatus string          `gorm:"type:varchar(20);not null;default:'NONE';index" json:"reimbursement_status"` // NONE, PENDING, REIMBURSED
	ReimbursedAt        *time.Time      `json:"reimbursed_at"`
	ReimbursedAmount    decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"reimbursed_amount"`
	ReimbursementMethod string          `gorm:"type:varchar(10)" json:"reimbursement_method"`
	ReimbursementRef    string          `gorm:"type:varchar(100)" json:"reimbursement_ref"` // check number or bank account

	// Revenue side
	RevenueMethod   string          `gorm:"type:varchar(20);not null;default:'NONE'" json:"revenue_method"`
	ExpectedRevenue decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"expected_revenue"`

	// Set when a Payment fully covers this invoice; many invoices may share one Payment.
	PaymentID *uuid.UUID `gorm:"type:uuid;index" json:"payment_id"`

	Items     []InvoiceItem  `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	Notes     string         `gorm:"type:text" json:"notes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// InvoiceItem is one selected product line contributing to the invoice's cost basis.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product     *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	OrderItemID *uuid.UUID      `gorm:"type:uuid;index" json:"order_item_id"` // set when the line came from a delivery
	Quantity    int             `gorm:"type:int;not null" json:"quantity"`    // packs
	UnitCost    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_cost"`
	VapeTaxPaid bool            `gorm:"default:false" json:"vape_tax_paid"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Status derives the invoice status for a given reference day.
// PAID as soon as a Payment references it, OVERDUE when the due date has
// passed while unpaid, otherwise PENDING. Soft-deleted rows read as CANCELLED.
func (i *Invoice) Status(today time.Time) string {
	if i.DeletedAt.Valid {
		return InvoiceStatusCancelled
	}
	if i.PaymentID != nil {
		return InvoiceStatusPaid
	}
	if i.DueDate != nil && i.DueDate.Before(today) {
		return InvoiceStatusOverdue
	}
	return InvoiceStatusPending
}
