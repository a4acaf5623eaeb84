package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storepay/internal/logger"
	"storepay/internal/model"
	"storepay/internal/repository"
	ws "storepay/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type MarkReimbursedRequest struct {
	Method        string `json:"method" binding:"required,oneof=CASH BANK CHECK CARD"`
	CheckNumber   string `json:"check_number"`
	BankAccountID string `json:"bank_account_id"`
	Amount        string `json:"amount"` // empty means full invoice amount
	ReimbursedAt  string `json:"reimbursed_at"`
}

type UpdateAllocationReimbursementRequest struct {
	Status       string `json:"status" binding:"required,oneof=NOT_REQUIRED PENDING COMPLETED"`
	Note         string `json:"note"`
	Amount       string `json:"amount"` // empty means full allocated amount, COMPLETED only
	ReimbursedAt string `json:"reimbursed_at"`
}

// --- Interface ---

// ReimbursementService settles the two repayment flows: third parties who
// fronted an invoice for a store, and stores owing each other for
// cross-store payments.
type ReimbursementService interface {
	MarkThirdPartyReimbursed(ctx context.Context, userID string, invoiceID string, req MarkReimbursedRequest) (InvoiceResponse, error)
	UpdateAllocationReimbursement(ctx context.Context, userID string, allocationID string, req UpdateAllocationReimbursementRequest) (AllocationResponse, error)
}

type reimbursementService struct {
	invoiceRepo    repository.InvoiceRepository
	crossStoreRepo repository.CrossStoreRepository
	directoryRepo  repository.DirectoryRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	hub            *ws.Hub
}

var reimbLog = logger.WithComponent("reimbursement")

func NewReimbursementService(
	invoiceRepo repository.InvoiceRepository,
	crossStoreRepo repository.CrossStoreRepository,
	directoryRepo repository.DirectoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ReimbursementService {
	return &reimbursementService{
		invoiceRepo:    invoiceRepo,
		crossStoreRepo: crossStoreRepo,
		directoryRepo:  directoryRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		hub:            hub,
	}
}

// --- Third-party reimbursement ---

// MarkThirdPartyReimbursed settles the debt owed to whoever fronted the
// purchase. It records how the third party was paid back; the invoice's own
// amount and payment state are untouched.
func (s *reimbursementService) MarkThirdPartyReimbursed(ctx context.Context, userID string, invoiceID string, req MarkReimbursedRequest) (InvoiceResponse, error) {
	id, err := uuid.Parse(invoiceID)
	if err != nil {
		return InvoiceResponse{}, invalid("invoice_id", "must be a valid uuid")
	}

	reimbursedAt := time.Now()
	if req.ReimbursedAt != "" {
		parsed, parseErr := time.Parse(dateLayout, req.ReimbursedAt)
		if parseErr != nil {
			return InvoiceResponse{}, invalid("reimbursed_at", "must be YYYY-MM-DD")
		}
		reimbursedAt = parsed
	}

	ref := ""
	switch req.Method {
	case model.MethodCheck:
		if req.CheckNumber == "" {
			return InvoiceResponse{}, invalid("check_number", "required when method is CHECK")
		}
		ref = req.CheckNumber
	case model.MethodBank:
		if req.BankAccountID == "" {
			return InvoiceResponse{}, invalid("bank_account_id", "required when method is BANK")
		}
		bankID, parseErr := uuid.Parse(req.BankAccountID)
		if parseErr != nil {
			return InvoiceResponse{}, invalid("bank_account_id", "must be a valid uuid")
		}
		if _, findErr := s.directoryRepo.FindBankAccount(ctx, bankID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return InvoiceResponse{}, notFound("bank account", req.BankAccountID)
			}
			return InvoiceResponse{}, fmt.Errorf("failed to look up bank account: %w", findErr)
		}
		ref = req.BankAccountID
	}

	var updated model.Invoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, findErr := s.invoiceRepo.FindByIDForUpdate(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return notFound("invoice", invoiceID)
			}
			return fmt.Errorf("failed to load invoice: %w", findErr)
		}

		if !invoice.IsReimbursable {
			return conflict("invoice %s has no third-party payer to reimburse", invoiceID)
		}
		if invoice.ReimbursementStatus != model.ReimbursementPending {
			return conflict("invoice %s reimbursement is %s, not PENDING", invoiceID, invoice.ReimbursementStatus)
		}

		amount := invoice.Amount
		if req.Amount != "" {
			parsed, parseErr := decimal.NewFromString(req.Amount)
			if parseErr != nil {
				return invalid("amount", "must be a decimal string")
			}
			if !parsed.IsPositive() {
				return invalid("amount", "must be greater than zero")
			}
			amount = parsed
		}

		invoice.ReimbursementStatus = model.ReimbursementReimbursed
		invoice.ReimbursedAt = &reimbursedAt
		invoice.ReimbursedAmount = amount
		invoice.ReimbursementMethod = req.Method
		invoice.ReimbursementRef = ref

		if updateErr := s.invoiceRepo.Update(txCtx, invoice); updateErr != nil {
			return fmt.Errorf("failed to update invoice: %w", updateErr)
		}
		updated = *invoice

		return s.writeReimbursementAudit(txCtx, userID, model.ActionMarkReimbursed, invoiceID, map[string]interface{}{
			"invoice_id": invoiceID,
			"method":     req.Method,
			"amount":     amount.StringFixed(2),
		})
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	reimbLog.Info().
		Str("invoice_id", invoiceID).
		Str("method", req.Method).
		Str("amount", updated.ReimbursedAmount.StringFixed(2)).
		Msg("third-party reimbursement settled")

	if s.hub != nil {
		s.hub.BroadcastEvent(ws.EventThirdPartyReimbursed, map[string]interface{}{
			"invoice_id": invoiceID,
			"amount":     updated.ReimbursedAmount.StringFixed(2),
		})
	}

	return toInvoiceResponse(updated), nil
}

// --- Allocation reimbursement state machine ---

// UpdateAllocationReimbursement moves one allocation between NOT_REQUIRED,
// PENDING and COMPLETED. Transitions are explicit and idempotent: setting
// the state an allocation is already in succeeds without effect, and
// reverting COMPLETED back to PENDING clears the settlement fields.
func (s *reimbursementService) UpdateAllocationReimbursement(ctx context.Context, userID string, allocationID string, req UpdateAllocationReimbursementRequest) (AllocationResponse, error) {
	id, err := uuid.Parse(allocationID)
	if err != nil {
		return AllocationResponse{}, invalid("allocation_id", "must be a valid uuid")
	}
	switch req.Status {
	case model.AllocationNotRequired, model.AllocationPending, model.AllocationCompleted:
	default:
		return AllocationResponse{}, invalid("status", "must be one of NOT_REQUIRED, PENDING, COMPLETED")
	}

	reimbursedAt := time.Now()
	if req.ReimbursedAt != "" {
		parsed, parseErr := time.Parse(dateLayout, req.ReimbursedAt)
		if parseErr != nil {
			return AllocationResponse{}, invalid("reimbursed_at", "must be YYYY-MM-DD")
		}
		reimbursedAt = parsed
	}

	var updated model.StoreAllocation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		alloc, findErr := s.crossStoreRepo.FindAllocationByIDForUpdate(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return notFound("allocation", allocationID)
			}
			return fmt.Errorf("failed to load allocation: %w", findErr)
		}

		previous := alloc.ReimbursementStatus
		alloc.ReimbursementStatus = req.Status
		if req.Note != "" {
			alloc.ReimbursementNote = req.Note
		}

		switch req.Status {
		case model.AllocationCompleted:
			amount := alloc.AllocatedAmount
			if req.Amount != "" {
				parsed, parseErr := decimal.NewFromString(req.Amount)
				if parseErr != nil {
					return invalid("amount", "must be a decimal string")
				}
				if !parsed.IsPositive() {
					return invalid("amount", "must be greater than zero")
				}
				amount = parsed
			}
			// Repeating COMPLETED keeps the original settlement timestamp.
			if previous != model.AllocationCompleted {
				alloc.ReimbursedAt = &reimbursedAt
			}
			alloc.ReimbursedAmount = amount
			alloc.ReimbursementRequired = true
		case model.AllocationPending:
			alloc.ReimbursedAt = nil
			alloc.ReimbursedAmount = decimal.Zero
			alloc.ReimbursementRequired = true
		case model.AllocationNotRequired:
			alloc.ReimbursedAt = nil
			alloc.ReimbursedAmount = decimal.Zero
			alloc.ReimbursementRequired = false
		}

		if updateErr := s.crossStoreRepo.UpdateAllocation(txCtx, alloc); updateErr != nil {
			return fmt.Errorf("failed to update allocation: %w", updateErr)
		}
		updated = *alloc

		return s.writeReimbursementAudit(txCtx, userID, model.ActionUpdateAllocation, allocationID, map[string]interface{}{
			"allocation_id": allocationID,
			"from":          previous,
			"to":            req.Status,
		})
	})
	if err != nil {
		return AllocationResponse{}, err
	}

	reimbLog.Info().
		Str("allocation_id", allocationID).
		Str("status", updated.ReimbursementStatus).
		Msg("allocation reimbursement updated")

	if s.hub != nil {
		s.hub.BroadcastEvent(ws.EventAllocationReimbursed, map[string]interface{}{
			"allocation_id": allocationID,
			"status":        updated.ReimbursementStatus,
		})
	}

	return toAllocationResponse(updated), nil
}

func (s *reimbursementService) writeReimbursementAudit(ctx context.Context, userID, action, entityID string, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}
	details, _ := json.Marshal(payload)
	audit := &model.AuditLog{
		UserID:   uid,
		Action:   action,
		EntityID: entityID,
		Details:  string(details),
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
