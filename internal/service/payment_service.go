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

type SplitComponentRequest struct {
	Method       string `json:"method" binding:"required,oneof=CASH CHECK CARD"`
	Amount       string `json:"amount" binding:"required"`
	CheckNumber  string `json:"check_number"`
	CreditCardID string `json:"credit_card_id"`
}

type ApplyPaymentRequest struct {
	StoreID     string   `json:"store_id" binding:"required"`
	InvoiceIDs  []string `json:"invoice_ids" binding:"required,min=1"`
	PaymentDate string   `json:"payment_date" binding:"required"` // YYYY-MM-DD

	// Single-method path; ignored when Splits are present.
	Method       string `json:"method"`
	CheckNumber  string `json:"check_number"`
	CreditCardID string `json:"credit_card_id"`

	Splits []SplitComponentRequest `json:"splits" binding:"omitempty,dive"`
}

type PaymentSplitResponse struct {
	Method       string  `json:"method"`
	Amount       string  `json:"amount"`
	CheckNumber  string  `json:"check_number,omitempty"`
	CreditCardID *string `json:"credit_card_id,omitempty"`
}

type PaymentResponse struct {
	ID          string                 `json:"id"`
	StoreID     string                 `json:"store_id"`
	PaymentDate string                 `json:"payment_date"`
	Method      string                 `json:"method,omitempty"`
	Amount      string                 `json:"amount"`
	InvoiceIDs  []string               `json:"invoice_ids"`
	Splits      []PaymentSplitResponse `json:"splits,omitempty"`
	CreatedAt   string                 `json:"created_at"`
}

// --- Interface ---

// PaymentService applies a payment against one or more pending invoices of a
// single store. An invoice is either fully paid or not; partial payment of a
// single invoice does not exist.
type PaymentService interface {
	ApplyPayment(ctx context.Context, userID string, req ApplyPaymentRequest) (PaymentResponse, error)
	ListPayments(ctx context.Context, storeID string, page, limit int) ([]PaymentResponse, int64, error)
}

type paymentService struct {
	invoiceRepo   repository.InvoiceRepository
	paymentRepo   repository.PaymentRepository
	directoryRepo repository.DirectoryRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	hub           *ws.Hub
}

var payLog = logger.WithComponent("payments")

func NewPaymentService(
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
	directoryRepo repository.DirectoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) PaymentService {
	return &paymentService{
		invoiceRepo:   invoiceRepo,
		paymentRepo:   paymentRepo,
		directoryRepo: directoryRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		hub:           hub,
	}
}

// --- Implementation ---

func (s *paymentService) ApplyPayment(ctx context.Context, userID string, req ApplyPaymentRequest) (PaymentResponse, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return PaymentResponse{}, invalid("store_id", "must be a valid uuid")
	}
	paymentDate, err := time.Parse(dateLayout, req.PaymentDate)
	if err != nil {
		return PaymentResponse{}, invalid("payment_date", "must be YYYY-MM-DD")
	}

	invoiceIDs := make([]uuid.UUID, 0, len(req.InvoiceIDs))
	seen := make(map[uuid.UUID]bool, len(req.InvoiceIDs))
	for _, raw := range req.InvoiceIDs {
		id, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return PaymentResponse{}, invalid("invoice_ids", "must all be valid uuids")
		}
		if seen[id] {
			return PaymentResponse{}, invalid("invoice_ids", "must not contain duplicates")
		}
		seen[id] = true
		invoiceIDs = append(invoiceIDs, id)
	}

	payment := model.Payment{
		StoreID:     storeID,
		PaymentDate: paymentDate,
	}

	// Split components are validated before any row is touched.
	if len(req.Splits) > 0 {
		splits, splitErr := s.buildSplits(ctx, req.Splits)
		if splitErr != nil {
			return PaymentResponse{}, splitErr
		}
		payment.Splits = splits
	} else {
		if methodErr := s.validateSingleMethod(ctx, &payment, req); methodErr != nil {
			return PaymentResponse{}, methodErr
		}
	}

	var created model.Payment
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Lock every invoice in the batch first; two concurrent attempts on
		// a shared invoice serialize here, and the loser sees payment_id set.
		invoices, findErr := s.invoiceRepo.FindByIDsForUpdate(txCtx, invoiceIDs)
		if findErr != nil {
			return fmt.Errorf("failed to load invoices: %w", findErr)
		}
		if len(invoices) != len(invoiceIDs) {
			return notFound("invoice", "one or more of the requested ids")
		}

		total := decimal.Zero
		for _, inv := range invoices {
			if inv.StoreID != storeID {
				return invalid("invoice_ids", fmt.Sprintf("invoice %s does not belong to store %s", inv.ID, req.StoreID))
			}
			if inv.PaymentID != nil {
				return conflict("invoice %s is already paid", inv.ID)
			}
			total = total.Add(inv.Amount)
		}

		if len(payment.Splits) > 0 {
			splitTotal := decimal.Zero
			for _, split := range payment.Splits {
				splitTotal = splitTotal.Add(split.Amount)
			}
			if splitTotal.Sub(total).Abs().GreaterThanOrEqual(AmountEpsilon) {
				return &AmountMismatchError{Expected: total, Actual: splitTotal}
			}
		}
		payment.Amount = total

		if createErr := s.paymentRepo.Create(txCtx, &payment); createErr != nil {
			return fmt.Errorf("failed to create payment: %w", createErr)
		}
		if assignErr := s.invoiceRepo.AssignPayment(txCtx, invoiceIDs, payment.ID); assignErr != nil {
			return fmt.Errorf("failed to mark invoices paid: %w", assignErr)
		}

		created = payment

		var uid *uuid.UUID
		if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
			uid = &parsed
		}
		details, _ := json.Marshal(map[string]interface{}{
			"store_id":    req.StoreID,
			"invoice_ids": req.InvoiceIDs,
			"amount":      total.StringFixed(2),
			"splits":      len(req.Splits),
		})
		audit := &model.AuditLog{
			UserID:   uid,
			Action:   model.ActionApplyPayment,
			EntityID: payment.ID.String(),
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return PaymentResponse{}, err
	}

	payLog.Info().
		Str("payment_id", created.ID.String()).
		Str("store_id", req.StoreID).
		Str("amount", created.Amount.StringFixed(2)).
		Int("invoices", len(invoiceIDs)).
		Msg("payment applied")

	if s.hub != nil {
		s.hub.BroadcastEvent(ws.EventInvoicePaid, map[string]interface{}{
			"payment_id":  created.ID.String(),
			"store_id":    req.StoreID,
			"invoice_ids": req.InvoiceIDs,
			"amount":      created.Amount.StringFixed(2),
		})
	}

	return toPaymentResponse(created, req.InvoiceIDs), nil
}

func (s *paymentService) ListPayments(ctx context.Context, storeID string, page, limit int) ([]PaymentResponse, int64, error) {
	id, err := uuid.Parse(storeID)
	if err != nil {
		return nil, 0, invalid("store_id", "must be a valid uuid")
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	payments, total, err := s.paymentRepo.ListByStore(ctx, id, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payments: %w", err)
	}

	result := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		ids := make([]string, 0, len(p.Invoices))
		for _, inv := range p.Invoices {
			ids = append(ids, inv.ID.String())
		}
		result = append(result, toPaymentResponse(p, ids))
	}
	return result, total, nil
}

// --- Internal helpers ---

func (s *paymentService) buildSplits(ctx context.Context, reqs []SplitComponentRequest) ([]model.PaymentSplit, error) {
	splits := make([]model.PaymentSplit, 0, len(reqs))
	for i, splitReq := range reqs {
		amount, err := decimal.NewFromString(splitReq.Amount)
		if err != nil {
			return nil, invalid(fmt.Sprintf("splits[%d].amount", i), "must be a decimal string")
		}
		if !amount.IsPositive() {
			return nil, invalid(fmt.Sprintf("splits[%d].amount", i), "must be greater than zero")
		}

		split := model.PaymentSplit{
			Method:      splitReq.Method,
			Amount:      amount,
			CheckNumber: splitReq.CheckNumber,
		}

		switch splitReq.Method {
		case model.MethodCheck:
			if splitReq.CheckNumber == "" {
				return nil, invalid(fmt.Sprintf("splits[%d].check_number", i), "required when method is CHECK")
			}
		case model.MethodCard:
			if splitReq.CreditCardID == "" {
				return nil, invalid(fmt.Sprintf("splits[%d].credit_card_id", i), "required when method is CARD")
			}
			cardID, parseErr := uuid.Parse(splitReq.CreditCardID)
			if parseErr != nil {
				return nil, invalid(fmt.Sprintf("splits[%d].credit_card_id", i), "must be a valid uuid")
			}
			if _, findErr := s.directoryRepo.FindCreditCard(ctx, cardID); findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return nil, notFound("credit card", splitReq.CreditCardID)
				}
				return nil, fmt.Errorf("failed to look up credit card: %w", findErr)
			}
			split.CreditCardID = &cardID
		}

		splits = append(splits, split)
	}
	return splits, nil
}

func (s *paymentService) validateSingleMethod(ctx context.Context, payment *model.Payment, req ApplyPaymentRequest) error {
	switch req.Method {
	case model.MethodCash:
	case model.MethodCheck:
		if req.CheckNumber == "" {
			return invalid("check_number", "required when method is CHECK")
		}
	case model.MethodCard:
		if req.CreditCardID == "" {
			return invalid("credit_card_id", "required when method is CARD")
		}
		cardID, parseErr := uuid.Parse(req.CreditCardID)
		if parseErr != nil {
			return invalid("credit_card_id", "must be a valid uuid")
		}
		if _, findErr := s.directoryRepo.FindCreditCard(ctx, cardID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return notFound("credit card", req.CreditCardID)
			}
			return fmt.Errorf("failed to look up credit card: %w", findErr)
		}
		payment.CreditCardID = &cardID
	case "":
		return invalid("method", "required when no splits are given")
	default:
		return invalid("method", "must be one of CASH, CHECK, CARD")
	}

	payment.Method = req.Method
	payment.CheckNumber = req.CheckNumber
	return nil
}

// --- Mapping ---

func toPaymentResponse(p model.Payment, invoiceIDs []string) PaymentResponse {
	resp := PaymentResponse{
		ID:          p.ID.String(),
		StoreID:     p.StoreID.String(),
		PaymentDate: p.PaymentDate.Format(dateLayout),
		Method:      p.Method,
		Amount:      p.Amount.StringFixed(2),
		InvoiceIDs:  invoiceIDs,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
	for _, split := range p.Splits {
		splitResp := PaymentSplitResponse{
			Method:      split.Method,
			Amount:      split.Amount.StringFixed(2),
			CheckNumber: split.CheckNumber,
		}
		if split.CreditCardID != nil {
			c := split.CreditCardID.String()
			splitResp.CreditCardID = &c
		}
		resp.Splits = append(resp.Splits, splitResp)
	}
	return resp
}
