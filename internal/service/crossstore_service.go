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

type AllocationRequest struct {
	TargetStoreID         string `json:"target_store_id" binding:"required"`
	AllocatedAmount       string `json:"allocated_amount" binding:"required"`
	Memo                  string `json:"memo"`
	TargetType            string `json:"target_type"`
	ReimbursementRequired *bool  `json:"reimbursement_required"` // nil means true
}

type RecordCrossStoreRequest struct {
	SourceStoreID string              `json:"source_store_id" binding:"required"`
	PaymentDate   string              `json:"payment_date" binding:"required"` // YYYY-MM-DD
	Method        string              `json:"method" binding:"required,oneof=CASH BANK CHECK CARD"`
	Payee         string              `json:"payee"`
	Reference     string              `json:"reference"`
	Amount        string              `json:"amount" binding:"required"`
	Notes         string              `json:"notes"`
	Allocations   []AllocationRequest `json:"allocations" binding:"required,min=1,dive"`
}

type AllocationResponse struct {
	ID                    string  `json:"id"`
	TargetStoreID         string  `json:"target_store_id"`
	TargetStoreName       string  `json:"target_store_name,omitempty"`
	AllocatedAmount       string  `json:"allocated_amount"`
	Memo                  string  `json:"memo,omitempty"`
	TargetType            string  `json:"target_type,omitempty"`
	ReimbursementRequired bool    `json:"reimbursement_required"`
	ReimbursementStatus   string  `json:"reimbursement_status"`
	ReimbursementNote     string  `json:"reimbursement_note,omitempty"`
	ReimbursedAt          *string `json:"reimbursed_at,omitempty"`
	ReimbursedAmount      string  `json:"reimbursed_amount"`
}

type CrossStoreResponse struct {
	ID              string               `json:"id"`
	SourceStoreID   string               `json:"source_store_id"`
	SourceStoreName string               `json:"source_store_name,omitempty"`
	PaymentDate     string               `json:"payment_date"`
	Method          string               `json:"method"`
	Payee           string               `json:"payee,omitempty"`
	Reference       string               `json:"reference,omitempty"`
	Amount          string               `json:"amount"`
	Notes           string               `json:"notes,omitempty"`
	Allocations     []AllocationResponse `json:"allocations"`
	CreatedAt       string               `json:"created_at"`
}

type ListCrossStoreFilter struct {
	StoreID string
	Role    string // source, target, all
	Page    int
	Limit   int
}

// --- Interface ---

// CrossStoreService records payments one store makes on behalf of others and
// splits them into per-store allocations, each carrying its own
// reimbursement state.
type CrossStoreService interface {
	RecordCrossStorePayment(ctx context.Context, userID string, req RecordCrossStoreRequest) (CrossStoreResponse, error)
	GetCrossStorePayment(ctx context.Context, id string) (CrossStoreResponse, error)
	ListForStore(ctx context.Context, filter ListCrossStoreFilter) ([]CrossStoreResponse, int64, error)
}

type crossStoreService struct {
	crossStoreRepo repository.CrossStoreRepository
	directoryRepo  repository.DirectoryRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	hub            *ws.Hub
}

var xstoreLog = logger.WithComponent("crossstore")

func NewCrossStoreService(
	crossStoreRepo repository.CrossStoreRepository,
	directoryRepo repository.DirectoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) CrossStoreService {
	return &crossStoreService{
		crossStoreRepo: crossStoreRepo,
		directoryRepo:  directoryRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		hub:            hub,
	}
}

// --- Implementation ---

func (s *crossStoreService) RecordCrossStorePayment(ctx context.Context, userID string, req RecordCrossStoreRequest) (CrossStoreResponse, error) {
	sourceID, err := uuid.Parse(req.SourceStoreID)
	if err != nil {
		return CrossStoreResponse{}, invalid("source_store_id", "must be a valid uuid")
	}
	paymentDate, err := time.Parse(dateLayout, req.PaymentDate)
	if err != nil {
		return CrossStoreResponse{}, invalid("payment_date", "must be YYYY-MM-DD")
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return CrossStoreResponse{}, invalid("amount", "must be a decimal string")
	}
	if !amount.IsPositive() {
		return CrossStoreResponse{}, invalid("amount", "must be greater than zero")
	}
	if len(req.Allocations) == 0 {
		return CrossStoreResponse{}, invalid("allocations", "at least one allocation is required")
	}

	if _, err := s.directoryRepo.FindStore(ctx, sourceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CrossStoreResponse{}, notFound("store", req.SourceStoreID)
		}
		return CrossStoreResponse{}, fmt.Errorf("failed to look up source store: %w", err)
	}

	allocTotal := decimal.Zero
	allocations := make([]model.StoreAllocation, 0, len(req.Allocations))
	for i, allocReq := range req.Allocations {
		targetID, parseErr := uuid.Parse(allocReq.TargetStoreID)
		if parseErr != nil {
			return CrossStoreResponse{}, invalid(fmt.Sprintf("allocations[%d].target_store_id", i), "must be a valid uuid")
		}
		if targetID == sourceID {
			return CrossStoreResponse{}, invalid(fmt.Sprintf("allocations[%d].target_store_id", i), "must differ from the source store")
		}
		allocAmount, parseErr := decimal.NewFromString(allocReq.AllocatedAmount)
		if parseErr != nil {
			return CrossStoreResponse{}, invalid(fmt.Sprintf("allocations[%d].allocated_amount", i), "must be a decimal string")
		}
		if !allocAmount.IsPositive() {
			return CrossStoreResponse{}, invalid(fmt.Sprintf("allocations[%d].allocated_amount", i), "must be greater than zero")
		}
		if _, findErr := s.directoryRepo.FindStore(ctx, targetID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return CrossStoreResponse{}, notFound("store", allocReq.TargetStoreID)
			}
			return CrossStoreResponse{}, fmt.Errorf("failed to look up target store: %w", findErr)
		}

		// Reimbursement defaults to required; a NOT_REQUIRED allocation is
		// settled from birth and never enters the pending queue.
		required := allocReq.ReimbursementRequired == nil || *allocReq.ReimbursementRequired
		status := model.AllocationPending
		if !required {
			status = model.AllocationNotRequired
		}

		allocTotal = allocTotal.Add(allocAmount)
		allocations = append(allocations, model.StoreAllocation{
			TargetStoreID:         targetID,
			AllocatedAmount:       allocAmount,
			Memo:                  allocReq.Memo,
			TargetType:            allocReq.TargetType,
			ReimbursementRequired: required,
			ReimbursementStatus:   status,
		})
	}

	if diff := allocTotal.Sub(amount); diff.Abs().GreaterThanOrEqual(AmountEpsilon) {
		return CrossStoreResponse{}, &AllocationMismatchError{Expected: amount, Actual: allocTotal, Difference: diff}
	}

	payment := model.CrossStorePayment{
		SourceStoreID: sourceID,
		PaymentDate:   paymentDate,
		Method:        req.Method,
		Payee:         req.Payee,
		Reference:     req.Reference,
		Amount:        amount,
		Notes:         req.Notes,
		Allocations:   allocations,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.crossStoreRepo.Create(txCtx, &payment); createErr != nil {
			return fmt.Errorf("failed to create cross-store payment: %w", createErr)
		}

		var uid *uuid.UUID
		if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
			uid = &parsed
		}
		details, _ := json.Marshal(map[string]interface{}{
			"source_store_id": req.SourceStoreID,
			"amount":          amount.StringFixed(2),
			"allocations":     len(allocations),
			"payee":           req.Payee,
		})
		audit := &model.AuditLog{
			UserID:   uid,
			Action:   model.ActionRecordCrossStore,
			EntityID: payment.ID.String(),
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return CrossStoreResponse{}, err
	}

	xstoreLog.Info().
		Str("payment_id", payment.ID.String()).
		Str("source_store_id", req.SourceStoreID).
		Str("amount", amount.StringFixed(2)).
		Int("allocations", len(allocations)).
		Msg("cross-store payment recorded")

	if s.hub != nil {
		s.hub.BroadcastEvent(ws.EventCrossStoreRecorded, map[string]interface{}{
			"payment_id":      payment.ID.String(),
			"source_store_id": req.SourceStoreID,
			"amount":          amount.StringFixed(2),
		})
	}

	return toCrossStoreResponse(payment), nil
}

func (s *crossStoreService) GetCrossStorePayment(ctx context.Context, id string) (CrossStoreResponse, error) {
	paymentID, err := uuid.Parse(id)
	if err != nil {
		return CrossStoreResponse{}, invalid("id", "must be a valid uuid")
	}
	payment, err := s.crossStoreRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CrossStoreResponse{}, notFound("cross-store payment", id)
		}
		return CrossStoreResponse{}, fmt.Errorf("failed to fetch cross-store payment: %w", err)
	}
	return toCrossStoreResponse(*payment), nil
}

func (s *crossStoreService) ListForStore(ctx context.Context, filter ListCrossStoreFilter) ([]CrossStoreResponse, int64, error) {
	storeID, err := uuid.Parse(filter.StoreID)
	if err != nil {
		return nil, 0, invalid("store_id", "must be a valid uuid")
	}
	role := filter.Role
	switch role {
	case repository.CrossStoreRoleSource, repository.CrossStoreRoleTarget, repository.CrossStoreRoleAll:
	case "":
		role = repository.CrossStoreRoleAll
	default:
		return nil, 0, invalid("role", "must be one of source, target, all")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	payments, total, err := s.crossStoreRepo.ListForStore(ctx, storeID, role, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch cross-store payments: %w", err)
	}

	result := make([]CrossStoreResponse, 0, len(payments))
	for _, p := range payments {
		result = append(result, toCrossStoreResponse(p))
	}
	return result, total, nil
}

// --- Mapping ---

func toCrossStoreResponse(p model.CrossStorePayment) CrossStoreResponse {
	resp := CrossStoreResponse{
		ID:            p.ID.String(),
		SourceStoreID: p.SourceStoreID.String(),
		PaymentDate:   p.PaymentDate.Format(dateLayout),
		Method:        p.Method,
		Payee:         p.Payee,
		Reference:     p.Reference,
		Amount:        p.Amount.StringFixed(2),
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
	if p.SourceStore != nil {
		resp.SourceStoreName = p.SourceStore.Name
	}
	for _, alloc := range p.Allocations {
		resp.Allocations = append(resp.Allocations, toAllocationResponse(alloc))
	}
	return resp
}

func toAllocationResponse(alloc model.StoreAllocation) AllocationResponse {
	resp := AllocationResponse{
		ID:                    alloc.ID.String(),
		TargetStoreID:         alloc.TargetStoreID.String(),
		AllocatedAmount:       alloc.AllocatedAmount.StringFixed(2),
		Memo:                  alloc.Memo,
		TargetType:            alloc.TargetType,
		ReimbursementRequired: alloc.ReimbursementRequired,
		ReimbursementStatus:   alloc.ReimbursementStatus,
		ReimbursementNote:     alloc.ReimbursementNote,
		ReimbursedAmount:      alloc.ReimbursedAmount.StringFixed(2),
	}
	if alloc.TargetStore != nil {
		resp.TargetStoreName = alloc.TargetStore.Name
	}
	if alloc.ReimbursedAt != nil {
		t := alloc.ReimbursedAt.Format(time.RFC3339)
		resp.ReimbursedAt = &t
	}
	return resp
}
