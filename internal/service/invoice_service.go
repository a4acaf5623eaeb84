package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storepay/internal/model"
	"storepay/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// --- DTOs ---

type InvoiceItemRequest struct {
	ProductID   string `json:"product_id" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
	UnitCost    string `json:"unit_cost" binding:"required"`
	VapeTaxPaid bool   `json:"vape_tax_paid"`
}

type CreateInvoiceRequest struct {
	StoreID      string `json:"store_id" binding:"required"`
	VendorID     string `json:"vendor_id"`
	PurchaseDate string `json:"purchase_date" binding:"required"` // YYYY-MM-DD
	PurchaseType string `json:"purchase_type" binding:"required,oneof=CASH INVOICE CREDIT_MEMO"`

	// Amount is optional when Items are given; an empty amount means
	// "derive the cost from the items".
	Amount        string `json:"amount"`
	InvoiceNumber string `json:"invoice_number"`

	PaidOnPurchase bool   `json:"paid_on_purchase"`
	PurchaseMethod string `json:"purchase_method"` // CASH, BANK, CHECK, CARD
	BankAccountID  string `json:"bank_account_id"`
	CreditCardID   string `json:"credit_card_id"`

	IsReimbursable  bool   `json:"is_reimbursable"`
	ReimbursementTo string `json:"reimbursement_to"`

	RevenueMethod   string               `json:"revenue_method"` // NONE, MANUAL, PRODUCT_SELECTION, AUTO_CALCULATE
	ExpectedRevenue string               `json:"expected_revenue"`
	Items           []InvoiceItemRequest `json:"items" binding:"omitempty,dive"`
	Notes           string               `json:"notes"`
}

// UpdateInvoiceRequest patches an invoice. Nil fields are left untouched;
// all cross-field invariants are re-validated after the merge.
type UpdateInvoiceRequest struct {
	VendorID        *string               `json:"vendor_id"`
	PurchaseDate    *string               `json:"purchase_date"`
	PurchaseType    *string               `json:"purchase_type"`
	Amount          *string               `json:"amount"`
	InvoiceNumber   *string               `json:"invoice_number"`
	PaidOnPurchase  *bool                 `json:"paid_on_purchase"`
	PurchaseMethod  *string               `json:"purchase_method"`
	BankAccountID   *string               `json:"bank_account_id"`
	CreditCardID    *string               `json:"credit_card_id"`
	IsReimbursable  *bool                 `json:"is_reimbursable"`
	ReimbursementTo *string               `json:"reimbursement_to"`
	RevenueMethod   *string               `json:"revenue_method"`
	ExpectedRevenue *string               `json:"expected_revenue"`
	Items           *[]InvoiceItemRequest `json:"items"`
	Notes           *string               `json:"notes"`
}

type InvoiceItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	OrderItemID string `json:"order_item_id,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitCost    string `json:"unit_cost"`
	VapeTaxPaid bool   `json:"vape_tax_paid"`
}

type InvoiceResponse struct {
	ID                  string                `json:"id"`
	StoreID             string                `json:"store_id"`
	VendorID            *string               `json:"vendor_id"`
	PurchaseDate        string                `json:"purchase_date"`
	DueDate             *string               `json:"due_date"`
	Amount              string                `json:"amount"`
	AmountSource        string                `json:"amount_source"`
	PurchaseType        string                `json:"purchase_type"`
	InvoiceNumber       string                `json:"invoice_number"`
	Status              string                `json:"status"`
	PaidOnPurchase      bool                  `json:"paid_on_purchase"`
	PurchaseMethod      string                `json:"purchase_method"`
	BankAccountID       *string               `json:"bank_account_id"`
	CreditCardID        *string               `json:"credit_card_id"`
	IsReimbursable      bool                  `json:"is_reimbursable"`
	ReimbursementTo     string                `json:"reimbursement_to"`
	ReimbursementStatus string                `json:"reimbursement_status"`
	ReimbursedAt        *string               `json:"reimbursed_at"`
	RevenueMethod       string                `json:"revenue_method"`
	ExpectedRevenue     string                `json:"expected_revenue"`
	PaymentID           *string               `json:"payment_id"`
	Items               []InvoiceItemResponse `json:"items"`
	Notes               string                `json:"notes"`
	CreatedAt           string                `json:"created_at"`
}

type ListInvoicesFilter struct {
	StoreID      string
	VendorID     string
	PurchaseType string
	Status       string // PENDING, PAID, OVERDUE — applied after derivation
	Page         int
	Limit        int
}

// --- Interface ---

type InvoiceService interface {
	CreateInvoice(ctx context.Context, userID string, req CreateInvoiceRequest) (InvoiceResponse, error)
	UpdateInvoice(ctx context.Context, userID string, id string, req UpdateInvoiceRequest) (InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, userID string, id string) error
	GetInvoice(ctx context.Context, id string) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter ListInvoicesFilter) ([]InvoiceResponse, int64, error)
}

type invoiceService struct {
	invoiceRepo   repository.InvoiceRepository
	directoryRepo repository.DirectoryRepository
	productRepo   repository.ProductRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	calculator    CalculatorService
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	directoryRepo repository.DirectoryRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	calculator CalculatorService,
) InvoiceService {
	return &invoiceService{
		invoiceRepo:   invoiceRepo,
		directoryRepo: directoryRepo,
		productRepo:   productRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		calculator:    calculator,
	}
}

// --- Implementation ---

func (s *invoiceService) CreateInvoice(ctx context.Context, userID string, req CreateInvoiceRequest) (InvoiceResponse, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return InvoiceResponse{}, invalid("store_id", "must be a valid uuid")
	}
	if _, err := s.directoryRepo.FindStore(ctx, storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, notFound("store", req.StoreID)
		}
		return InvoiceResponse{}, fmt.Errorf("failed to look up store: %w", err)
	}

	purchaseDate, err := time.Parse(dateLayout, req.PurchaseDate)
	if err != nil {
		return InvoiceResponse{}, invalid("purchase_date", "must be YYYY-MM-DD")
	}

	invoice := model.Invoice{
		StoreID:             storeID,
		PurchaseDate:        purchaseDate,
		PurchaseType:        req.PurchaseType,
		InvoiceNumber:       req.InvoiceNumber,
		PaidOnPurchase:      req.PaidOnPurchase,
		PurchaseMethod:      req.PurchaseMethod,
		IsReimbursable:      req.IsReimbursable,
		ReimbursementTo:     req.ReimbursementTo,
		ReimbursementStatus: model.ReimbursementNone,
		RevenueMethod:       model.RevenueMethodNone,
		Notes:               req.Notes,
	}
	if req.RevenueMethod != "" {
		invoice.RevenueMethod = req.RevenueMethod
	}
	if req.IsReimbursable {
		invoice.ReimbursementStatus = model.ReimbursementPending
	}

	if req.VendorID != "" {
		vendorID, parseErr := uuid.Parse(req.VendorID)
		if parseErr != nil {
			return InvoiceResponse{}, invalid("vendor_id", "must be a valid uuid")
		}
		invoice.VendorID = &vendorID
	}
	if req.BankAccountID != "" {
		bankID, parseErr := uuid.Parse(req.BankAccountID)
		if parseErr != nil {
			return InvoiceResponse{}, invalid("bank_account_id", "must be a valid uuid")
		}
		invoice.BankAccountID = &bankID
	}
	if req.CreditCardID != "" {
		cardID, parseErr := uuid.Parse(req.CreditCardID)
		if parseErr != nil {
			return InvoiceResponse{}, invalid("credit_card_id", "must be a valid uuid")
		}
		invoice.CreditCardID = &cardID
	}

	items, err := s.buildItems(req.Items)
	if err != nil {
		return InvoiceResponse{}, err
	}
	invoice.Items = items

	if err := s.resolveAmount(&invoice, req.Amount); err != nil {
		return InvoiceResponse{}, err
	}
	if err := s.resolveRevenue(ctx, &invoice, req.ExpectedRevenue); err != nil {
		return InvoiceResponse{}, err
	}
	if err := s.resolveDueDate(ctx, &invoice); err != nil {
		return InvoiceResponse{}, err
	}
	if err := validateInvoice(&invoice); err != nil {
		return InvoiceResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Create(txCtx, &invoice); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		return s.writeAudit(txCtx, userID, model.ActionCreateInvoice, invoice.ID.String(), req)
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	return toInvoiceResponse(invoice), nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, userID string, id string, req UpdateInvoiceRequest) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, invalid("id", "must be a valid uuid")
	}

	var updated model.Invoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, findErr := s.invoiceRepo.FindByIDWithItems(txCtx, invoiceID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return notFound("invoice", id)
			}
			return fmt.Errorf("failed to load invoice: %w", findErr)
		}

		// Edits are allowed only while the invoice is unpaid and, for
		// third-party invoices, not yet reimbursed.
		if invoice.PaymentID != nil {
			return conflict("invoice %s is already paid and cannot be edited", id)
		}
		if invoice.ReimbursementStatus == model.ReimbursementReimbursed {
			return conflict("invoice %s is already reimbursed and cannot be edited", id)
		}

		if mergeErr := s.mergePatch(invoice, req); mergeErr != nil {
			return mergeErr
		}
		if req.Amount != nil || req.Items != nil {
			amount := ""
			if req.Amount != nil {
				amount = *req.Amount
			}
			if resolveErr := s.resolveAmount(invoice, amount); resolveErr != nil {
				return resolveErr
			}
		}
		expected := ""
		if req.ExpectedRevenue != nil {
			expected = *req.ExpectedRevenue
		}
		if resolveErr := s.resolveRevenue(txCtx, invoice, expected); resolveErr != nil {
			return resolveErr
		}
		if resolveErr := s.resolveDueDate(txCtx, invoice); resolveErr != nil {
			return resolveErr
		}
		if validateErr := validateInvoice(invoice); validateErr != nil {
			return validateErr
		}

		if req.Items != nil {
			if replaceErr := s.invoiceRepo.ReplaceItems(txCtx, invoice.ID, invoice.Items); replaceErr != nil {
				return fmt.Errorf("failed to replace invoice items: %w", replaceErr)
			}
		}
		if updateErr := s.invoiceRepo.Update(txCtx, invoice); updateErr != nil {
			return fmt.Errorf("failed to update invoice: %w", updateErr)
		}

		updated = *invoice
		return s.writeAudit(txCtx, userID, model.ActionUpdateInvoice, invoice.ID.String(), req)
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	return toInvoiceResponse(updated), nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, userID string, id string) error {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return invalid("id", "must be a valid uuid")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, findErr := s.invoiceRepo.FindByIDForUpdate(txCtx, invoiceID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return notFound("invoice", id)
			}
			return fmt.Errorf("failed to load invoice: %w", findErr)
		}

		// A paid invoice is part of a Payment's conservation invariant;
		// deleting it would corrupt that payment retroactively.
		if invoice.PaymentID != nil {
			return conflict("invoice %s is covered by payment %s and cannot be deleted", id, invoice.PaymentID)
		}

		if delErr := s.invoiceRepo.Delete(txCtx, invoiceID); delErr != nil {
			return fmt.Errorf("failed to delete invoice: %w", delErr)
		}
		return s.writeAudit(txCtx, userID, model.ActionDeleteInvoice, id, map[string]interface{}{"deleted": true})
	})
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, invalid("id", "must be a valid uuid")
	}

	invoice, err := s.invoiceRepo.FindByIDWithItems(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, notFound("invoice", id)
		}
		return InvoiceResponse{}, fmt.Errorf("failed to load invoice: %w", err)
	}
	return toInvoiceResponse(*invoice), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter ListInvoicesFilter) ([]InvoiceResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.InvoiceListFilter{
		PurchaseType: filter.PurchaseType,
		UnpaidOnly:   filter.Status == model.InvoiceStatusPending || filter.Status == model.InvoiceStatusOverdue,
		Page:         filter.Page,
		Limit:        filter.Limit,
	}
	if filter.StoreID != "" {
		storeID, err := uuid.Parse(filter.StoreID)
		if err != nil {
			return nil, 0, invalid("store_id", "must be a valid uuid")
		}
		repoFilter.StoreID = &storeID
	}
	if filter.VendorID != "" {
		vendorID, err := uuid.Parse(filter.VendorID)
		if err != nil {
			return nil, 0, invalid("vendor_id", "must be a valid uuid")
		}
		repoFilter.VendorID = &vendorID
	}

	invoices, total, err := s.invoiceRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch invoices: %w", err)
	}

	result := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		resp := toInvoiceResponse(inv)
		if filter.Status != "" && resp.Status != filter.Status {
			continue
		}
		result = append(result, resp)
	}
	return result, total, nil
}

// --- Internal helpers ---

func (s *invoiceService) buildItems(reqs []InvoiceItemRequest) ([]model.InvoiceItem, error) {
	items := make([]model.InvoiceItem, 0, len(reqs))
	for i, itemReq := range reqs {
		productID, err := uuid.Parse(itemReq.ProductID)
		if err != nil {
			return nil, invalid(fmt.Sprintf("items[%d].product_id", i), "must be a valid uuid")
		}
		unitCost, err := decimal.NewFromString(itemReq.UnitCost)
		if err != nil {
			return nil, invalid(fmt.Sprintf("items[%d].unit_cost", i), "must be a decimal string")
		}
		if unitCost.IsNegative() {
			return nil, invalid(fmt.Sprintf("items[%d].unit_cost", i), "must not be negative")
		}
		items = append(items, model.InvoiceItem{
			ProductID:   productID,
			Quantity:    itemReq.Quantity,
			UnitCost:    unitCost,
			VapeTaxPaid: itemReq.VapeTaxPaid,
		})
	}
	return items, nil
}

// resolveAmount decides between a manual amount and one derived from the item
// list, and tags the invoice so later recalculations know which one it holds.
func (s *invoiceService) resolveAmount(invoice *model.Invoice, rawAmount string) error {
	if rawAmount != "" {
		amount, err := decimal.NewFromString(rawAmount)
		if err != nil {
			return invalid("amount", "must be a decimal string")
		}
		invoice.Amount = amount
		invoice.AmountSource = model.AmountSourceManual
		return nil
	}

	if len(invoice.Items) == 0 {
		return invalid("amount", "required when no items are selected")
	}
	invoice.Amount = s.calculator.ComputeCost(invoice.Items)
	invoice.AmountSource = model.AmountSourceDerived
	return nil
}

func (s *invoiceService) resolveRevenue(ctx context.Context, invoice *model.Invoice, rawExpected string) error {
	switch invoice.RevenueMethod {
	case model.RevenueMethodNone:
		invoice.ExpectedRevenue = decimal.Zero
	case model.RevenueMethodManual:
		if rawExpected == "" {
			return invalid("expected_revenue", "required when revenue_method is MANUAL")
		}
		expected, err := decimal.NewFromString(rawExpected)
		if err != nil {
			return invalid("expected_revenue", "must be a decimal string")
		}
		invoice.ExpectedRevenue = expected
	case model.RevenueMethodProductSelection, model.RevenueMethodAutoCalculate:
		expected, err := s.calculator.ComputeExpectedRevenue(ctx, invoice.Items)
		if err != nil {
			return err
		}
		invoice.ExpectedRevenue = expected
	default:
		return invalid("revenue_method", "must be one of NONE, MANUAL, PRODUCT_SELECTION, AUTO_CALCULATE")
	}
	return nil
}

// resolveDueDate computes due_date from vendor terms; only INVOICE purchases
// carry one.
func (s *invoiceService) resolveDueDate(ctx context.Context, invoice *model.Invoice) error {
	if invoice.PurchaseType != model.PurchaseTypeInvoice {
		invoice.DueDate = nil
		return nil
	}

	dueDays := model.DefaultDueDays
	if invoice.VendorID != nil {
		vendor, err := s.directoryRepo.FindVendor(ctx, *invoice.VendorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("vendor", invoice.VendorID.String())
			}
			return fmt.Errorf("failed to look up vendor: %w", err)
		}
		if vendor.DueDays > 0 {
			dueDays = vendor.DueDays
		}
	}

	due := invoice.PurchaseDate.AddDate(0, 0, dueDays)
	invoice.DueDate = &due
	return nil
}

func (s *invoiceService) mergePatch(invoice *model.Invoice, req UpdateInvoiceRequest) error {
	if req.VendorID != nil {
		if *req.VendorID == "" {
			invoice.VendorID = nil
		} else {
			vendorID, err := uuid.Parse(*req.VendorID)
			if err != nil {
				return invalid("vendor_id", "must be a valid uuid")
			}
			invoice.VendorID = &vendorID
		}
	}
	if req.PurchaseDate != nil {
		purchaseDate, err := time.Parse(dateLayout, *req.PurchaseDate)
		if err != nil {
			return invalid("purchase_date", "must be YYYY-MM-DD")
		}
		invoice.PurchaseDate = purchaseDate
	}
	if req.PurchaseType != nil {
		invoice.PurchaseType = *req.PurchaseType
	}
	if req.InvoiceNumber != nil {
		invoice.InvoiceNumber = *req.InvoiceNumber
	}
	if req.PaidOnPurchase != nil {
		invoice.PaidOnPurchase = *req.PaidOnPurchase
	}
	if req.PurchaseMethod != nil {
		invoice.PurchaseMethod = *req.PurchaseMethod
	}
	if req.BankAccountID != nil {
		if *req.BankAccountID == "" {
			invoice.BankAccountID = nil
		} else {
			bankID, err := uuid.Parse(*req.BankAccountID)
			if err != nil {
				return invalid("bank_account_id", "must be a valid uuid")
			}
			invoice.BankAccountID = &bankID
		}
	}
	if req.CreditCardID != nil {
		if *req.CreditCardID == "" {
			invoice.CreditCardID = nil
		} else {
			cardID, err := uuid.Parse(*req.CreditCardID)
			if err != nil {
				return invalid("credit_card_id", "must be a valid uuid")
			}
			invoice.CreditCardID = &cardID
		}
	}
	if req.IsReimbursable != nil {
		invoice.IsReimbursable = *req.IsReimbursable
		if invoice.IsReimbursable && invoice.ReimbursementStatus == model.ReimbursementNone {
			invoice.ReimbursementStatus = model.ReimbursementPending
		}
		if !invoice.IsReimbursable {
			invoice.ReimbursementStatus = model.ReimbursementNone
			invoice.ReimbursementTo = ""
		}
	}
	if req.ReimbursementTo != nil {
		invoice.ReimbursementTo = *req.ReimbursementTo
	}
	if req.RevenueMethod != nil {
		invoice.RevenueMethod = *req.RevenueMethod
	}
	if req.Items != nil {
		items, err := s.buildItems(*req.Items)
		if err != nil {
			return err
		}
		invoice.Items = items
	}
	if req.Notes != nil {
		invoice.Notes = *req.Notes
	}
	return nil
}

func (s *invoiceService) writeAudit(ctx context.Context, userID, action, entityID string, payload interface{}) error {
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

// validateInvoice enforces every cross-field invariant on the invoice.
// Called on create and after every patch merge.
func validateInvoice(inv *model.Invoice) error {
	if !inv.Amount.IsPositive() {
		return invalid("amount", "must be greater than zero")
	}

	if inv.PurchaseType != model.PurchaseTypeCash && inv.InvoiceNumber == "" {
		return invalid("invoice_number", "required unless purchase_type is CASH")
	}

	if inv.IsReimbursable {
		// A third-party-paid invoice is already settled from the store's
		// perspective; the open obligation is to the payer.
		if !inv.PaidOnPurchase {
			return invalid("is_reimbursable", "requires paid_on_purchase")
		}
		if inv.ReimbursementTo == "" {
			return invalid("reimbursement_to", "required when is_reimbursable")
		}
		if inv.PurchaseMethod != "" {
			return invalid("purchase_method", "must be empty for third-party-paid invoices")
		}
		return nil
	}

	if inv.ReimbursementStatus != model.ReimbursementNone {
		return invalid("reimbursement_status", "only third-party-paid invoices carry a reimbursement status")
	}

	if inv.PaidOnPurchase {
		switch inv.PurchaseMethod {
		case model.MethodCash:
		case model.MethodBank:
			if inv.BankAccountID == nil {
				return invalid("bank_account_id", "required when purchase_method is BANK")
			}
		case model.MethodCheck:
		case model.MethodCard:
			if inv.CreditCardID == nil {
				return invalid("credit_card_id", "required when purchase_method is CARD")
			}
		case "":
			return invalid("purchase_method", "required when paid_on_purchase")
		default:
			return invalid("purchase_method", "must be one of CASH, BANK, CHECK, CARD")
		}
	} else if inv.PurchaseMethod != "" {
		return invalid("purchase_method", "must be empty unless paid_on_purchase")
	}

	return nil
}

// --- Mapping ---

func toInvoiceResponse(inv model.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:                  inv.ID.String(),
		StoreID:             inv.StoreID.String(),
		PurchaseDate:        inv.PurchaseDate.Format(dateLayout),
		Amount:              inv.Amount.StringFixed(2),
		AmountSource:        inv.AmountSource,
		PurchaseType:        inv.PurchaseType,
		InvoiceNumber:       inv.InvoiceNumber,
		Status:              inv.Status(time.Now()),
		PaidOnPurchase:      inv.PaidOnPurchase,
		PurchaseMethod:      inv.PurchaseMethod,
		IsReimbursable:      inv.IsReimbursable,
		ReimbursementTo:     inv.ReimbursementTo,
		ReimbursementStatus: inv.ReimbursementStatus,
		RevenueMethod:       inv.RevenueMethod,
		ExpectedRevenue:     inv.ExpectedRevenue.StringFixed(2),
		Notes:               inv.Notes,
		CreatedAt:           inv.CreatedAt.Format(time.RFC3339),
	}

	if inv.VendorID != nil {
		v := inv.VendorID.String()
		resp.VendorID = &v
	}
	if inv.DueDate != nil {
		d := inv.DueDate.Format(dateLayout)
		resp.DueDate = &d
	}
	if inv.BankAccountID != nil {
		b := inv.BankAccountID.String()
		resp.BankAccountID = &b
	}
	if inv.CreditCardID != nil {
		c := inv.CreditCardID.String()
		resp.CreditCardID = &c
	}
	if inv.ReimbursedAt != nil {
		r := inv.ReimbursedAt.Format(time.RFC3339)
		resp.ReimbursedAt = &r
	}
	if inv.PaymentID != nil {
		p := inv.PaymentID.String()
		resp.PaymentID = &p
	}

	resp.Items = make([]InvoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		itemResp := InvoiceItemResponse{
			ID:          item.ID.String(),
			ProductID:   item.ProductID.String(),
			Quantity:    item.Quantity,
			UnitCost:    item.UnitCost.StringFixed(2),
			VapeTaxPaid: item.VapeTaxPaid,
		}
		if item.OrderItemID != nil {
			itemResp.OrderItemID = item.OrderItemID.String()
		}
		resp.Items = append(resp.Items, itemResp)
	}

	return resp
}
