package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storepay/internal/logger"
	"storepay/internal/model"
	"storepay/internal/repository"
	ws "storepay/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type AttachDeliveryRequest struct {
	InvoiceID string `json:"invoice_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"` // packs to deliver
}

type AttachDeliveryResponse struct {
	InvoiceItem      InvoiceItemResponse `json:"invoice_item"`
	RemainingPending int                 `json:"remaining_pending"`
	InvoiceAmount    string              `json:"invoice_amount"`
}

type OrderItemResponse struct {
	ID                string `json:"id"`
	ProductID         string `json:"product_id"`
	ProductName       string `json:"product_name,omitempty"`
	StoreID           string `json:"store_id"`
	CostPrice         string `json:"cost_price"`
	RevenuePerPack    string `json:"revenue_per_pack"`
	QuantityOrdered   int    `json:"quantity_ordered"`
	QuantityDelivered int    `json:"quantity_delivered"`
	QuantityPending   int    `json:"quantity_pending"`
}

// --- Interface ---

// CalculatorService derives invoice cost from product lines, expected revenue
// from sell-side pricing, and folds partial purchase-order deliveries into an
// invoice's cost basis.
type CalculatorService interface {
	ComputeCost(items []model.InvoiceItem) decimal.Decimal
	ComputeExpectedRevenue(ctx context.Context, items []model.InvoiceItem) (decimal.Decimal, error)
	AttachDeliveredOrderItem(ctx context.Context, userID string, orderItemID string, req AttachDeliveryRequest) (AttachDeliveryResponse, error)
	ListOrderItems(ctx context.Context, storeID, productID string, page, limit int) ([]OrderItemResponse, int64, error)
}

type calculatorService struct {
	invoiceRepo   repository.InvoiceRepository
	orderItemRepo repository.OrderItemRepository
	productRepo   repository.ProductRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	hub           *ws.Hub
}

var calcLog = logger.WithComponent("calculator")

func NewCalculatorService(
	invoiceRepo repository.InvoiceRepository,
	orderItemRepo repository.OrderItemRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) CalculatorService {
	return &calculatorService{
		invoiceRepo:   invoiceRepo,
		orderItemRepo: orderItemRepo,
		productRepo:   productRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		hub:           hub,
	}
}

// --- Implementation ---

// ComputeCost returns Σ quantity × unit_cost over the selected lines.
// An empty list yields zero, never an error.
func (s *calculatorService) ComputeCost(items []model.InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// ComputeExpectedRevenue returns Σ sell_price_per_piece × quantity_per_pack ×
// quantity (packs) using catalog pricing. An empty list yields zero.
func (s *calculatorService) ComputeExpectedRevenue(ctx context.Context, items []model.InvoiceItem) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	total := decimal.Zero
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return decimal.Zero, notFound("product", item.ProductID.String())
		}
		perPack := product.SellPricePerPiece.Mul(decimal.NewFromInt(int64(product.QuantityPerPack)))
		total = total.Add(perPack.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total, nil
}

// AttachDeliveredOrderItem merges a partial delivery of a purchase-order line
// into the invoice's item list: same line sums quantity and takes the most
// recent unit cost. Over-delivery fails with no effect on either side.
func (s *calculatorService) AttachDeliveredOrderItem(ctx context.Context, userID string, orderItemID string, req AttachDeliveryRequest) (AttachDeliveryResponse, error) {
	itemID, err := uuid.Parse(orderItemID)
	if err != nil {
		return AttachDeliveryResponse{}, invalid("order_item_id", "must be a valid uuid")
	}
	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		return AttachDeliveryResponse{}, invalid("invoice_id", "must be a valid uuid")
	}
	if req.Quantity <= 0 {
		return AttachDeliveryResponse{}, invalid("quantity", "must be greater than zero")
	}

	var resp AttachDeliveryResponse
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, findErr := s.invoiceRepo.FindByIDForUpdate(txCtx, invoiceID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return notFound("invoice", req.InvoiceID)
			}
			return fmt.Errorf("failed to load invoice: %w", findErr)
		}
		if invoice.PaymentID != nil {
			return conflict("invoice %s is already paid; deliveries cannot change its cost basis", req.InvoiceID)
		}

		orderItem, findErr := s.orderItemRepo.FindByIDForUpdate(txCtx, itemID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return notFound("order item", orderItemID)
			}
			return fmt.Errorf("failed to load order item: %w", findErr)
		}

		pending := orderItem.QuantityPending()
		if req.Quantity > pending {
			return &OverDeliveryError{OrderItemID: orderItemID, Requested: req.Quantity, Pending: pending}
		}

		orderItem.QuantityDelivered += req.Quantity
		if updateErr := s.orderItemRepo.Update(txCtx, orderItem); updateErr != nil {
			return fmt.Errorf("failed to update order item: %w", updateErr)
		}

		line, findErr := s.invoiceRepo.FindItemByOrderItem(txCtx, invoiceID, itemID)
		switch {
		case findErr == nil:
			line.Quantity += req.Quantity
			line.UnitCost = orderItem.CostPrice
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			line = &model.InvoiceItem{
				InvoiceID:   invoiceID,
				ProductID:   orderItem.ProductID,
				OrderItemID: &itemID,
				Quantity:    req.Quantity,
				UnitCost:    orderItem.CostPrice,
			}
		default:
			return fmt.Errorf("failed to look up invoice line: %w", findErr)
		}
		if saveErr := s.invoiceRepo.SaveItem(txCtx, line); saveErr != nil {
			return fmt.Errorf("failed to save invoice line: %w", saveErr)
		}

		// A derived amount follows the item list; a manual amount is never
		// silently clobbered by a recalculation.
		if invoice.AmountSource == model.AmountSourceDerived {
			reloaded, reloadErr := s.invoiceRepo.FindByIDWithItems(txCtx, invoiceID)
			if reloadErr != nil {
				return fmt.Errorf("failed to reload invoice items: %w", reloadErr)
			}
			invoice.Amount = s.ComputeCost(reloaded.Items)
			if updateErr := s.invoiceRepo.Update(txCtx, invoice); updateErr != nil {
				return fmt.Errorf("failed to update invoice amount: %w", updateErr)
			}
		}

		resp = AttachDeliveryResponse{
			InvoiceItem: InvoiceItemResponse{
				ID:          line.ID.String(),
				ProductID:   line.ProductID.String(),
				OrderItemID: orderItemID,
				Quantity:    line.Quantity,
				UnitCost:    line.UnitCost.StringFixed(2),
				VapeTaxPaid: line.VapeTaxPaid,
			},
			RemainingPending: orderItem.QuantityPending(),
			InvoiceAmount:    invoice.Amount.StringFixed(2),
		}

		return s.writeAudit(txCtx, userID, orderItemID, req)
	})
	if err != nil {
		return AttachDeliveryResponse{}, err
	}

	calcLog.Info().
		Str("order_item_id", orderItemID).
		Int("quantity", req.Quantity).
		Int("remaining_pending", resp.RemainingPending).
		Msg("delivery attached to invoice")

	if s.hub != nil {
		s.hub.BroadcastEvent(ws.EventDeliveryAttached, map[string]interface{}{
			"invoice_id":        req.InvoiceID,
			"order_item_id":     orderItemID,
			"quantity":          req.Quantity,
			"remaining_pending": resp.RemainingPending,
		})
	}

	return resp, nil
}

func (s *calculatorService) ListOrderItems(ctx context.Context, storeID, productID string, page, limit int) ([]OrderItemResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var storeUUID, productUUID *uuid.UUID
	if storeID != "" {
		parsed, err := uuid.Parse(storeID)
		if err != nil {
			return nil, 0, invalid("store_id", "must be a valid uuid")
		}
		storeUUID = &parsed
	}
	if productID != "" {
		parsed, err := uuid.Parse(productID)
		if err != nil {
			return nil, 0, invalid("product_id", "must be a valid uuid")
		}
		productUUID = &parsed
	}

	items, total, err := s.orderItemRepo.List(ctx, storeUUID, productUUID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch order items: %w", err)
	}

	result := make([]OrderItemResponse, 0, len(items))
	for _, item := range items {
		resp := OrderItemResponse{
			ID:                item.ID.String(),
			ProductID:         item.ProductID.String(),
			StoreID:           item.StoreID.String(),
			CostPrice:         item.CostPrice.StringFixed(2),
			RevenuePerPack:    item.RevenuePerPack.StringFixed(2),
			QuantityOrdered:   item.QuantityOrdered,
			QuantityDelivered: item.QuantityDelivered,
			QuantityPending:   item.QuantityPending(),
		}
		if item.Product != nil {
			resp.ProductName = item.Product.Name
		}
		result = append(result, resp)
	}
	return result, total, nil
}

func (s *calculatorService) writeAudit(ctx context.Context, userID, entityID string, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}
	details, _ := json.Marshal(payload)
	audit := &model.AuditLog{
		UserID:   uid,
		Action:   model.ActionAttachDelivery,
		EntityID: entityID,
		Details:  string(details),
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
