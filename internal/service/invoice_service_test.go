package service

import (
	"context"
	"testing"
	"time"

	"storepay/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type invoiceFixture struct {
	svc           InvoiceService
	invoiceRepo   *fakeInvoiceRepo
	directoryRepo *fakeDirectoryRepo
	productRepo   *fakeProductRepo
	auditRepo     *fakeAuditRepo
	store         *model.Store
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()
	invoiceRepo := newFakeInvoiceRepo()
	directoryRepo := newFakeDirectoryRepo()
	productRepo := newFakeProductRepo()
	auditRepo := newFakeAuditRepo()
	tx := &fakeTxManager{}
	calculator := NewCalculatorService(invoiceRepo, newFakeOrderItemRepo(), productRepo, auditRepo, tx, nil)
	svc := NewInvoiceService(invoiceRepo, directoryRepo, productRepo, auditRepo, tx, calculator)
	return &invoiceFixture{
		svc:           svc,
		invoiceRepo:   invoiceRepo,
		directoryRepo: directoryRepo,
		productRepo:   productRepo,
		auditRepo:     auditRepo,
		store:         directoryRepo.addStore("Main St"),
	}
}

func TestCreateInvoiceManualAmount(t *testing.T) {
	f := newInvoiceFixture(t)

	resp, err := f.svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		StoreID:       f.store.ID.String(),
		PurchaseDate:  "2026-08-01",
		PurchaseType:  model.PurchaseTypeInvoice,
		InvoiceNumber: "INV-100",
		Amount:        "250.00",
	})
	require.NoError(t, err)
	assert.Equal(t, "250.00", resp.Amount)
	assert.Equal(t, model.AmountSourceManual, resp.AmountSource)
	assert.Equal(t, model.InvoiceStatusPending, resp.Status)
	assert.Contains(t, f.auditRepo.actions(), model.ActionCreateInvoice)
}

func TestCreateInvoiceDerivesAmountFromItems(t *testing.T) {
	f := newInvoiceFixture(t)
	product := f.productRepo.add(&model.Product{Name: "Lighters 50ct"})

	resp, err := f.svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		StoreID:       f.store.ID.String(),
		PurchaseDate:  "2026-08-01",
		PurchaseType:  model.PurchaseTypeInvoice,
		InvoiceNumber: "INV-101",
		Items: []InvoiceItemRequest{
			{ProductID: product.ID.String(), Quantity: 3, UnitCost: "15.00"},
			{ProductID: product.ID.String(), Quantity: 1, UnitCost: "5.00"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "50.00", resp.Amount)
	assert.Equal(t, model.AmountSourceDerived, resp.AmountSource)
}

func TestCreateInvoiceNoAmountNoItemsRejected(t *testing.T) {
	f := newInvoiceFixture(t)

	_, err := f.svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		StoreID:       f.store.ID.String(),
		PurchaseDate:  "2026-08-01",
		PurchaseType:  model.PurchaseTypeInvoice,
		InvoiceNumber: "INV-102",
	})
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "amount", validationErr.Field)
}

func TestCreateInvoiceDueDateFromVendorTerms(t *testing.T) {
	f := newInvoiceFixture(t)
	vendor := f.directoryRepo.addVendor("Core-Mark", 15)

	resp, err := f.svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		StoreID:       f.store.ID.String(),
		VendorID:      vendor.ID.String(),
		PurchaseDate:  "2026-08-01",
		PurchaseType:  model.PurchaseTypeInvoice,
		InvoiceNumber: "INV-103",
		Amount:        "90.00",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.DueDate)
	assert.Equal(t, "2026-08-16", *resp.DueDate)
}

func TestCreateInvoiceDefaultDueDaysWithoutVendor(t *testing.T) {
	f := newInvoiceFixture(t)

	resp, err := f.svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		StoreID:       f.store.ID.String(),
		PurchaseDate:  "2026-08-01",
		PurchaseType:  model.PurchaseTypeInvoice,
		InvoiceNumber: "INV-104",
		Amount:        "90.00",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.DueDate)
	assert.Equal(t, "2026-08-31", *resp.DueDate)
}

func TestCreateInvoiceCashPurchaseHasNoDueDate(t *testing.T) {
	f := newInvoiceFixture(t)

	resp, err := f.svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		StoreID:      f.store.ID.String(),
		PurchaseDate: "2026-08-01",
		PurchaseType: model.PurchaseTypeCash,
		Amount:       "40.00",
	})
	require.NoError(t, err)
	assert.Nil(t, resp.DueDate)
}

func TestCreateInvoiceNumberRequiredUnlessCash(t *testing.T) {
	f := newInvoiceFixture(t)

	_, err := f.svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		StoreID:      f.store.ID.String(),
		PurchaseDate: "2026-08-01",
		PurchaseType: model.PurchaseTypeCreditMemo,
		Amount:       "40.00",
	})
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "invoice_number", validationErr.Field)
}

func TestCreateInvoiceThirdPartyPayerRules(t *testing.T) {
	f := newInvoiceFixture(t)

	// Reimbursable requires paid_on_purchase.
	_, err := f.svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		StoreID:         f.store.ID.String(),
		PurchaseDate:    "2026-08-01",
		PurchaseType:    model.PurchaseTypeCash,
		Amount:          "60.00",
		IsReimbursable:  true,
		ReimbursementTo: "Uncle Ray",
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "is_reimbursable", validationErr.Field)

	// Reimbursable forbids a direct purchase method.
	_, err = f.svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		StoreID:         f.store.ID.String(),
		PurchaseDate:    "2026-08-01",
		PurchaseType:    model.PurchaseTypeCash,
		Amount:          "60.00",
		PaidOnPurchase:  true,
		PurchaseMethod:  model.MethodCash,
		IsReimbursable:  true,
		ReimbursementTo: "Uncle Ray",
	})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "purchase_method", validationErr.Field)

	// Well-formed third-party invoice starts reimbursement PENDING.
	resp, err := f.svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		StoreID:         f.store.ID.String(),
		PurchaseDate:    "2026-08-01",
		PurchaseType:    model.PurchaseTypeCash,
		Amount:          "60.00",
		PaidOnPurchase:  true,
		IsReimbursable:  true,
		ReimbursementTo: "Uncle Ray",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ReimbursementPending, resp.ReimbursementStatus)
}

func TestCreateInvoicePurchaseMethodPairings(t *testing.T) {
	f := newInvoiceFixture(t)

	// BANK without account id.
	_, err := f.svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		StoreID:        f.store.ID.String(),
		PurchaseDate:   "2026-08-01",
		PurchaseType:   model.PurchaseTypeCash,
		Amount:         "60.00",
		PaidOnPurchase: true,
		PurchaseMethod: model.MethodBank,
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "bank_account_id", validationErr.Field)

	// Method given without paid_on_purchase.
	_, err = f.svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		StoreID:        f.store.ID.String(),
		PurchaseDate:   "2026-08-01",
		PurchaseType:   model.PurchaseTypeCash,
		Amount:         "60.00",
		PurchaseMethod: model.MethodCash,
	})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "purchase_method", validationErr.Field)
}

func TestUpdatePaidInvoiceConflicts(t *testing.T) {
	f := newInvoiceFixture(t)
	inv := pendingInvoice(f.invoiceRepo, f.store.ID, "100.00")
	paid := uuid.New()
	inv.PaymentID = &paid

	notes := "late"
	_, err := f.svc.UpdateInvoice(context.Background(), uuid.NewString(), inv.ID.String(), UpdateInvoiceRequest{
		Notes: &notes,
	})
	require.Error(t, err)

	var conflictErr *ConflictError
	assert.ErrorAs(t, err, &conflictErr)
}

func TestUpdateInvoiceMergesPatch(t *testing.T) {
	f := newInvoiceFixture(t)
	inv := pendingInvoice(f.invoiceRepo, f.store.ID, "100.00")

	amount := "175.00"
	notes := "restocking order"
	resp, err := f.svc.UpdateInvoice(context.Background(), uuid.NewString(), inv.ID.String(), UpdateInvoiceRequest{
		Amount: &amount,
		Notes:  &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, "175.00", resp.Amount)
	assert.Equal(t, "restocking order", resp.Notes)
	// Untouched fields survive the patch.
	assert.Equal(t, "INV-1", resp.InvoiceNumber)
	assert.Contains(t, f.auditRepo.actions(), model.ActionUpdateInvoice)
}

func TestDeletePaidInvoiceForbidden(t *testing.T) {
	f := newInvoiceFixture(t)
	inv := pendingInvoice(f.invoiceRepo, f.store.ID, "100.00")
	paid := uuid.New()
	inv.PaymentID = &paid

	err := f.svc.DeleteInvoice(context.Background(), uuid.NewString(), inv.ID.String())
	require.Error(t, err)

	var conflictErr *ConflictError
	assert.ErrorAs(t, err, &conflictErr)
}

func TestDeleteUnpaidInvoiceCancels(t *testing.T) {
	f := newInvoiceFixture(t)
	inv := pendingInvoice(f.invoiceRepo, f.store.ID, "100.00")

	err := f.svc.DeleteInvoice(context.Background(), uuid.NewString(), inv.ID.String())
	require.NoError(t, err)

	assert.Equal(t, model.InvoiceStatusCancelled, inv.Status(time.Now()))
	assert.Contains(t, f.auditRepo.actions(), model.ActionDeleteInvoice)
}

func TestInvoiceStatusDerivation(t *testing.T) {
	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)
	paid := uuid.New()

	cases := []struct {
		name    string
		invoice model.Invoice
		want    string
	}{
		{"unpaid no due date", model.Invoice{}, model.InvoiceStatusPending},
		{"unpaid before due date", model.Invoice{DueDate: &tomorrow}, model.InvoiceStatusPending},
		{"unpaid past due date", model.Invoice{DueDate: &yesterday}, model.InvoiceStatusOverdue},
		{"paid past due date", model.Invoice{DueDate: &yesterday, PaymentID: &paid}, model.InvoiceStatusPaid},
		{"deleted", model.Invoice{DeletedAt: gorm.DeletedAt{Time: today, Valid: true}, PaymentID: &paid}, model.InvoiceStatusCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.invoice.Status(today))
		})
	}
}

func TestRevenueMethodResolution(t *testing.T) {
	f := newInvoiceFixture(t)
	product := f.productRepo.add(&model.Product{
		Name:              "Menthol 20pk",
		SellPricePerPiece: decimal.RequireFromString("1.25"),
		QuantityPerPack:   20,
	})

	// MANUAL without a figure is rejected.
	_, err := f.svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		StoreID:       f.store.ID.String(),
		PurchaseDate:  "2026-08-01",
		PurchaseType:  model.PurchaseTypeCash,
		Amount:        "40.00",
		RevenueMethod: model.RevenueMethodManual,
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "expected_revenue", validationErr.Field)

	// PRODUCT_SELECTION derives revenue from the catalog.
	resp, err := f.svc.CreateInvoice(context.Background(), uuid.NewString(), CreateInvoiceRequest{
		StoreID:       f.store.ID.String(),
		PurchaseDate:  "2026-08-01",
		PurchaseType:  model.PurchaseTypeCash,
		RevenueMethod: model.RevenueMethodProductSelection,
		Items: []InvoiceItemRequest{
			{ProductID: product.ID.String(), Quantity: 2, UnitCost: "18.00"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "36.00", resp.Amount)          // derived cost
	assert.Equal(t, "50.00", resp.ExpectedRevenue) // 2 × 20 × 1.25
}
