package service

import (
	"context"
	"testing"

	"storepay/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReimbursementFixture(t *testing.T) (ReimbursementService, *fakeInvoiceRepo, *fakeCrossStoreRepo, *fakeDirectoryRepo, *fakeAuditRepo) {
	t.Helper()
	invoiceRepo := newFakeInvoiceRepo()
	crossStoreRepo := newFakeCrossStoreRepo()
	directoryRepo := newFakeDirectoryRepo()
	auditRepo := newFakeAuditRepo()
	svc := NewReimbursementService(invoiceRepo, crossStoreRepo, directoryRepo, auditRepo, &fakeTxManager{}, nil)
	return svc, invoiceRepo, crossStoreRepo, directoryRepo, auditRepo
}

func reimbursableInvoice(repo *fakeInvoiceRepo, amount string) *model.Invoice {
	amt, _ := decimal.NewFromString(amount)
	return repo.put(&model.Invoice{
		StoreID:             uuid.New(),
		Amount:              amt,
		AmountSource:        model.AmountSourceManual,
		PurchaseType:        model.PurchaseTypeInvoice,
		InvoiceNumber:       "INV-7",
		PaidOnPurchase:      true,
		IsReimbursable:      true,
		ReimbursementTo:     "Uncle Ray",
		ReimbursementStatus: model.ReimbursementPending,
	})
}

func pendingAllocation(repo *fakeCrossStoreRepo, amount string) *model.StoreAllocation {
	amt, _ := decimal.NewFromString(amount)
	alloc := &model.StoreAllocation{
		ID:                    uuid.New(),
		CrossStorePaymentID:   uuid.New(),
		TargetStoreID:         uuid.New(),
		AllocatedAmount:       amt,
		ReimbursementRequired: true,
		ReimbursementStatus:   model.AllocationPending,
	}
	repo.allocations[alloc.ID] = alloc
	return alloc
}

// --- Third-party reimbursement ---

func TestMarkThirdPartyReimbursedSettlesDebt(t *testing.T) {
	svc, invoiceRepo, _, _, auditRepo := newReimbursementFixture(t)
	inv := reimbursableInvoice(invoiceRepo, "220.00")

	resp, err := svc.MarkThirdPartyReimbursed(context.Background(), uuid.NewString(), inv.ID.String(), MarkReimbursedRequest{
		Method:      model.MethodCheck,
		CheckNumber: "2001",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ReimbursementReimbursed, resp.ReimbursementStatus)
	require.NotNil(t, resp.ReimbursedAt)

	stored, err := invoiceRepo.FindByID(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReimbursementReimbursed, stored.ReimbursementStatus)
	assert.Equal(t, "2001", stored.ReimbursementRef)
	assert.True(t, stored.ReimbursedAmount.Equal(decimal.RequireFromString("220.00")))
	// Invoice amount and payment state stay untouched.
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("220.00")))
	assert.Nil(t, stored.PaymentID)

	assert.Contains(t, auditRepo.actions(), model.ActionMarkReimbursed)
}

func TestMarkThirdPartyReimbursedPartialAmount(t *testing.T) {
	svc, invoiceRepo, _, _, _ := newReimbursementFixture(t)
	inv := reimbursableInvoice(invoiceRepo, "220.00")

	_, err := svc.MarkThirdPartyReimbursed(context.Background(), uuid.NewString(), inv.ID.String(), MarkReimbursedRequest{
		Method: model.MethodCash,
		Amount: "200.00",
	})
	require.NoError(t, err)

	stored, err := invoiceRepo.FindByID(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.True(t, stored.ReimbursedAmount.Equal(decimal.RequireFromString("200.00")))
}

func TestMarkThirdPartyReimbursedCheckRequiresNumber(t *testing.T) {
	svc, invoiceRepo, _, _, _ := newReimbursementFixture(t)
	inv := reimbursableInvoice(invoiceRepo, "80.00")

	_, err := svc.MarkThirdPartyReimbursed(context.Background(), uuid.NewString(), inv.ID.String(), MarkReimbursedRequest{
		Method: model.MethodCheck,
	})
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "check_number", validationErr.Field)

	// State unchanged.
	stored, findErr := invoiceRepo.FindByID(context.Background(), inv.ID)
	require.NoError(t, findErr)
	assert.Equal(t, model.ReimbursementPending, stored.ReimbursementStatus)
}

func TestMarkThirdPartyReimbursedBankRequiresAccount(t *testing.T) {
	svc, invoiceRepo, _, directoryRepo, _ := newReimbursementFixture(t)
	inv := reimbursableInvoice(invoiceRepo, "80.00")

	_, err := svc.MarkThirdPartyReimbursed(context.Background(), uuid.NewString(), inv.ID.String(), MarkReimbursedRequest{
		Method: model.MethodBank,
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	account := directoryRepo.addBankAccount("Operating")
	_, err = svc.MarkThirdPartyReimbursed(context.Background(), uuid.NewString(), inv.ID.String(), MarkReimbursedRequest{
		Method:        model.MethodBank,
		BankAccountID: account.ID.String(),
	})
	assert.NoError(t, err)
}

func TestMarkThirdPartyReimbursedNonReimbursableConflicts(t *testing.T) {
	svc, invoiceRepo, _, _, _ := newReimbursementFixture(t)
	inv := invoiceRepo.put(&model.Invoice{
		StoreID:             uuid.New(),
		Amount:              decimal.NewFromInt(50),
		PurchaseType:        model.PurchaseTypeCash,
		ReimbursementStatus: model.ReimbursementNone,
	})

	_, err := svc.MarkThirdPartyReimbursed(context.Background(), uuid.NewString(), inv.ID.String(), MarkReimbursedRequest{
		Method: model.MethodCash,
	})
	require.Error(t, err)

	var conflictErr *ConflictError
	assert.ErrorAs(t, err, &conflictErr)
}

func TestMarkThirdPartyReimbursedTwiceConflicts(t *testing.T) {
	svc, invoiceRepo, _, _, _ := newReimbursementFixture(t)
	inv := reimbursableInvoice(invoiceRepo, "80.00")

	_, err := svc.MarkThirdPartyReimbursed(context.Background(), uuid.NewString(), inv.ID.String(), MarkReimbursedRequest{
		Method: model.MethodCash,
	})
	require.NoError(t, err)

	_, err = svc.MarkThirdPartyReimbursed(context.Background(), uuid.NewString(), inv.ID.String(), MarkReimbursedRequest{
		Method: model.MethodCash,
	})
	var conflictErr *ConflictError
	assert.ErrorAs(t, err, &conflictErr)
}

// --- Allocation reimbursement state machine ---

func TestAllocationPendingToCompleted(t *testing.T) {
	svc, _, crossStoreRepo, _, auditRepo := newReimbursementFixture(t)
	alloc := pendingAllocation(crossStoreRepo, "120.00")

	resp, err := svc.UpdateAllocationReimbursement(context.Background(), uuid.NewString(), alloc.ID.String(), UpdateAllocationReimbursementRequest{
		Status: model.AllocationCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AllocationCompleted, resp.ReimbursementStatus)
	require.NotNil(t, resp.ReimbursedAt)
	// Amount defaults to the full allocation.
	assert.Equal(t, "120.00", resp.ReimbursedAmount)

	assert.Contains(t, auditRepo.actions(), model.ActionUpdateAllocation)
}

func TestAllocationCompletedIsIdempotent(t *testing.T) {
	svc, _, crossStoreRepo, _, _ := newReimbursementFixture(t)
	alloc := pendingAllocation(crossStoreRepo, "120.00")

	first, err := svc.UpdateAllocationReimbursement(context.Background(), uuid.NewString(), alloc.ID.String(), UpdateAllocationReimbursementRequest{
		Status: model.AllocationCompleted,
	})
	require.NoError(t, err)

	second, err := svc.UpdateAllocationReimbursement(context.Background(), uuid.NewString(), alloc.ID.String(), UpdateAllocationReimbursementRequest{
		Status: model.AllocationCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AllocationCompleted, second.ReimbursementStatus)
	// Repeating the transition keeps the original settlement timestamp.
	assert.Equal(t, *first.ReimbursedAt, *second.ReimbursedAt)
}

func TestAllocationRevertToPendingClearsSettlement(t *testing.T) {
	svc, _, crossStoreRepo, _, _ := newReimbursementFixture(t)
	alloc := pendingAllocation(crossStoreRepo, "120.00")

	_, err := svc.UpdateAllocationReimbursement(context.Background(), uuid.NewString(), alloc.ID.String(), UpdateAllocationReimbursementRequest{
		Status: model.AllocationCompleted,
	})
	require.NoError(t, err)

	resp, err := svc.UpdateAllocationReimbursement(context.Background(), uuid.NewString(), alloc.ID.String(), UpdateAllocationReimbursementRequest{
		Status: model.AllocationPending,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AllocationPending, resp.ReimbursementStatus)
	assert.Nil(t, resp.ReimbursedAt)
	assert.Equal(t, "0.00", resp.ReimbursedAmount)
}

func TestAllocationNotRequiredDropsFromQueue(t *testing.T) {
	svc, _, crossStoreRepo, _, _ := newReimbursementFixture(t)
	alloc := pendingAllocation(crossStoreRepo, "45.00")

	resp, err := svc.UpdateAllocationReimbursement(context.Background(), uuid.NewString(), alloc.ID.String(), UpdateAllocationReimbursementRequest{
		Status: model.AllocationNotRequired,
		Note:   "internal transfer, no repayment",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AllocationNotRequired, resp.ReimbursementStatus)
	assert.False(t, resp.ReimbursementRequired)
	assert.Equal(t, "internal transfer, no repayment", resp.ReimbursementNote)
}

func TestAllocationCompletedPartialAmount(t *testing.T) {
	svc, _, crossStoreRepo, _, _ := newReimbursementFixture(t)
	alloc := pendingAllocation(crossStoreRepo, "120.00")

	resp, err := svc.UpdateAllocationReimbursement(context.Background(), uuid.NewString(), alloc.ID.String(), UpdateAllocationReimbursementRequest{
		Status: model.AllocationCompleted,
		Amount: "100.00",
	})
	require.NoError(t, err)
	assert.Equal(t, "100.00", resp.ReimbursedAmount)
}

func TestAllocationUnknownIDNotFound(t *testing.T) {
	svc, _, _, _, _ := newReimbursementFixture(t)

	_, err := svc.UpdateAllocationReimbursement(context.Background(), uuid.NewString(), uuid.NewString(), UpdateAllocationReimbursementRequest{
		Status: model.AllocationCompleted,
	})
	require.Error(t, err)

	var notFoundErr *NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}
