package service

import (
	"context"

	"storepay/internal/model"
	"storepay/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the persistence semantics the
// services rely on (missing rows return gorm.ErrRecordNotFound, creates
// assign ids) without a database.

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- invoices ---

type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]*model.Invoice
	items    map[uuid.UUID]*model.InvoiceItem
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: make(map[uuid.UUID]*model.Invoice),
		items:    make(map[uuid.UUID]*model.InvoiceItem),
	}
}

func (f *fakeInvoiceRepo) put(inv *model.Invoice) *model.Invoice {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	f.invoices[inv.ID] = inv
	return inv
}

func (f *fakeInvoiceRepo) Create(ctx context.Context, invoice *model.Invoice) error {
	f.put(invoice)
	for i := range invoice.Items {
		if invoice.Items[i].ID == uuid.Nil {
			invoice.Items[i].ID = uuid.New()
		}
		invoice.Items[i].InvoiceID = invoice.ID
		item := invoice.Items[i]
		f.items[item.ID] = &item
	}
	return nil
}

func (f *fakeInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *inv
	return &copied, nil
}

func (f *fakeInvoiceRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Items = nil
	for _, item := range f.items {
		if item.InvoiceID == id {
			inv.Items = append(inv.Items, *item)
		}
	}
	return inv, nil
}

func (f *fakeInvoiceRepo) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]model.Invoice, error) {
	var result []model.Invoice
	for _, id := range ids {
		if inv, ok := f.invoices[id]; ok {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (f *fakeInvoiceRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeInvoiceRepo) List(ctx context.Context, filter repository.InvoiceListFilter) ([]model.Invoice, int64, error) {
	var result []model.Invoice
	for _, inv := range f.invoices {
		if filter.StoreID != nil && inv.StoreID != *filter.StoreID {
			continue
		}
		if filter.VendorID != nil && (inv.VendorID == nil || *inv.VendorID != *filter.VendorID) {
			continue
		}
		if filter.PurchaseType != "" && inv.PurchaseType != filter.PurchaseType {
			continue
		}
		if filter.UnpaidOnly && inv.PaymentID != nil {
			continue
		}
		result = append(result, *inv)
	}
	return result, int64(len(result)), nil
}

func (f *fakeInvoiceRepo) Update(ctx context.Context, invoice *model.Invoice) error {
	if _, ok := f.invoices[invoice.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *invoice
	f.invoices[invoice.ID] = &copied
	return nil
}

func (f *fakeInvoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	inv, ok := f.invoices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	inv.DeletedAt = gorm.DeletedAt{Valid: true}
	return nil
}

func (f *fakeInvoiceRepo) AssignPayment(ctx context.Context, invoiceIDs []uuid.UUID, paymentID uuid.UUID) error {
	for _, id := range invoiceIDs {
		if inv, ok := f.invoices[id]; ok {
			pid := paymentID
			inv.PaymentID = &pid
		}
	}
	return nil
}

func (f *fakeInvoiceRepo) ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []model.InvoiceItem) error {
	for id, item := range f.items {
		if item.InvoiceID == invoiceID {
			delete(f.items, id)
		}
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].InvoiceID = invoiceID
		item := items[i]
		f.items[item.ID] = &item
	}
	return nil
}

func (f *fakeInvoiceRepo) FindItemByOrderItem(ctx context.Context, invoiceID, orderItemID uuid.UUID) (*model.InvoiceItem, error) {
	for _, item := range f.items {
		if item.InvoiceID == invoiceID && item.OrderItemID != nil && *item.OrderItemID == orderItemID {
			copied := *item
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeInvoiceRepo) SaveItem(ctx context.Context, item *model.InvoiceItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	copied := *item
	f.items[item.ID] = &copied
	return nil
}

// --- payments ---

type fakePaymentRepo struct {
	payments map[uuid.UUID]*model.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*model.Payment)}
}

func (f *fakePaymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	for i := range payment.Splits {
		if payment.Splits[i].ID == uuid.Nil {
			payment.Splits[i].ID = uuid.New()
		}
		payment.Splits[i].PaymentID = payment.ID
	}
	copied := *payment
	f.payments[payment.ID] = &copied
	return nil
}

func (f *fakePaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePaymentRepo) ListByStore(ctx context.Context, storeID uuid.UUID, page, limit int) ([]model.Payment, int64, error) {
	var result []model.Payment
	for _, p := range f.payments {
		if p.StoreID == storeID {
			result = append(result, *p)
		}
	}
	return result, int64(len(result)), nil
}

// --- cross-store ---

type fakeCrossStoreRepo struct {
	payments    map[uuid.UUID]*model.CrossStorePayment
	allocations map[uuid.UUID]*model.StoreAllocation
}

func newFakeCrossStoreRepo() *fakeCrossStoreRepo {
	return &fakeCrossStoreRepo{
		payments:    make(map[uuid.UUID]*model.CrossStorePayment),
		allocations: make(map[uuid.UUID]*model.StoreAllocation),
	}
}

func (f *fakeCrossStoreRepo) Create(ctx context.Context, payment *model.CrossStorePayment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	for i := range payment.Allocations {
		if payment.Allocations[i].ID == uuid.Nil {
			payment.Allocations[i].ID = uuid.New()
		}
		payment.Allocations[i].CrossStorePaymentID = payment.ID
		alloc := payment.Allocations[i]
		f.allocations[alloc.ID] = &alloc
	}
	copied := *payment
	f.payments[payment.ID] = &copied
	return nil
}

func (f *fakeCrossStoreRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CrossStorePayment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	copied.Allocations = nil
	for _, alloc := range f.allocations {
		if alloc.CrossStorePaymentID == id {
			copied.Allocations = append(copied.Allocations, *alloc)
		}
	}
	return &copied, nil
}

func (f *fakeCrossStoreRepo) ListForStore(ctx context.Context, storeID uuid.UUID, role string, page, limit int) ([]model.CrossStorePayment, int64, error) {
	var result []model.CrossStorePayment
	for id, p := range f.payments {
		isSource := p.SourceStoreID == storeID
		isTarget := false
		for _, alloc := range f.allocations {
			if alloc.CrossStorePaymentID == id && alloc.TargetStoreID == storeID {
				isTarget = true
				break
			}
		}
		match := false
		switch role {
		case repository.CrossStoreRoleSource:
			match = isSource
		case repository.CrossStoreRoleTarget:
			match = isTarget
		default:
			match = isSource || isTarget
		}
		if match {
			full, _ := f.FindByID(ctx, id)
			result = append(result, *full)
		}
	}
	return result, int64(len(result)), nil
}

func (f *fakeCrossStoreRepo) FindAllocationByID(ctx context.Context, id uuid.UUID) (*model.StoreAllocation, error) {
	alloc, ok := f.allocations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *alloc
	return &copied, nil
}

func (f *fakeCrossStoreRepo) FindAllocationByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StoreAllocation, error) {
	return f.FindAllocationByID(ctx, id)
}

func (f *fakeCrossStoreRepo) UpdateAllocation(ctx context.Context, alloc *model.StoreAllocation) error {
	if _, ok := f.allocations[alloc.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *alloc
	f.allocations[alloc.ID] = &copied
	return nil
}

// --- directory ---

type fakeDirectoryRepo struct {
	stores       map[uuid.UUID]*model.Store
	vendors      map[uuid.UUID]*model.Vendor
	bankAccounts map[uuid.UUID]*model.BankAccount
	creditCards  map[uuid.UUID]*model.CreditCard
}

func newFakeDirectoryRepo() *fakeDirectoryRepo {
	return &fakeDirectoryRepo{
		stores:       make(map[uuid.UUID]*model.Store),
		vendors:      make(map[uuid.UUID]*model.Vendor),
		bankAccounts: make(map[uuid.UUID]*model.BankAccount),
		creditCards:  make(map[uuid.UUID]*model.CreditCard),
	}
}

func (f *fakeDirectoryRepo) addStore(name string) *model.Store {
	store := &model.Store{ID: uuid.New(), Name: name, IsActive: true}
	f.stores[store.ID] = store
	return store
}

func (f *fakeDirectoryRepo) addVendor(name string, dueDays int) *model.Vendor {
	vendor := &model.Vendor{ID: uuid.New(), Name: name, DueDays: dueDays, IsActive: true}
	f.vendors[vendor.ID] = vendor
	return vendor
}

func (f *fakeDirectoryRepo) addBankAccount(name string) *model.BankAccount {
	account := &model.BankAccount{ID: uuid.New(), Name: name}
	f.bankAccounts[account.ID] = account
	return account
}

func (f *fakeDirectoryRepo) addCreditCard(name string) *model.CreditCard {
	card := &model.CreditCard{ID: uuid.New(), Name: name}
	f.creditCards[card.ID] = card
	return card
}

func (f *fakeDirectoryRepo) FindStore(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	store, ok := f.stores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return store, nil
}

func (f *fakeDirectoryRepo) ListStores(ctx context.Context, activeOnly bool) ([]model.Store, error) {
	var result []model.Store
	for _, s := range f.stores {
		if activeOnly && !s.IsActive {
			continue
		}
		result = append(result, *s)
	}
	return result, nil
}

func (f *fakeDirectoryRepo) FindVendor(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	vendor, ok := f.vendors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return vendor, nil
}

func (f *fakeDirectoryRepo) ListVendors(ctx context.Context, activeOnly bool) ([]model.Vendor, error) {
	var result []model.Vendor
	for _, v := range f.vendors {
		if activeOnly && !v.IsActive {
			continue
		}
		result = append(result, *v)
	}
	return result, nil
}

func (f *fakeDirectoryRepo) FindBankAccount(ctx context.Context, id uuid.UUID) (*model.BankAccount, error) {
	account, ok := f.bankAccounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return account, nil
}

func (f *fakeDirectoryRepo) ListBankAccounts(ctx context.Context) ([]model.BankAccount, error) {
	var result []model.BankAccount
	for _, a := range f.bankAccounts {
		result = append(result, *a)
	}
	return result, nil
}

func (f *fakeDirectoryRepo) FindCreditCard(ctx context.Context, id uuid.UUID) (*model.CreditCard, error) {
	card, ok := f.creditCards[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return card, nil
}

func (f *fakeDirectoryRepo) ListCreditCards(ctx context.Context) ([]model.CreditCard, error) {
	var result []model.CreditCard
	for _, c := range f.creditCards {
		result = append(result, *c)
	}
	return result, nil
}

// --- products ---

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (f *fakeProductRepo) add(p *model.Product) *model.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var result []model.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (f *fakeProductRepo) List(ctx context.Context, page, limit int) ([]model.Product, int64, error) {
	var result []model.Product
	for _, p := range f.products {
		result = append(result, *p)
	}
	return result, int64(len(result)), nil
}

// --- order items ---

type fakeOrderItemRepo struct {
	items map[uuid.UUID]*model.PurchaseOrderItem
}

func newFakeOrderItemRepo() *fakeOrderItemRepo {
	return &fakeOrderItemRepo{items: make(map[uuid.UUID]*model.PurchaseOrderItem)}
}

func (f *fakeOrderItemRepo) add(item *model.PurchaseOrderItem) *model.PurchaseOrderItem {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	f.items[item.ID] = item
	return item
}

func (f *fakeOrderItemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrderItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeOrderItemRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseOrderItem, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeOrderItemRepo) Update(ctx context.Context, item *model.PurchaseOrderItem) error {
	if _, ok := f.items[item.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *item
	f.items[item.ID] = &copied
	return nil
}

func (f *fakeOrderItemRepo) List(ctx context.Context, storeID *uuid.UUID, productID *uuid.UUID, page, limit int) ([]model.PurchaseOrderItem, int64, error) {
	var result []model.PurchaseOrderItem
	for _, item := range f.items {
		if storeID != nil && item.StoreID != *storeID {
			continue
		}
		if productID != nil && item.ProductID != *productID {
			continue
		}
		result = append(result, *item)
	}
	return result, int64(len(result)), nil
}

// --- audit ---

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (f *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	var result []model.AuditLog
	for _, e := range f.entries {
		if action != "" && e.Action != action {
			continue
		}
		result = append(result, e)
	}
	return result, int64(len(result)), nil
}

func (f *fakeAuditRepo) actions() []string {
	var result []string
	for _, e := range f.entries {
		result = append(result, e.Action)
	}
	return result
}
