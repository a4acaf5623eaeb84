package repository

import (
	"context"

	"storepay/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DirectoryRepository is the read-side view of the external catalog
// collaborators (stores, vendors, banks, credit cards). The engine never
// mutates these.
type DirectoryRepository interface {
	FindStore(ctx context.Context, id uuid.UUID) (*model.Store, error)
	ListStores(ctx context.Context, activeOnly bool) ([]model.Store, error)
	FindVendor(ctx context.Context, id uuid.UUID) (*model.Vendor, error)
	ListVendors(ctx context.Context, activeOnly bool) ([]model.Vendor, error)
	FindBankAccount(ctx context.Context, id uuid.UUID) (*model.BankAccount, error)
	ListBankAccounts(ctx context.Context) ([]model.BankAccount, error)
	FindCreditCard(ctx context.Context, id uuid.UUID) (*model.CreditCard, error)
	ListCreditCards(ctx context.Context) ([]model.CreditCard, error)
}

type directoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) DirectoryRepository {
	return &directoryRepository{db: db}
}

func (r *directoryRepository) FindStore(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	var store model.Store
	if err := GetDB(ctx, r.db).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *directoryRepository) ListStores(ctx context.Context, activeOnly bool) ([]model.Store, error) {
	var stores []model.Store
	query := GetDB(ctx, r.db).Order("name")
	if activeOnly {
		query = query.Where("is_active = true")
	}
	if err := query.Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *directoryRepository) FindVendor(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	var vendor model.Vendor
	if err := GetDB(ctx, r.db).First(&vendor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *directoryRepository) ListVendors(ctx context.Context, activeOnly bool) ([]model.Vendor, error) {
	var vendors []model.Vendor
	query := GetDB(ctx, r.db).Order("name")
	if activeOnly {
		query = query.Where("is_active = true")
	}
	if err := query.Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

func (r *directoryRepository) FindBankAccount(ctx context.Context, id uuid.UUID) (*model.BankAccount, error) {
	var account model.BankAccount
	if err := GetDB(ctx, r.db).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *directoryRepository) ListBankAccounts(ctx context.Context) ([]model.BankAccount, error) {
	var accounts []model.BankAccount
	if err := GetDB(ctx, r.db).Order("name").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *directoryRepository) FindCreditCard(ctx context.Context, id uuid.UUID) (*model.CreditCard, error) {
	var card model.CreditCard
	if err := GetDB(ctx, r.db).First(&card, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *directoryRepository) ListCreditCards(ctx context.Context) ([]model.CreditCard, error) {
	var cards []model.CreditCard
	if err := GetDB(ctx, r.db).Order("name").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}
