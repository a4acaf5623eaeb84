package repository

import (
	"context"

	"storepay/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CrossStoreRole selects which side of a cross-store payment a store is on.
const (
	CrossStoreRoleSource = "source"
	CrossStoreRoleTarget = "target"
	CrossStoreRoleAll    = "all"
)

type CrossStoreRepository interface {
	// Create persists the payment together with its allocations.
	Create(ctx context.Context, payment *model.CrossStorePayment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CrossStorePayment, error)
	ListForStore(ctx context.Context, storeID uuid.UUID, role string, page, limit int) ([]model.CrossStorePayment, int64, error)
	FindAllocationByID(ctx context.Context, id uuid.UUID) (*model.StoreAllocation, error)
	FindAllocationByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StoreAllocation, error)
	UpdateAllocation(ctx context.Context, alloc *model.StoreAllocation) error
}

type crossStoreRepository struct {
	db *gorm.DB
}

func NewCrossStoreRepository(db *gorm.DB) CrossStoreRepository {
	return &crossStoreRepository{db: db}
}

func (r *crossStoreRepository) Create(ctx context.Context, payment *model.CrossStorePayment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *crossStoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CrossStorePayment, error) {
	var payment model.CrossStorePayment
	err := GetDB(ctx, r.db).
		Preload("Allocations").Preload("Allocations.TargetStore").Preload("SourceStore").
		First(&payment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *crossStoreRepository) ListForStore(ctx context.Context, storeID uuid.UUID, role string, page, limit int) ([]model.CrossStorePayment, int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.CrossStorePayment{})

	switch role {
	case CrossStoreRoleSource:
		query = query.Where("source_store_id = ?", storeID)
	case CrossStoreRoleTarget:
		query = query.Where(
			"id IN (?)",
			db.Model(&model.StoreAllocation{}).Select("cross_store_payment_id").Where("target_store_id = ?", storeID),
		)
	default: // all: source of the payment or target of some allocation
		query = query.Where(
			"source_store_id = ? OR id IN (?)",
			storeID,
			db.Model(&model.StoreAllocation{}).Select("cross_store_payment_id").Where("target_store_id = ?", storeID),
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []model.CrossStorePayment
	offset := (page - 1) * limit
	if err := query.
		Preload("Allocations").Preload("Allocations.TargetStore").Preload("SourceStore").
		Order("payment_date desc, created_at desc").
		Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *crossStoreRepository) FindAllocationByID(ctx context.Context, id uuid.UUID) (*model.StoreAllocation, error) {
	var alloc model.StoreAllocation
	if err := GetDB(ctx, r.db).First(&alloc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &alloc, nil
}

func (r *crossStoreRepository) FindAllocationByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StoreAllocation, error) {
	var alloc model.StoreAllocation
	if err := forUpdate(GetDB(ctx, r.db)).First(&alloc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &alloc, nil
}

func (r *crossStoreRepository) UpdateAllocation(ctx context.Context, alloc *model.StoreAllocation) error {
	return GetDB(ctx, r.db).Save(alloc).Error
}
