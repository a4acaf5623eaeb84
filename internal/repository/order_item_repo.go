package repository

import (
	"context"

	"storepay/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrderItem, error)
	// FindByIDForUpdate locks the row so two concurrent deliveries cannot both
	// pass the pending-quantity check.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseOrderItem, error)
	Update(ctx context.Context, item *model.PurchaseOrderItem) error
	List(ctx context.Context, storeID *uuid.UUID, productID *uuid.UUID, page, limit int) ([]model.PurchaseOrderItem, int64, error)
}

type orderItemRepository struct {
	db *gorm.DB
}

func NewOrderItemRepository(db *gorm.DB) OrderItemRepository {
	return &orderItemRepository{db: db}
}

func (r *orderItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrderItem, error) {
	var item model.PurchaseOrderItem
	if err := GetDB(ctx, r.db).Preload("Product").First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *orderItemRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseOrderItem, error) {
	var item model.PurchaseOrderItem
	if err := forUpdate(GetDB(ctx, r.db)).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *orderItemRepository) Update(ctx context.Context, item *model.PurchaseOrderItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *orderItemRepository) List(ctx context.Context, storeID *uuid.UUID, productID *uuid.UUID, page, limit int) ([]model.PurchaseOrderItem, int64, error) {
	var items []model.PurchaseOrderItem
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.PurchaseOrderItem{})
	if storeID != nil {
		query = query.Where("store_id = ?", *storeID)
	}
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Product").Order("created_at desc").
		Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}
