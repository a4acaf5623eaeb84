package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product catalog entry (external collaborator). Quantities on invoices and
// purchase orders are in packs; sell price is per piece.
type Product struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU               string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name              string          `gorm:"type:varchar(255);not null" json:"name"`
	CostPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost_price"`           // per pack
	SellPricePerPiece decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"sell_price_per_piece"`
	QuantityPerPack   int             `gorm:"type:int;not null;default:1" json:"quantity_per_pack"`
	VapeTax           bool            `gorm:"default:false" json:"vape_tax"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

// PurchaseOrderItem is a purchase-order line owned by the external Order
// collaborator. This engine only moves its delivered counter when goods
// arrive and get attached to an invoice.
type PurchaseOrderItem struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product           *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	StoreID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"store_id"`
	CostPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost_price"` // per pack
	RevenuePerPack    decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"revenue_per_pack"`
	QuantityOrdered   int             `gorm:"type:int;not null" json:"quantity_ordered"`
	QuantityDelivered int             `gorm:"type:int;not null;default:0" json:"quantity_delivered"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// QuantityPending is the undelivered remainder of the line.
func (p *PurchaseOrderItem) QuantityPending() int {
	return p.QuantityOrdered - p.QuantityDelivered
}
