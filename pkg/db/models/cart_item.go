package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartItem is one product line in a cart. Subtotal is always derived from
// Quantity and the catalog price at write time.
type CartItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CartHeaderID uuid.UUID       `gorm:"column:cart_header_id;type:uuid;not null;uniqueIndex:idx_cart_items_header_product,priority:1"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_items_header_product,priority:2;index"`
	Product      *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Quantity     int             `gorm:"column:quantity;not null;check:chk_cart_items_quantity,quantity >= 1"`
	Subtotal     decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
