package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartHeader anchors a user's open cart. At most one exists per user, and
// only while the cart holds at least one item.
type CartHeader struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_cart_headers_user_id"`
	Items     []CartItem `gorm:"foreignKey:CartHeaderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (h *CartHeader) BeforeCreate(*gorm.DB) error {
	ensureID(&h.ID)
	return nil
}
