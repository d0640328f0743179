package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is an authorization group assigned to users.
type Role struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;type:varchar(50);not null;uniqueIndex"`
	Description string    `gorm:"column:description;type:varchar(250);not null;default:''"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Role) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
