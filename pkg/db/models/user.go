package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Username     string     `gorm:"column:username;type:varchar(50);not null;uniqueIndex"`
	Email        string     `gorm:"column:email;type:varchar(100);not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	RoleID       uuid.UUID  `gorm:"column:role_id;type:uuid;not null;index"`
	Role         *Role      `gorm:"foreignKey:RoleID;constraint:OnDelete:RESTRICT"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// RoleName returns the preloaded role name, or "" when the role was not loaded.
func (u *User) RoleName() string {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Name
}
