package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model in dependency order, for AutoMigrate in tests and sqlite dev runs.
func All() []any {
	return []any{
		&Role{},
		&User{},
		&Category{},
		&Product{},
		&CartHeader{},
		&CartItem{},
	}
}

// AutoMigrate creates the schema through GORM; postgres deployments use goose migrations instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
