package repo

import (
	"context"

	"github.com/angelmondragon/ecommerce-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// WithTx rebinds the repository to tx. A nil tx keeps the current connection.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// Page loads one skip/take window of T ordered by order, plus the total row count.
func Page[T any](ctx context.Context, b Base, params pagination.Params, order string, preloads ...string) ([]T, int64, error) {
	var (
		rows  []T
		total int64
		model T
	)
	if err := b.DB(ctx).Model(&model).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := b.DB(ctx).Scopes(params.Scope())
	if order != "" {
		query = query.Order(order)
	}
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
