package product

import (
	"context"
	"time"

	"github.com/angelmondragon/ecommerce-backend/internal/repo"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	"github.com/angelmondragon/ecommerce-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles product persistence.
type Repository struct {
	base repo.Base
}

// NewRepository builds a repository for product domain data.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithTx(tx)}
}

// FindByID loads a product with its category.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.base.DB(ctx).Preload("Category").Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads the products among ids that exist; missing ids are skipped.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	if err := r.base.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.Product, int64, error) {
	return repo.Page[models.Product](ctx, r.base, params, "name ASC, id ASC", "Category")
}

// CreateProduct inserts a new product.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.base.DB(ctx).Omit("Category").Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct writes every mutable product column.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	product.UpdatedAt = time.Now().UTC()
	if err := r.base.DB(ctx).Omit("Category", "CreatedAt").Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes the product row.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res := r.base.DB(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
