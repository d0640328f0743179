package categories

import (
	"context"

	"github.com/angelmondragon/ecommerce-backend/internal/repo"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	"github.com/angelmondragon/ecommerce-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists catalog categories.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a categories repository bound to the provided DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(conn)}
}

func (r *Repository) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.base.DB(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.base.DB(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.Category, int64, error) {
	return repo.Page[models.Category](ctx, r.base, params, "name ASC")
}

func (r *Repository) Update(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.base.DB(ctx).Save(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.base.DB(ctx).Where("id = ?", id).Delete(&models.Category{}).Error
}

// CountProducts reports how many products reference the category.
func (r *Repository) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.base.DB(ctx).Model(&models.Product{}).Where("category_id = ?", id).Count(&count).Error
	return count, err
}
