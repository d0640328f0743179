package roles

import (
	"context"
	"strings"

	"github.com/angelmondragon/ecommerce-backend/internal/repo"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	"github.com/angelmondragon/ecommerce-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists roles.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a roles repository bound to the provided DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(conn)}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithTx(tx)}
}

func (r *Repository) Create(ctx context.Context, role *models.Role) (*models.Role, error) {
	if err := r.base.DB(ctx).Create(role).Error; err != nil {
		return nil, err
	}
	return role, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	var role models.Role
	if err := r.base.DB(ctx).Where("id = ?", id).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// FindByName matches the role name case-insensitively.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := r.base.DB(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.Role, int64, error) {
	return repo.Page[models.Role](ctx, r.base, params, "name ASC")
}

func (r *Repository) Update(ctx context.Context, role *models.Role) (*models.Role, error) {
	if err := r.base.DB(ctx).Save(role).Error; err != nil {
		return nil, err
	}
	return role, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.base.DB(ctx).Where("id = ?", id).Delete(&models.Role{}).Error
}

// CountUsers reports how many users are assigned the role.
func (r *Repository) CountUsers(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.base.DB(ctx).Model(&models.User{}).Where("role_id = ?", id).Count(&count).Error
	return count, err
}
