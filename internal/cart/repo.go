package cart

import (
	"context"
	"time"

	"github.com/angelmondragon/ecommerce-backend/internal/repo"
	"github.com/angelmondragon/ecommerce-backend/pkg/db"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	"github.com/angelmondragon/ecommerce-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists cart headers and their items.
type Repository struct {
	base repo.Base
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(conn)}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{base: r.base.WithTx(tx)}
}

func (r *Repository) FindHeaderByUser(ctx context.Context, userID uuid.UUID) (*models.CartHeader, error) {
	var header models.CartHeader
	if err := r.base.DB(ctx).Where("user_id = ?", userID).First(&header).Error; err != nil {
		return nil, err
	}
	return &header, nil
}

func (r *Repository) FindHeaderByID(ctx context.Context, headerID uuid.UUID) (*models.CartHeader, error) {
	var header models.CartHeader
	if err := r.base.DB(ctx).Where("id = ?", headerID).First(&header).Error; err != nil {
		return nil, err
	}
	return &header, nil
}

// FindItem returns the line for productID inside the header, used to merge repeated adds.
func (r *Repository) FindItem(ctx context.Context, headerID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.base.DB(ctx).
		Where("cart_header_id = ? AND product_id = ?", headerID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.base.DB(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns items belonging to a header in insertion order.
func (r *Repository) ListItems(ctx context.Context, headerID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	if err := r.base.DB(ctx).
		Where("cart_header_id = ?", headerID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) CountItems(ctx context.Context, headerID uuid.UUID) (int64, error) {
	var count int64
	err := r.base.DB(ctx).
		Model(&models.CartItem{}).
		Where("cart_header_id = ?", headerID).
		Count(&count).Error
	return count, err
}

func (r *Repository) ListHeaders(ctx context.Context, params pagination.Params) ([]models.CartHeader, int64, error) {
	return repo.Page[models.CartHeader](ctx, r.base, params, "created_at ASC, id ASC")
}

// CreateHeader inserts the header for userID. A concurrent insert for the same
// user surfaces as ErrHeaderExists.
func (r *Repository) CreateHeader(ctx context.Context, userID uuid.UUID) (*models.CartHeader, error) {
	header := &models.CartHeader{UserID: userID}
	if err := r.base.DB(ctx).Create(header).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrHeaderExists
		}
		return nil, err
	}
	return header, nil
}

// UpsertItem inserts item when it has no id yet and otherwise rewrites its
// quantity and subtotal.
func (r *Repository) UpsertItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if item.ID == uuid.Nil {
		if err := r.base.DB(ctx).Create(item).Error; err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, ErrItemExists
			}
			return nil, err
		}
		return item, nil
	}

	now := time.Now().UTC()
	res := r.base.DB(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":   item.Quantity,
			"subtotal":   item.Subtotal,
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	item.UpdatedAt = now
	return item, nil
}

func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	res := r.base.DB(ctx).Where("id = ?", itemID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) DeleteHeader(ctx context.Context, headerID uuid.UUID) error {
	return r.base.DB(ctx).Where("id = ?", headerID).Delete(&models.CartHeader{}).Error
}

func (r *Repository) DeleteItemsByHeader(ctx context.Context, headerID uuid.UUID) error {
	return r.base.DB(ctx).Where("cart_header_id = ?", headerID).Delete(&models.CartItem{}).Error
}

// DeleteItemsByProduct removes every cart line for productID and returns the
// headers that held one.
func (r *Repository) DeleteItemsByProduct(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	var headerIDs []uuid.UUID
	if err := r.base.DB(ctx).
		Model(&models.CartItem{}).
		Where("product_id = ?", productID).
		Distinct().
		Pluck("cart_header_id", &headerIDs).Error; err != nil {
		return nil, err
	}
	if len(headerIDs) == 0 {
		return nil, nil
	}
	if err := r.base.DB(ctx).Where("product_id = ?", productID).Delete(&models.CartItem{}).Error; err != nil {
		return nil, err
	}
	return headerIDs, nil
}

// DeleteEmptyHeaders removes the listed headers that no longer hold items.
func (r *Repository) DeleteEmptyHeaders(ctx context.Context, headerIDs []uuid.UUID) error {
	if len(headerIDs) == 0 {
		return nil
	}
	items := r.base.DB(ctx).
		Model(&models.CartItem{}).
		Select("1").
		Where("cart_items.cart_header_id = cart_headers.id")
	return r.base.DB(ctx).
		Where("id IN ?", headerIDs).
		Where("NOT EXISTS (?)", items).
		Delete(&models.CartHeader{}).Error
}
