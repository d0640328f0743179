package cart

import (
	"context"

	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	"github.com/angelmondragon/ecommerce-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindHeaderByUser(ctx context.Context, userID uuid.UUID) (*models.CartHeader, error)
	FindHeaderByID(ctx context.Context, headerID uuid.UUID) (*models.CartHeader, error)
	FindItem(ctx context.Context, headerID, productID uuid.UUID) (*models.CartItem, error)
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	ListItems(ctx context.Context, headerID uuid.UUID) ([]models.CartItem, error)
	CountItems(ctx context.Context, headerID uuid.UUID) (int64, error)
	ListHeaders(ctx context.Context, params pagination.Params) ([]models.CartHeader, int64, error)
	CreateHeader(ctx context.Context, userID uuid.UUID) (*models.CartHeader, error)
	UpsertItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteHeader(ctx context.Context, headerID uuid.UUID) error
	DeleteItemsByHeader(ctx context.Context, headerID uuid.UUID) error
	DeleteItemsByProduct(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error)
	DeleteEmptyHeaders(ctx context.Context, headerIDs []uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type userChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
