package cart

import (
	"context"
	"fmt"

	"github.com/angelmondragon/ecommerce-backend/pkg/db"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
	"github.com/angelmondragon/ecommerce-backend/pkg/logger"
	"github.com/angelmondragon/ecommerce-backend/pkg/metrics"
	"github.com/angelmondragon/ecommerce-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultConflictRetries = 3

// Service exposes the cart operations.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddOrUpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*ItemView, error)
	SetItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, headerID uuid.UUID) error
	ClearCartForUser(ctx context.Context, userID uuid.UUID) error
	ListHeaders(ctx context.Context, params pagination.Params) (pagination.Page[HeaderView], error)
	GetHeaderByUser(ctx context.Context, userID uuid.UUID) (*HeaderView, error)

	// ClearUserCartTx and PurgeProductTx join a transaction owned by the caller.
	ClearUserCartTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	PurgeProductTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error
}

// ServiceParams wires the cart service.
type ServiceParams struct {
	Repo            CartRepository
	Tx              txRunner
	Products        productLoader
	Users           userChecker
	Metrics         *metrics.CartMetrics
	Logger          *logger.Logger
	ConflictRetries int
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
	users    userChecker
	metrics  *metrics.CartMetrics
	logg     *logger.Logger
	attempts int
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user checker required")
	}
	attempts := params.ConflictRetries
	if attempts <= 0 {
		attempts = defaultConflictRetries
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		products: params.Products,
		users:    params.Users,
		metrics:  params.Metrics,
		logg:     params.Logger,
		attempts: attempts,
	}, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (view *CartView, err error) {
	defer func() { s.metrics.Observe("get_cart", err) }()

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, storageError(err, "check user")
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	header, err := s.repo.FindHeaderByUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return emptyCart(), nil
		}
		return nil, storageError(err, "load cart header")
	}

	items, err := s.repo.ListItems(ctx, header.ID)
	if err != nil {
		return nil, storageError(err, "load cart items")
	}

	names, err := s.productNames(ctx, items)
	if err != nil {
		return nil, err
	}

	view = &CartView{
		Header: newHeaderView(header),
		Items:  make([]ItemView, 0, len(items)),
		Total:  decimal.Zero,
	}
	for i := range items {
		view.Items = append(view.Items, newItemView(&items[i], names[items[i].ProductID]))
		view.Total = view.Total.Add(items[i].Subtotal)
	}
	return view, nil
}

func (s *service) AddOrUpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (view *ItemView, err error) {
	defer func() { s.metrics.Observe("add_item", err) }()

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !validQuantity(quantity) {
		return nil, ErrInvalidQuantity
	}

	var saved *models.CartItem
	err = s.withConflictRetry(ctx, "add_item", func(repo CartRepository) error {
		header, err := s.ensureHeader(ctx, repo, userID)
		if err != nil {
			return err
		}

		item, err := repo.FindItem(ctx, header.ID, productID)
		switch {
		case err == nil:
			if item.Quantity > MaxItemQuantity-quantity {
				return ErrInvalidQuantity
			}
			item.Quantity += quantity
		case db.IsNotFound(err):
			item = &models.CartItem{CartHeaderID: header.ID, ProductID: productID, Quantity: quantity}
		default:
			return storageError(err, "load cart item")
		}
		if item.Subtotal, err = lineSubtotal(product.Price, item.Quantity); err != nil {
			return err
		}

		saved, err = repo.UpsertItem(ctx, item)
		if err != nil {
			if isConflict(err) {
				return err
			}
			return storageError(err, "save cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := newItemView(saved, product.Name)
	return &out, nil
}

func (s *service) SetItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (err error) {
	defer func() { s.metrics.Observe("set_quantity", err) }()

	if !validQuantity(quantity) {
		return ErrInvalidQuantity
	}

	item, err := s.ownedItem(ctx, s.repo, userID, itemID)
	if err != nil {
		return err
	}
	product, err := s.loadProduct(ctx, item.ProductID)
	if err != nil {
		return err
	}
	total, err := lineSubtotal(product.Price, quantity)
	if err != nil {
		return err
	}

	return s.withConflictRetry(ctx, "set_quantity", func(repo CartRepository) error {
		current, err := s.ownedItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		current.Quantity = quantity
		current.Subtotal = total
		if _, err := repo.UpsertItem(ctx, current); err != nil {
			if db.IsNotFound(err) {
				return ErrItemNotFound
			}
			return storageError(err, "save cart item")
		}
		return nil
	})
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (err error) {
	defer func() { s.metrics.Observe("remove_item", err) }()

	return s.withConflictRetry(ctx, "remove_item", func(repo CartRepository) error {
		item, err := s.ownedItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			if db.IsNotFound(err) {
				return ErrItemNotFound
			}
			return storageError(err, "delete cart item")
		}

		remaining, err := repo.CountItems(ctx, item.CartHeaderID)
		if err != nil {
			return storageError(err, "count cart items")
		}
		if remaining == 0 {
			if err := repo.DeleteHeader(ctx, item.CartHeaderID); err != nil {
				return storageError(err, "delete cart header")
			}
		}
		return nil
	})
}

func (s *service) ClearCart(ctx context.Context, headerID uuid.UUID) (err error) {
	defer func() { s.metrics.Observe("clear_cart", err) }()

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		header, err := repo.FindHeaderByID(ctx, headerID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil
			}
			return storageError(err, "load cart header")
		}
		return clearHeader(ctx, repo, header.ID)
	})
}

func (s *service) ClearCartForUser(ctx context.Context, userID uuid.UUID) (err error) {
	defer func() { s.metrics.Observe("clear_cart", err) }()

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.ClearUserCartTx(ctx, tx, userID)
	})
}

// ClearUserCartTx removes the user's cart inside tx. A user without a cart is a no-op.
func (s *service) ClearUserCartTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	header, err := repo.FindHeaderByUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil
		}
		return storageError(err, "load cart header")
	}
	return clearHeader(ctx, repo, header.ID)
}

// PurgeProductTx removes every cart line for productID inside tx and drops
// the headers left without items.
func (s *service) PurgeProductTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	headerIDs, err := repo.DeleteItemsByProduct(ctx, productID)
	if err != nil {
		return storageError(err, "delete cart items for product")
	}
	if err := repo.DeleteEmptyHeaders(ctx, headerIDs); err != nil {
		return storageError(err, "delete empty cart headers")
	}
	return nil
}

func (s *service) ListHeaders(ctx context.Context, params pagination.Params) (pagination.Page[HeaderView], error) {
	rows, total, err := s.repo.ListHeaders(ctx, params)
	if err != nil {
		return pagination.Page[HeaderView]{}, storageError(err, "list cart headers")
	}
	views := make([]HeaderView, 0, len(rows))
	for i := range rows {
		views = append(views, *newHeaderView(&rows[i]))
	}
	return pagination.NewPage(views, params, total), nil
}

func (s *service) GetHeaderByUser(ctx context.Context, userID uuid.UUID) (*HeaderView, error) {
	header, err := s.repo.FindHeaderByUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrHeaderNotFound
		}
		return nil, storageError(err, "load cart header")
	}
	return newHeaderView(header), nil
}

// withConflictRetry runs fn in a fresh transaction, starting over when the
// storage layer reports a unique conflict on the header or item.
func (s *service) withConflictRetry(ctx context.Context, op string, fn func(repo CartRepository) error) error {
	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return fn(s.repo.WithTx(tx))
		})
		if !isConflict(err) {
			return err
		}
		s.metrics.IncConflictRetry()
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{"op": op, "attempt": attempt})
			s.logg.Warn(logCtx, "cart write conflict, retrying")
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, ctxErr, "cart write cancelled")
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart was modified concurrently")
}

func (s *service) ensureHeader(ctx context.Context, repo CartRepository, userID uuid.UUID) (*models.CartHeader, error) {
	header, err := repo.FindHeaderByUser(ctx, userID)
	if err == nil {
		return header, nil
	}
	if !db.IsNotFound(err) {
		return nil, storageError(err, "load cart header")
	}
	header, err = repo.CreateHeader(ctx, userID)
	if err != nil {
		if isConflict(err) {
			return nil, err
		}
		return nil, storageError(err, "create cart header")
	}
	return header, nil
}

// ownedItem loads itemID and checks it sits in userID's cart. Items in other
// carts are reported as missing.
func (s *service) ownedItem(ctx context.Context, repo CartRepository, userID, itemID uuid.UUID) (*models.CartItem, error) {
	item, err := repo.FindItemByID(ctx, itemID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrItemNotFound
		}
		return nil, storageError(err, "load cart item")
	}
	header, err := repo.FindHeaderByID(ctx, item.CartHeaderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrItemNotFound
		}
		return nil, storageError(err, "load cart header")
	}
	if header.UserID != userID {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) || pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, storageError(err, "load product")
	}
	return product, nil
}

func (s *service) productNames(ctx context.Context, items []models.CartItem) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(items))
	if len(items) == 0 {
		return names, nil
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storageError(err, "load products")
	}
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names, nil
}

func clearHeader(ctx context.Context, repo CartRepository, headerID uuid.UUID) error {
	if err := repo.DeleteItemsByHeader(ctx, headerID); err != nil {
		return storageError(err, "delete cart items")
	}
	if err := repo.DeleteHeader(ctx, headerID); err != nil {
		return storageError(err, "delete cart header")
	}
	return nil
}
