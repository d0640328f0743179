package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/ecommerce-backend/pkg/db"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
	"github.com/angelmondragon/ecommerce-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")

	minPrice = decimal.RequireFromString("0.01")
)

// Service exposes catalog product operations.
type Service interface {
	ListProducts(ctx context.Context, params pagination.Params) (pagination.Page[ProductDTO], error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error)
	PatchProduct(ctx context.Context, id uuid.UUID, input ProductPatch) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// ProductInput holds the validated payload to create or replace a product.
type ProductInput struct {
	Name            string
	Description     string
	CategoryID      uuid.UUID
	Price           decimal.Decimal
	Stock           int
	ImageURL        string
	PublicationDate *time.Time
}

// ProductPatch holds optional mutation values for a product.
type ProductPatch struct {
	Name            *string
	Description     *string
	CategoryID      *uuid.UUID
	Price           *decimal.Decimal
	Stock           *int
	ImageURL        *string
	PublicationDate *time.Time
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type categoryLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type cartPurger interface {
	PurgeProductTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error
}

type service struct {
	repo       *Repository
	tx         txRunner
	categories categoryLoader
	carts      cartPurger
}

// NewService constructs a product service instance.
func NewService(repo *Repository, tx txRunner, categories categoryLoader, carts cartPurger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category loader required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart purger required")
	}
	return &service{repo: repo, tx: tx, categories: categories, carts: carts}, nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params) (pagination.Page[ProductDTO], error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewProductDTO(&rows[i]))
	}
	return pagination.NewPage(out, params, total), nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

// CreateProduct validates the category and price before inserting.
func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	product := &models.Product{}
	applyInput(product, input)
	if err := s.validate(ctx, product); err != nil {
		return nil, err
	}

	if _, err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	applyInput(product, input)
	return s.save(ctx, product)
}

func (s *service) PatchProduct(ctx context.Context, id uuid.UUID, input ProductPatch) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	applyPatch(product, input)
	return s.save(ctx, product)
}

// DeleteProduct removes the product and every cart line that references it
// in one transaction. Carts left empty are removed as well.
func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.carts.PurgeProductTx(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.WithTx(tx).DeleteProduct(ctx, id)
	})
	switch {
	case err == nil:
		return nil
	case db.IsNotFound(err):
		return ErrProductNotFound
	case pkgerrors.As(err) != nil:
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
}

func (s *service) save(ctx context.Context, product *models.Product) (*ProductDTO, error) {
	if err := s.validate(ctx, product); err != nil {
		return nil, err
	}
	product.Category = nil
	if _, err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *service) validate(ctx context.Context, product *models.Product) error {
	if product.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if product.Price.LessThan(minPrice) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be at least 0.01").
			WithDetails(map[string]string{"price": product.Price.String()})
	}
	if product.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if _, err := s.categories.FindByID(ctx, product.CategoryID); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist").
				WithDetails(map[string]string{"category_id": product.CategoryID.String()})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func applyInput(product *models.Product, input ProductInput) {
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.CategoryID = input.CategoryID
	product.Price = input.Price.Round(2)
	product.Stock = input.Stock
	product.ImageURL = input.ImageURL
	if input.PublicationDate != nil {
		product.PublicationDate = input.PublicationDate.UTC()
	}
}

func applyPatch(product *models.Product, input ProductPatch) {
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.CategoryID != nil {
		product.CategoryID = *input.CategoryID
	}
	if input.Price != nil {
		product.Price = input.Price.Round(2)
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.ImageURL != nil {
		product.ImageURL = *input.ImageURL
	}
	if input.PublicationDate != nil {
		product.PublicationDate = input.PublicationDate.UTC()
	}
}
