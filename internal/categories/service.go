package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/ecommerce-backend/pkg/db"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
	"github.com/angelmondragon/ecommerce-backend/pkg/pagination"
	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	ErrSlugTaken        = pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists")
	ErrCategoryInUse    = pkgerrors.New(pkgerrors.CodeConflict, "category still has products")
)

// Service manages catalog categories.
type Service interface {
	List(ctx context.Context, params pagination.Params) (pagination.Page[CategoryDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*CategoryDTO, error)
	Create(ctx context.Context, input CategoryInput) (*CategoryDTO, error)
	Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error)
	Patch(ctx context.Context, id uuid.UUID, patch CategoryPatch) (*CategoryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService constructs the category service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[CategoryDTO], error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[CategoryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return pagination.NewPage(out, params, total), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	category, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(category), nil
}

func (s *service) Create(ctx context.Context, input CategoryInput) (*CategoryDTO, error) {
	category, err := s.repo.Create(ctx, &models.Category{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Slug:        strings.TrimSpace(input.Slug),
	})
	if err != nil {
		return nil, writeError(err, "create category")
	}
	return FromModel(category), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	return s.Patch(ctx, id, CategoryPatch{
		Name:        &input.Name,
		Description: &input.Description,
		Slug:        &input.Slug,
	})
}

func (s *service) Patch(ctx context.Context, id uuid.UUID, patch CategoryPatch) (*CategoryDTO, error) {
	category, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		category.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		category.Description = *patch.Description
	}
	if patch.Slug != nil {
		category.Slug = strings.TrimSpace(*patch.Slug)
	}
	updated, err := s.repo.Update(ctx, category)
	if err != nil {
		return nil, writeError(err, "update category")
	}
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category products")
	}
	if count > 0 {
		return ErrCategoryInUse
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return category, nil
}

func writeError(err error, message string) error {
	if db.IsUniqueViolation(err, "") {
		return ErrSlugTaken
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
