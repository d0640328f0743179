package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/ecommerce-backend/pkg/db"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
	"github.com/angelmondragon/ecommerce-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	ErrIdentityTaken = pkgerrors.New(pkgerrors.CodeConflict, "username or email already in use")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type roleLookup interface {
	FindByName(ctx context.Context, name string) (*models.Role, error)
}

type cartCleaner interface {
	ClearUserCartTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

// Service manages user accounts on behalf of managers.
type Service interface {
	List(ctx context.Context, params pagination.Params) (pagination.Page[UserDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserDTO, error)
	Patch(ctx context.Context, id uuid.UUID, input PatchUserInput) (*UserDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo  *Repository
	tx    txRunner
	roles roleLookup
	carts cartCleaner
}

// NewService constructs the user management service.
func NewService(repo *Repository, tx txRunner, roles roleLookup, carts cartCleaner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if roles == nil {
		return nil, fmt.Errorf("role lookup required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart cleaner required")
	}
	return &service{repo: repo, tx: tx, roles: roles, carts: carts}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[UserDTO], error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[UserDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return pagination.NewPage(out, params, total), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	return s.Patch(ctx, id, PatchUserInput{
		Username: &input.Username,
		Email:    &input.Email,
		Role:     &input.Role,
	})
}

func (s *service) Patch(ctx context.Context, id uuid.UUID, input PatchUserInput) (*UserDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		user.Username = strings.TrimSpace(*input.Username)
	}
	if input.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Role != nil {
		role, err := s.roles.FindByName(ctx, *input.Role)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown role").
					WithDetails(map[string]string{"role": *input.Role})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load role")
		}
		user.RoleID = role.ID
	}

	if err := s.repo.Update(ctx, user); err != nil {
		switch {
		case db.IsUniqueViolation(err, ""):
			return nil, ErrIdentityTaken
		case db.IsNotFound(err):
			return nil, ErrUserNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return s.Get(ctx, user.ID)
}

// Delete removes the user together with their cart.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.carts.ClearUserCartTx(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	switch {
	case err == nil:
		return nil
	case db.IsNotFound(err):
		return ErrUserNotFound
	case pkgerrors.As(err) != nil:
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
