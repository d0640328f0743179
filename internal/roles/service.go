package roles

import (
	"context"
	"fmt"

	"github.com/angelmondragon/ecommerce-backend/pkg/db"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	"github.com/angelmondragon/ecommerce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
	"github.com/angelmondragon/ecommerce-backend/pkg/pagination"
	"github.com/google/uuid"
)

var (
	ErrRoleNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "role not found")
	ErrRoleExists   = pkgerrors.New(pkgerrors.CodeConflict, "role name already exists")
	ErrRoleInUse    = pkgerrors.New(pkgerrors.CodeConflict, "role is assigned to users")
	ErrBuiltinRole  = pkgerrors.New(pkgerrors.CodeConflict, "built-in roles cannot be renamed or deleted")
)

// Service manages authorization roles.
type Service interface {
	List(ctx context.Context, params pagination.Params) (pagination.Page[RoleDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*RoleDTO, error)
	Create(ctx context.Context, input RoleInput) (*RoleDTO, error)
	Update(ctx context.Context, id uuid.UUID, input RoleInput) (*RoleDTO, error)
	Patch(ctx context.Context, id uuid.UUID, patch RolePatch) (*RoleDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService constructs the role service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("role repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[RoleDTO], error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[RoleDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list roles")
	}
	out := make([]RoleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return pagination.NewPage(out, params, total), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*RoleDTO, error) {
	role, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(role), nil
}

func (s *service) Create(ctx context.Context, input RoleInput) (*RoleDTO, error) {
	name := enums.NormalizeRole(input.Name)
	if !name.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role name is required")
	}
	if err := s.ensureNameFree(ctx, name.String(), uuid.Nil); err != nil {
		return nil, err
	}

	role, err := s.repo.Create(ctx, &models.Role{Name: name.String(), Description: input.Description})
	if err != nil {
		return nil, s.writeError(err, "create role")
	}
	return FromModel(role), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input RoleInput) (*RoleDTO, error) {
	return s.Patch(ctx, id, RolePatch{Name: &input.Name, Description: &input.Description})
}

func (s *service) Patch(ctx context.Context, id uuid.UUID, patch RolePatch) (*RoleDTO, error) {
	role, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := enums.NormalizeRole(*patch.Name)
		if !name.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "role name is required")
		}
		if name.String() != role.Name {
			if enums.Role(role.Name).IsBuiltin() {
				return nil, ErrBuiltinRole
			}
			if err := s.ensureNameFree(ctx, name.String(), role.ID); err != nil {
				return nil, err
			}
			role.Name = name.String()
		}
	}
	if patch.Description != nil {
		role.Description = *patch.Description
	}

	updated, err := s.repo.Update(ctx, role)
	if err != nil {
		return nil, s.writeError(err, "update role")
	}
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	role, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if enums.Role(role.Name).IsBuiltin() {
		return ErrBuiltinRole
	}
	inUse, err := s.repo.CountUsers(ctx, role.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count role users")
	}
	if inUse > 0 {
		return ErrRoleInUse
	}
	if err := s.repo.Delete(ctx, role.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete role")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrRoleNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load role")
	}
	return role, nil
}

func (s *service) ensureNameFree(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.repo.FindByName(ctx, name)
	switch {
	case err == nil && existing.ID != self:
		return ErrRoleExists
	case err == nil, db.IsNotFound(err):
		return nil
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check role name")
	}
}

func (s *service) writeError(err error, message string) error {
	if db.IsUniqueViolation(err, "") {
		return ErrRoleExists
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
