package controllers

import (
	"net/http"

	"github.com/angelmondragon/ecommerce-backend/api/responses"
	"github.com/angelmondragon/ecommerce-backend/api/validators"
	"github.com/angelmondragon/ecommerce-backend/internal/roles"
	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
	"github.com/angelmondragon/ecommerce-backend/pkg/logger"
	"github.com/angelmondragon/ecommerce-backend/pkg/pagination"
)

var errRoleServiceUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "role service unavailable")

type roleRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"max=250"`
}

type rolePatchRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=50"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=250"`
}

func ListRoles(svc roles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errRoleServiceUnavailable)
			return
		}

		params, err := validators.ParsePagination(r, pagination.DefaultTake, pagination.MaxTake)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

func GetRole(svc roles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errRoleServiceUnavailable)
			return
		}

		id, err := validators.ParseUUIDParam(r, "roleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, role)
	}
}

func CreateRole(svc roles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errRoleServiceUnavailable)
			return
		}

		var payload roleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := svc.Create(r.Context(), roles.RoleInput{
			Name:        validators.SanitizeString(payload.Name, 50),
			Description: validators.SanitizeString(payload.Description, 250),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, role)
	}
}

func UpdateRole(svc roles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errRoleServiceUnavailable)
			return
		}

		id, err := validators.ParseUUIDParam(r, "roleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload roleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := svc.Update(r.Context(), id, roles.RoleInput{
			Name:        validators.SanitizeString(payload.Name, 50),
			Description: validators.SanitizeString(payload.Description, 250),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, role)
	}
}

func PatchRole(svc roles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errRoleServiceUnavailable)
			return
		}

		id, err := validators.ParseUUIDParam(r, "roleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload rolePatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := svc.Patch(r.Context(), id, roles.RolePatch{
			Name:        payload.Name,
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, role)
	}
}

// DeleteRole refuses built-in roles and roles still assigned to users.
func DeleteRole(svc roles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errRoleServiceUnavailable)
			return
		}

		id, err := validators.ParseUUIDParam(r, "roleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteNoContent(w)
	}
}
