package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ecommerce-backend/api/responses"
	"github.com/angelmondragon/ecommerce-backend/api/validators"
	productsvc "github.com/angelmondragon/ecommerce-backend/internal/products"
	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
	"github.com/angelmondragon/ecommerce-backend/pkg/logger"
	"github.com/angelmondragon/ecommerce-backend/pkg/pagination"
)

const productPageSize = pagination.DefaultTake

var errProductServiceUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable")

type productRequest struct {
	Name            string          `json:"name" validate:"required,max=100"`
	Description     string          `json:"description" validate:"max=500"`
	CategoryID      uuid.UUID       `json:"category_id" validate:"required"`
	Price           decimal.Decimal `json:"price"`
	Stock           int             `json:"stock" validate:"gte=0"`
	ImageURL        string          `json:"image_url" validate:"omitempty,url"`
	PublicationDate *time.Time      `json:"publication_date,omitempty"`
}

func (p productRequest) toInput() productsvc.ProductInput {
	return productsvc.ProductInput{
		Name:            validators.SanitizeString(p.Name, 100),
		Description:     validators.SanitizeString(p.Description, 500),
		CategoryID:      p.CategoryID,
		Price:           p.Price,
		Stock:           p.Stock,
		ImageURL:        p.ImageURL,
		PublicationDate: p.PublicationDate,
	}
}

type productPatchRequest struct {
	Name            *string          `json:"name,omitempty" validate:"omitempty,max=100"`
	Description     *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	CategoryID      *uuid.UUID       `json:"category_id,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Stock           *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	ImageURL        *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	PublicationDate *time.Time       `json:"publication_date,omitempty"`
}

func (p productPatchRequest) toPatch() productsvc.ProductPatch {
	patch := productsvc.ProductPatch{
		CategoryID:      p.CategoryID,
		Price:           p.Price,
		Stock:           p.Stock,
		ImageURL:        p.ImageURL,
		PublicationDate: p.PublicationDate,
	}
	if p.Name != nil {
		name := validators.SanitizeString(*p.Name, 100)
		patch.Name = &name
	}
	if p.Description != nil {
		description := validators.SanitizeString(*p.Description, 500)
		patch.Description = &description
	}
	return patch
}

// ListProducts is public and pages the catalog with skip/take.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errProductServiceUnavailable)
			return
		}

		params, err := validators.ParsePagination(r, productPageSize, productPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListProducts(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errProductServiceUnavailable)
			return
		}

		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errProductServiceUnavailable)
			return
		}

		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// UpdateProduct replaces every mutable field of a product.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errProductServiceUnavailable)
			return
		}

		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func PatchProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errProductServiceUnavailable)
			return
		}

		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productPatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.PatchProduct(r.Context(), id, payload.toPatch())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// DeleteProduct removes the product and every cart line that references it.
func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errProductServiceUnavailable)
			return
		}

		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteNoContent(w)
	}
}
