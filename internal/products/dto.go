package product

import (
	"time"

	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Stock           int             `json:"stock"`
	ImageURL        string          `json:"image_url"`
	PublicationDate time.Time       `json:"publication_date"`
	Category        *CategoryDTO    `json:"category,omitempty"`
	CategoryID      uuid.UUID       `json:"category_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CategoryDTO is the category summary embedded in a product.
type CategoryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// NewProductDTO maps the model, including the category when it was preloaded.
func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		Stock:           p.Stock,
		ImageURL:        p.ImageURL,
		PublicationDate: p.PublicationDate,
		CategoryID:      p.CategoryID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.Category != nil {
		dto.Category = &CategoryDTO{ID: p.Category.ID, Name: p.Category.Name, Slug: p.Category.Slug}
	}
	return dto
}
