package cartdto

import "github.com/google/uuid"

// AddItemRequest adds quantity units of a product to the caller's cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"max=10000"`
}

// SetQuantityRequest replaces the quantity of an existing cart item.
type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"max=10000"`
}
