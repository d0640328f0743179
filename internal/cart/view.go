package cart

import (
	"time"

	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HeaderView is the public shape of a cart header.
type HeaderView struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemView is one cart line with its product name resolved.
type ItemView struct {
	ID           uuid.UUID       `json:"id"`
	CartHeaderID uuid.UUID       `json:"cart_header_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// CartView is a user's cart. Header is nil and Items is empty when the user has no cart.
type CartView struct {
	Header *HeaderView     `json:"header"`
	Items  []ItemView      `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

func emptyCart() *CartView {
	return &CartView{Items: []ItemView{}, Total: decimal.Zero}
}

func newHeaderView(h *models.CartHeader) *HeaderView {
	if h == nil {
		return nil
	}
	return &HeaderView{ID: h.ID, UserID: h.UserID, CreatedAt: h.CreatedAt, UpdatedAt: h.UpdatedAt}
}

func newItemView(item *models.CartItem, productName string) ItemView {
	return ItemView{
		ID:           item.ID,
		CartHeaderID: item.CartHeaderID,
		ProductID:    item.ProductID,
		ProductName:  productName,
		Quantity:     item.Quantity,
		Subtotal:     item.Subtotal,
	}
}

// maxSubtotal is the largest value cart_items.subtotal (numeric(12,2)) holds.
var maxSubtotal = decimal.RequireFromString("9999999999.99")

func validQuantity(quantity int) bool {
	return quantity >= 1 && quantity <= MaxItemQuantity
}

// lineSubtotal prices quantity units, rejecting totals the column cannot store.
func lineSubtotal(price decimal.Decimal, quantity int) (decimal.Decimal, error) {
	total := price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	if total.GreaterThan(maxSubtotal) {
		return decimal.Zero, ErrSubtotalTooLarge
	}
	return total, nil
}
