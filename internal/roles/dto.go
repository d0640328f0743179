package roles

import (
	"time"

	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	"github.com/google/uuid"
)

// RoleDTO is the transport shape of a role.
type RoleDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleInput is a full role payload.
type RoleInput struct {
	Name        string
	Description string
}

// RolePatch carries the fields a partial update may change.
type RolePatch struct {
	Name        *string
	Description *string
}

func FromModel(r *models.Role) *RoleDTO {
	if r == nil {
		return nil
	}
	return &RoleDTO{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
