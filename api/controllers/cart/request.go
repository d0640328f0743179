package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/ecommerce-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
)

func callerIDFromContext(r *http.Request) (uuid.UUID, error) {
	if r == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing request")
	}
	id, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	return id, nil
}
