package validators

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
	"github.com/angelmondragon/ecommerce-backend/pkg/pagination"
)

func invalidParam(msg string, details map[string]any) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(details)
}

// ParseQueryInt reads an optional integer query value within [lo, hi].
func ParseQueryInt(r *http.Request, key string, fallback, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		return 0, invalidParam("query parameter must be numeric", map[string]any{"field": key})
	case n < lo || n > hi:
		return 0, invalidParam("query parameter out of range", map[string]any{"field": key, "min": lo, "max": hi})
	}
	return n, nil
}

// ParsePagination reads skip and take. take falls back to def and may not
// exceed max.
func ParsePagination(r *http.Request, def, max int) (pagination.Params, error) {
	skip, err := ParseQueryInt(r, "skip", 0, 0, math.MaxInt32)
	if err != nil {
		return pagination.Params{}, err
	}
	take, err := ParseQueryInt(r, "take", def, 1, max)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Normalize(skip, take, def, max), nil
}

func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil {
		return uuid.Nil, invalidParam("invalid path parameter", map[string]any{"field": name})
	}
	return id, nil
}
