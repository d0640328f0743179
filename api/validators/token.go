package validators

import (
	"strings"

	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
)

// BearerToken extracts the token from an Authorization header value.
// A bare token without the scheme is accepted.
func BearerToken(header string) (string, error) {
	token := strings.TrimSpace(header)
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return token, nil
}
