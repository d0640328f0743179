package middleware

import (
	"net/http"

	"github.com/angelmondragon/ecommerce-backend/api/responses"
	"github.com/angelmondragon/ecommerce-backend/api/validators"
	pkgauth "github.com/angelmondragon/ecommerce-backend/pkg/auth"
	"github.com/angelmondragon/ecommerce-backend/pkg/auth/session"
	"github.com/angelmondragon/ecommerce-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
	"github.com/angelmondragon/ecommerce-backend/pkg/logger"
)

// Auth requires a valid bearer JWT whose session is still open, then puts
// the caller's id, role and jti on the context. A revoked session rejects
// the token before it expires.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			fail := func(err error) { responses.WriteError(ctx, logg, w, err) }

			raw, err := validators.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				fail(err)
				return
			}
			claims, err := pkgauth.ParseAccessToken(cfg, raw)
			if err != nil {
				fail(pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				fail(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}
			if sessions != nil {
				open, err := sessions.HasSession(ctx, claims.ID)
				if err != nil {
					fail(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !open {
					fail(pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			userID := claims.UserID.String()
			ctx = WithAccessID(WithRole(WithUserID(ctx, userID), claims.Role), claims.ID)
			if logg != nil {
				ctx = logg.WithRole(logg.WithUserID(ctx, userID), claims.Role.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
