package controllers

import (
	"net/http"

	"github.com/angelmondragon/ecommerce-backend/api/middleware"
	"github.com/angelmondragon/ecommerce-backend/api/responses"
	"github.com/angelmondragon/ecommerce-backend/api/validators"
	"github.com/angelmondragon/ecommerce-backend/internal/auth"
	pkgauth "github.com/angelmondragon/ecommerce-backend/pkg/auth"
	"github.com/angelmondragon/ecommerce-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
	"github.com/angelmondragon/ecommerce-backend/pkg/logger"
)

var errAuthUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")

// AuthLogin exchanges username and password for an access/refresh pair.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, errAuthUnavailable)
			return
		}
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		pair, err := svc.Login(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, pair)
	}
}

// AuthRegister creates a client account. It does not log the user in.
func AuthRegister(reg auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reg == nil {
			responses.WriteError(ctx, logg, w, errAuthUnavailable)
			return
		}
		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		user, err := reg.Register(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithUserID(ctx, user.ID.String()), "auth.registered")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// AuthRefresh rotates the refresh token. The bearer access token only has to
// be authentic; it may already be expired.
func AuthRefresh(svc auth.Service, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, errAuthUnavailable)
			return
		}
		var body auth.RefreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		token, err := validators.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		claims, err := pkgauth.ParseAccessTokenAllowExpired(cfg, token)
		switch {
		case err != nil:
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
			return
		case claims.ID == "":
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
			return
		}
		pair, err := svc.Refresh(ctx, claims, body.RefreshToken)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, pair)
	}
}

// AuthLogout revokes the session behind the current access token, which
// invalidates that token immediately.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, errAuthUnavailable)
			return
		}
		accessID := middleware.AccessIDFromContext(ctx)
		if accessID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
			return
		}
		if err := svc.Logout(ctx, accessID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
