package cart

import (
	"net/http"

	"github.com/google/uuid"

	cartdto "github.com/angelmondragon/ecommerce-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/ecommerce-backend/api/responses"
	"github.com/angelmondragon/ecommerce-backend/api/validators"
	cartsvc "github.com/angelmondragon/ecommerce-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
	"github.com/angelmondragon/ecommerce-backend/pkg/logger"
	"github.com/angelmondragon/ecommerce-backend/pkg/pagination"
)

var errServiceUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")

// noContent marks an action that answers 204.
var noContent = struct{}{}

// action runs one cart operation. A noContent result answers 204, anything
// else is wrapped in the success envelope with 200.
type action func(r *http.Request) (any, error)

func serve(svc cartsvc.Service, logg *logger.Logger, run action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		out, err := run(r)
		switch {
		case err != nil:
			responses.WriteError(r.Context(), logg, w, err)
		case out == noContent:
			responses.WriteNoContent(w)
		default:
			responses.WriteSuccess(w, out)
		}
	}
}

// CartFetch returns the caller's cart. A user without a cart gets an empty view.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, logg, func(r *http.Request) (any, error) {
		userID, err := callerIDFromContext(r)
		if err != nil {
			return nil, err
		}
		return svc.GetCart(r.Context(), userID)
	})
}

// CartAddItem merges a product into the caller's cart, creating the cart on
// first use.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, logg, func(r *http.Request) (any, error) {
		userID, err := callerIDFromContext(r)
		if err != nil {
			return nil, err
		}
		var in cartdto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			return nil, err
		}
		return svc.AddOrUpdateItem(r.Context(), userID, in.ProductID, in.Quantity)
	})
}

func CartSetItemQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, logg, func(r *http.Request) (any, error) {
		userID, itemID, err := callerAndItem(r)
		if err != nil {
			return nil, err
		}
		var in cartdto.SetQuantityRequest
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			return nil, err
		}
		return noContent, svc.SetItemQuantity(r.Context(), userID, itemID, in.Quantity)
	})
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, logg, func(r *http.Request) (any, error) {
		userID, itemID, err := callerAndItem(r)
		if err != nil {
			return nil, err
		}
		return noContent, svc.RemoveItem(r.Context(), userID, itemID)
	})
}

// CartClear empties the caller's own cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, logg, func(r *http.Request) (any, error) {
		userID, err := callerIDFromContext(r)
		if err != nil {
			return nil, err
		}
		return noContent, svc.ClearCartForUser(r.Context(), userID)
	})
}

// AdminCartClearHeader deletes any cart by header id. Unknown ids are a no-op.
func AdminCartClearHeader(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, logg, func(r *http.Request) (any, error) {
		headerID, err := validators.ParseUUIDParam(r, "cartHeaderId")
		if err != nil {
			return nil, err
		}
		return noContent, svc.ClearCart(r.Context(), headerID)
	})
}

// AdminCartListHeaders pages through every cart header. take defaults to and
// is capped at maxTake.
func AdminCartListHeaders(svc cartsvc.Service, maxTake int, logg *logger.Logger) http.HandlerFunc {
	if maxTake <= 0 {
		maxTake = pagination.MaxTake
	}
	return serve(svc, logg, func(r *http.Request) (any, error) {
		params, err := validators.ParsePagination(r, maxTake, maxTake)
		if err != nil {
			return nil, err
		}
		return svc.ListHeaders(r.Context(), params)
	})
}

// AdminCartFetchUser returns another user's cart view.
func AdminCartFetchUser(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, logg, func(r *http.Request) (any, error) {
		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			return nil, err
		}
		return svc.GetCart(r.Context(), userID)
	})
}

// AdminCartFetchUserHeader returns another user's cart header, or 404 when
// the user has no cart.
func AdminCartFetchUserHeader(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(svc, logg, func(r *http.Request) (any, error) {
		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			return nil, err
		}
		return svc.GetHeaderByUser(r.Context(), userID)
	})
}

func callerAndItem(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	userID, err := callerIDFromContext(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	itemID, err := validators.ParseUUIDParam(r, "itemId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, itemID, nil
}
