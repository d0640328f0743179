package cart

import (
	"errors"

	pkgerrors "github.com/angelmondragon/ecommerce-backend/pkg/errors"
)

// MaxItemQuantity caps a single cart line.
const MaxItemQuantity = 10000

var (
	ErrUserNotFound     = pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	ErrProductNotFound  = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	ErrItemNotFound     = pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	ErrHeaderNotFound   = pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	ErrInvalidQuantity  = pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 10000")
	ErrSubtotalTooLarge = pkgerrors.New(pkgerrors.CodeValidation, "cart line total is too large")
)

// Unique constraint conflicts raised by the repository. The service retries
// the surrounding transaction when it sees either of them.
var (
	ErrHeaderExists = errors.New("cart header already exists for user")
	ErrItemExists   = errors.New("cart item already exists for product")
)

func isConflict(err error) bool {
	return errors.Is(err, ErrHeaderExists) || errors.Is(err, ErrItemExists)
}

// storageError wraps untyped persistence failures; typed errors pass through.
func storageError(err error, message string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
