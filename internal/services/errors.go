package services

import (
	"errors"
	"fmt"
)

var (
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrServiceNotFound         = errors.New("service not found")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrItemNotFound            = errors.New("transaction item not found")
	ErrUserNotFound            = errors.New("user not found")
	ErrDuplicatePhone          = errors.New("phone number already registered")
	ErrDuplicateUsername       = errors.New("username already taken")
	ErrCustomerHasTransactions = errors.New("customer still has transactions")
	ErrServiceInactive         = errors.New("service is not active")
	ErrInvalidStatus           = errors.New("invalid status")
	ErrInvalidQuantity         = errors.New("invalid quantity")
	ErrDiscountExceedsTotal    = errors.New("discount exceeds total amount")
	ErrUnauthorized            = errors.New("operation not allowed for this role")
	ErrInvalidCredentials      = errors.New("invalid username or password")
	ErrUserInactive            = errors.New("user account is disabled")
	ErrInvoiceConflict         = errors.New("could not allocate a unique invoice number")

	// ErrInvalidArgument marks request validation failures so handlers can
	// separate them from internal errors. Specific messages wrap it via
	// invalidArg.
	ErrInvalidArgument = errors.New("invalid argument")
)

func invalidArg(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}
