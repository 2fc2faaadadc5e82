package service

import (
	"errors"
	"fmt"
)

// Error classes.  Every error returned by this package matches exactly one
// of them with errors.Is; handlers pick the HTTP status from the class.
var (
	ErrValidation = errors.New("validation error")
	ErrAuth       = errors.New("authentication error")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrUpstream   = errors.New("upstream error")
	ErrDelivery   = errors.New("delivery error")
)

// publicError is a sentinel whose text is safe to show to API clients.
type publicError struct {
	class error
	msg   string
}

func (e *publicError) Error() string { return e.msg }
func (e *publicError) Unwrap() error { return e.class }

func public(class error, msg string) error { return &publicError{class: class, msg: msg} }

var (
	ErrCredentialsRequired  = public(ErrValidation, "Username and password are required")
	ErrRegistrationRequired = public(ErrValidation, "Username, email and password are required")
	ErrUsernameRequired     = public(ErrValidation, "Username is required")
	ErrResetFieldsRequired  = public(ErrValidation, "Token and new password are required")
	ErrNoCompanies          = public(ErrValidation, "Please select at least one company")
	ErrBadDate              = public(ErrValidation, "Invalid date format. Use YYYY-MM-DD")
	ErrNothingToUpdate      = public(ErrValidation, "Please enter data to update")
	ErrCompanyRequired      = public(ErrValidation, "Missing 'company' parameter")
	ErrIdxRequired          = public(ErrValidation, "Missing 'idx' parameter")
	ErrBadStockEntry        = public(ErrValidation, "Please check the stock entry")

	ErrInvalidCredentials   = public(ErrAuth, "Invalid username or password")
	ErrInvalidPassword      = public(ErrAuth, "Invalid password")
	ErrTenantNotProvisioned = public(ErrAuth, "Connection hasn't been established yet! Please contact the system support team.")
	ErrInvalidResetToken    = public(ErrAuth, "Invalid or expired token")
	ErrResetTokenExpired    = public(ErrAuth, "Reset token has expired")

	ErrMissingHeader = public(ErrForbidden, "No authorization token provided")
	ErrMissingToken  = public(ErrForbidden, "Token is missing")
	ErrInvalidToken  = public(ErrForbidden, "Invalid or expired token")
	ErrAdminOnly     = public(ErrForbidden, "Admin privileges required")

	ErrUserNotFound    = public(ErrNotFound, "No user found with this username")
	ErrTargetNotFound  = public(ErrNotFound, "Please check the provided data.")
	ErrCompanyNotFound = public(ErrNotFound, "No companies found")
	ErrStockNotFound   = public(ErrNotFound, "Stock data not found")
	ErrNoDataFound     = public(ErrNotFound, "No data found")
	ErrNoScanCode      = public(ErrNotFound, "Please provide code or scanned barcode")
	ErrProductNotFound = public(ErrNotFound, "Product not found")

	ErrDuplicateUsername = public(ErrConflict, "Username already exists")
	ErrDuplicateEmail    = public(ErrConflict, "Email already exists")
	ErrStockChanged      = public(ErrConflict, "Stock data changed, please try again")

	ErrConnection   = public(ErrUpstream, "Failed to connect to the database")
	ErrRegistration = public(ErrUpstream, "Failed to register. Try different username")
	ErrStore        = public(ErrUpstream, "Internal server error")
	ErrReport       = public(ErrUpstream, "Failed to process parameters")
	ErrStockStore   = public(ErrUpstream, "Failed to update table")

	ErrMailDelivery = public(ErrDelivery, "Failed to send password reset email")
)

// wrap attaches an internal cause to a public sentinel.  The cause is kept
// for logs; PublicMessage still returns the sentinel text.
func wrap(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %v", sentinel, cause)
}

// PublicMessage returns the client-safe text of err, or fallback when err
// carries no public sentinel.
func PublicMessage(err error, fallback string) string {
	var pe *publicError
	if errors.As(err, &pe) {
		return pe.msg
	}
	return fallback
}

// WrapConnection reports a tenant pool failure as ErrConnection.
func WrapConnection(cause error) error { return wrap(ErrConnection, cause) }
