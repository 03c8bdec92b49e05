package domain

import "errors"

var (
	// ErrRemoteUnavailable marks a network or backend failure
	ErrRemoteUnavailable = errors.New("remote backend unavailable")
	// ErrDuplicateEmail is returned when a profile with the email already exists
	ErrDuplicateEmail     = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrPersistence marks a failed write to local storage
	ErrPersistence = errors.New("local storage write failed")
	ErrValidation  = errors.New("validation failed")

	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrOutOfStock       = errors.New("product is out of stock")
)

// AuthError is a failed login. Message is the remote provider's message when
// one was received.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return ErrInvalidCredentials.Error()
	}
	return e.Message
}

// Is makes errors.Is(err, ErrInvalidCredentials) hold for every AuthError
func (e *AuthError) Is(target error) bool {
	return target == ErrInvalidCredentials
}
