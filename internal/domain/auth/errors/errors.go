package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrInternal              = errors.New("internal error")
	ErrNotFound              = errors.New("not found")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrAlreadyExists         = errors.New("email already exists")
	ErrInvalidToken          = errors.New("access token is not valid")
	ErrSessionExpired        = errors.New("session expired, please login again")
	ErrInvalidActivationCode = errors.New("invalid activation code")
	ErrCouldNotRefresh       = errors.New("could not refresh token")
	ErrForbidden             = errors.New("forbidden")
)

func NewInvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

// NewForbidden names the denied role so clients see which identity was
// rejected.
func NewForbidden(role string) error {
	return fmt.Errorf("%w: role %s is not allowed to access this resource", ErrForbidden, role)
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

func IsInvalidActivationCode(err error) bool {
	return errors.Is(err, ErrInvalidActivationCode)
}

func IsCouldNotRefresh(err error) bool {
	return errors.Is(err, ErrCouldNotRefresh)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
