package auth

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredential   = errors.New("auth: no token provided")
	ErrMalformedCredential = errors.New("auth: invalid token format")
	ErrTokenExpired        = errors.New("auth: token expired")
	ErrTokenInvalid        = errors.New("auth: invalid token")
	ErrPrincipalNotFound   = errors.New("auth: user not found")
	ErrForbidden           = errors.New("auth: unauthorized")
	ErrMissingSecret       = errors.New("auth: signing secret is not configured")

	ErrValidation     = errors.New("auth: invalid input")
	ErrInvalidRole    = fmt.Errorf("%w: unknown role", ErrValidation)
	ErrNotFound       = errors.New("auth: not found")
	ErrConflict       = errors.New("auth: already exists")
	ErrBadCredentials = errors.New("auth: wrong password")
)

// IsVerifyError reports whether err came from token verification.
func IsVerifyError(err error) bool {
	return errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrTokenInvalid)
}
