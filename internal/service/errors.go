package service

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated       = errors.New("unauthenticated")        // 401
	ErrUnauthorized          = errors.New("unauthorized")           // 403
	ErrValidation            = errors.New("validation")             // 400
	ErrNotFound              = errors.New("not found")              // 404
	ErrEmptyCart             = errors.New("cart is empty")          // 400
	ErrExternalService       = errors.New("external service")       // 502
	ErrSignatureVerification = errors.New("signature verification") // 400
	ErrConflict              = errors.New("conflict")               // 409

	ErrProductNotFound    = fmt.Errorf("product %w", ErrNotFound)
	ErrOrderNotFound      = fmt.Errorf("order %w", ErrNotFound)
	ErrProductUnavailable = fmt.Errorf("%w: product unavailable", ErrValidation)
)
