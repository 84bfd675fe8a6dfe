package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrEmailTaken         = errors.New("email already registered")
	ErrFileNotFound       = errors.New("file not found")

	ErrPasswordRequired = fmt.Errorf("%w: password is required", ErrValidation)
)
