package domain

import "errors"

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrImageNotFound      = errors.New("image not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
