package auth

import "errors"

var (
	ErrNotFound     = errors.New("auth: not found")
	ErrInvalidToken = errors.New("auth: invalid token")
)
