package ratelimiter

import "errors"

var (
	ErrInvalidConfig = errors.New("ratelimiter: invalid configuration")
	ErrEmptyKey      = errors.New("ratelimiter: empty key")
)
