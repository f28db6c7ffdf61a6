package repository

import "errors"

var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate resource")
	ErrInvalidInput = errors.New("invalid input data")
	ErrNotEnough    = errors.New("not enough quantity available")
	ErrTokenExpired = errors.New("invalid or expired token")
	ErrUserExists   = errors.New("user already exists")
)
