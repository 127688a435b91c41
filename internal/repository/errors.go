package repository

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalid          = errors.New("invalid input")
	ErrInvalidReference = errors.New("invalid reference")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrAlreadyPaid      = errors.New("already paid")
)
