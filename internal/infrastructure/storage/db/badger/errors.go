package dbbadger

import "errors"

var (
	// ErrAccountInvalidRequest ...
	ErrAccountInvalidRequest = errors.New("account address must not be empty")
	// ErrAccountNotFound ...
	ErrAccountNotFound = errors.New("account not found")
)
