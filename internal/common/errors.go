package common

import "errors"

var (
	// storage errors
	ErrorNotFound = errors.New("not found")

	// flow control
	ErrBusy = errors.New("request already in progress")

	// auth errors
	ErrMissingToken = errors.New("missing token")
)
