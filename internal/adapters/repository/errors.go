package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownPlayer   = errors.New("player not in project")
	ErrUnknownStation  = errors.New("station not in project")
	ErrInvalidArgument = errors.New("invalid argument")
)
