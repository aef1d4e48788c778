package scoremap

import "errors"

// Sentinel kinds for score table errors.
var (
	ErrNoResource = errors.New("score table not found")
)
