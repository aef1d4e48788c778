package scoremaps

import "errors"

// ErrUnexpectedStatus is returned for HTTP responses other than 200 and 404.
var ErrUnexpectedStatus = errors.New("unexpected status")

// ErrTableTooLarge is returned when a hosted table exceeds the size cap.
var ErrTableTooLarge = errors.New("table too large")
