package service

import "errors"

// Sentinel kinds for service errors. Store errors such as
// repository.ErrNotFound pass through wrapped.
var (
	ErrNotStarted         = errors.New("service not started")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrStationNotFound    = errors.New("station not found")
	ErrInvalidView        = errors.New("invalid leaderboard view")
	ErrInvalidLimit       = errors.New("invalid leaderboard limit")
	ErrInvalidMeasurement = errors.New("invalid measurement")
	ErrQueueFull          = errors.New("refresh queue full")
)
