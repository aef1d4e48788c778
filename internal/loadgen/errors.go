package loadgen

import "errors"

// Error constants.
var (
	ErrUnhealthy     = errors.New("service unhealthy")
	ErrEmptyProject  = errors.New("project has no players or stations")
	ErrInconsistent  = errors.New("leaderboard inconsistent")
	ErrUnexpectedRes = errors.New("unexpected response")
)
