// Package types contains common types used across the application
package types

// View selects how a leaderboard aggregates station scores.
type View string

// Leaderboard views.
const (
	// ViewAverage ranks by the mean station score (0-100).
	ViewAverage View = "average"
	// ViewSum ranks by the summed station scores (up to 100 per station).
	ViewSum View = "sum"
)

// Entry represents a leaderboard entry
type Entry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
	MaxScore int    `json:"max_score"`
	Measured int    `json:"measured_stations"`
}
