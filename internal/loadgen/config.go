// Package loadgen drives a running service with random measurements and
// checks the resulting leaderboard.
package loadgen

import "time"

// Config holds the load run settings.
type Config struct {
	BaseURL      string        // Base URL of the service
	ProjectID    string        // Project to load
	Measurements int           // Number of measurements to submit
	Retakes      float64       // Share of measurements that replay an earlier id
	TopN         int           // Leaderboard entries to fetch
	Workers      int           // Concurrent submitters
	Timeout      time.Duration // HTTP request timeout
	MaxValue     float64       // Upper bound of generated raw values
	Seed         uint64        // Zero picks a random seed
}

// Stats summarizes a run.
type Stats struct {
	Generated   int
	Submitted   int
	Accepted    int
	Duplicate   int
	Rejected    int
	Failed      int
	Leaderboard int
	Duration    time.Duration
}

// Entry is a leaderboard row as served by the API.
type Entry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
	MaxScore int    `json:"max_score"`
	Measured int    `json:"measured_stations"`
}

type measurement struct {
	ID        string  `json:"id"`
	PlayerID  string  `json:"player_id"`
	StationID string  `json:"station_id"`
	Value     float64 `json:"value"`
}

type performance struct {
	PlayerID string `json:"player_id"`
	Stats    []struct {
		StationID string `json:"station_id"`
	} `json:"stats"`
}
