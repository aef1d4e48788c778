// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Gender selects the gendered score tables. Free-text input is normalized
// by ParseGender.
type Gender string

// Known genders. GenderUnknown selects no gendered table.
const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = ""
)

// ParseGender normalizes free-text gender values as entered by organizers.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m", "männlich", "maennlich", "junge", "boy":
		return GenderMale
	case "female", "f", "w", "weiblich", "mädchen", "maedchen", "girl":
		return GenderFemale
	default:
		return GenderUnknown
	}
}

// Project is a single testing event.
type Project struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Date *time.Time `json:"date,omitempty"` // event date; nil when not scheduled
}

// Station identifies one test discipline. MinValue, MaxValue and
// HigherIsBetter are the generic normalization bounds.
type Station struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Unit           string  `json:"unit"`
	MinValue       float64 `json:"min_value"`
	MaxValue       float64 `json:"max_value"`
	HigherIsBetter bool    `json:"higher_is_better"`
}

// Player carries the fields the scorer needs.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	BirthYear *int   `json:"birth_year,omitempty"`
	Gender    Gender `json:"gender,omitempty"`
}

// Measurement is one raw value captured at a station. A nil Value means the
// station was visited but nothing was recorded.
type Measurement struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"player_id"`
	StationID string    `json:"station_id"`
	Value     *float64  `json:"value"`
	TS        time.Time `json:"ts"`
}

// StatEntry is a player's result at one station. Raw and Score are nil
// together when no measurement exists.
type StatEntry struct {
	StationID   string   `json:"station_id"`
	StationName string   `json:"station_name"`
	Raw         *float64 `json:"raw"`
	Score       *int     `json:"score"`
	Unit        string   `json:"unit"`
	Method      string   `json:"method,omitempty"` // how Score was derived
}

// PerformanceEntry summarizes one player across all stations.
type PerformanceEntry struct {
	PlayerID   string      `json:"player_id"`
	Stats      []StatEntry `json:"stats"`
	TotalScore *int        `json:"total_score"`
}
