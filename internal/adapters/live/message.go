package live

import "time"

// Message types pushed to clients.
const (
	TypeHello       = "hello"
	TypeLeaderboard = "leaderboard"
)

// Message is the JSON frame sent to live clients.
type Message struct {
	Type      string    `json:"type"`
	ProjectID string    `json:"project_id"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"ts"`
}
