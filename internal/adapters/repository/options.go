package repository

import (
	"time"

	"github.com/google/uuid"
)

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock sets the timestamp source for measurements stored without one.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets how missing measurement ids are filled.
func WithIDGenerator(gen func() string) MemoryOption {
	return func(s *MemoryStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func defaultID() string { return uuid.NewString() }
