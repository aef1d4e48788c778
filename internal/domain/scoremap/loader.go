package scoremap

import (
	"context"
	"errors"
	"sync"

	"github.com/okian/kickscore/internal/domain/model"
	"github.com/okian/kickscore/pkg/logger"
	"github.com/okian/kickscore/pkg/metrics"
)

// Table identifiers as used in resource names.
const (
	S1 = "s1" // agility
	S4 = "s4" // shot power
	S6 = "s6" // speed
)

// Key addresses one score table resource.
type Key struct {
	Station string
	Gender  model.Gender
}

// Name returns the resource name without extension, e.g. "s1_female" or
// "s4" for ungendered tables.
func (k Key) Name() string {
	if k.Gender == model.GenderUnknown {
		return k.Station
	}
	return k.Station + "_" + string(k.Gender)
}

// Format returns the file format used by the key's station.
func (k Key) Format() Format {
	if k.Station == S4 {
		return PowerFormat
	}
	return StandardFormat
}

// Source fetches raw table text. Implementations return ErrNoResource when
// the resource does not exist.
type Source interface {
	Fetch(ctx context.Context, key Key) ([]byte, error)
}

// Loader parses tables from a Source and caches them per key for its own
// lifetime. Create one per request or session.
type Loader struct {
	src    Source
	logger logger.Logger

	mu    sync.Mutex
	cache map[Key]*Table
}

// LoaderOption applies a configuration option to the Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used to report source failures.
func WithLogger(l logger.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// NewLoader creates a Loader over src. A nil src yields no tables.
func NewLoader(src Source, opts ...LoaderOption) *Loader {
	l := &Loader{
		src:   src,
		cache: make(map[Key]*Table),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the table for key, or nil when none is available. Missing
// resources are expected. Source failures are logged and also yield nil, so
// scoring falls back to formulas instead of failing.
func (l *Loader) Load(ctx context.Context, key Key) *Table {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.cache[key]; ok {
		return t
	}
	t := l.fetch(ctx, key)
	l.cache[key] = t
	return t
}

func (l *Loader) fetch(ctx context.Context, key Key) *Table {
	if l.src == nil {
		return nil
	}
	raw, err := l.src.Fetch(ctx, key)
	switch {
	case errors.Is(err, ErrNoResource):
		metrics.RecordScoreMapLoad(key.Station, "absent")
		return nil
	case err != nil:
		metrics.RecordScoreMapLoad(key.Station, "error")
		metrics.RecordErrorByComponent("scoremap", "fetch")
		if l.logger != nil {
			l.logger.Warn(ctx, "score table unavailable, using formula fallback",
				logger.String("table", key.Name()),
				logger.Error(err),
			)
		}
		return nil
	}
	t := Parse(string(raw), key.Format())
	if t == nil {
		metrics.RecordScoreMapLoad(key.Station, "empty")
		return nil
	}
	metrics.RecordScoreMapLoad(key.Station, "loaded")
	return t
}
