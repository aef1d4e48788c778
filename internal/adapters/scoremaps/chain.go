package scoremaps

import (
	"context"
	"errors"

	"github.com/okian/kickscore/internal/domain/scoremap"
)

// Chain tries sources in order. The first source that has the table wins.
// A failing source does not hide a later one that has the table; the
// failure is only returned when no source has it.
type Chain []scoremap.Source

// Fetch implements scoremap.Source.
func (c Chain) Fetch(ctx context.Context, key scoremap.Key) ([]byte, error) {
	var firstErr error
	for _, src := range c {
		if src == nil {
			continue
		}
		raw, err := src.Fetch(ctx, key)
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, scoremap.ErrNoResource) && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, scoremap.ErrNoResource
}
