package scoring

import (
	"context"

	"github.com/okian/kickscore/internal/domain/model"
	"github.com/okian/kickscore/internal/domain/scoremap"
)

// Dependencies carries everything the scorer needs besides the measurement
// itself. It is built by the caller for one request and never mutated.
type Dependencies struct {
	// EventYear is used to resolve player ages.
	EventYear int
	// Agility and Speed hold the S1 and S6 tables per gender.
	Agility map[model.Gender]*scoremap.Table
	Speed   map[model.Gender]*scoremap.Table
	// ShotPower is the ungendered S4 table.
	ShotPower *scoremap.Table
}

// AgilityTable returns the S1 table for g, or nil.
func (d Dependencies) AgilityTable(g model.Gender) *scoremap.Table {
	return d.Agility[g]
}

// SpeedTable returns the S6 table for g, or nil.
func (d Dependencies) SpeedTable(g model.Gender) *scoremap.Table {
	return d.Speed[g]
}

var genders = []model.Gender{model.GenderMale, model.GenderFemale}

// LoadDependencies fetches all score tables through l. Missing tables stay
// nil and the affected stations fall back to formulas.
func LoadDependencies(ctx context.Context, l *scoremap.Loader, eventYear int) Dependencies {
	deps := Dependencies{
		EventYear: eventYear,
		Agility:   make(map[model.Gender]*scoremap.Table, len(genders)),
		Speed:     make(map[model.Gender]*scoremap.Table, len(genders)),
	}
	if l == nil {
		return deps
	}
	for _, g := range genders {
		if t := l.Load(ctx, scoremap.Key{Station: scoremap.S1, Gender: g}); t != nil {
			deps.Agility[g] = t
		}
		if t := l.Load(ctx, scoremap.Key{Station: scoremap.S6, Gender: g}); t != nil {
			deps.Speed[g] = t
		}
	}
	deps.ShotPower = l.Load(ctx, scoremap.Key{Station: scoremap.S4})
	return deps
}
