package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/kickscore/internal/domain/model"
)

// Seed is the YAML layout of a seed file.
type Seed struct {
	Projects []SeedProject `koanf:"projects"`
}

// SeedProject is one project with its roster and optional measurements.
type SeedProject struct {
	ID           string            `koanf:"id"`
	Name         string            `koanf:"name"`
	Date         string            `koanf:"date"` // YYYY-MM-DD
	Stations     []SeedStation     `koanf:"stations"`
	Players      []SeedPlayer      `koanf:"players"`
	Measurements []SeedMeasurement `koanf:"measurements"`
}

// SeedStation mirrors model.Station.
type SeedStation struct {
	ID             string  `koanf:"id"`
	Name           string  `koanf:"name"`
	Unit           string  `koanf:"unit"`
	MinValue       float64 `koanf:"min_value"`
	MaxValue       float64 `koanf:"max_value"`
	HigherIsBetter bool    `koanf:"higher_is_better"`
}

// SeedPlayer mirrors model.Player; gender is free text.
type SeedPlayer struct {
	ID        string `koanf:"id"`
	Name      string `koanf:"name"`
	BirthYear *int   `koanf:"birth_year"`
	Gender    string `koanf:"gender"`
}

// SeedMeasurement mirrors model.Measurement.
type SeedMeasurement struct {
	ID        string   `koanf:"id"`
	PlayerID  string   `koanf:"player_id"`
	StationID string   `koanf:"station_id"`
	Value     *float64 `koanf:"value"`
}

// LoadSeedFile reads a YAML seed file.
func LoadSeedFile(path string) (Seed, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Seed{}, fmt.Errorf("load seed %s: %w", path, err)
	}
	var s Seed
	if err := k.Unmarshal("", &s); err != nil {
		return Seed{}, fmt.Errorf("unmarshal seed %s: %w", path, err)
	}
	return s, nil
}

// Apply writes every project of seed into st.
func (seed Seed) Apply(ctx context.Context, st *MemoryStore) error {
	for _, p := range seed.Projects {
		proj := model.Project{ID: p.ID, Name: p.Name}
		if p.Date != "" {
			d, err := time.Parse(time.DateOnly, p.Date)
			if err != nil {
				return fmt.Errorf("project %s date %q: %w", p.ID, p.Date, ErrInvalidArgument)
			}
			proj.Date = &d
		}
		if err := st.PutProject(proj); err != nil {
			return err
		}
		for _, s := range p.Stations {
			if err := st.PutStation(p.ID, model.Station(s)); err != nil {
				return err
			}
		}
		for _, pl := range p.Players {
			player := model.Player{ID: pl.ID, Name: pl.Name, BirthYear: pl.BirthYear, Gender: model.ParseGender(pl.Gender)}
			if err := st.PutPlayer(p.ID, player); err != nil {
				return err
			}
		}
		for _, m := range p.Measurements {
			meas := model.Measurement{ID: m.ID, PlayerID: m.PlayerID, StationID: m.StationID, Value: m.Value}
			if _, err := st.AddMeasurement(ctx, p.ID, meas); err != nil {
				return fmt.Errorf("project %s measurement %s: %w", p.ID, m.ID, err)
			}
		}
	}
	return nil
}
