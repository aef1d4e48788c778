package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/kickscore/internal/domain/model"
)

const foreignKeyViolation = "23503"

// PostgresStore reads project data from Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects a pgx pool to databaseURL and pings it.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool resources.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const projectSQL = `
    SELECT id, name, event_date
    FROM projects
    WHERE id = $1
`

// Project implements Store.
func (s *PostgresStore) Project(ctx context.Context, projectID string) (model.Project, error) {
	var p model.Project
	var date *time.Time
	err := s.pool.QueryRow(ctx, projectSQL, projectID).Scan(&p.ID, &p.Name, &date)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return model.Project{}, err
	}
	p.Date = date
	return p, nil
}

const stationsSQL = `
    SELECT id, name, COALESCE(unit, ''), COALESCE(min_value, 0), COALESCE(max_value, 0), COALESCE(higher_is_better, true)
    FROM stations
    WHERE project_id = $1
    ORDER BY position, id
`

// Stations implements Store.
func (s *PostgresStore) Stations(ctx context.Context, projectID string) ([]model.Station, error) {
	if err := s.exists(ctx, projectID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, stationsSQL, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := make([]model.Station, 0)
	for rows.Next() {
		var st model.Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Unit, &st.MinValue, &st.MaxValue, &st.HigherIsBetter); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

const playersSQL = `
    SELECT id, COALESCE(name, ''), birth_year, COALESCE(gender, '')
    FROM players
    WHERE project_id = $1
    ORDER BY id
`

// Players implements Store.
func (s *PostgresStore) Players(ctx context.Context, projectID string) ([]model.Player, error) {
	if err := s.exists(ctx, projectID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, playersSQL, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]model.Player, 0)
	for rows.Next() {
		var (
			p      model.Player
			birth  *int32
			gender string
		)
		if err := rows.Scan(&p.ID, &p.Name, &birth, &gender); err != nil {
			return nil, err
		}
		if birth != nil {
			y := int(*birth)
			p.BirthYear = &y
		}
		p.Gender = model.ParseGender(gender)
		players = append(players, p)
	}
	return players, rows.Err()
}

const measurementsSQL = `
    SELECT id, player_id, station_id, value, ts
    FROM measurements
    WHERE project_id = $1
    ORDER BY ts, id
`

// Measurements implements Store.
func (s *PostgresStore) Measurements(ctx context.Context, projectID string) ([]model.Measurement, error) {
	if err := s.exists(ctx, projectID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, measurementsSQL, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ms := make([]model.Measurement, 0)
	for rows.Next() {
		var m model.Measurement
		if err := rows.Scan(&m.ID, &m.PlayerID, &m.StationID, &m.Value, &m.TS); err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, rows.Err()
}

// Player and station must belong to the project; the composite foreign keys
// enforce that. Measurement ids are unique per project.
const insertMeasurementSQL = `
    INSERT INTO measurements (id, project_id, player_id, station_id, value, ts)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (project_id, id) DO NOTHING
`

// AddMeasurement implements Store.
func (s *PostgresStore) AddMeasurement(ctx context.Context, projectID string, m model.Measurement) (bool, error) {
	if err := s.exists(ctx, projectID); err != nil {
		return false, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.TS.IsZero() {
		m.TS = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx, insertMeasurementSQL, m.ID, projectID, m.PlayerID, m.StationID, m.Value, m.TS)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return false, fmt.Errorf("%s/%s: %w", m.PlayerID, m.StationID, foreignKeyError(pgErr))
		}
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func foreignKeyError(pgErr *pgconn.PgError) error {
	switch pgErr.ConstraintName {
	case "measurements_station_fk":
		return ErrUnknownStation
	default:
		return ErrUnknownPlayer
	}
}

func (s *PostgresStore) exists(ctx context.Context, projectID string) error {
	var found bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, projectID).Scan(&found); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return nil
}
