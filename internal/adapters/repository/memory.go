package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/kickscore/internal/domain/model"
)

type projectData struct {
	project      model.Project
	stations     []model.Station
	players      []model.Player
	stationIDs   map[string]struct{}
	playerIDs    map[string]struct{}
	measurements []model.Measurement
	measured     map[string]struct{}
}

// MemoryStore keeps everything in process. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]*projectData
	now      func() time.Time
	newID    func() string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		projects: make(map[string]*projectData),
		now:      time.Now,
		newID:    defaultID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PutProject creates or replaces the project header. Existing stations,
// players and measurements are kept.
func (s *MemoryStore) PutProject(p model.Project) error {
	if p.ID == "" {
		return fmt.Errorf("%w: empty project id", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.projects[p.ID]; ok {
		d.project = p
		return nil
	}
	s.projects[p.ID] = &projectData{
		project:    p,
		stationIDs: make(map[string]struct{}),
		playerIDs:  make(map[string]struct{}),
		measured:   make(map[string]struct{}),
	}
	return nil
}

// PutStation adds or replaces a station of an existing project.
func (s *MemoryStore) PutStation(projectID string, st model.Station) error {
	if st.ID == "" {
		return fmt.Errorf("%w: empty station id", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.projects[projectID]
	if !ok {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	if _, exists := d.stationIDs[st.ID]; exists {
		for i := range d.stations {
			if d.stations[i].ID == st.ID {
				d.stations[i] = st
			}
		}
		return nil
	}
	d.stationIDs[st.ID] = struct{}{}
	d.stations = append(d.stations, st)
	return nil
}

// PutPlayer adds or replaces a player of an existing project.
func (s *MemoryStore) PutPlayer(projectID string, p model.Player) error {
	if p.ID == "" {
		return fmt.Errorf("%w: empty player id", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.projects[projectID]
	if !ok {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	if _, exists := d.playerIDs[p.ID]; exists {
		for i := range d.players {
			if d.players[i].ID == p.ID {
				d.players[i] = p
			}
		}
		return nil
	}
	d.playerIDs[p.ID] = struct{}{}
	d.players = append(d.players, p)
	return nil
}

func (s *MemoryStore) get(projectID string) (*projectData, error) {
	d, ok := s.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return d, nil
}

// Project implements Store.
func (s *MemoryStore) Project(_ context.Context, projectID string) (model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, err := s.get(projectID)
	if err != nil {
		return model.Project{}, err
	}
	return d.project, nil
}

// Stations implements Store.
func (s *MemoryStore) Stations(_ context.Context, projectID string) ([]model.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, err := s.get(projectID)
	if err != nil {
		return nil, err
	}
	return append([]model.Station(nil), d.stations...), nil
}

// Players implements Store.
func (s *MemoryStore) Players(_ context.Context, projectID string) ([]model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, err := s.get(projectID)
	if err != nil {
		return nil, err
	}
	return append([]model.Player(nil), d.players...), nil
}

// Measurements implements Store.
func (s *MemoryStore) Measurements(_ context.Context, projectID string) ([]model.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, err := s.get(projectID)
	if err != nil {
		return nil, err
	}
	return append([]model.Measurement(nil), d.measurements...), nil
}

// AddMeasurement implements Store. A missing ID or timestamp is filled in.
func (s *MemoryStore) AddMeasurement(_ context.Context, projectID string, m model.Measurement) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.get(projectID)
	if err != nil {
		return false, err
	}
	if _, ok := d.playerIDs[m.PlayerID]; !ok {
		return false, fmt.Errorf("%s: %w", m.PlayerID, ErrUnknownPlayer)
	}
	if _, ok := d.stationIDs[m.StationID]; !ok {
		return false, fmt.Errorf("%s: %w", m.StationID, ErrUnknownStation)
	}
	if m.ID == "" {
		m.ID = s.newID()
	}
	if _, dup := d.measured[m.ID]; dup {
		return false, nil
	}
	if m.TS.IsZero() {
		m.TS = s.now()
	}
	if m.Value != nil {
		v := *m.Value
		m.Value = &v
	}
	d.measured[m.ID] = struct{}{}
	d.measurements = append(d.measurements, m)
	return true, nil
}

// Close implements Store.
func (s *MemoryStore) Close() {}
