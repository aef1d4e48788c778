// Package service scores projects on demand, captures measurements and
// keeps live leaderboards fresh.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/kickscore/internal/adapters/live"
	"github.com/okian/kickscore/internal/adapters/mq/queue"
	"github.com/okian/kickscore/internal/adapters/mq/worker"
	"github.com/okian/kickscore/internal/adapters/repository"
	"github.com/okian/kickscore/internal/domain/age"
	"github.com/okian/kickscore/internal/domain/dedupe"
	"github.com/okian/kickscore/internal/domain/model"
	"github.com/okian/kickscore/internal/domain/performance"
	"github.com/okian/kickscore/internal/domain/scoremap"
	"github.com/okian/kickscore/internal/domain/scoring"
	"github.com/okian/kickscore/internal/domain/station"
	"github.com/okian/kickscore/internal/domain/types"
	"github.com/okian/kickscore/pkg/logger"
	"github.com/okian/kickscore/pkg/metrics"
)

const (
	defaultQueueSize             = 1024
	defaultDedupeSize            = 100_000
	defaultSystemMetricsInterval = 15 * time.Second
	shutdownTimeout              = 10 * time.Second
)

// Publisher receives leaderboards after a refresh.
type Publisher interface {
	Publish(projectID, msgType string, payload any)
}

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	source    scoremap.Source
	publisher Publisher
	deduper   dedupe.Deduper
	queue     *queue.InMemoryQueue
	pool      *worker.Pool

	workerCount           int
	queueSize             int
	dedupeSize            int
	systemMetricsInterval time.Duration

	started bool
	stopCh  chan struct{}

	logger logger.Logger
	now    func() time.Time
}

// New constructs a Service. Without WithStore an empty in-memory store is used.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:           runtime.NumCPU(),
		queueSize:             defaultQueueSize,
		dedupeSize:            defaultDedupeSize,
		systemMetricsInterval: defaultSystemMetricsInterval,
		logger:                logger.Nop(),
		now:                   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	return s
}

// Start launches the refresh workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.deduper = dedupe.New(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize), queue.WithClock(s.now))
	s.pool = worker.NewPool(s.workerCount, s.queue, s, worker.WithLogger(s.logger.Named("refresh")))
	s.pool.Start(ctx)

	s.stopCh = make(chan struct{})
	if s.systemMetricsInterval > 0 {
		go s.sampleSystemMetrics(s.stopCh)
	}

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Bool("score_maps", s.source != nil),
	)
	return nil
}

// Stop closes the refresh queue and waits for running refreshes.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	_ = s.queue.Close()
	sctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.pool.Shutdown(sctx); err != nil {
		s.logger.Warn(ctx, "refresh workers did not stop in time", logger.Error(err))
	}
	close(s.stopCh)

	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

// project bundles everything needed to score one project.
type project struct {
	project      model.Project
	stations     []model.Station
	players      []model.Player
	measurements []model.Measurement
	deps         scoring.Dependencies
}

func (s *Service) load(ctx context.Context, projectID string) (project, error) {
	var (
		out project
		err error
	)
	if out.project, err = s.store.Project(ctx, projectID); err != nil {
		return project{}, err
	}
	if out.stations, err = s.store.Stations(ctx, projectID); err != nil {
		return project{}, err
	}
	if out.players, err = s.store.Players(ctx, projectID); err != nil {
		return project{}, err
	}
	if out.measurements, err = s.store.Measurements(ctx, projectID); err != nil {
		return project{}, err
	}
	out.deps = s.dependencies(ctx, out.project)
	return out, nil
}

func (s *Service) dependencies(ctx context.Context, p model.Project) scoring.Dependencies {
	loader := scoremap.NewLoader(s.source, scoremap.WithLogger(s.logger.Named("scoremap")))
	return scoring.LoadDependencies(ctx, loader, age.EventYear(p.Date, s.now()))
}

// Project returns the project metadata.
func (s *Service) Project(ctx context.Context, projectID string) (model.Project, error) {
	return s.store.Project(ctx, projectID)
}

// Performances scores every player of the project.
func (s *Service) Performances(ctx context.Context, projectID string) (map[string]model.PerformanceEntry, error) {
	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.build(p), nil
}

func (s *Service) build(p project) map[string]model.PerformanceEntry {
	start := s.now()
	perfs := performance.Build(p.players, p.stations, p.measurements, p.deps)

	kinds := make(map[string]string, len(p.stations))
	for _, st := range p.stations {
		kinds[st.ID] = station.KindOf(st.Name).String()
	}
	for _, perf := range perfs {
		for _, stat := range perf.Stats {
			if stat.Score != nil {
				metrics.RecordStationScore(kinds[stat.StationID], stat.Method)
			}
		}
	}
	metrics.RecordPerformanceBuild(len(perfs), float64(s.now().Sub(start).Microseconds())/1000)
	return perfs
}

// PlayerPerformance scores one player of the project.
func (s *Service) PlayerPerformance(ctx context.Context, projectID, playerID string) (model.PerformanceEntry, error) {
	p, err := s.load(ctx, projectID)
	if err != nil {
		return model.PerformanceEntry{}, err
	}
	player, ok := findPlayer(p.players, playerID)
	if !ok {
		return model.PerformanceEntry{}, fmt.Errorf("%s: %w", playerID, ErrPlayerNotFound)
	}
	p.players = []model.Player{player}
	return s.build(p)[playerID], nil
}

// Leaderboard ranks the measured players of the project. An empty view
// means average; limit 0 returns every player.
func (s *Service) Leaderboard(ctx context.Context, projectID string, view types.View, limit int) ([]types.Entry, error) {
	if view == "" {
		view = types.ViewAverage
	}
	if view != types.ViewAverage && view != types.ViewSum {
		return nil, fmt.Errorf("%q: %w", view, ErrInvalidView)
	}
	if limit < 0 {
		return nil, fmt.Errorf("%d: %w", limit, ErrInvalidLimit)
	}
	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return performance.Leaderboard(s.build(p), view, len(p.stations), limit), nil
}

// RecordMeasurement validates and stores m, then schedules a refresh of the
// project. It reports false when the measurement was already captured.
func (s *Service) RecordMeasurement(ctx context.Context, projectID string, m model.Measurement) (model.Measurement, bool, error) {
	if m.PlayerID == "" || m.StationID == "" {
		return m, false, fmt.Errorf("%w: player_id and station_id are required", ErrInvalidMeasurement)
	}
	if m.Value != nil && (math.IsNaN(*m.Value) || math.IsInf(*m.Value, 0)) {
		return m, false, fmt.Errorf("%w: value must be finite", ErrInvalidMeasurement)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return m, false, ErrNotStarted
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.TS.IsZero() {
		m.TS = s.now().UTC()
	}

	dedupeKey := projectID + "/" + m.ID
	if s.deduper.SeenAndRecord(ctx, dedupeKey) {
		metrics.RecordMeasurementDuplicate()
		return m, false, nil
	}
	if s.queue.Len() >= s.queueSize {
		s.deduper.Unrecord(ctx, dedupeKey)
		return m, false, ErrQueueFull
	}

	added, err := s.store.AddMeasurement(ctx, projectID, m)
	if err != nil {
		s.deduper.Unrecord(ctx, dedupeKey)
		switch {
		case errors.Is(err, repository.ErrUnknownPlayer):
			return m, false, fmt.Errorf("%s: %w", m.PlayerID, ErrPlayerNotFound)
		case errors.Is(err, repository.ErrUnknownStation):
			return m, false, fmt.Errorf("%s: %w", m.StationID, ErrStationNotFound)
		}
		return m, false, err
	}
	if !added {
		metrics.RecordMeasurementDuplicate()
		return m, false, nil
	}
	metrics.RecordMeasurement()

	if err := s.queue.Enqueue(ctx, projectID); err != nil {
		s.logger.Warn(ctx, "refresh not scheduled", logger.String("project_id", projectID), logger.Error(err))
	}
	return m, true, nil
}

// PreviewRequest describes an ad-hoc score lookup. PlayerID, when set,
// takes birth year and gender from the stored player.
type PreviewRequest struct {
	StationID string
	PlayerID  string
	BirthYear *int
	Gender    model.Gender
	Value     float64
}

// Preview is the outcome of PreviewScore.
type Preview struct {
	StationID   string  `json:"station_id"`
	StationName string  `json:"station_name"`
	Kind        string  `json:"kind"`
	Raw         float64 `json:"raw"`
	Score       int     `json:"score"`
	Method      string  `json:"method"`
	EventYear   int     `json:"event_year"`
}

// PreviewScore scores a single value at a station of the project without
// storing it.
func (s *Service) PreviewScore(ctx context.Context, projectID string, req PreviewRequest) (Preview, error) {
	if math.IsNaN(req.Value) || math.IsInf(req.Value, 0) {
		return Preview{}, fmt.Errorf("%w: value must be finite", ErrInvalidMeasurement)
	}
	proj, err := s.store.Project(ctx, projectID)
	if err != nil {
		return Preview{}, err
	}
	stations, err := s.store.Stations(ctx, projectID)
	if err != nil {
		return Preview{}, err
	}
	st, ok := findStation(stations, req.StationID)
	if !ok {
		return Preview{}, fmt.Errorf("%s: %w", req.StationID, ErrStationNotFound)
	}

	player := model.Player{ID: req.PlayerID, BirthYear: req.BirthYear, Gender: req.Gender}
	if req.PlayerID != "" {
		players, err := s.store.Players(ctx, projectID)
		if err != nil {
			return Preview{}, err
		}
		if player, ok = findPlayer(players, req.PlayerID); !ok {
			return Preview{}, fmt.Errorf("%s: %w", req.PlayerID, ErrPlayerNotFound)
		}
	}

	deps := s.dependencies(ctx, proj)
	res := scoring.Evaluate(st, player, req.Value, deps)
	kind := station.KindOf(st.Name).String()
	metrics.RecordStationScore(kind, string(res.Method))
	return Preview{
		StationID:   st.ID,
		StationName: st.Name,
		Kind:        kind,
		Raw:         req.Value,
		Score:       res.Score,
		Method:      string(res.Method),
		EventYear:   deps.EventYear,
	}, nil
}

func findStation(stations []model.Station, id string) (model.Station, bool) {
	for _, st := range stations {
		if st.ID == id {
			return st, true
		}
	}
	return model.Station{}, false
}

func findPlayer(players []model.Player, id string) (model.Player, bool) {
	for _, p := range players {
		if p.ID == id {
			return p, true
		}
	}
	return model.Player{}, false
}

// LeaderboardUpdate is the payload published after a refresh.
type LeaderboardUpdate struct {
	View    types.View    `json:"view"`
	Entries []types.Entry `json:"entries"`
}

// Refresh rebuilds the project's leaderboard and publishes it.
func (s *Service) Refresh(ctx context.Context, projectID string) error {
	p, err := s.load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", projectID, err)
	}
	entries := performance.Leaderboard(s.build(p), types.ViewAverage, len(p.stations), 0)
	if s.publisher != nil {
		s.publisher.Publish(projectID, live.TypeLeaderboard, LeaderboardUpdate{View: types.ViewAverage, Entries: entries})
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"scoreMaps":     s.source != nil,
		"livePublisher": s.publisher != nil,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len()
		stats["dedupeEntries"] = s.deduper.Size()
		metrics.UpdateRefreshQueueSize(s.queue.Len())
	}
	if h, ok := s.publisher.(interface{ Total() int }); ok {
		stats["liveClients"] = h.Total()
	}
	return stats
}

func (s *Service) sampleSystemMetrics(stop <-chan struct{}) {
	ticker := time.NewTicker(s.systemMetricsInterval)
	defer ticker.Stop()

	var ms runtime.MemStats
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			runtime.ReadMemStats(&ms)
			metrics.UpdateSystemMemoryUsage(ms.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}
