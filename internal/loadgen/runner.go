package loadgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/kickscore/pkg/logger"
)

// Run loads cfg.ProjectID and verifies the leaderboard afterwards.
func Run(ctx context.Context, cfg Config, log logger.Logger) (Stats, error) {
	start := time.Now()
	var stats Stats
	c := newClient(cfg.BaseURL, cfg.Timeout)
	base := "/projects/" + url.PathEscape(cfg.ProjectID)

	if err := c.getJSON(ctx, "/healthz", nil); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}

	var perfs struct {
		Performances []performance `json:"performances"`
	}
	if err := c.getJSON(ctx, base+"/performances", &perfs); err != nil {
		return stats, err
	}
	players, stations := roster(perfs.Performances)
	if len(players) == 0 || len(stations) == 0 {
		return stats, fmt.Errorf("%s: %w", cfg.ProjectID, ErrEmptyProject)
	}
	log.Info(ctx, "loading project",
		logger.String("project_id", cfg.ProjectID),
		logger.Int("players", len(players)),
		logger.Int("stations", len(stations)),
		logger.Int("measurements", cfg.Measurements),
		logger.Int("workers", cfg.Workers),
	)

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	ms := generate(rand.New(rand.NewPCG(seed, seed)), cfg.Measurements, cfg.Retakes, cfg.MaxValue, players, stations)
	stats.Generated = len(ms)

	submit(ctx, c, base+"/measurements", ms, max(cfg.Workers, 1), &stats)
	log.Info(ctx, "measurements submitted",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
	)

	var lb struct {
		Entries []Entry `json:"entries"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/leaderboard?limit=%d", base, cfg.TopN), &lb); err != nil {
		return stats, err
	}
	stats.Leaderboard = len(lb.Entries)
	stats.Duration = time.Since(start)
	if err := verify(lb.Entries, len(stations)); err != nil {
		return stats, err
	}
	for _, e := range lb.Entries[:min(len(lb.Entries), 10)] {
		log.Info(ctx, "leader", logger.Int("rank", e.Rank), logger.String("player_id", e.PlayerID), logger.Int("score", e.Score))
	}
	return stats, nil
}

func roster(perfs []performance) (players, stations []string) {
	seen := make(map[string]bool)
	for _, p := range perfs {
		players = append(players, p.PlayerID)
		for _, s := range p.Stats {
			if !seen[s.StationID] {
				seen[s.StationID] = true
				stations = append(stations, s.StationID)
			}
		}
	}
	return players, stations
}

func submit(ctx context.Context, c *client, path string, ms []measurement, workers int, stats *Stats) {
	var accepted, duplicate, rejected, failed, submitted atomic.Int64

	jobs := make(chan measurement, workers*2)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				status, err := c.post(ctx, path, m)
				submitted.Add(1)
				switch {
				case err != nil:
					failed.Add(1)
				case status == http.StatusCreated:
					accepted.Add(1)
				case status == http.StatusOK:
					duplicate.Add(1)
				default:
					rejected.Add(1)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, m := range ms {
			select {
			case <-ctx.Done():
				return
			case jobs <- m:
			}
		}
	}()
	wg.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Accepted = int(accepted.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.Rejected = int(rejected.Load())
	stats.Failed = int(failed.Load())
}
