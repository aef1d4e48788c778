// Package performance builds per-player performance summaries for a
// project from raw measurements.
package performance

import (
	"math"
	"sort"

	"github.com/okian/kickscore/internal/domain/model"
	"github.com/okian/kickscore/internal/domain/scoring"
	"github.com/okian/kickscore/internal/domain/station"
	"github.com/okian/kickscore/internal/domain/types"
)

type pairKey struct {
	player  string
	station string
}

// averageMeasurements averages all finite values per (player, station) pair.
// Re-takes produce several rows for the same pair. Pairs without a finite
// value are absent from the result.
func averageMeasurements(ms []model.Measurement) map[pairKey]float64 {
	type acc struct {
		sum float64
		n   int
	}
	accs := make(map[pairKey]*acc)
	for _, m := range ms {
		if m.Value == nil || math.IsNaN(*m.Value) || math.IsInf(*m.Value, 0) {
			continue
		}
		k := pairKey{player: m.PlayerID, station: m.StationID}
		a, ok := accs[k]
		if !ok {
			a = &acc{}
			accs[k] = a
		}
		a.sum += *m.Value
		a.n++
	}
	out := make(map[pairKey]float64, len(accs))
	for k, a := range accs {
		out[k] = a.sum / float64(a.n)
	}
	return out
}

// Build scores every player at every station and aggregates the results.
// Stats follow the canonical station order. Players without measurements
// get null stats and a null total.
func Build(players []model.Player, stations []model.Station, ms []model.Measurement, deps scoring.Dependencies) map[string]model.PerformanceEntry {
	ordered := station.Sort(stations)
	averages := averageMeasurements(ms)

	out := make(map[string]model.PerformanceEntry, len(players))
	for _, p := range players {
		out[p.ID] = buildOne(p, ordered, averages, deps)
	}
	return out
}

func buildOne(p model.Player, ordered []model.Station, averages map[pairKey]float64, deps scoring.Dependencies) model.PerformanceEntry {
	stats := make([]model.StatEntry, 0, len(ordered))
	scores := make([]*int, 0, len(ordered))
	for _, st := range ordered {
		entry := model.StatEntry{
			StationID:   st.ID,
			StationName: st.Name,
			Unit:        st.Unit,
		}
		if raw, ok := averages[pairKey{player: p.ID, station: st.ID}]; ok {
			res := scoring.Evaluate(st, p, raw, deps)
			r, s := raw, res.Score
			entry.Raw = &r
			entry.Score = &s
			entry.Method = string(res.Method)
		}
		stats = append(stats, entry)
		scores = append(scores, entry.Score)
	}
	return model.PerformanceEntry{
		PlayerID:   p.ID,
		Stats:      stats,
		TotalScore: scoring.AverageAcrossStations(scoring.ScoresOf(scores)),
	}
}

// Leaderboard ranks the measured players of perfs by the chosen view, best
// first, ties broken by player id. stationCount sets the sum view maximum.
// A limit <= 0 returns every ranked player.
func Leaderboard(perfs map[string]model.PerformanceEntry, view types.View, stationCount, limit int) []types.Entry {
	maxScore := scoring.MaxScore
	if view == types.ViewSum {
		maxScore = scoring.MaxScore * stationCount
	}

	entries := make([]types.Entry, 0, len(perfs))
	for id, perf := range perfs {
		scores := make([]*int, 0, len(perf.Stats))
		measured := 0
		for _, s := range perf.Stats {
			scores = append(scores, s.Score)
			if s.Score != nil {
				measured++
			}
		}
		var total *int
		if view == types.ViewSum {
			total = scoring.SumAcrossStations(scoring.ScoresOf(scores))
		} else {
			total = perf.TotalScore
		}
		if total == nil {
			continue
		}
		entries = append(entries, types.Entry{
			PlayerID: id,
			Score:    *total,
			MaxScore: maxScore,
			Measured: measured,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
