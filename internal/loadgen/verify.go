package loadgen

import "fmt"

// verify checks the ranking invariants of a leaderboard: scores never
// increase, ranks run 1..n and nobody has more measured stations than the
// project offers.
func verify(entries []Entry, stationCount int) error {
	for i, e := range entries {
		if e.Rank != i+1 {
			return fmt.Errorf("entry %d has rank %d: %w", i, e.Rank, ErrInconsistent)
		}
		if e.Measured < 1 || e.Measured > stationCount {
			return fmt.Errorf("player %s measured at %d of %d stations: %w", e.PlayerID, e.Measured, stationCount, ErrInconsistent)
		}
		if e.Score < 0 || e.Score > e.MaxScore {
			return fmt.Errorf("player %s score %d outside 0..%d: %w", e.PlayerID, e.Score, e.MaxScore, ErrInconsistent)
		}
		if i == 0 {
			continue
		}
		prev := entries[i-1]
		if e.Score > prev.Score || (e.Score == prev.Score && e.PlayerID < prev.PlayerID) {
			return fmt.Errorf("entries %d and %d out of order: %w", i-1, i, ErrInconsistent)
		}
	}
	return nil
}
