package loadgen

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// generate draws n measurements over the given players and stations. A
// share of retakes reuse an earlier measurement id and must come back as
// duplicates.
func generate(rng *rand.Rand, n int, retakes, maxValue float64, players, stations []string) []measurement {
	out := make([]measurement, 0, n)
	for i := 0; i < n; i++ {
		if len(out) > 0 && rng.Float64() < retakes {
			out = append(out, out[rng.IntN(len(out))])
			continue
		}
		out = append(out, measurement{
			ID:        uuid.NewString(),
			PlayerID:  players[rng.IntN(len(players))],
			StationID: stations[rng.IntN(len(stations))],
			Value:     float64(int(rng.Float64()*maxValue*100)) / 100,
		})
	}
	return out
}
