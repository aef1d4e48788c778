package scoring

import "math"

// AverageAcrossStations returns the rounded mean of the present, finite
// scores, or nil when there are none. This is a player's total score.
func AverageAcrossStations(scores []*float64) *int {
	sum, n := collect(scores)
	if n == 0 {
		return nil
	}
	v := round(sum / float64(n))
	return &v
}

// SumAcrossStations returns the rounded sum of the present, finite scores,
// or nil when there are none. Leaderboards show it out of 100 per station.
func SumAcrossStations(scores []*float64) *int {
	sum, n := collect(scores)
	if n == 0 {
		return nil
	}
	v := round(sum)
	return &v
}

func collect(scores []*float64) (sum float64, n int) {
	for _, s := range scores {
		if s == nil || math.IsNaN(*s) || math.IsInf(*s, 0) {
			continue
		}
		sum += *s
		n++
	}
	return sum, n
}

// ScoresOf converts nullable integer scores for aggregation.
func ScoresOf(ints []*int) []*float64 {
	out := make([]*float64, len(ints))
	for i, s := range ints {
		if s != nil {
			f := float64(*s)
			out[i] = &f
		}
	}
	return out
}
