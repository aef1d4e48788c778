// Package scoring converts raw station measurements into comparable 0-100
// scores and aggregates them per player.
package scoring

import (
	"math"

	"github.com/okian/kickscore/internal/domain/age"
	"github.com/okian/kickscore/internal/domain/model"
	"github.com/okian/kickscore/internal/domain/scoremap"
	"github.com/okian/kickscore/internal/domain/station"
)

// Score bounds.
const (
	MinScore = 0
	MaxScore = 100
)

// Shot accuracy is reported as weighted hits: top corner x3, bottom corner x1.
const maxShotAccuracyHits = 24

// Method names how a score was derived.
type Method string

// Scoring methods.
const (
	MethodTable   Method = "table"   // age-bucketed step table
	MethodFormula Method = "formula" // linear normalization between bounds
	MethodDirect  Method = "direct"  // raw value already on the score scale
	MethodRatio   Method = "ratio"   // fraction of a fixed maximum
	MethodInvalid Method = "invalid" // non-finite input
)

// bounds are the synthetic normalization bounds used when a table cannot
// score a value.
type bounds struct {
	min, max       float64
	higherIsBetter bool
}

var (
	agilityFallback   = bounds{min: 10, max: 40}
	speedFallback     = bounds{min: 4, max: 20}
	shotPowerFallback = bounds{min: 0, max: 150, higherIsBetter: true}
)

// Result is a score with the method that produced it.
type Result struct {
	Score  int
	Method Method
}

// ScoreForStation maps a raw value at st to a score in [0,100].
func ScoreForStation(st model.Station, p model.Player, raw float64, deps Dependencies) int {
	return Evaluate(st, p, raw, deps).Score
}

// Evaluate is ScoreForStation that also reports the scoring method.
func Evaluate(st model.Station, p model.Player, raw float64, deps Dependencies) Result {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return Result{Score: MinScore, Method: MethodInvalid}
	}

	switch station.KindOf(st.Name) {
	case station.Agility:
		return timeStep(deps.AgilityTable(p.Gender), p, raw, deps.EventYear, agilityFallback)
	case station.Speed:
		return timeStep(deps.SpeedTable(p.Gender), p, raw, deps.EventYear, speedFallback)
	case station.ShotPower:
		return speedStep(deps.ShotPower, p, raw, deps.EventYear, shotPowerFallback)
	case station.Passing:
		return Result{Score: round(clamp(raw, MinScore, MaxScore)), Method: MethodDirect}
	case station.ShotAccuracy:
		return Result{Score: round(clamp(raw/maxShotAccuracyHits, 0, 1) * MaxScore), Method: MethodRatio}
	default: // Technique and Generic use the station's own bounds.
		return Result{Score: Normalize(raw, st.MinValue, st.MaxValue, st.HigherIsBetter), Method: MethodFormula}
	}
}

// Normalize maps raw linearly between minV and maxV onto [0,100]. Degenerate
// bounds score 0.
func Normalize(raw, minV, maxV float64, higherIsBetter bool) int {
	if maxV == minV || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return MinScore
	}
	var frac float64
	if higherIsBetter {
		frac = (raw - minV) / (maxV - minV)
	} else {
		frac = (maxV - raw) / (maxV - minV)
	}
	return round(clamp(frac, 0, 1) * MaxScore)
}

// bucketFor picks the player's age bucket thresholds from t.
func bucketFor(t *scoremap.Table, p model.Player, eventYear int) []float64 {
	if t.Len() == 0 {
		return nil
	}
	label, ok := age.NearestBucket(age.Resolve(eventYear, p.BirthYear), t.Labels())
	if !ok {
		return nil
	}
	return t.Thresholds(label)
}

// timeStep scores a time where lower is better. The first threshold at or
// above raw gives 100 minus its index. Values slower than every threshold
// fall through to the fallback bounds.
func timeStep(t *scoremap.Table, p model.Player, raw float64, eventYear int, fb bounds) Result {
	for i, th := range bucketFor(t, p, eventYear) {
		if th >= raw {
			return Result{Score: stepScore(i), Method: MethodTable}
		}
	}
	return Result{Score: Normalize(raw, fb.min, fb.max, fb.higherIsBetter), Method: MethodFormula}
}

// speedStep scores a speed where higher is better. The first threshold at or
// below raw gives 100 minus its index.
func speedStep(t *scoremap.Table, p model.Player, raw float64, eventYear int, fb bounds) Result {
	for i, th := range bucketFor(t, p, eventYear) {
		if th <= raw {
			return Result{Score: stepScore(i), Method: MethodTable}
		}
	}
	return Result{Score: Normalize(raw, fb.min, fb.max, fb.higherIsBetter), Method: MethodFormula}
}

// stepScore clamps 100-index so tables longer than 101 rows cannot go negative.
func stepScore(index int) int {
	s := MaxScore - index
	if s < MinScore {
		return MinScore
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64) int {
	return int(math.Round(v))
}
