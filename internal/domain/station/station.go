// Package station resolves station names into a closed set of kinds and
// defines their canonical display order.
package station

import (
	"sort"
	"strings"

	"github.com/okian/kickscore/internal/domain/model"
)

// Kind is the scoring discipline of a station.
type Kind int

// Station kinds. Generic stations are scored with their own bounds.
const (
	Generic Kind = iota
	Agility
	Technique
	Passing
	ShotPower
	ShotAccuracy
	Speed
)

// String returns the kind's short name as used in metric labels.
func (k Kind) String() string {
	switch k {
	case Agility:
		return "agility"
	case Technique:
		return "technique"
	case Passing:
		return "passing"
	case ShotPower:
		return "shot_power"
	case ShotAccuracy:
		return "shot_accuracy"
	case Speed:
		return "speed"
	default:
		return "generic"
	}
}

// matchers are checked in order; the first substring hit wins.
var matchers = []struct {
	needle string
	kind   Kind
}{
	{"beweglichkeit", Agility},
	{"schnelligkeit", Speed},
	{"schusskraft", ShotPower},
	{"passgenauigkeit", Passing},
	{"schusspräzision", ShotAccuracy},
	{"schusspraezision", ShotAccuracy},
	{"technik", Technique},
}

// KindOf resolves a station name to its kind.
func KindOf(name string) Kind {
	lower := strings.ToLower(name)
	for _, m := range matchers {
		if strings.Contains(lower, m.needle) {
			return m.kind
		}
	}
	return Generic
}

// canonical lists the display order of the standard stations.
var canonical = []Kind{Agility, Technique, Passing, ShotPower, ShotAccuracy, Speed}

func position(k Kind) int {
	for i, c := range canonical {
		if c == k {
			return i
		}
	}
	return len(canonical)
}

// Sort returns a copy of stations in canonical display order. Stations of a
// non-standard kind follow, ordered by name.
func Sort(stations []model.Station) []model.Station {
	out := make([]model.Station, len(stations))
	copy(out, stations)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := position(KindOf(out[i].Name)), position(KindOf(out[j].Name))
		if pi != pj {
			return pi < pj
		}
		if pi == len(canonical) {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		}
		return false
	})
	return out
}
