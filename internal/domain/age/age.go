// Package age resolves player ages and maps them onto score table buckets.
package age

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

// Age bounds applied by Resolve.
const (
	DefaultAge = 16
	MinAge     = 6
	MaxAge     = 49
)

var digits = regexp.MustCompile(`\d+`)

// Resolve returns the player's age in eventYear. Unknown birth years resolve
// to DefaultAge; everything else is clamped to [MinAge, MaxAge].
func Resolve(eventYear int, birthYear *int) int {
	if birthYear == nil || *birthYear == 0 {
		return DefaultAge
	}
	a := eventYear - *birthYear
	switch {
	case a < MinAge:
		return MinAge
	case a > MaxAge:
		return MaxAge
	}
	return a
}

// EventYear returns the year of the project date, or the year of now when
// the project has no date.
func EventYear(date *time.Time, now time.Time) int {
	if date == nil || date.IsZero() {
		return now.Year()
	}
	return date.Year()
}

// midpoint parses the first one or two integers embedded in label.
func midpoint(label string) (float64, bool) {
	nums := digits.FindAllString(label, 2)
	switch len(nums) {
	case 0:
		return 0, false
	case 1:
		a, err := strconv.Atoi(nums[0])
		if err != nil {
			return 0, false
		}
		return float64(a), true
	}
	a, errA := strconv.Atoi(nums[0])
	b, errB := strconv.Atoi(nums[1])
	if errA != nil || errB != nil {
		return 0, false
	}
	return float64(a+b) / 2, true
}

// NearestBucket returns the label whose midpoint is closest to age. Ties go
// to the earliest label. Labels without any integer are ignored; ok is false
// when no label qualifies.
func NearestBucket(age int, labels []string) (label string, ok bool) {
	best := math.Inf(1)
	for _, l := range labels {
		mid, valid := midpoint(l)
		if !valid {
			continue
		}
		if d := math.Abs(mid - float64(age)); d < best {
			best = d
			label = l
			ok = true
		}
	}
	return label, ok
}
