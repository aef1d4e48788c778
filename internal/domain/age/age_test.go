package age_test

import (
	"testing"
	"time"

	"github.com/okian/kickscore/internal/domain/age"
	. "github.com/smartystreets/goconvey/convey"
)

func year(y int) *int { return &y }

func TestResolve(t *testing.T) {
	Convey("Given an event in 2024", t, func() {
		Convey("When the birth year is unknown", func() {
			Convey("Then the default age is used", func() {
				So(age.Resolve(2024, nil), ShouldEqual, 16)
				So(age.Resolve(2024, year(0)), ShouldEqual, 16)
			})
		})

		Convey("When the birth year is plausible", func() {
			So(age.Resolve(2024, year(2010)), ShouldEqual, 14)
		})

		Convey("When the age is out of range", func() {
			Convey("Then it is clamped", func() {
				So(age.Resolve(2024, year(1900)), ShouldEqual, 49)
				So(age.Resolve(2024, year(2020)), ShouldEqual, 6)
				So(age.Resolve(2024, year(2030)), ShouldEqual, 6)
			})
		})
	})
}

func TestEventYear(t *testing.T) {
	Convey("Given a clock in 2026", t, func() {
		now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

		Convey("Then a dated project uses its own year", func() {
			d := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
			So(age.EventYear(&d, now), ShouldEqual, 2024)
		})

		Convey("Then an undated project uses the current year", func() {
			So(age.EventYear(nil, now), ShouldEqual, 2026)
			So(age.EventYear(&time.Time{}, now), ShouldEqual, 2026)
		})
	})
}

func TestNearestBucket(t *testing.T) {
	Convey("Given two-year buckets", t, func() {
		labels := []string{"10-11", "12-13", "14-15"}

		Convey("Then the closest midpoint wins", func() {
			got, ok := age.NearestBucket(13, labels)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, "12-13")
		})

		Convey("Then ages beyond the ends snap to the edge buckets", func() {
			got, _ := age.NearestBucket(6, labels)
			So(got, ShouldEqual, "10-11")
			got, _ = age.NearestBucket(40, labels)
			So(got, ShouldEqual, "14-15")
		})

		Convey("Then ties resolve to the earlier label", func() {
			got, _ := age.NearestBucket(12, []string{"U11", "U13"})
			So(got, ShouldEqual, "U11")
		})
	})

	Convey("Given labels without numbers", t, func() {
		_, ok := age.NearestBucket(12, []string{"Alter", ""})
		So(ok, ShouldBeFalse)
	})

	Convey("Given single-age labels", t, func() {
		got, ok := age.NearestBucket(9, []string{"8", "10 Jahre", "12"})
		So(ok, ShouldBeTrue)
		So(got, ShouldEqual, "8")
	})
}
