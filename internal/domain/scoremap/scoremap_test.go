package scoremap_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/kickscore/internal/domain/model"
	"github.com/okian/kickscore/internal/domain/scoremap"
	. "github.com/smartystreets/goconvey/convey"
)

const agilityCSV = `Punkte;10-11;12-13;14-15

100;11,5;12,0;11,0
99;12,5;14,0;12,0
98;13,5;16,0;x
97;;18,0;14,0
`

const powerCSV = `Punkte;10-11;12-13
km/h;km/h;km/h
100;80;95
99;75;90
`

func TestParse(t *testing.T) {
	Convey("Given an agility table", t, func() {
		table := scoremap.Parse(agilityCSV, scoremap.StandardFormat)

		Convey("Then the header columns become buckets in order", func() {
			So(table, ShouldNotBeNil)
			So(table.Labels(), ShouldResemble, []string{"10-11", "12-13", "14-15"})
		})

		Convey("Then thresholds keep row order with decimal commas normalized", func() {
			So(table.Thresholds("12-13"), ShouldResemble, []float64{12.0, 14.0, 16.0, 18.0})
		})

		Convey("Then malformed and empty cells are skipped individually", func() {
			So(table.Thresholds("10-11"), ShouldResemble, []float64{11.5, 12.5, 13.5})
			So(table.Thresholds("14-15"), ShouldResemble, []float64{11.0, 12.0, 14.0})
		})
	})

	Convey("Given a shot power table with a metadata row", t, func() {
		Convey("When parsed with the power format", func() {
			table := scoremap.Parse(powerCSV, scoremap.PowerFormat)

			Convey("Then the metadata row is not data", func() {
				So(table.Thresholds("10-11"), ShouldResemble, []float64{80, 75})
				So(table.Thresholds("12-13"), ShouldResemble, []float64{95, 90})
			})
		})

		Convey("When parsed with the standard format", func() {
			table := scoremap.Parse(powerCSV, scoremap.StandardFormat)

			Convey("Then the non-numeric metadata cells are skipped anyway", func() {
				So(table.Thresholds("10-11"), ShouldResemble, []float64{80, 75})
			})
		})
	})

	Convey("Given text without usable thresholds", t, func() {
		So(scoremap.Parse("", scoremap.StandardFormat), ShouldBeNil)
		So(scoremap.Parse("Punkte;10-11\n", scoremap.StandardFormat), ShouldBeNil)
		So(scoremap.Parse("Punkte;10-11\n100;abc\n", scoremap.StandardFormat), ShouldBeNil)
		So(scoremap.Parse("nur eine spalte\n1\n", scoremap.StandardFormat), ShouldBeNil)
	})

	Convey("Given Windows line endings", t, func() {
		table := scoremap.Parse("P;8-9\r\n100;10,5\r\n99;11\r\n", scoremap.StandardFormat)
		So(table.Thresholds("8-9"), ShouldResemble, []float64{10.5, 11})
	})

	Convey("Given a header that repeats a bucket label", t, func() {
		table := scoremap.Parse("P;12-13;12-13;14-15\n100;11;20;9\n99;12;21;10\n", scoremap.StandardFormat)

		Convey("Then the first column wins and the later one is ignored", func() {
			So(table.Labels(), ShouldResemble, []string{"12-13", "14-15"})
			So(table.Thresholds("12-13"), ShouldResemble, []float64{11, 12})
			So(table.Thresholds("14-15"), ShouldResemble, []float64{9, 10})
		})
	})

	Convey("Given a nil table", t, func() {
		var table *scoremap.Table
		So(table.Len(), ShouldEqual, 0)
		So(table.Labels(), ShouldBeNil)
		So(table.Thresholds("12-13"), ShouldBeNil)
	})
}

func TestKey(t *testing.T) {
	Convey("Given table keys", t, func() {
		So(scoremap.Key{Station: scoremap.S1, Gender: model.GenderFemale}.Name(), ShouldEqual, "s1_female")
		So(scoremap.Key{Station: scoremap.S4}.Name(), ShouldEqual, "s4")
		So(scoremap.Key{Station: scoremap.S4}.Format(), ShouldResemble, scoremap.PowerFormat)
		So(scoremap.Key{Station: scoremap.S6, Gender: model.GenderMale}.Format(), ShouldResemble, scoremap.StandardFormat)
	})
}

type fakeSource struct {
	data  map[string]string
	err   error
	calls int
}

func (f *fakeSource) Fetch(_ context.Context, key scoremap.Key) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	text, ok := f.data[key.Name()]
	if !ok {
		return nil, scoremap.ErrNoResource
	}
	return []byte(text), nil
}

func TestLoader(t *testing.T) {
	ctx := context.Background()

	Convey("Given a loader over a source with one table", t, func() {
		src := &fakeSource{data: map[string]string{"s1_female": agilityCSV}}
		loader := scoremap.NewLoader(src)

		Convey("When loading an existing table twice", func() {
			key := scoremap.Key{Station: scoremap.S1, Gender: model.GenderFemale}
			first := loader.Load(ctx, key)
			second := loader.Load(ctx, key)

			Convey("Then it is parsed once and cached", func() {
				So(first, ShouldNotBeNil)
				So(second, ShouldEqual, first)
				So(src.calls, ShouldEqual, 1)
			})
		})

		Convey("When loading an absent table", func() {
			Convey("Then the result is nil without error", func() {
				So(loader.Load(ctx, scoremap.Key{Station: scoremap.S6, Gender: model.GenderMale}), ShouldBeNil)
			})
		})
	})

	Convey("Given a failing source", t, func() {
		loader := scoremap.NewLoader(&fakeSource{err: errors.New("bucket offline")})

		Convey("Then loading degrades to no table", func() {
			So(loader.Load(ctx, scoremap.Key{Station: scoremap.S4}), ShouldBeNil)
		})
	})

	Convey("Given no source at all", t, func() {
		So(scoremap.NewLoader(nil).Load(ctx, scoremap.Key{Station: scoremap.S4}), ShouldBeNil)
	})
}
