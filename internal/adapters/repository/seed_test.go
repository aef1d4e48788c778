package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/kickscore/internal/domain/model"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()

	Convey("Given the sample seed file", t, func() {
		seed, err := LoadSeedFile(filepath.Join("testdata", "seed.yaml"))
		So(err, ShouldBeNil)
		So(len(seed.Projects), ShouldEqual, 1)

		Convey("When it is applied to a memory store", func() {
			st := NewMemoryStore()
			So(seed.Apply(ctx, st), ShouldBeNil)

			Convey("Then the project and roster are present", func() {
				p, err := st.Project(ctx, "cup")
				So(err, ShouldBeNil)
				So(p.Name, ShouldEqual, "Summer Cup")
				So(p.Date, ShouldNotBeNil)
				So(p.Date.Year(), ShouldEqual, 2024)

				stations, _ := st.Stations(ctx, "cup")
				So(len(stations), ShouldEqual, 2)
				So(stations[1].HigherIsBetter, ShouldBeTrue)
				So(stations[1].MaxValue, ShouldEqual, 10)

				players, _ := st.Players(ctx, "cup")
				So(len(players), ShouldEqual, 2)
				So(players[0].Gender, ShouldEqual, model.GenderFemale)
				So(*players[0].BirthYear, ShouldEqual, 2011)
				So(players[1].Gender, ShouldEqual, model.GenderMale)
			})

			Convey("Then measurements keep null values", func() {
				ms, _ := st.Measurements(ctx, "cup")
				So(len(ms), ShouldEqual, 2)
				So(*ms[0].Value, ShouldEqual, 7.5)
				So(ms[1].Value, ShouldBeNil)
			})
		})
	})

	Convey("Given broken seeds", t, func() {
		Convey("Then a missing file fails to load", func() {
			_, err := LoadSeedFile(filepath.Join(t.TempDir(), "nope.yaml"))
			So(err, ShouldNotBeNil)
		})

		Convey("Then a bad date is rejected", func() {
			path := filepath.Join(t.TempDir(), "seed.yaml")
			So(os.WriteFile(path, []byte("projects:\n  - id: x\n    date: June\n"), 0o600), ShouldBeNil)
			seed, err := LoadSeedFile(path)
			So(err, ShouldBeNil)
			So(errors.Is(seed.Apply(ctx, NewMemoryStore()), ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("Then a measurement for an unknown player is rejected", func() {
			seed := Seed{Projects: []SeedProject{{
				ID:           "x",
				Measurements: []SeedMeasurement{{ID: "m", PlayerID: "ghost", StationID: "s"}},
			}}}
			So(seed.Apply(ctx, NewMemoryStore()), ShouldNotBeNil)
		})
	})
}
