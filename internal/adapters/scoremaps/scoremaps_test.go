package scoremaps_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/kickscore/internal/adapters/scoremaps"
	"github.com/okian/kickscore/internal/domain/model"
	"github.com/okian/kickscore/internal/domain/scoremap"
)

const (
	agilityCSV = "Punkte;12-13\n100;11,2\n99;11,5\n"
	tableCap   = 1 << 20
)

var (
	femaleAgility = scoremap.Key{Station: scoremap.S1, Gender: model.GenderFemale}
	maleAgility   = scoremap.Key{Station: scoremap.S1, Gender: model.GenderMale}
	shotPower     = scoremap.Key{Station: scoremap.S4}
	femaleSpeed   = scoremap.Key{Station: scoremap.S6, Gender: model.GenderFemale}
	maleSpeed     = scoremap.Key{Station: scoremap.S6, Gender: model.GenderMale}
)

func TestDirSource(t *testing.T) {
	ctx := context.Background()

	Convey("Given a directory with one table", t, func() {
		dir := t.TempDir()
		So(os.WriteFile(filepath.Join(dir, "s1_female.csv"), []byte(agilityCSV), 0o600), ShouldBeNil)
		src := scoremaps.NewDirSource(dir)

		Convey("Then the table is read by key name", func() {
			raw, err := src.Fetch(ctx, femaleAgility)
			So(err, ShouldBeNil)
			So(string(raw), ShouldEqual, agilityCSV)
		})

		Convey("Then a missing file is absent", func() {
			_, err := src.Fetch(ctx, maleAgility)
			So(errors.Is(err, scoremap.ErrNoResource), ShouldBeTrue)
		})

		Convey("Then an unreadable path is an error", func() {
			So(os.Mkdir(filepath.Join(dir, "s4.csv"), 0o700), ShouldBeNil)
			_, err := src.Fetch(ctx, shotPower)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, scoremap.ErrNoResource), ShouldBeFalse)
		})
	})
}

func TestHTTPSource(t *testing.T) {
	ctx := context.Background()

	Convey("Given a server hosting score tables", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/maps/s1_female.csv":
				_, _ = w.Write([]byte(agilityCSV))
			case "/maps/s4.csv":
				w.WriteHeader(http.StatusInternalServerError)
			case "/maps/s6_female.csv":
				_, _ = w.Write([]byte(agilityCSV + strings.Repeat("99;12\n", tableCap/6)))
			case "/maps/s6_male.csv":
				_, _ = w.Write([]byte(strings.Repeat("x", tableCap)))
			default:
				http.NotFound(w, r)
			}
		}))
		Reset(srv.Close)
		src := scoremaps.NewHTTPSource(srv.URL+"/maps/", scoremaps.WithHTTPClient(srv.Client()))

		Convey("Then a hosted table is returned", func() {
			raw, err := src.Fetch(ctx, femaleAgility)
			So(err, ShouldBeNil)
			So(string(raw), ShouldEqual, agilityCSV)
		})

		Convey("Then a 404 is absent", func() {
			_, err := src.Fetch(ctx, maleAgility)
			So(errors.Is(err, scoremap.ErrNoResource), ShouldBeTrue)
		})

		Convey("Then other statuses are errors", func() {
			_, err := src.Fetch(ctx, shotPower)
			So(errors.Is(err, scoremaps.ErrUnexpectedStatus), ShouldBeTrue)
		})

		Convey("When a hosted table is larger than the cap", func() {
			raw, err := src.Fetch(ctx, femaleSpeed)

			Convey("Then it is rejected instead of truncated", func() {
				So(errors.Is(err, scoremaps.ErrTableTooLarge), ShouldBeTrue)
				So(raw, ShouldBeNil)
			})

			Convey("Then the loader degrades to no table", func() {
				So(scoremap.NewLoader(src).Load(ctx, femaleSpeed), ShouldBeNil)
			})
		})

		Convey("Then a table of exactly the cap is accepted", func() {
			raw, err := src.Fetch(ctx, maleSpeed)
			So(err, ShouldBeNil)
			So(len(raw), ShouldEqual, tableCap)
		})
	})
}

type fakeKV struct {
	mu     sync.Mutex
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.data[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

type countingSource struct {
	tables map[string]string
	err    error
	calls  int
}

func (c *countingSource) Fetch(_ context.Context, key scoremap.Key) ([]byte, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	raw, ok := c.tables[key.Name()]
	if !ok {
		return nil, scoremap.ErrNoResource
	}
	return []byte(raw), nil
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given a cache in front of a source", t, func() {
		kv := newFakeKV()
		src := &countingSource{tables: map[string]string{"s1_female": agilityCSV}}
		cache := scoremaps.NewRedisCache(kv, src, scoremaps.WithTTL(time.Minute))

		Convey("When a table is fetched twice", func() {
			first, err1 := cache.Fetch(ctx, femaleAgility)
			second, err2 := cache.Fetch(ctx, femaleAgility)

			Convey("Then the source is hit once and the ttl applied", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(string(second), ShouldEqual, string(first))
				So(src.calls, ShouldEqual, 1)
				So(kv.ttls["kickscore:scoremap:s1_female"], ShouldEqual, time.Minute)
			})
		})

		Convey("When an absent table is fetched twice", func() {
			_, err1 := cache.Fetch(ctx, maleAgility)
			_, err2 := cache.Fetch(ctx, maleAgility)

			Convey("Then absence is remembered", func() {
				So(errors.Is(err1, scoremap.ErrNoResource), ShouldBeTrue)
				So(errors.Is(err2, scoremap.ErrNoResource), ShouldBeTrue)
				So(src.calls, ShouldEqual, 1)
			})
		})

		Convey("When Redis is down", func() {
			kv.getErr = errors.New("connection refused")
			kv.setErr = errors.New("connection refused")
			raw, err := cache.Fetch(ctx, femaleAgility)

			Convey("Then the source is used directly", func() {
				So(err, ShouldBeNil)
				So(string(raw), ShouldEqual, agilityCSV)
			})
		})

		Convey("When the source fails", func() {
			src.err = errors.New("disk on fire")
			_, err := cache.Fetch(ctx, femaleAgility)

			Convey("Then the failure is passed on and not cached", func() {
				So(err, ShouldNotBeNil)
				So(kv.data, ShouldBeEmpty)
			})
		})
	})
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	Convey("Given a chain of sources", t, func() {
		empty := &countingSource{}
		broken := &countingSource{err: errors.New("timeout")}
		full := &countingSource{tables: map[string]string{"s1_female": agilityCSV}}

		Convey("Then the first source with the table wins", func() {
			raw, err := scoremaps.Chain{empty, broken, full}.Fetch(ctx, femaleAgility)
			So(err, ShouldBeNil)
			So(string(raw), ShouldEqual, agilityCSV)
		})

		Convey("Then absence everywhere is absent", func() {
			_, err := scoremaps.Chain{empty, full, nil}.Fetch(ctx, maleAgility)
			So(errors.Is(err, scoremap.ErrNoResource), ShouldBeTrue)
		})

		Convey("Then a failure is reported when nobody has the table", func() {
			_, err := scoremaps.Chain{empty, broken}.Fetch(ctx, maleAgility)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, scoremap.ErrNoResource), ShouldBeFalse)
		})

		Convey("Then an empty chain is absent", func() {
			_, err := scoremaps.Chain{}.Fetch(ctx, shotPower)
			So(errors.Is(err, scoremap.ErrNoResource), ShouldBeTrue)
		})
	})
}
