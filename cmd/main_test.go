package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/kickscore/internal/adapters/http/api"
	"github.com/okian/kickscore/internal/adapters/live"
	"github.com/okian/kickscore/internal/adapters/scoremaps"
	app "github.com/okian/kickscore/internal/app"
	"github.com/okian/kickscore/internal/config"
	"github.com/okian/kickscore/pkg/logger"
)

func TestOpenStore(t *testing.T) {
	convey.Convey("Given the memory store config", t, func() {
		ctx := context.Background()
		cfg := config.New()

		convey.Convey("Then an empty store opens", func() {
			st, err := openStore(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			_, err = st.Project(ctx, "cup")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("Then a seed file is applied", func() {
			cfg.SeedFile = filepath.Join("..", "internal", "adapters", "repository", "testdata", "seed.yaml")
			st, err := openStore(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			p, err := st.Project(ctx, "cup")
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.Name, convey.ShouldEqual, "Summer Cup")
		})

		convey.Convey("Then a missing seed file fails", func() {
			cfg.SeedFile = filepath.Join(t.TempDir(), "missing.yaml")
			_, err := openStore(ctx, cfg)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestScoreMapSources(t *testing.T) {
	convey.Convey("Given score map settings", t, func() {
		ctx := context.Background()
		cfg := config.New()
		log := logger.Nop()

		convey.Convey("Then no locations means no source", func() {
			cfg.ScoreMapsDir = ""
			src, closeFn, err := scoreMapSources(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)
			convey.So(src, convey.ShouldBeNil)
			closeFn()
		})

		convey.Convey("Then directory and URL are chained", func() {
			cfg.ScoreMapsURL = "http://maps.invalid"
			src, closeFn, err := scoreMapSources(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)
			chain, ok := src.(scoremaps.Chain)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(len(chain), convey.ShouldEqual, 2)
			closeFn()
		})

		convey.Convey("Then a bad redis url fails", func() {
			cfg.RedisURL = "not-a-url"
			_, _, err := scoreMapSources(ctx, cfg, log)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestServerOptions(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		ctx := context.Background()
		cfg := config.New()
		svc := app.New(app.WithSystemMetricsInterval(0))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop(ctx)

		convey.Convey("When live and tools are enabled", func() {
			hub := live.NewHub()
			h := api.NewServer(svc, serverOptions(cfg, svc, hub, logger.Nop())...).Router()

			convey.Convey("Then health answers and the tool endpoint is mounted", func() {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

				w = httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/mcp", http.NoBody))
				convey.So(w.Code, convey.ShouldNotEqual, http.StatusNotFound)
			})
		})

		convey.Convey("When tools are disabled", func() {
			cfg.MCPEnabled = false
			h := api.NewServer(svc, serverOptions(cfg, svc, nil, logger.Nop())...).Router()

			convey.Convey("Then /mcp is not routed", func() {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/mcp", http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
			})
		})
	})
}
