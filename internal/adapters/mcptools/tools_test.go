package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/kickscore/internal/app"
	"github.com/okian/kickscore/internal/domain/model"
	"github.com/okian/kickscore/internal/domain/types"
	"github.com/okian/kickscore/pkg/logger"
)

var errUnknownProject = errors.New("unknown project")

type fakeDeps struct {
	lastLimit   int
	lastView    types.View
	lastPreview service.PreviewRequest
}

func (f *fakeDeps) Performances(_ context.Context, projectID string) (map[string]model.PerformanceEntry, error) {
	if projectID != "cup" {
		return nil, errUnknownProject
	}
	total := 76
	return map[string]model.PerformanceEntry{
		"b": {PlayerID: "b"},
		"a": {PlayerID: "a", TotalScore: &total},
	}, nil
}

func (f *fakeDeps) Leaderboard(_ context.Context, projectID string, view types.View, limit int) ([]types.Entry, error) {
	if projectID != "cup" {
		return nil, errUnknownProject
	}
	f.lastView, f.lastLimit = view, limit
	return nil, nil
}

func (f *fakeDeps) PreviewScore(_ context.Context, _ string, req service.PreviewRequest) (service.Preview, error) {
	f.lastPreview = req
	return service.Preview{StationID: req.StationID, Raw: req.Value, Score: 88, Method: "formula"}, nil
}

func text(res *mcp.CallToolResult) string {
	if res == nil || len(res.Content) == 0 {
		return ""
	}
	if tc, ok := res.Content[0].(*mcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

func TestTools(t *testing.T) {
	Convey("Given the scoring tools", t, func() {
		deps := &fakeDeps{}
		tl := &tools{deps: deps, maxLimit: 20, logger: logger.Nop()}
		WithLogger(nil)(tl)
		ctx := context.Background()

		Convey("Then the server and handler build", func() {
			So(NewServer(deps, WithMaxLimit(5)), ShouldNotBeNil)
			So(NewHandler(NewServer(deps)), ShouldNotBeNil)
		})

		Convey("When previewing a score", func() {
			v := 7.25
			res, _, err := tl.scorePreview(ctx, nil, ScorePreviewArgs{ProjectID: "cup", StationID: "s2", Value: &v, Gender: "m"})
			So(err, ShouldBeNil)
			So(res.IsError, ShouldBeFalse)

			var p service.Preview
			So(json.Unmarshal([]byte(text(res)), &p), ShouldBeNil)
			So(p.Score, ShouldEqual, 88)
			So(deps.lastPreview.Gender, ShouldEqual, model.GenderMale)

			Convey("Then a missing value is a tool error", func() {
				res, _, err := tl.scorePreview(ctx, nil, ScorePreviewArgs{ProjectID: "cup", StationID: "s2"})
				So(err, ShouldBeNil)
				So(res.IsError, ShouldBeTrue)
			})
		})

		Convey("When listing performances", func() {
			res, _, _ := tl.performances(ctx, nil, PerformancesArgs{ProjectID: "cup"})
			var out []model.PerformanceEntry
			So(json.Unmarshal([]byte(text(res)), &out), ShouldBeNil)
			So(len(out), ShouldEqual, 2)
			So(out[0].PlayerID, ShouldEqual, "a")

			Convey("Then one player can be selected", func() {
				res, _, _ := tl.performances(ctx, nil, PerformancesArgs{ProjectID: "cup", PlayerID: "a"})
				So(text(res), ShouldContainSubstring, `"total_score": 76`)

				res, _, _ = tl.performances(ctx, nil, PerformancesArgs{ProjectID: "cup", PlayerID: "zz"})
				So(res.IsError, ShouldBeTrue)
			})

			Convey("Then service errors become tool errors", func() {
				res, _, err := tl.performances(ctx, nil, PerformancesArgs{ProjectID: "nope"})
				So(err, ShouldBeNil)
				So(res.IsError, ShouldBeTrue)
				So(text(res), ShouldContainSubstring, "unknown project")
			})
		})

		Convey("When ranking players", func() {
			res, _, _ := tl.leaderboard(ctx, nil, LeaderboardArgs{ProjectID: "cup", View: "sum", Limit: 500})
			So(res.IsError, ShouldBeFalse)
			So(text(res), ShouldEqual, "[]")
			So(deps.lastLimit, ShouldEqual, 20)
			So(deps.lastView, ShouldEqual, types.ViewSum)

			res, _, _ = tl.leaderboard(ctx, nil, LeaderboardArgs{})
			So(res.IsError, ShouldBeTrue)
		})
	})
}
