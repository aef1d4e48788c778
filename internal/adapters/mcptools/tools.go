// Package mcptools exposes scoring as Model Context Protocol tools.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	service "github.com/okian/kickscore/internal/app"
	"github.com/okian/kickscore/internal/domain/model"
	"github.com/okian/kickscore/internal/domain/types"
	"github.com/okian/kickscore/pkg/logger"
)

const (
	serverName    = "kickscore"
	serverVersion = "1.0.0"
)

// Dependencies are the scoring operations the tools call.
type Dependencies interface {
	Performances(ctx context.Context, projectID string) (map[string]model.PerformanceEntry, error)
	Leaderboard(ctx context.Context, projectID string, view types.View, limit int) ([]types.Entry, error)
	PreviewScore(ctx context.Context, projectID string, req service.PreviewRequest) (service.Preview, error)
}

// ScorePreviewArgs are the arguments of score_preview.
type ScorePreviewArgs struct {
	ProjectID string   `json:"project_id" jsonschema:"Project id (required)"`
	StationID string   `json:"station_id" jsonschema:"Station id (required)"`
	Value     *float64 `json:"value" jsonschema:"Raw measured value (required)"`
	PlayerID  string   `json:"player_id,omitempty" jsonschema:"Take birth year and gender from this player"`
	BirthYear *int     `json:"birth_year,omitempty" jsonschema:"Birth year when no player is given"`
	Gender    string   `json:"gender,omitempty" jsonschema:"male or female when no player is given"`
}

// PerformancesArgs are the arguments of player_performances.
type PerformancesArgs struct {
	ProjectID string `json:"project_id" jsonschema:"Project id (required)"`
	PlayerID  string `json:"player_id,omitempty" jsonschema:"Only this player; empty means every player"`
}

// LeaderboardArgs are the arguments of leaderboard.
type LeaderboardArgs struct {
	ProjectID string `json:"project_id" jsonschema:"Project id (required)"`
	View      string `json:"view,omitempty" jsonschema:"average or sum (default average)"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum entries (default max)"`
}

type tools struct {
	deps     Dependencies
	maxLimit int
	logger   logger.Logger
}

// Option configures NewServer.
type Option func(*tools)

// WithMaxLimit caps the leaderboard limit.
func WithMaxLimit(n int) Option {
	return func(t *tools) {
		if n > 0 {
			t.maxLimit = n
		}
	}
}

// WithLogger sets the tool call logger.
func WithLogger(l logger.Logger) Option {
	return func(t *tools) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewServer builds an MCP server with every scoring tool registered.
func NewServer(deps Dependencies, opts ...Option) *mcp.Server {
	t := &tools{deps: deps, maxLimit: 100, logger: logger.Nop()}
	for _, opt := range opts {
		opt(t)
	}

	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "score_preview",
		Description: "Score one raw value at a station of a project without storing it",
	}, t.scorePreview)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "player_performances",
		Description: "Per-station scores and total score of the players of a project",
	}, t.performances)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "leaderboard",
		Description: "Players of a project ranked by average or summed station score",
	}, t.leaderboard)

	return server
}

// NewHandler serves server over streamable HTTP with JSON responses.
func NewHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func (t *tools) scorePreview(ctx context.Context, _ *mcp.CallToolRequest, args ScorePreviewArgs) (*mcp.CallToolResult, any, error) {
	if args.ProjectID == "" || args.StationID == "" || args.Value == nil {
		return toolError(fmt.Errorf("project_id, station_id and value are required")), nil, nil
	}
	preview, err := t.deps.PreviewScore(ctx, args.ProjectID, service.PreviewRequest{
		StationID: args.StationID,
		PlayerID:  args.PlayerID,
		BirthYear: args.BirthYear,
		Gender:    model.ParseGender(args.Gender),
		Value:     *args.Value,
	})
	if err != nil {
		return t.fail(ctx, "score_preview", err), nil, nil
	}
	return toolJSON(preview)
}

func (t *tools) performances(ctx context.Context, _ *mcp.CallToolRequest, args PerformancesArgs) (*mcp.CallToolResult, any, error) {
	if args.ProjectID == "" {
		return toolError(fmt.Errorf("project_id is required")), nil, nil
	}
	perfs, err := t.deps.Performances(ctx, args.ProjectID)
	if err != nil {
		return t.fail(ctx, "player_performances", err), nil, nil
	}
	if args.PlayerID != "" {
		p, ok := perfs[args.PlayerID]
		if !ok {
			return toolError(fmt.Errorf("%s: %w", args.PlayerID, service.ErrPlayerNotFound)), nil, nil
		}
		return toolJSON(p)
	}
	out := make([]model.PerformanceEntry, 0, len(perfs))
	for _, p := range perfs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return toolJSON(out)
}

func (t *tools) leaderboard(ctx context.Context, _ *mcp.CallToolRequest, args LeaderboardArgs) (*mcp.CallToolResult, any, error) {
	if args.ProjectID == "" {
		return toolError(fmt.Errorf("project_id is required")), nil, nil
	}
	limit := args.Limit
	if limit <= 0 || limit > t.maxLimit {
		limit = t.maxLimit
	}
	entries, err := t.deps.Leaderboard(ctx, args.ProjectID, types.View(args.View), limit)
	if err != nil {
		return t.fail(ctx, "leaderboard", err), nil, nil
	}
	if entries == nil {
		entries = []types.Entry{}
	}
	return toolJSON(entries)
}

func (t *tools) fail(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	t.logger.Debug(ctx, "tool call failed", logger.String("tool", tool), logger.Error(err))
	return toolError(err)
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)}},
	}
}
