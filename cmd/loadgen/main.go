package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/kickscore/internal/loadgen"
	"github.com/okian/kickscore/pkg/logger"
)

const (
	defaultMeasurements = 10000
	defaultTopN         = 50
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultRunTimeout   = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		projectID    = flag.String("project", "", "Project to load (required)")
		measurements = flag.Int("measurements", defaultMeasurements, "Number of measurements to submit")
		retakes      = flag.Float64("retakes", 0.05, "Share of replayed measurement ids")
		topN         = flag.Int("top", defaultTopN, "Leaderboard entries to fetch and verify")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent submitters")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		maxValue     = flag.Float64("max-value", 100, "Upper bound of generated raw values")
		seed         = flag.Uint64("seed", 0, "Random seed, 0 for a random one")
		format       = flag.String("log-format", "text", "Log format: text or json")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(2)
	}
	log := logger.Named("loadgen")

	if *projectID == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	stats, err := loadgen.Run(ctx, loadgen.Config{
		BaseURL:      *baseURL,
		ProjectID:    *projectID,
		Measurements: *measurements,
		Retakes:      *retakes,
		TopN:         *topN,
		Workers:      *workers,
		Timeout:      *timeout,
		MaxValue:     *maxValue,
		Seed:         *seed,
	}, log)

	fields := []logger.Field{
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("leaderboard", stats.Leaderboard),
		logger.Duration("took", stats.Duration),
	}
	if err != nil {
		log.Fatal(ctx, "load run failed", append(fields, logger.Error(err))...)
	}
	log.Info(ctx, "load run passed", fields...)
}
