package service

import (
	"time"

	"github.com/okian/kickscore/internal/adapters/repository"
	"github.com/okian/kickscore/internal/domain/scoremap"
	"github.com/okian/kickscore/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the data store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithScoreMaps sets where score tables are read from. Without one every
// station uses its formula.
func WithScoreMaps(src scoremap.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithPublisher sets the receiver of refreshed leaderboards.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithWorkerCount sets the number of refresh workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending refreshes.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many measurement ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the clock used for event years and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSystemMetricsInterval sets how often runtime gauges are sampled.
// Zero disables sampling.
func WithSystemMetricsInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.systemMetricsInterval = d
		}
	}
}
