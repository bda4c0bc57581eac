package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricewatch/search-service/internal/database"
)

// StaleSweeper periodically fails scrape jobs that have sat pending or
// running past MaxAge, so a crashed worker or a source adapter that never
// returns doesn't pin the query's at-most-one-active-job slot forever.
type StaleSweeper struct {
	logger   *zerolog.Logger
	interval time.Duration
	maxAge   time.Duration
	stopChan chan struct{}
}

// NewStaleSweeper creates a sweeper that checks every interval for jobs
// older than maxAge.
func NewStaleSweeper(logger *zerolog.Logger, interval, maxAge time.Duration) *StaleSweeper {
	return &StaleSweeper{
		logger:   logger,
		interval: interval,
		maxAge:   maxAge,
		stopChan: make(chan struct{}),
	}
}

// Start runs the sweep loop until ctx is cancelled or Stop is called.
func (s *StaleSweeper) Start(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Dur("max_age", s.maxAge).Msg("starting scrape job sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scrape job sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("scrape job sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("failed to sweep stale scrape jobs")
			}
		}
	}
}

// Stop signals the sweep loop to exit.
func (s *StaleSweeper) Stop() {
	close(s.stopChan)
}

func (s *StaleSweeper) sweep(ctx context.Context) error {
	swept, err := database.SweepStale(ctx, int(s.maxAge.Seconds()))
	if err != nil {
		return err
	}
	if swept > 0 {
		s.logger.Warn().Int64("swept", swept).Msg("swept stale scrape jobs")
	}
	return nil
}
