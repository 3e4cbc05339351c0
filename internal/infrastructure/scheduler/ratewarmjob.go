package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/orris-inc/referrals/internal/domain/currency"
	"github.com/orris-inc/referrals/internal/shared/logger"
)

// RateRefresher forces a rate refresh for one base.
type RateRefresher interface {
	Refresh(ctx context.Context, base string) (*currency.Snapshot, error)
}

// RateWarmJob keeps the rate cache of each base warm.
type RateWarmJob struct {
	cache  RateRefresher
	bases  []string
	logger logger.Interface
}

// NewRateWarmJob creates a new RateWarmJob
func NewRateWarmJob(cache RateRefresher, bases []string, logger logger.Interface) *RateWarmJob {
	normalized := make([]string, 0, len(bases))
	for _, b := range bases {
		if b = strings.ToUpper(strings.TrimSpace(b)); b != "" {
			normalized = append(normalized, b)
		}
	}
	return &RateWarmJob{
		cache:  cache,
		bases:  normalized,
		logger: logger,
	}
}

// Run refreshes every base and returns how many succeeded. A failing base
// does not stop the others.
func (j *RateWarmJob) Run(ctx context.Context) int {
	refreshed := 0
	for _, base := range j.bases {
		startTime := time.Now()
		if _, err := j.cache.Refresh(ctx, base); err != nil {
			j.logger.Warnw("failed to warm rates",
				"base", base,
				"error", err,
				"duration", time.Since(startTime),
			)
			continue
		}
		refreshed++
		j.logger.Debugw("rates warmed", "base", base, "duration", time.Since(startTime))
	}
	return refreshed
}
