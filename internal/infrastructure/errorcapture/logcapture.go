// Package errorcapture records non-fatal anomalies in the log and in metrics.
package errorcapture

import (
	"context"
	"errors"
	"sort"

	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/shared/logger"
)

// KindCounter counts captured anomalies by kind.
type KindCounter interface {
	IncCapturedError(kind string)
}

// LogCapture implements referral.ErrorReporter.
type LogCapture struct {
	logger  logger.Interface
	counter KindCounter
}

// NewLogCapture creates a LogCapture. counter may be nil.
func NewLogCapture(log logger.Interface, counter KindCounter) *LogCapture {
	return &LogCapture{
		logger:  log,
		counter: counter,
	}
}

var _ referral.ErrorReporter = (*LogCapture)(nil)

// CaptureException logs err with extra as structured fields.
func (c *LogCapture) CaptureException(_ context.Context, err error, extra map[string]any) {
	kind := Kind(err)

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]any, 0, 4+2*len(keys))
	fields = append(fields, "kind", kind, "error", err)
	for _, k := range keys {
		fields = append(fields, k, extra[k])
	}
	c.logger.Errorw("captured exception", fields...)

	if c.counter != nil {
		c.counter.IncCapturedError(kind)
	}
}

// Kind classifies err for metrics labels.
func Kind(err error) string {
	switch {
	case errors.Is(err, referral.ErrGroupNotFound):
		return "group_not_found"
	case errors.Is(err, referral.ErrPersistencePartialFailure):
		return "persistence_partial_failure"
	default:
		return "other"
	}
}
