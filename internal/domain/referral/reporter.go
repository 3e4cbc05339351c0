package referral

import "context"

// ErrorReporter captures non-fatal anomalies with their context.
type ErrorReporter interface {
	CaptureException(ctx context.Context, err error, extra map[string]any)
}
