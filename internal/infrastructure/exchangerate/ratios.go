package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/orris-inc/referrals/internal/domain/currency"
	"github.com/orris-inc/referrals/internal/shared/biztime"
	"github.com/orris-inc/referrals/internal/shared/logger"
)

const (
	// Maximum response body size for the ratios API (1MB)
	maxRatiosResponseSize = 1 << 20
	// Used when no timeout is configured
	defaultRequestTimeout = 10 * time.Second
)

// RatiosConfig configures the HTTP ratios provider.
type RatiosConfig struct {
	URL            string
	AccessToken    string
	RequestTimeout time.Duration
	// KnownKeys are symbols every response is expected to carry.
	KnownKeys []string
}

// ratiosResponse is the body of GET /v1/relative/{base}.
// Payload values are either decimal strings or JSON numbers.
type ratiosResponse struct {
	LastUpdated string                     `json:"lastUpdated"`
	Payload     map[string]json.RawMessage `json:"payload"`
}

// RatiosProvider fetches rate snapshots from the ratios HTTP service.
type RatiosProvider struct {
	cfg        RatiosConfig
	httpClient *http.Client
	logger     logger.Interface
	now        func() time.Time
}

// NewRatiosProvider creates a new RatiosProvider.
func NewRatiosProvider(cfg RatiosConfig, log logger.Interface) *RatiosProvider {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &RatiosProvider{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log,
		now:    biztime.NowUTC,
	}
}

var _ currency.RateProvider = (*RatiosProvider)(nil)

// FetchRates returns every rate relative to base. The snapshot is stamped with
// the local fetch time.
func (p *RatiosProvider) FetchRates(ctx context.Context, base string) (*currency.Snapshot, error) {
	base = strings.ToUpper(base)
	endpoint := strings.TrimRight(p.cfg.URL, "/") + "/v1/relative/" + url.PathEscape(base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.cfg.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.AccessToken)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var data ratiosResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRatiosResponseSize)).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(data.Payload) == 0 {
		return nil, fmt.Errorf("empty rate payload for %s", base)
	}

	rates := make(map[string]string, len(data.Payload)+1)
	for symbol, raw := range data.Payload {
		value, err := decodeRate(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", symbol, err)
		}
		rates[strings.ToUpper(symbol)] = value
	}
	if _, ok := rates[base]; !ok {
		rates[base] = "1"
	}

	snapshot, err := currency.NewSnapshot(base, rates, p.now())
	if err != nil {
		return nil, err
	}

	if missing := snapshot.Missing(p.cfg.KnownKeys); len(missing) > 0 {
		p.logger.Warnw("rate provider response is missing known keys",
			"base", base,
			"missing", missing,
			"provider_last_updated", data.LastUpdated,
		)
	}

	return snapshot, nil
}

// decodeRate accepts a JSON string or number and returns its literal text.
func decodeRate(raw json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var number json.Number
	if err := json.Unmarshal(raw, &number); err != nil {
		return "", err
	}
	return number.String(), nil
}
