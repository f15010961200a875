package nflverse

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/nfl-analytics/internal/domain/dataset"
	"github.com/riskibarqy/nfl-analytics/internal/platform/cache"
	"github.com/riskibarqy/nfl-analytics/internal/platform/logging"
	"github.com/riskibarqy/nfl-analytics/internal/platform/resilience"
	"github.com/riskibarqy/nfl-analytics/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://github.com/nflverse/nflverse-data/releases/download"
	maxAssetBytes  = 512 << 20
)

var errNFLVerseTransient = crerr.New("nflverse transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	RatePerSecond  float64
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	Catalog        Catalog
	Cache          *cache.Store
}

// Client downloads nflverse release assets and decodes them into batches.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	retryBackoff   time.Duration
	limiter        *rate.Limiter
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	catalog        Catalog
	assets         *cache.Store
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	catalog := cfg.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	assets := cfg.Cache
	if assets == nil {
		assets = cache.NewStore(0)
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	breaker := resilience.NewCircuitBreaker(breakerCfg, resilience.WithStateListener(func(from, to resilience.CircuitState) {
		logger.Warn("nflverse circuit breaker state changed", "from", from, "to", to)
	}))

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		retryBackoff:   backoff,
		limiter:        rate.NewLimiter(limit, 1),
		logger:         logger,
		breaker:        breaker,
		circuitEnabled: breakerCfg.Enabled,
		catalog:        catalog,
		assets:         assets,
	}
}

// Fetch downloads and decodes one dataset. Assets spanning every season are
// filtered down to the requested season.
func (c *Client) Fetch(ctx context.Context, name dataset.Name, season int) (dataset.Batch, error) {
	asset, ok := c.catalog[name]
	if !ok {
		return dataset.Batch{}, fmt.Errorf("dataset %s is not in the nflverse catalog", name)
	}
	if asset.seasonal() && season <= 0 {
		return dataset.Batch{}, fmt.Errorf("%w: dataset %s requires a season", usecase.ErrInvalidInput, name)
	}

	assetURL := c.baseURL + "/" + strings.TrimLeft(asset.Resolve(season), "/")
	batch, err := c.loadAsset(ctx, assetURL, asset.Format)
	if err != nil {
		return dataset.Batch{}, fmt.Errorf("fetch %s season=%d: %w", name, season, err)
	}

	if asset.SeasonColumn != "" && season > 0 {
		batch = batch.Filter(func(row dataset.Row) bool {
			return seasonMatches(row[asset.SeasonColumn], season)
		})
	}

	c.logger.DebugContext(ctx, "nflverse dataset fetched",
		"dataset", name,
		"season", season,
		"rows", batch.Len(),
	)
	return batch, nil
}

func (c *Client) loadAsset(ctx context.Context, assetURL string, format Format) (dataset.Batch, error) {
	out, err := c.assets.GetOrLoad(ctx, assetURL, func(ctx context.Context) (any, error) {
		raw, err := c.download(ctx, assetURL)
		if err != nil {
			return nil, err
		}
		batch, err := decode(raw, format)
		if err != nil {
			return nil, crerr.Wrapf(err, "decode %s", assetURL)
		}
		return batch, nil
	})
	if err != nil {
		return dataset.Batch{}, err
	}

	batch, ok := out.(dataset.Batch)
	if !ok {
		return dataset.Batch{}, fmt.Errorf("unexpected cached asset type %T", out)
	}
	return batch, nil
}

func (c *Client) download(ctx context.Context, assetURL string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "nflverse circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: nflverse is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	raw, err := c.executeRequest(ctx, assetURL)
	if c.circuitEnabled {
		if isNFLVerseCircuitFailure(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return raw, err
}

func (c *Client) executeRequest(ctx context.Context, assetURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errNFLVerseTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errNFLVerseTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("asset %s not found in release", assetURL)
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errNFLVerseTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * c.retryBackoff
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "nflverse request failed", "url", assetURL, "error", lastErr)
	return nil, lastErr
}

func seasonMatches(value any, season int) bool {
	switch v := value.(type) {
	case int64:
		return v == int64(season)
	case float64:
		return v == float64(season)
	case string:
		return strings.TrimSpace(v) == fmt.Sprint(season)
	default:
		return false
	}
}

func isNFLVerseCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errNFLVerseTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
