package pricefeed

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/resilience"
)

const maxBodyBytes = 4 << 20

var errPriceFeedTransient = crerr.New("price feed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	URL            string
	Token          string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the fantasy-game pricing feed. It makes one attempt per call;
// retries belong to the caller. Errors that retrying cannot fix are marked
// resilience.Permanent.
type Client struct {
	httpClient *http.Client
	url        string
	token      string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
}

func NewClient(cfg ClientConfig) (*Client, error) {
	feedURL, err := validateHTTPURL(cfg.URL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid PRICE_FEED_URL")
	}

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
		httpClient.Timeout = 20 * time.Second
	}

	return &Client{
		httpClient: httpClient,
		url:        feedURL,
		token:      strings.TrimSpace(cfg.Token),
		logger:     logger,
		breaker:    resilience.NewCircuitBreaker(cfg.CircuitBreaker),
	}, nil
}

func (c *Client) ListPrices(ctx context.Context) ([]fantasy.PriceEntry, error) {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "price feed circuit breaker rejected request", "state", c.breaker.State())
		return nil, resilience.Permanent(crerr.Wrap(err, "price feed is temporarily unavailable"))
	}

	raw, err := c.get(ctx)
	c.breaker.Record(isCircuitFailure(err))
	if err != nil {
		return nil, err
	}

	var items []priceItem
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return nil, resilience.Permanent(crerr.Wrap(err, "decode price feed"))
	}

	out := make([]fantasy.PriceEntry, 0, len(items))
	skipped := 0
	for _, item := range items {
		entry, ok := item.toEntry()
		if !ok {
			skipped++
			continue
		}
		out = append(out, entry)
	}
	if skipped > 0 {
		c.logger.WarnContext(ctx, "price feed rows skipped", "skipped", skipped, "kept", len(out))
	}
	return out, nil
}

func (c *Client) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, resilience.Permanent(crerr.Wrap(err, "create price feed request"))
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", errPriceFeedTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errPriceFeedTransient, err)
	}
	if resp.StatusCode/100 == 2 {
		return raw, nil
	}

	body := abbreviate(string(raw), 256)
	if isRetryableStatus(resp.StatusCode) {
		return nil, fmt.Errorf("%w: status=%d body=%s", errPriceFeedTransient, resp.StatusCode, body)
	}
	return nil, resilience.Permanent(crerr.Newf("price feed status=%d body=%s", resp.StatusCode, body))
}

type priceItem struct {
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Gender string  `json:"gender"`
	Nation string  `json:"nation"`
	IsTeam bool    `json:"is_team"`
}

func (p priceItem) toEntry() (fantasy.PriceEntry, bool) {
	entry := fantasy.PriceEntry{
		Name:   strings.TrimSpace(p.Name),
		Price:  p.Price,
		Nation: strings.TrimSpace(p.Nation),
		IsTeam: p.IsTeam,
	}
	if g, ok := athlete.ParseGender(p.Gender); ok {
		entry.Gender = g
	}
	if entry.Validate() != nil {
		return fantasy.PriceEntry{}, false
	}
	return entry, true
}

func isCircuitFailure(err error) bool {
	return err != nil && stderrors.Is(err, errPriceFeedTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func validateHTTPURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}
	return candidate, nil
}

func abbreviate(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
