package racedata

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/startlist"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/resilience"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

var errRaceDataTransient = crerr.New("race data transient failure")

type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	MaxConns       int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the scraper service that publishes start lists and
// athlete profiles as JSON. Like the price feed client it makes one attempt
// per call.
type Client struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *logging.Logger
	breaker *resilience.CircuitBreaker
}

func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL, err := validateBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid RACEDATA_BASE_URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 8
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Client{
		client: &fasthttp.Client{
			Name:                "fantasy-skiing",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxConnsPerHost:     maxConns,
			MaxResponseBodySize: maxBodyBytes,
		},
		baseURL: baseURL,
		timeout: timeout,
		logger:  logger,
		breaker: resilience.NewCircuitBreaker(cfg.CircuitBreaker),
	}, nil
}

func (c *Client) GetStartlist(ctx context.Context, raceID string) ([]startlist.Row, error) {
	raceID = strings.TrimSpace(raceID)
	if raceID == "" {
		return nil, resilience.Permanent(crerr.New("race id is required"))
	}

	var items []startlistItem
	if err := c.getJSON(ctx, "/races/"+url.PathEscape(raceID)+"/startlist", &items); err != nil {
		return nil, err
	}

	out := make([]startlist.Row, 0, len(items))
	for _, item := range items {
		out = append(out, startlist.Row{
			Name:      strings.TrimSpace(item.Name),
			Nation:    strings.TrimSpace(item.Nation),
			Bib:       strings.TrimSpace(item.Bib.String()),
			TeamLabel: strings.TrimSpace(item.Team),
			ProfileID: strings.TrimSpace(item.ProfileID.String()),
		})
	}
	return out, nil
}

func (c *Client) GetProfile(ctx context.Context, profileID string) (startlist.Profile, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return startlist.Profile{}, resilience.Permanent(crerr.New("profile id is required"))
	}

	var item profileItem
	if err := c.getJSON(ctx, "/athletes/"+url.PathEscape(profileID), &item); err != nil {
		return startlist.Profile{}, err
	}

	profile := startlist.Profile{
		ID:   firstNonEmpty(item.ID.String(), profileID),
		Name: strings.TrimSpace(item.Name),
	}
	if birth, ok := parseBirthDate(item.BirthDate); ok {
		profile.BirthDate = birth
	} else if strings.TrimSpace(item.BirthDate) != "" {
		c.logger.WarnContext(ctx, "unparseable birth date in athlete profile", "profile_id", profileID, "birth_date", item.BirthDate)
	}
	return profile, nil
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	if err := ctx.Err(); err != nil {
		return resilience.Permanent(err)
	}
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "race data circuit breaker rejected request", "state", c.breaker.State())
		return resilience.Permanent(crerr.Wrap(err, "race data service is temporarily unavailable"))
	}

	fullURL := c.baseURL + path
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attribute.String("racedata.url", fullURL))
	}

	raw, err := c.do(ctx, fullURL)
	c.breaker.Record(isCircuitFailure(err))
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return resilience.Permanent(crerr.Wrapf(err, "decode %s", path))
	}
	return nil
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", errRaceDataTransient, fullURL, err)
	}

	status := resp.StatusCode()
	body := append([]byte(nil), resp.Body()...)
	if status/100 == 2 {
		return body, nil
	}
	if isRetryableStatus(status) {
		return nil, fmt.Errorf("%w: get %s status=%d", errRaceDataTransient, fullURL, status)
	}
	return nil, resilience.Permanent(crerr.Newf("get %s status=%d body=%s", fullURL, status, abbreviate(string(body), 256)))
}

func isCircuitFailure(err error) bool {
	return err != nil && stderrors.Is(err, errRaceDataTransient)
}

func isRetryableStatus(code int) bool {
	return code == fasthttp.StatusTooManyRequests || code >= fasthttp.StatusInternalServerError
}

func validateBaseURL(raw string) (string, error) {
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
	return strings.TrimRight(candidate, "/"), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func abbreviate(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
