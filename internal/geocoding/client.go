// Package geocoding is the client for the location platform that turns
// Wikipedia URLs, location ids and keywords into location summaries.
package geocoding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/circuitbreaker"
	infraerrors "github.com/jonesrussell/north-cloud/geotagger/infrastructure/errors"
	infrahttp "github.com/jonesrussell/north-cloud/geotagger/infrastructure/http"
	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
)

var (
	ErrEmptyWikiURL    = errors.New("wikipedia url must be provided")
	ErrEmptyLocationID = errors.New("location id must be provided")
	ErrEmptyKeyword    = errors.New("keyword must be provided")

	// ErrNotFound is returned for 404 responses. It does not count against
	// the circuit breaker.
	ErrNotFound = errors.New("location not found")
)

// Endpoint names, used for cache keys and metrics.
const (
	EndpointWikipedia   = "wikipedia"
	EndpointLocationID  = "location_id"
	EndpointKeyword     = "keyword"
	EndpointKeywordBulk = "keyword_bulk"
)

const (
	defaultCacheTTL      = time.Hour
	cacheCleanupInterval = 10 * time.Minute
	collaboratorName     = "geocoding"
)

// Config configures the geocoding client.
type Config struct {
	BaseURL         string
	WikipediaPath   string
	LocationIDPath  string
	KeywordPath     string
	KeywordBulkPath string

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	CacheTTL       time.Duration

	// RequestsPerSecond throttles outbound calls. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int

	Breaker circuitbreaker.Config
}

// Observer receives one call per outbound request.
type Observer interface {
	ObserveCollaborator(collaborator, endpoint string, err error, elapsed time.Duration)
}

// Client calls the location platform. It is safe for concurrent use.
type Client struct {
	cfg      Config
	http     *http.Client
	cache    *cache.Cache
	breaker  *circuitbreaker.Breaker
	limiter  *rate.Limiter
	observer Observer
	log      logger.Logger
}

// NewClient creates a client. observer may be nil.
func NewClient(cfg Config, observer Observer, log logger.Logger) *Client {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		cfg: cfg,
		http: infrahttp.NewClient(&infrahttp.ClientConfig{
			ConnectTimeout: cfg.ConnectTimeout,
			Timeout:        cfg.ReadTimeout,
		}),
		cache:    cache.New(ttl, cacheCleanupInterval),
		breaker:  circuitbreaker.New(cfg.Breaker),
		limiter:  rate.NewLimiter(limit, burst),
		observer: observer,
		log:      log,
	}
}

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}

// ByWikiURL returns the locations a Wikipedia page refers to.
func (c *Client) ByWikiURL(ctx context.Context, wikiURL string) ([]Summary, error) {
	if wikiURL == "" {
		return nil, ErrEmptyWikiURL
	}

	q := url.Values{"url": {wikiURL}, "locale": {Locale}}
	var out []Summary
	if err := c.cached(ctx, EndpointWikipedia, wikiURL, &out, func(ctx context.Context) error {
		return c.get(ctx, c.cfg.WikipediaPath, q, &out)
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// ByID returns the summary of one location.
func (c *Client) ByID(ctx context.Context, id string) (Summary, error) {
	if id == "" {
		return Summary{}, ErrEmptyLocationID
	}

	q := url.Values{"id": {id}, "locale": {Locale}}
	var out Summary
	if err := c.cached(ctx, EndpointLocationID, id, &out, func(ctx context.Context) error {
		return c.get(ctx, c.cfg.LocationIDPath, q, &out)
	}); err != nil {
		return Summary{}, err
	}
	return out, nil
}

// ByKeyword returns the US locations exactly matching keyword.
func (c *Client) ByKeyword(ctx context.Context, keyword string) ([]Summary, error) {
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}

	q := url.Values{
		"keyword":     {keyword},
		"countryCode": {CountryCode},
		"method":      {ExactMatch},
		"locale":      {Locale},
	}
	var out []Summary
	if err := c.cached(ctx, EndpointKeyword, keyword, &out, func(ctx context.Context) error {
		return c.get(ctx, c.cfg.KeywordPath, q, &out)
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// ByKeywords looks up several keywords in one request. The result holds one
// summary list per response, in request order.
func (c *Client) ByKeywords(ctx context.Context, keywords []string) ([][]Summary, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	req := bulkRequest{Requests: make([]bulkRequestItem, 0, len(keywords))}
	for _, kw := range keywords {
		req.Requests = append(req.Requests, bulkRequestItem{
			Keyword:     kw,
			CountryCode: CountryCode,
			Method:      ExactMatch,
			Locale:      Locale,
			Limit:       BulkLimit,
		})
	}

	var resp bulkResponse
	if err := c.cached(ctx, EndpointKeywordBulk, strings.Join(keywords, "\x1f"), &resp, func(ctx context.Context) error {
		return c.post(ctx, c.cfg.KeywordBulkPath, req, &resp)
	}); err != nil {
		return nil, err
	}

	out := make([][]Summary, 0, len(resp.Responses))
	for _, r := range resp.Responses {
		out = append(out, r.Locations)
	}
	return out, nil
}

// cached serves dst from the cache or runs fetch through the limiter and
// circuit breaker, caching successful results.
func (c *Client) cached(ctx context.Context, endpoint, arg string, dst any, fetch func(context.Context) error) error {
	key := endpoint + "|" + arg
	if raw, ok := c.cache.Get(key); ok {
		if b, isBytes := raw.([]byte); isBytes && json.Unmarshal(b, dst) == nil {
			return nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("geocoding %s: wait for rate limiter: %w", endpoint, err)
	}

	start := time.Now()
	notFound := false
	err := c.breaker.Execute(ctx, func() error {
		fetchErr := fetch(ctx)
		if code, ok := infraerrors.GetHTTPStatusCode(fetchErr); ok && code == http.StatusNotFound {
			notFound = true
			return nil
		}
		return fetchErr
	})
	if notFound {
		err = ErrNotFound
	}
	if c.observer != nil {
		c.observer.ObserveCollaborator(collaboratorName, endpoint, err, time.Since(start))
	}
	if err != nil {
		c.log.Debug("Geocoding request failed",
			logger.String("endpoint", endpoint),
			logger.String("argument", arg),
			logger.Error(err),
		)
		return fmt.Errorf("geocoding %s: %w", endpoint, err)
	}

	if b, marshalErr := json.Marshal(dst); marshalErr == nil {
		c.cache.SetDefault(key, b)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path)+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, dst)
}

func (c *Client) post(ctx context.Context, path string, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	return c.do(req, dst)
}

func (c *Client) do(req *http.Request, dst any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if httpErr := infraerrors.ParseHTTPError(resp); httpErr != nil {
		return httpErr
	}

	if decodeErr := json.NewDecoder(resp.Body).Decode(dst); decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
