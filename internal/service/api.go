// Package service holds the remote API client and the Tricket facade that
// the HTTP handlers query.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/iliyamo/tricket/internal/cache"
	"github.com/iliyamo/tricket/internal/model"
	"github.com/iliyamo/tricket/internal/queue"
	"github.com/iliyamo/tricket/internal/schedule"
)

// ProductionsCacheKey is the cache key of the parsed production list.
const ProductionsCacheKey = "productions"

// DefaultTimeout bounds a single remote fetch.
const DefaultTimeout = 10 * time.Second

// DefaultPublishTimeout bounds how long a request waits on the broker.
const DefaultPublishTimeout = 2 * time.Second

const productionsEndpoint = "productions/with-screening"

// ErrMalformedResponse is returned when the body cannot be decoded or lacks
// the top-level productions list.
var ErrMalformedResponse = errors.New("malformed api response")

// APIError describes a failed request: either a transport error (Err set)
// or a non-2xx status.
type APIError struct {
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api request failed: %v", e.Err)
	}
	return fmt.Sprintf("api request failed: status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// Publisher receives sync events. Publishing is best effort; errors are
// ignored by the client.
type Publisher interface {
	PublishProductionsSynced(ctx context.Context, ev queue.ProductionsSyncedEvent) error
	PublishCacheCleared(ctx context.Context, ev queue.CacheClearedEvent) error
}

// APIClient fetches productions from the Tricket API and keeps the parsed
// list in the cache.
type APIClient struct {
	baseURL   string
	apiKey    string
	cache     *cache.Cache
	http      *http.Client
	publisher Publisher
	publishTO time.Duration
	clock     schedule.Clock
}

// APIOption customizes an APIClient.
type APIOption func(*APIClient)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) APIOption {
	return func(c *APIClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithPublisher sets where sync events go.
func WithPublisher(p Publisher) APIOption {
	return func(c *APIClient) { c.publisher = p }
}

// WithPublishTimeout replaces DefaultPublishTimeout.
func WithPublishTimeout(d time.Duration) APIOption {
	return func(c *APIClient) {
		if d > 0 {
			c.publishTO = d
		}
	}
}

// WithAPIClock sets the clock used to stamp sync events.
func WithAPIClock(clock schedule.Clock) APIOption {
	return func(c *APIClient) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewAPIClient builds a client for baseURL authenticated with apiKey.
func NewAPIClient(baseURL, apiKey string, c *cache.Cache, opts ...APIOption) *APIClient {
	client := &APIClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		cache:     c,
		http:      &http.Client{Timeout: DefaultTimeout},
		publishTO: DefaultPublishTimeout,
		clock:     schedule.SystemClock{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Cache returns the cache the client reads through.
func (c *APIClient) Cache() *cache.Cache { return c.cache }

// Publisher returns the configured event publisher, possibly nil.
func (c *APIClient) Publisher() Publisher { return c.publisher }

func (c *APIClient) endpoint(path string) string {
	return strings.TrimRight(c.baseURL, "/") + "/" + path
}

// GetProductions returns the cached production list, fetching it on a miss.
// Any failure yields an empty list and leaves the cache untouched.
func (c *APIClient) GetProductions(ctx context.Context) []model.Production {
	var cached []model.Production
	if c.cache.Get(ctx, ProductionsCacheKey, &cached) {
		if cached == nil {
			cached = []model.Production{}
		}
		return cached
	}

	productions, err := c.FetchProductions(ctx)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			log.Printf("api: error creating %s: %v", verr.Entity, err)
		} else {
			log.Printf("api: fetch productions failed: %v", err)
		}
		return []model.Production{}
	}

	c.cache.Set(ctx, ProductionsCacheKey, productions)
	if c.publisher != nil {
		screenings := 0
		for _, p := range productions {
			screenings += len(p.Screenings)
		}
		ev := queue.NewProductionsSynced(len(productions), screenings, c.clock.Now())
		pctx, cancel := c.publishContext(ctx)
		_ = c.publisher.PublishProductionsSynced(pctx, ev)
		cancel()
	}
	return productions
}

// publishContext bounds a best-effort publish so a slow broker cannot hold
// up the request.
func (c *APIClient) publishContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.publishTO)
}

// GetProductionByID looks id up in GetProductions.
func (c *APIClient) GetProductionByID(ctx context.Context, id string) (model.Production, bool) {
	for _, p := range c.GetProductions(ctx) {
		if p.ID == id {
			return p, true
		}
	}
	return model.Production{}, false
}

// FetchProductions performs the remote request without touching the cache.
// The whole batch is rejected if any record fails validation.
func (c *APIClient) FetchProductions(ctx context.Context) ([]model.Production, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(productionsEndpoint), nil)
	if err != nil {
		return nil, &APIError{Err: err}
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode}
	}

	var body map[string]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	raw, ok := body["productions"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing productions list", ErrMalformedResponse)
	}

	productions := make([]model.Production, 0, len(raw))
	for i, item := range raw {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: production %d is not an object", ErrMalformedResponse, i)
		}
		p, err := model.NewProduction(rec)
		if err != nil {
			return nil, err
		}
		productions = append(productions, p)
	}
	return productions, nil
}
