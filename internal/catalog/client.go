// Package catalog implements the HTTP client for the exercise catalog service.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/fitgram/exercise-bot/internal/apperrors"
	"github.com/fitgram/exercise-bot/pkg/config"
	"github.com/fitgram/exercise-bot/pkg/metrics"
)

// ErrNotFound indicates that a by-name lookup returned no record.
var ErrNotFound = errors.New("exercise not found")

// Searcher is the catalog surface consumed by the dialog flows.
type Searcher interface {
	Muscles(ctx context.Context) ([]string, error)
	ByPrimaryMuscle(ctx context.Context, muscle string, limit int) ([]Record, error)
	BySecondaryMuscle(ctx context.Context, muscle string, limit int) ([]Record, error)
	ByName(ctx context.Context, name string) (*Record, error)
}

// Client is an HTTP Searcher with a bounded timeout and a circuit breaker in
// front of the remote service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	host       string
	apiKey     string
	breaker    *apperrors.CircuitBreaker
	log        *slog.Logger
}

// New builds a catalog client from configuration.
func New(cfg config.CatalogConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    fmt.Sprintf("https://%s", cfg.Host),
		host:       cfg.Host,
		apiKey:     cfg.APIKey,
		breaker:    apperrors.NewCircuitBreaker(),
		log:        log,
	}
}

// Muscles returns every muscle group the service knows, by origin name.
func (c *Client) Muscles(ctx context.Context) ([]string, error) {
	var muscles []string
	if err := c.get(ctx, "muscles", "/search/muscles/", nil, &muscles); err != nil {
		return nil, err
	}

	return muscles, nil
}

// ByPrimaryMuscle lists exercises targeting muscle as the primary group,
// truncated client-side to limit.
func (c *Client) ByPrimaryMuscle(ctx context.Context, muscle string, limit int) ([]Record, error) {
	return c.search(ctx, url.Values{"primaryMuscle": {muscle}}, limit)
}

// BySecondaryMuscle lists exercises involving muscle as a secondary group,
// truncated client-side to limit.
func (c *Client) BySecondaryMuscle(ctx context.Context, muscle string, limit int) ([]Record, error) {
	return c.search(ctx, url.Values{"secondaryMuscle": {muscle}}, limit)
}

// ByName fetches a single exercise by its origin name.
func (c *Client) ByName(ctx context.Context, name string) (*Record, error) {
	records, err := c.search(ctx, url.Values{"name": {name}}, 1)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, ErrNotFound
	}

	return &records[0], nil
}

func (c *Client) search(ctx context.Context, params url.Values, limit int) ([]Record, error) {
	var records []Record
	if err := c.get(ctx, "search", "/search/", params, &records); err != nil {
		return nil, err
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

func (c *Client) get(ctx context.Context, operation, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	fn := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("X-RapidAPI-Key", c.apiKey)
		req.Header.Set("X-RapidAPI-Host", c.host)

		c.log.Debug("catalog request", slog.String("method", http.MethodGet), slog.String("url", reqURL))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("catalog responded %d: %s", resp.StatusCode, body)
		}

		return json.NewDecoder(resp.Body).Decode(out)
	}

	if err := c.breaker.Call(fn); err != nil {
		metrics.RecordCatalogRequest(operation, "error")
		return apperrors.NewCatalogError(err)
	}

	metrics.RecordCatalogRequest(operation, "ok")
	return nil
}
