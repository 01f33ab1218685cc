// Package jobsearch is a client for a RapidAPI JSearch-compatible job-search provider.
package jobsearch

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/placement-engine/internal/logger"
	"github.com/spigell/placement-engine/internal/types"
)

const (
	defaultURL         = "https://jsearch.p.rapidapi.com"
	defaultHost        = "jsearch.p.rapidapi.com"
	defaultMinInterval = 250 * time.Millisecond
	maxTimeout         = 10 * time.Second
	userAgent          = "spigell/placement-engine"

	SearchPath = "/search"
	service    = "job-search"
)

// ErrNotConfigured is returned by Search when no API key is set.
var ErrNotConfigured = errors.New("job-search provider is not configured")

type Config struct {
	URL         string        `mapstructure:"url"`
	Host        string        `mapstructure:"host"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MinInterval time.Duration `mapstructure:"min-interval"`
	Burst       int           `mapstructure:"burst"`
}

type Client struct {
	apiKey     string
	logger     *zap.Logger
	limiter    *rate.Limiter
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	Host       string
}

// New returns a client. An empty apiKey yields a client whose searches return ErrNotConfigured.
func New(log *zap.Logger, apiKey string, cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.Timeout <= 0 || cfg.Timeout > maxTimeout {
		cfg.Timeout = maxTimeout
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = defaultMinInterval
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		logger:  logger.WithFields(log, zap.String("provider", service)),
		limiter: rate.NewLimiter(rate.Every(cfg.MinInterval), cfg.Burst),
		HTTPClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		UserAgent: userAgent,
		APIURL:    strings.TrimRight(cfg.URL, "/"),
		Host:      cfg.Host,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type Query struct {
	Text     string
	Location string
	Limit    int
}

type searchResponse struct {
	Status string           `json:"status"`
	Data   []map[string]any `json:"data"`
}

// Search runs one provider query and returns at most q.Limit jobs in provider order.
// Transport and status failures are *types.ErrUpstreamUnavailable.
func (c *Client) Search(ctx context.Context, q Query) ([]types.ExternalJob, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, &types.ErrValidation{Field: "query", Message: "must not be empty"}
	}
	if q.Limit <= 0 {
		return nil, nil
	}

	if loc := strings.TrimSpace(q.Location); loc != "" {
		text = text + " in " + loc
	}

	params := url.Values{}
	params.Set("query", text)
	params.Set("page", "1")
	params.Set("num_pages", "1")

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, upstream(fmt.Errorf("wait for rate limiter: %w", err))
	}

	var response searchResponse
	if err := c.getJSON(ctx, c.APIURL+SearchPath, params, &response); err != nil {
		return nil, upstream(err)
	}

	c.logger.Debug("got response from provider",
		zap.String("query", text),
		zap.String("status", response.Status),
		zap.Int("items", len(response.Data)),
	)

	jobs := decodeJobs(response.Data, c.logger)
	if len(jobs) > q.Limit {
		jobs = jobs[:q.Limit]
	}

	return jobs, nil
}

func (c *Client) getJSON(ctx context.Context, url string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	c.setHeaders(req)
	req.URL.RawQuery = q.Encode()

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, reader)
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if err := json.NewDecoder(reader).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.Host)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
}

func upstream(err error) error {
	return &types.ErrUpstreamUnavailable{Service: service, Err: err}
}
