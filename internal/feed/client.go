package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/feli-codes/Door2Dock/internal/config"
	"github.com/feli-codes/Door2Dock/internal/models"
	"github.com/feli-codes/Door2Dock/pkg/logging"
	"github.com/feli-codes/Door2Dock/pkg/metrics"
)

// FeedError is a transient upstream failure: the cycle that hit it is
// skipped and the process carries on.
type FeedError struct {
	Op         string // "request", "status" or "decode"
	URL        string
	StatusCode int
	Err        error
}

func (e *FeedError) Error() string {
	if e.Op == "status" {
		return fmt.Sprintf("feed %s failed: unexpected status %d from %s", e.Op, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("feed %s failed for %s: %v", e.Op, e.URL, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// IsTransient reports that feed errors are retryable on a later cycle
func (e *FeedError) IsTransient() bool {
	return true
}

// Client fetches the full station catalog from the BikePoint feed.
// One GET per invocation, single attempt, no internal retry.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewClient creates a feed client with a fixed-timeout HTTP client
func NewClient(cfg config.FeedConfig, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Client {
	return &Client{
		url: cfg.URL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger:  logger,
		metrics: metricsCollector,
	}
}

// NewClientWithHTTP creates a feed client with a caller-supplied HTTP client
func NewClientWithHTTP(url string, httpClient *http.Client, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Client {
	return &Client{
		url:        url,
		httpClient: httpClient,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// FetchAllStations retrieves the full catalog snapshot in one call.
// Any transport failure comes back as *FeedError.
func (c *Client) FetchAllStations(ctx context.Context) ([]models.Station, error) {
	timer := c.metrics.NewTimer(c.metrics.FeedRequestDuration)
	defer timer.ObserveDuration()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		c.metrics.RecordFeedError("request")
		return nil, &FeedError{Op: "request", URL: c.url, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordFeedError("request")
		c.logger.Error(ctx, "[FEED_ERROR] Catalog request failed", logging.Fields{
			"url": c.url,
		}, err)
		return nil, &FeedError{Op: "request", URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.RecordFeedError("status")
		c.logger.Error(ctx, "[FEED_ERROR] Catalog request returned bad status", logging.Fields{
			"url":    c.url,
			"status": resp.StatusCode,
		}, nil)
		return nil, &FeedError{Op: "status", URL: c.url, StatusCode: resp.StatusCode}
	}

	var stations []models.Station
	if err := json.NewDecoder(resp.Body).Decode(&stations); err != nil {
		c.metrics.RecordFeedError("decode")
		c.logger.Error(ctx, "[FEED_ERROR] Catalog payload malformed", logging.Fields{
			"url": c.url,
		}, err)
		return nil, &FeedError{Op: "decode", URL: c.url, Err: err}
	}

	c.metrics.FeedStationsFetched.Set(float64(len(stations)))

	c.logger.Debug(ctx, "[FEED_FETCH] Catalog fetched", logging.Fields{
		"url":           c.url,
		"station_count": len(stations),
	})

	return stations, nil
}
