// Package osrm provides driving times and distances from an OSRM
// instance, degrading to Haversine estimates whenever the backend is
// disabled, unreachable, or the problem is too large.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/fikatrip/planner/config"
	"github.com/fikatrip/planner/log"
)

// MaxTableNodes caps /table requests; larger problems go to Haversine
const MaxTableNodes = 1600

// Client handles OSRM API requests with a memoized availability probe
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Enabled    bool

	mu        sync.Mutex
	available *bool
}

// NewClient creates a new OSRM client from configuration
func NewClient(cfg config.OSRMConfig) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(cfg.URL, "/"),
		HTTPClient: &http.Client{Timeout: cfg.Timeout()},
		Enabled:    cfg.Enabled,
	}
}

type routeResponse struct {
	Routes []struct {
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

type tableResponse struct {
	Durations [][]*float64 `json:"durations"`
}

// Refresh clears the memoized availability so the next call re-probes
func (c *Client) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.available = nil
}

// checkAvailable performs a lightweight probe, memoizing the result
func (c *Client) checkAvailable(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.available != nil {
		return *c.available
	}

	ok := false
	url := fmt.Sprintf("%s/route/v1/driving/0,0;0,0?overview=false", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err == nil {
		resp, err := c.HTTPClient.Do(req)
		if err == nil {
			ok = resp.StatusCode == http.StatusOK
			resp.Body.Close()
		}
	}
	if !ok {
		log.Warnf(ctx, "OSRM probe failed, will use Haversine fallback")
	}
	c.available = &ok
	return ok
}

// Available reports whether the backend is enabled and reachable
func (c *Client) Available(ctx context.Context) bool {
	return c.shouldUseOSRM(ctx)
}

func (c *Client) shouldUseOSRM(ctx context.Context) bool {
	if !c.Enabled {
		return false
	}
	return c.checkAvailable(ctx)
}

func (c *Client) markUnavailable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	no := false
	c.available = &no
}

func (c *Client) fetchRoute(ctx context.Context, lat1, lon1, lat2, lon2 float64) (*routeResponse, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		c.BaseURL, lon1, lat1, lon2, lat2)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.markUnavailable()
		return nil, fmt.Errorf("route request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("route request failed with status %d", resp.StatusCode)
	}

	var data routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode route response: %w", err)
	}
	if len(data.Routes) == 0 {
		return nil, fmt.Errorf("route response has no routes")
	}
	return &data, nil
}

// Route returns travel time in seconds between two points
func (c *Client) Route(ctx context.Context, lat1, lon1, lat2, lon2 float64) float64 {
	if c.shouldUseOSRM(ctx) {
		data, err := c.fetchRoute(ctx, lat1, lon1, lat2, lon2)
		if err == nil {
			return data.Routes[0].Duration
		}
		log.Warnf(ctx, "OSRM route error: %v, falling back to Haversine", err)
	}
	return HaversineSeconds(lat1, lon1, lat2, lon2, PairwiseFallbackSpeedKmh)
}

// Distance returns travel distance in km between two points
func (c *Client) Distance(ctx context.Context, lat1, lon1, lat2, lon2 float64) float64 {
	if c.shouldUseOSRM(ctx) {
		data, err := c.fetchRoute(ctx, lat1, lon1, lat2, lon2)
		if err == nil {
			return data.Routes[0].Distance / 1000.0
		}
		log.Warnf(ctx, "OSRM distance error: %v, falling back to Haversine", err)
	}
	return HaversineKm(lat1, lon1, lat2, lon2)
}

// MatrixMinutes returns an NxN travel-time matrix in whole minutes for
// the given (lat, lon) coordinates, in node order.
func (c *Client) MatrixMinutes(ctx context.Context, coords [][2]float64) [][]int {
	n := len(coords)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return [][]int{{0}}
	}

	if n > MaxTableNodes {
		log.Infof(ctx, "Skipping OSRM matrix for %d nodes > %d max, using Haversine fallback", n, MaxTableNodes)
		return HaversineMatrix(coords, MatrixFallbackSpeedKmh)
	}

	if c.shouldUseOSRM(ctx) {
		matrix, err := c.fetchTable(ctx, coords)
		if err == nil {
			log.Infof(ctx, "OSRM matrix computed: %d nodes", n)
			return matrix
		}
		log.Warnf(ctx, "OSRM /table error: %v, falling back to Haversine matrix", err)
	}

	log.Infof(ctx, "Using Haversine fallback matrix for %d nodes", n)
	return HaversineMatrix(coords, MatrixFallbackSpeedKmh)
}

func (c *Client) fetchTable(ctx context.Context, coords [][2]float64) ([][]int, error) {
	n := len(coords)
	pairs := make([]string, n)
	for i, ll := range coords {
		pairs[i] = fmt.Sprintf("%f,%f", ll[1], ll[0])
	}
	url := fmt.Sprintf("%s/table/v1/driving/%s?annotations=duration", c.BaseURL, strings.Join(pairs, ";"))

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.markUnavailable()
		return nil, fmt.Errorf("table request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("table request failed with status %d", resp.StatusCode)
	}

	var data tableResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode table response: %w", err)
	}
	if len(data.Durations) != n {
		return nil, fmt.Errorf("table response has %d rows, want %d", len(data.Durations), n)
	}

	matrix := make([][]int, n)
	for i := range matrix {
		if len(data.Durations[i]) != n {
			return nil, fmt.Errorf("table row %d has %d cells, want %d", i, len(data.Durations[i]), n)
		}
		matrix[i] = make([]int, n)
		for j, sec := range data.Durations[i] {
			if sec != nil {
				matrix[i][j] = roundMinutes(*sec)
			}
		}
	}
	return matrix, nil
}
