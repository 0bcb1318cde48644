// Package geoserver talks to the WMS/WFS endpoints of the map server.
package geoserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNoFeature is returned when a feature-info query matches nothing.
var ErrNoFeature = errors.New("no feature at location")

// StatusError reports a non-2xx answer from the map server.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("map server returned %d for %s", e.StatusCode, e.URL)
}

// Config selects the server and the layers the catalog exposes.
type Config struct {
	Base        string // e.g. https://geo.sic-di.com/geoserver
	Workspace   string // e.g. SICDI
	LayerPrefix string // e.g. SECTOR_
}

// Client is a thin map server client. It never retries.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Client. A nil httpClient gets a 30s timeout default.
func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	cfg.Base = strings.TrimRight(cfg.Base, "/")
	return &Client{cfg: cfg, httpClient: httpClient, logger: logger}
}

// Workspace returns the configured workspace name.
func (c *Client) Workspace() string {
	return c.cfg.Workspace
}

func (c *Client) wmsURL() string { return c.cfg.Base + "/wms" }
func (c *Client) wfsURL() string { return c.cfg.Base + "/wfs" }

// get performs a GET and returns the body of a 2xx answer.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("map server request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read map server response: %w", err)
	}
	return body, resp.Header, nil
}
