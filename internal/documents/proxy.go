package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ProxyCacheControl is sent with every proxied document.
const ProxyCacheControl = "private, max-age=60"

const maxRedirects = 10

var (
	ErrMissingURL    = errors.New("missing url")
	ErrForbiddenHost = errors.New("forbidden host")
)

// Upstream is a proxied response. The caller must close Body.
type Upstream struct {
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
}

// Proxy forwards GET requests to an allow-list of hosts.
type Proxy struct {
	allowed    map[string]bool
	httpClient *http.Client
}

// NewProxy creates a Proxy for the given hosts (compared case-insensitively).
// Every redirect hop must also land on an allowed host.
func NewProxy(hosts []string, httpClient *http.Client) *Proxy {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	allowed := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		allowed[strings.ToLower(strings.TrimSpace(h))] = true
	}
	p := &Proxy{allowed: allowed}

	client := *httpClient
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return p.Allowed(req.URL.String())
	}
	p.httpClient = &client
	return p
}

// Allowed reports whether rawURL may be proxied.
func (p *Proxy) Allowed(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ErrMissingURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrForbiddenHost, rawURL)
	}
	if !p.allowed[strings.ToLower(u.Hostname())] {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, u.Hostname())
	}
	return nil
}

// Fetch GETs rawURL. The upstream status is passed through; the content type
// defaults to application/octet-stream.
func (p *Proxy) Fetch(ctx context.Context, rawURL string) (*Upstream, error) {
	if err := p.Allowed(rawURL); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build proxy request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, ErrForbiddenHost) {
			return nil, fmt.Errorf("redirect: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &Upstream{StatusCode: resp.StatusCode, ContentType: ct, Body: resp.Body}, nil
}
