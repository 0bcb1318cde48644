// Package documents resolves parcel case files on the document service and proxies
// them for the browser.
package documents

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrForbidden   = errors.New("document access denied")
	ErrUnavailable = errors.New("document service unavailable")
	ErrEmptyCode   = errors.New("document code is empty")
)

// StatusError carries the HTTP status the document service answered with.
type StatusError struct {
	Code int
	err  error
}

func (e *StatusError) Error() string { return fmt.Sprintf("HTTP %d: %v", e.Code, e.err) }
func (e *StatusError) Unwrap() error { return e.err }

// Resolver builds and verifies token-bearing case file URLs.
type Resolver struct {
	base       string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewResolver creates a Resolver for the service at base, e.g. https://exp.sic-di.com.
func NewResolver(base string, httpClient *http.Client, logger *zap.Logger) *Resolver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Resolver{base: strings.TrimRight(base, "/"), httpClient: httpClient, logger: logger}
}

// URL is the case file address for code, authorized by the caller's ID token.
func (r *Resolver) URL(code, idToken string) string {
	return r.base + "/catexp-open/" + url.PathEscape(code) + "?token=" + url.QueryEscape(idToken)
}

// Resolve checks the case file with a HEAD request and returns its URL.
// 404 maps to ErrNotFound, 401/403 to ErrForbidden, any other non-2xx to ErrUnavailable.
func (r *Resolver) Resolve(ctx context.Context, code, idToken string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrEmptyCode
	}
	u := r.URL(code, idToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return "", fmt.Errorf("build HEAD request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return u, nil
	case resp.StatusCode == http.StatusNotFound:
		return "", &StatusError{Code: resp.StatusCode, err: ErrNotFound}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &StatusError{Code: resp.StatusCode, err: ErrForbidden}
	default:
		r.logger.Warn("Document service error", zap.String("code", code), zap.Int("status", resp.StatusCode))
		return "", &StatusError{Code: resp.StatusCode, err: ErrUnavailable}
	}
}

// FrameURL hides the viewer toolbar when the user may neither print nor download.
func FrameURL(u string, canPrint, canDownload bool) string {
	if u == "" {
		return ""
	}
	if !canPrint && !canDownload {
		return u + "#toolbar=0"
	}
	return u
}
