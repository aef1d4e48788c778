package scoremaps

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/kickscore/internal/domain/scoremap"
)

const (
	defaultHTTPTimeout = 5 * time.Second
	maxTableBytes      = 1 << 20
)

// HTTPSource fetches <base>/<name>.csv. A 404 means the table does not exist.
type HTTPSource struct {
	base   string
	client *http.Client
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// NewHTTPSource creates an HTTPSource for baseURL.
func NewHTTPSource(baseURL string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch implements scoremap.Source.
func (s *HTTPSource) Fetch(ctx context.Context, key scoremap.Key) ([]byte, error) {
	url := s.base + "/" + key.Name() + ext
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", key.Name(), scoremap.ErrNoResource)
	default:
		return nil, fmt.Errorf("get %s: %w: %d", url, ErrUnexpectedStatus, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxTableBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if len(raw) > maxTableBytes {
		return nil, fmt.Errorf("read %s: %w: over %d bytes", url, ErrTableTooLarge, maxTableBytes)
	}
	return raw, nil
}
