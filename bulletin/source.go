package bulletin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/fundwatch/navcache/core"
)

// DefaultBaseURL is the AMFI NAV history report endpoint.
const DefaultBaseURL = "https://portal.amfiindia.com/DownloadNAVHistoryReport_Po.aspx"

// defaultFetchTimeout bounds the only networked step of an ingestion run.
const defaultFetchTimeout = 30 * time.Second

// Source supplies the raw bulletin text for a given date.
// Implementations may be unavailable or return a malformed payload;
// callers treat both as run-level failures.
type Source interface {
	Fetch(ctx context.Context, date time.Time) (string, error)
}

// HTTPSource fetches the bulletin over HTTP with a bounded timeout.
type HTTPSource struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

var _ Source = (*HTTPSource)(nil)

// SourceOption configures an HTTPSource.
type SourceOption func(*HTTPSource)

// WithBaseURL overrides the bulletin endpoint. Used by tests and for
// mirrors of the published dump.
func WithBaseURL(u string) SourceOption {
	return func(s *HTTPSource) {
		s.baseURL = u
	}
}

// WithTimeout bounds the fetch. Default is 30s.
func WithTimeout(d time.Duration) SourceOption {
	return func(s *HTTPSource) {
		s.client.Timeout = d
	}
}

// WithHTTPClient replaces the underlying client entirely.
func WithHTTPClient(c *http.Client) SourceOption {
	return func(s *HTTPSource) {
		s.client = c
	}
}

// WithSourceLogger sets a custom logger.
// Default is slog.Default().
func WithSourceLogger(logger *slog.Logger) SourceOption {
	return func(s *HTTPSource) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewHTTPSource creates a bulletin source for the AMFI endpoint.
func NewHTTPSource(opts ...SourceOption) *HTTPSource {
	s := &HTTPSource{
		client:  &http.Client{Timeout: defaultFetchTimeout},
		baseURL: DefaultBaseURL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch downloads the bulletin for the given date.
// Timeouts, transport errors and non-2xx statuses surface as ErrFetch.
func (s *HTTPSource) Fetch(ctx context.Context, date time.Time) (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	day := date.Format(core.NAVDateLayout)
	q := u.Query()
	q.Set("frmdt", day)
	q.Set("todt", day)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}

	s.logger.Debug("fetching bulletin", "url", u.String(), "date", day)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: unexpected status %s", ErrFetch, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}

	return stripBOM(string(body)), nil
}
