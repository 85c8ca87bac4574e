package harvest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

// PageSource returns the candidate rows of one zero-based listing page.
type PageSource interface {
	Page(ctx context.Context, page int) ([]occupation.Record, error)
}

// PageSourceFunc adapts a function to PageSource.
type PageSourceFunc func(ctx context.Context, page int) ([]occupation.Record, error)

// Page calls f.
func (f PageSourceFunc) Page(ctx context.Context, page int) ([]occupation.Record, error) {
	return f(ctx, page)
}

// StatusError reports a non-success HTTP response for a listing page.
type StatusError struct {
	Page int
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("listing page %d: HTTP %d", e.Page, e.Code)
}

// HTTPSource fetches listing pages over HTTP and parses their tables.
// Failed requests are not retried.
type HTTPSource struct {
	ListingURL string
	UserAgent  string
	Timeout    time.Duration

	HTTPClient *http.Client
}

// Page fetches and parses one page. The page number is sent as the "page"
// query parameter of ListingURL.
func (s *HTTPSource) Page(ctx context.Context, page int) ([]occupation.Record, error) {
	u, err := url.Parse(s.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("listing url: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Page: page, Code: resp.StatusCode}
	}

	records, err := ParseTables(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page %d: %w", page, err)
	}
	return records, nil
}

func (s *HTTPSource) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
