package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dusk-indust/finpanel/internal/orchestrator"
)

// Compile-time interface check.
var _ orchestrator.DataFetcher = (*HTTPFetcher)(nil)

// DefaultHTTPTimeout bounds a single quote request.
const DefaultHTTPTimeout = 30 * time.Second

// MaxRecordBytes caps the size of a quote service response body.
const MaxRecordBytes = 1 << 20

// HTTPFetcher retrieves records from a quote service that answers
// GET <base>/<TICKER> with a flat JSON object.
type HTTPFetcher struct {
	base string
	http *http.Client
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPTimeout sets the request timeout.
func WithHTTPTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) { f.http.Timeout = d }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(f *HTTPFetcher) { f.http = hc }
}

// NewHTTPFetcher creates a fetcher for the service at base.
func NewHTTPFetcher(base string, opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch requests the record for subject. A 404 wraps ErrUnknownSubject; a
// record carrying an "error" key is reported as a failure.
func (f *HTTPFetcher) Fetch(ctx context.Context, subject string) (orchestrator.Record, error) {
	ticker := NormalizeTicker(subject)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.base+"/"+url.PathEscape(ticker), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubject, ticker)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("quote service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxRecordBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	if len(body) > MaxRecordBytes {
		return nil, fmt.Errorf("record for %s exceeds %d bytes", ticker, MaxRecordBytes)
	}
	var rec orchestrator.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	if msg := rec.String(KeyError); msg != "" {
		return nil, fmt.Errorf("quote service: %s", msg)
	}
	return enrich(ticker, rec), nil
}
