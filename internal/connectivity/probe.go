package connectivity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Probe answers whether the backend can currently be reached.
type Probe interface {
	Check(ctx context.Context) error
}

// HTTPProbe issues a GET against a health URL. Any response below 500 counts
// as reachable: the network path works even if the endpoint is unhappy.
type HTTPProbe struct {
	url        string
	httpClient *http.Client
}

func NewHTTPProbe(url string, timeout time.Duration) *HTTPProbe {
	return &HTTPProbe{url: url, httpClient: &http.Client{Timeout: timeout}}
}

func (p *HTTPProbe) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("create probe request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("probe: status %d", resp.StatusCode)
	}
	return nil
}

var _ Probe = (*HTTPProbe)(nil)
