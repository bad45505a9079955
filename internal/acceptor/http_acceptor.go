package acceptor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ricirt/offline-sync/internal/domain"
)

// HTTPAcceptor delivers records by POSTing to {baseURL}/api/v1/sync/{entity}.
// The record ID travels as X-Idempotency-Key so the backend can de-duplicate
// retransmissions.
type HTTPAcceptor struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPAcceptor(baseURL string, timeout time.Duration) *HTTPAcceptor {
	return &HTTPAcceptor{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Accept treats any 2xx as accepted. 409 Conflict means the backend already
// applied this idempotency key, which is also success. Everything else wraps
// domain.ErrRejected.
func (a *HTTPAcceptor) Accept(ctx context.Context, rec domain.MutationRecord) error {
	body, err := json.Marshal(AcceptRequest{
		ID:         rec.ID,
		Action:     string(rec.Action),
		Entity:     string(rec.Entity),
		Payload:    rec.Payload,
		EnqueuedAt: rec.EnqueuedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/sync/%s", a.baseURL, rec.Entity)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", rec.ID)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return nil
	default:
		return fmt.Errorf("%w: status %d", domain.ErrRejected, resp.StatusCode)
	}
}

// compile-time check that HTTPAcceptor implements Acceptor
var _ Acceptor = (*HTTPAcceptor)(nil)
