package acceptor

import (
	"context"
	"encoding/json"

	"github.com/ricirt/offline-sync/internal/domain"
)

// AcceptRequest is the JSON body posted to the remote acceptor.
type AcceptRequest struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	Entity     string          `json:"entity"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt int64           `json:"enqueued_at"`
}

// Acceptor abstracts the remote system that durably applies a mutation.
// Implementations must be idempotent: the same record may be delivered more
// than once (a pass that crashed before persisting its synced marks).
type Acceptor interface {
	Accept(ctx context.Context, rec domain.MutationRecord) error
}
