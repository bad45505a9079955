package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/ricirt/offline-sync/internal/domain"
)

// EntityLimiters holds one token bucket per entity type so a large backlog
// of one entity (say, bills after a long offline shift) drains at a bounded
// rate without starving the others.
type EntityLimiters struct {
	limiters map[domain.Entity]*rate.Limiter
}

// New creates limiters allowing ratePerSec acceptor calls per second per
// entity. A non-positive rate disables limiting.
func New(ratePerSec int) *EntityLimiters {
	r := rate.Limit(ratePerSec)
	burst := ratePerSec
	if ratePerSec <= 0 {
		r, burst = rate.Inf, 1
	}

	limiters := make(map[domain.Entity]*rate.Limiter, len(domain.Entities))
	for _, e := range domain.Entities {
		limiters[e] = rate.NewLimiter(r, burst)
	}
	return &EntityLimiters{limiters: limiters}
}

// Wait blocks until the entity's limiter grants a token.
// Returns a non-nil error only if ctx is cancelled while waiting.
// Unknown entities are not limited.
func (el *EntityLimiters) Wait(ctx context.Context, e domain.Entity) error {
	l, ok := el.limiters[e]
	if !ok {
		return ctx.Err()
	}
	return l.Wait(ctx)
}
