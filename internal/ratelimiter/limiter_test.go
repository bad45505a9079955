package ratelimiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/ricirt/offline-sync/internal/domain"
	"github.com/ricirt/offline-sync/internal/ratelimiter"
)

func TestEntityLimiters_BurstThenBlock(t *testing.T) {
	l := ratelimiter.New(2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.Wait(ctx, domain.EntityBill); err != nil {
			t.Fatalf("burst token %d: %v", i, err)
		}
	}

	// the bucket is empty now; a short deadline must expire before a token arrives
	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(short, domain.EntityBill); err == nil {
		t.Fatal("expected Wait to fail once the bucket is drained")
	}

	// other entities have independent buckets
	if err := l.Wait(ctx, domain.EntityProduct); err != nil {
		t.Fatalf("product bucket should be full: %v", err)
	}
}

func TestEntityLimiters_Disabled(t *testing.T) {
	l := ratelimiter.New(0)
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		if err := l.Wait(ctx, domain.EntityExpense); err != nil {
			t.Fatalf("unlimited limiter blocked at %d: %v", i, err)
		}
	}
}

func TestEntityLimiters_CancelledContext(t *testing.T) {
	l := ratelimiter.New(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx, domain.EntityCustomer); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
