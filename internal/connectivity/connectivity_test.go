package connectivity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/ricirt/offline-sync/internal/connectivity"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Reachable()   { r.mu.Lock(); r.events = append(r.events, "up"); r.mu.Unlock() }
func (r *recorder) Unreachable() { r.mu.Lock(); r.events = append(r.events, "down"); r.mu.Unlock() }

func TestMonitor_OnlyTransitionsNotify(t *testing.T) {
	m := connectivity.NewMonitor(true, zap.NewNop())
	rec := &recorder{}
	m.Subscribe(rec)

	assert.False(t, m.Set(true), "same state is not a transition")
	assert.True(t, m.Set(false))
	assert.False(t, m.Set(false))
	assert.True(t, m.Set(true))

	assert.Equal(t, []string{"down", "up"}, rec.events)
	assert.True(t, m.Online())
}

func TestMonitor_StartsOffline(t *testing.T) {
	m := connectivity.NewMonitor(false, zap.NewNop())
	assert.False(t, m.Online())
}

func TestHTTPProbe(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"not found still reachable", http.StatusNotFound, false},
		{"server error", http.StatusBadGateway, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			err := connectivity.NewHTTPProbe(srv.URL, time.Second).Check(context.Background())
			assert.Equal(t, tc.wantErr, err != nil, "err=%v", err)
		})
	}
}

func TestHTTPProbe_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	assert.Error(t, connectivity.NewHTTPProbe(url, time.Second).Check(context.Background()))
}
