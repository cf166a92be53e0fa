package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/automoto/shootnrun-mp/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPlayers int

func (f fixedPlayers) PlayerCount() int { return int(f) }

type fakeMaster struct {
	mu         sync.Mutex
	registered []regRequest
	heartbeats []heartbeatRequest
	known      bool
}

func (m *fakeMaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch r.URL.Path {
	case "/servers/register":
		var req regRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		m.registered = append(m.registered, req)
		m.known = true
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(regResponse{ID: "srv-1"})
	case "/servers/heartbeat":
		var req heartbeatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		m.heartbeats = append(m.heartbeats, req)
		if !m.known {
			http.Error(w, "unknown server", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func newTestRegistration(t *testing.T, m *fakeMaster) *Registration {
	t.Helper()
	ts := httptest.NewServer(m)
	t.Cleanup(ts.Close)

	cfg := config.Default().Server
	cfg.MasterURL = ts.URL
	cfg.Name = "test"
	cfg.PublicAddress = "127.0.0.1:7373"
	return NewRegistration(cfg, fixedPlayers(3), zerolog.Nop())
}

func TestRegistrationRegisterAndHeartbeat(t *testing.T) {
	m := &fakeMaster{}
	r := newTestRegistration(t, m)
	ctx := context.Background()

	require.NoError(t, r.register(ctx))
	assert.Equal(t, "srv-1", r.ServerID())
	require.Len(t, m.registered, 1)
	assert.Equal(t, "test", m.registered[0].Name)
	assert.Equal(t, 3, m.registered[0].Players)
	assert.Equal(t, 8, m.registered[0].MaxPlayers)

	require.NoError(t, r.sendHeartbeat(ctx))
	require.Len(t, m.heartbeats, 1)
	assert.Equal(t, heartbeatRequest{ID: "srv-1", Players: 3}, m.heartbeats[0])
}

func TestRegistrationReRegistersWhenForgotten(t *testing.T) {
	m := &fakeMaster{}
	r := newTestRegistration(t, m)
	ctx := context.Background()

	require.NoError(t, r.register(ctx))
	m.mu.Lock()
	m.known = false
	m.mu.Unlock()

	require.NoError(t, r.sendHeartbeat(ctx))
	assert.Len(t, m.registered, 2)
}

func TestRegistrationRunStopsWithContext(t *testing.T) {
	m := &fakeMaster{}
	r := newTestRegistration(t, m)
	r.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.heartbeats) >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
