package main

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ServerInfo describes a game host visible to clients.
type ServerInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Version    string `json:"version"`
	Region     string `json:"region"`
}

type serverRecord struct {
	ServerInfo
	LastSeen time.Time
}

// Registry is an in-memory store of active hosts with TTL-based expiry.
type Registry struct {
	mu      sync.RWMutex
	servers map[string]*serverRecord
	ttl     time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

func NewRegistry(ttl time.Duration, logger zerolog.Logger) *Registry {
	return &Registry{
		servers: make(map[string]*serverRecord),
		ttl:     ttl,
		now:     time.Now,
		log:     logger,
	}
}

// Register stores info under a fresh ID and returns it.
func (r *Registry) Register(info ServerInfo) string {
	info.ID = uuid.NewString()

	r.mu.Lock()
	r.servers[info.ID] = &serverRecord{
		ServerInfo: info,
		LastSeen:   r.now(),
	}
	r.mu.Unlock()

	return info.ID
}

// Heartbeat refreshes a host's TTL and player count. It reports false for
// unknown or expired IDs so the host knows to register again.
func (r *Registry) Heartbeat(id string, players int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.servers[id]
	if !ok {
		return false
	}
	rec.LastSeen = r.now()
	rec.Players = players
	return true
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Version  string
	Region   string
	OpenOnly bool // only hosts with a free player slot
}

func (f Filter) match(info ServerInfo) bool {
	if f.Version != "" && info.Version != f.Version {
		return false
	}
	if f.Region != "" && info.Region != f.Region {
		return false
	}
	if f.OpenOnly && info.MaxPlayers > 0 && info.Players >= info.MaxPlayers {
		return false
	}
	return true
}

// List returns the live hosts matching f, ordered by name then ID.
func (r *Registry) List(f Filter) []ServerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ServerInfo, 0, len(r.servers))
	for _, rec := range r.servers {
		if f.match(rec.ServerInfo) {
			result = append(result, rec.ServerInfo)
		}
	}
	slices.SortFunc(result, func(a, b ServerInfo) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result
}

// Expire drops every host not seen within the TTL and returns how many went.
func (r *Registry) Expire() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for id, rec := range r.servers {
		if age := now.Sub(rec.LastSeen); age >= r.ttl {
			r.log.Info().
				Str("name", rec.Name).
				Str("id", id).
				Dur("lastSeen", age.Round(time.Second)).
				Msg("expired server")
			delete(r.servers, id)
			n++
		}
	}
	return n
}

// Run expires stale hosts every interval until done is closed.
func (r *Registry) Run(done <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			r.Expire()
		}
	}
}
