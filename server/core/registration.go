package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/automoto/shootnrun-mp/config"
	"github.com/rs/zerolog"
)

const heartbeatInterval = 30 * time.Second

// PlayerCounter reports how many players are in the session.
type PlayerCounter interface {
	PlayerCount() int
}

// Registration handles registering and heartbeating with the master server.
type Registration struct {
	masterURL  string
	serverID   string
	name       string
	address    string
	version    string
	region     string
	maxPlayers int
	players    PlayerCounter
	client     *http.Client
	interval   time.Duration
	log        zerolog.Logger
}

type regRequest struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Version    string `json:"version"`
	Region     string `json:"region"`
}

type regResponse struct {
	ID string `json:"id"`
}

type heartbeatRequest struct {
	ID      string `json:"id"`
	Players int    `json:"players"`
}

func NewRegistration(cfg config.ServerConfig, players PlayerCounter, logger zerolog.Logger) *Registration {
	return &Registration{
		masterURL:  cfg.MasterURL,
		name:       cfg.Name,
		address:    cfg.PublicAddress,
		version:    cfg.Version,
		region:     cfg.Region,
		maxPlayers: cfg.MaxPlayers,
		players:    players,
		client:     &http.Client{Timeout: 5 * time.Second},
		interval:   heartbeatInterval,
		log:        logger.With().Str("component", "registration").Logger(),
	}
}

// Run registers and then heartbeats until ctx is cancelled.
func (r *Registration) Run(ctx context.Context) {
	if err := r.register(ctx); err != nil {
		r.log.Warn().Err(err).Msg("initial registration failed")
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.sendHeartbeat(ctx); err != nil {
				r.log.Warn().Err(err).Msg("heartbeat failed")
			}
		}
	}
}

// ServerID is the directory ID assigned at registration.
func (r *Registration) ServerID() string {
	return r.serverID
}

func (r *Registration) register(ctx context.Context) error {
	body, err := json.Marshal(regRequest{
		Name:       r.name,
		Address:    r.address,
		Players:    r.players.PlayerCount(),
		MaxPlayers: r.maxPlayers,
		Version:    r.version,
		Region:     r.region,
	})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	resp, err := r.post(ctx, "/servers/register", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result regResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	r.serverID = result.ID
	r.log.Info().Str("id", r.serverID).Msg("registered with master")
	return nil
}

func (r *Registration) sendHeartbeat(ctx context.Context) error {
	body, err := json.Marshal(heartbeatRequest{
		ID:      r.serverID,
		Players: r.players.PlayerCount(),
	})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	resp, err := r.post(ctx, "/servers/heartbeat", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		r.log.Info().Msg("master lost our registration, re-registering")
		return r.register(ctx)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}

func (r *Registration) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.masterURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	return resp, nil
}
