package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
)

type registerRequest struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Version    string `json:"version"`
	Region     string `json:"region"`
}

type registerResponse struct {
	ID string `json:"id"`
}

type heartbeatRequest struct {
	ID      string `json:"id"`
	Players int    `json:"players"`
}

type errorResponse struct {
	Error string `json:"error"`
}

const maxRequestBody = 1 << 16 // 64 KB

// NewMux wires the directory routes onto a fresh ServeMux.
func NewMux(reg *Registry, logger zerolog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /servers", ListServers(reg, logger))
	mux.HandleFunc("POST /servers/register", RegisterServer(reg, logger))
	mux.HandleFunc("POST /servers/heartbeat", Heartbeat(reg, logger))
	mux.HandleFunc("GET /health", Health())
	return mux
}

// ListServers answers GET /servers. Optional query parameters narrow the
// result: version and region match exactly, open=true keeps hosts with a
// free slot.
func ListServers(reg *Registry, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := Filter{Version: q.Get("version"), Region: q.Get("region")}
		if v := q.Get("open"); v != "" {
			open, err := strconv.ParseBool(v)
			if err != nil {
				writeJSON(w, logger, http.StatusBadRequest, errorResponse{Error: "open must be a boolean"})
				return
			}
			f.OpenOnly = open
		}
		writeJSON(w, logger, http.StatusOK, reg.List(f))
	}
}

// RegisterServer answers POST /servers/register with the assigned ID.
func RegisterServer(reg *Registry, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !decodeJSON(w, r, logger, &req) {
			return
		}
		if req.Name == "" || req.Address == "" {
			writeJSON(w, logger, http.StatusBadRequest, errorResponse{Error: "name and address required"})
			return
		}

		id := reg.Register(ServerInfo{
			Name:       req.Name,
			Address:    req.Address,
			Players:    req.Players,
			MaxPlayers: req.MaxPlayers,
			Version:    req.Version,
			Region:     req.Region,
		})
		logger.Info().
			Str("name", req.Name).
			Str("address", req.Address).
			Str("version", req.Version).
			Str("id", id).
			Msg("registered server")

		writeJSON(w, logger, http.StatusCreated, registerResponse{ID: id})
	}
}

// Heartbeat answers POST /servers/heartbeat; 404 tells the host to register again.
func Heartbeat(reg *Registry, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req heartbeatRequest
		if !decodeJSON(w, r, logger, &req) {
			return
		}
		if !reg.Heartbeat(req.ID, req.Players) {
			writeJSON(w, logger, http.StatusNotFound, errorResponse{Error: "unknown server"})
			return
		}
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, zerolog.Nop(), http.StatusOK, map[string]string{"status": "ok"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, logger, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, logger zerolog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn().Err(err).Int("status", status).Msg("encode response")
	}
}
