package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestRegistry(ttl time.Duration) (*Registry, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	reg := NewRegistry(ttl, zerolog.Nop())
	reg.now = clock.now
	return reg, clock
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRegistryExpiresStaleServers(t *testing.T) {
	reg, clock := newTestRegistry(90 * time.Second)

	stale := reg.Register(ServerInfo{Name: "b"})
	fresh := reg.Register(ServerInfo{Name: "a"})
	assert.NotEqual(t, stale, fresh)

	clock.t = clock.t.Add(60 * time.Second)
	require.True(t, reg.Heartbeat(fresh, 4))

	clock.t = clock.t.Add(40 * time.Second)
	assert.Equal(t, 1, reg.Expire())

	list := reg.List(Filter{})
	require.Len(t, list, 1)
	assert.Equal(t, fresh, list[0].ID)
	assert.Equal(t, 4, list[0].Players)
	assert.False(t, reg.Heartbeat(stale, 1))
}

func TestRegistryListIsSortedByName(t *testing.T) {
	reg, _ := newTestRegistry(time.Minute)
	reg.Register(ServerInfo{Name: "zulu"})
	reg.Register(ServerInfo{Name: "alpha"})

	list := reg.List(Filter{})
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "zulu", list[1].Name)
}

func TestDirectoryRoutes(t *testing.T) {
	reg, _ := newTestRegistry(time.Minute)
	ts := httptest.NewServer(NewMux(reg, zerolog.Nop()))
	t.Cleanup(ts.Close)

	resp := postJSON(t, ts.URL+"/servers/register", registerRequest{Name: "arena", Address: "10.0.0.1:7373", MaxPlayers: 8})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created registerResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)

	resp = postJSON(t, ts.URL+"/servers/heartbeat", heartbeatRequest{ID: created.ID, Players: 2})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/servers/heartbeat", heartbeatRequest{ID: "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	listResp, err := http.Get(ts.URL + "/servers")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var servers []ServerInfo
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&servers))
	require.Len(t, servers, 1)
	assert.Equal(t, "arena", servers[0].Name)
	assert.Equal(t, 2, servers[0].Players)
}

func TestRegisterValidation(t *testing.T) {
	reg, _ := newTestRegistry(time.Minute)
	ts := httptest.NewServer(NewMux(reg, zerolog.Nop()))
	t.Cleanup(ts.Close)

	resp := postJSON(t, ts.URL+"/servers/register", registerRequest{Name: "no address"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	bad, err := http.Post(ts.URL+"/servers/register", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
	assert.Empty(t, reg.List(Filter{}))
}

func TestRegistryFilter(t *testing.T) {
	reg, _ := newTestRegistry(time.Minute)
	full := reg.Register(ServerInfo{Name: "full", Version: "1", Region: "eu", Players: 8, MaxPlayers: 8})
	open := reg.Register(ServerInfo{Name: "open", Version: "1", Region: "eu", Players: 2, MaxPlayers: 8})
	old := reg.Register(ServerInfo{Name: "old", Version: "0", Region: "us", MaxPlayers: 8})

	ids := func(list []ServerInfo) []string {
		var out []string
		for _, s := range list {
			out = append(out, s.ID)
		}
		return out
	}

	assert.Equal(t, []string{full, old, open}, ids(reg.List(Filter{})))
	assert.Equal(t, []string{full, open}, ids(reg.List(Filter{Version: "1"})))
	assert.Equal(t, []string{old}, ids(reg.List(Filter{Region: "us"})))
	assert.Equal(t, []string{old, open}, ids(reg.List(Filter{OpenOnly: true})))
}

func TestListServersQuery(t *testing.T) {
	reg, _ := newTestRegistry(time.Minute)
	reg.Register(ServerInfo{Name: "a", Version: "1", Players: 1, MaxPlayers: 2})
	reg.Register(ServerInfo{Name: "b", Version: "2", Players: 2, MaxPlayers: 2})
	ts := httptest.NewServer(NewMux(reg, zerolog.Nop()))
	t.Cleanup(ts.Close)

	get := func(query string) (*http.Response, []ServerInfo) {
		resp, err := http.Get(ts.URL + "/servers" + query)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		var servers []ServerInfo
		if resp.StatusCode == http.StatusOK {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&servers))
		}
		return resp, servers
	}

	_, servers := get("?version=2")
	require.Len(t, servers, 1)
	assert.Equal(t, "b", servers[0].Name)

	_, servers = get("?open=true")
	require.Len(t, servers, 1)
	assert.Equal(t, "a", servers[0].Name)

	resp, _ := get("?open=maybe")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
