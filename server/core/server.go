package core

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/automoto/shootnrun-mp/config"
	"github.com/automoto/shootnrun-mp/network"
	"github.com/automoto/shootnrun-mp/shared/logging"
	"github.com/automoto/shootnrun-mp/shared/netcomponents"
	"github.com/automoto/shootnrun-mp/shared/netconfig"
	"github.com/automoto/shootnrun-mp/shared/protocol"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/yohamta/donburi"
)

// Server is the authoritative host. Transport goroutines only append to the
// inbox; the world and every map below are touched by the loop goroutine alone.
type Server struct {
	cfg        *config.Config
	log        zerolog.Logger
	cmdLog     zerolog.Logger
	world      donburi.World
	loop       *GameLoop
	transport  network.HostTransport
	replicator Replicator
	validator  protocol.Validator
	metrics    *Metrics
	level      *ServerLevel

	now           time.Duration // simulation clock
	nextID        netconfig.EntityID
	entities      map[netconfig.EntityID]donburi.Entity
	sessions      map[network.PeerID]*Session
	characters    map[donburi.Entity]*CharacterPhysics
	projectiles   map[donburi.Entity]*ProjectilePhysics
	spawnCount    int
	correctionSeq uint32

	inboxMu sync.Mutex
	inbox   []inboxEvent

	players atomic.Int64
}

type inboxKind int

const (
	inboxConnect inboxKind = iota
	inboxDisconnect
	inboxMessage
)

type inboxEvent struct {
	kind inboxKind
	peer network.PeerID
	msg  any
}

// Option customises a Server.
type Option func(*Server)

// WithReplicator sets structural replication; the default does nothing.
func WithReplicator(r Replicator) Option {
	return func(s *Server) { s.replicator = r }
}

// WithLevel uses a prepared level instead of the configured one.
func WithLevel(l *ServerLevel) Option {
	return func(s *Server) { s.level = l }
}

// WithValidator overrides the configured validation policy.
func WithValidator(v protocol.Validator) Option {
	return func(s *Server) { s.validator = v }
}

// NewServer creates a host that talks through transport. The caller binds the
// transport to the returned server and runs the loop.
func NewServer(cfg *config.Config, transport network.HostTransport, logger zerolog.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:         cfg,
		log:         logging.Component(logger, "server"),
		world:       donburi.NewWorld(),
		transport:   transport,
		replicator:  NoopReplicator{},
		entities:    make(map[netconfig.EntityID]donburi.Entity),
		sessions:    make(map[network.PeerID]*Session),
		characters:  make(map[donburi.Entity]*CharacterPhysics),
		projectiles: make(map[donburi.Entity]*ProjectilePhysics),
	}
	s.cmdLog = logging.Sampled(logging.Component(logger, "commands"))

	for _, opt := range opts {
		opt(s)
	}

	if s.validator == nil {
		if cfg.Validation.Enabled {
			s.validator = protocol.Policy{MaxPitch: cfg.Validation.MaxPitch, MaxMove: cfg.Validation.MaxMove}
		} else {
			s.validator = protocol.AcceptAll{}
		}
	}

	if s.level == nil {
		level, err := LoadServerLevel(cfg.Server, s.log)
		if err != nil {
			return nil, err
		}
		s.level = level
	}

	metrics, err := NewMetrics(s.players.Load)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	s.metrics = metrics

	s.replicator.Attach(s.world)
	s.loop = NewGameLoop(s, cfg.Server.TickInterval(), s.log)

	return s, nil
}

// Run drives the fixed-step loop until ctx is cancelled or Stop is called.
func (s *Server) Run(ctx context.Context) {
	s.loop.Run(ctx)
}

// Stop gracefully shuts down the loop
func (s *Server) Stop() {
	s.loop.Stop()
}

// OnConnect implements network.HostHandler.
func (s *Server) OnConnect(peer network.PeerID) {
	s.enqueue(inboxEvent{kind: inboxConnect, peer: peer})
}

// OnDisconnect implements network.HostHandler.
func (s *Server) OnDisconnect(peer network.PeerID) {
	s.enqueue(inboxEvent{kind: inboxDisconnect, peer: peer})
}

// OnMessage implements network.HostHandler.
func (s *Server) OnMessage(peer network.PeerID, msg any) {
	s.enqueue(inboxEvent{kind: inboxMessage, peer: peer, msg: msg})
}

func (s *Server) enqueue(ev inboxEvent) {
	s.inboxMu.Lock()
	s.inbox = append(s.inbox, ev)
	s.inboxMu.Unlock()
}

func (s *Server) drainInbox() []inboxEvent {
	s.inboxMu.Lock()
	defer s.inboxMu.Unlock()
	events := s.inbox
	s.inbox = nil
	return events
}

// Tick advances the simulation by dt: apply what arrived, fire due shots,
// move characters and projectiles, then replicate.
func (s *Server) Tick(dt time.Duration) {
	s.now += dt

	for _, ev := range s.drainInbox() {
		s.handleEvent(ev)
	}

	for _, e := range s.sortedCharacters() {
		if cp, ok := s.characters[e]; ok {
			cp.Cadence.Advance(s.now)
		}
	}

	s.updateMovement(dt)
	s.updateProjectiles()

	for _, e := range s.sortedCharacters() {
		s.replicateCharacter(e)
	}

	if err := s.replicator.Sync(); err != nil {
		s.log.Warn().Err(err).Msg("sync error")
	}
}

func (s *Server) handleEvent(ev inboxEvent) {
	switch ev.kind {
	case inboxConnect:
		s.onConnect(ev.peer)
	case inboxDisconnect:
		s.onDisconnect(ev.peer)
	case inboxMessage:
		s.onMessage(ev.peer, ev.msg)
	}
}

// Now returns the simulation clock.
func (s *Server) Now() time.Duration {
	return s.now
}

// World returns the ECS world
func (s *Server) World() donburi.World {
	return s.world
}

// Level returns the active arena.
func (s *Server) Level() *ServerLevel {
	return s.level
}

// Stats returns the host counters. Loop goroutine only.
func (s *Server) Stats() Stats {
	return s.metrics.Stats()
}

// PlayerCount returns the number of joined players. Safe from any goroutine.
func (s *Server) PlayerCount() int {
	return int(s.players.Load())
}

// Entity resolves a replicated ID to the host entity.
func (s *Server) Entity(id netconfig.EntityID) (donburi.Entity, bool) {
	e, ok := s.entities[id]
	if !ok || !s.world.Valid(e) {
		return 0, false
	}
	return e, true
}

// State returns a copy of a character's canonical state.
func (s *Server) State(id netconfig.EntityID) (netcomponents.NetEntityStateData, bool) {
	e, ok := s.Entity(id)
	if !ok {
		return netcomponents.NetEntityStateData{}, false
	}
	entry := s.world.Entry(e)
	if !entry.HasComponent(netcomponents.NetEntityState) {
		return netcomponents.NetEntityStateData{}, false
	}
	return *netcomponents.NetEntityState.Get(entry), true
}

// Position returns the world location of a character or projectile.
func (s *Server) Position(id netconfig.EntityID) (mgl64.Vec3, bool) {
	e, ok := s.Entity(id)
	if !ok {
		return mgl64.Vec3{}, false
	}
	if pp, ok := s.projectiles[e]; ok {
		return pp.Position, true
	}
	entry := s.world.Entry(e)
	if !entry.HasComponent(netcomponents.NetPosition) {
		return mgl64.Vec3{}, false
	}
	return netcomponents.NetPosition.Get(entry).Vec(), true
}

func (s *Server) allocateID() netconfig.EntityID {
	s.nextID++
	return s.nextID
}

func (s *Server) idOf(e donburi.Entity) netconfig.EntityID {
	if !s.world.Valid(e) {
		return 0
	}
	entry := s.world.Entry(e)
	if !entry.HasComponent(netcomponents.NetIdentity) {
		return 0
	}
	return netcomponents.NetIdentity.Get(entry).ID
}

func (s *Server) sortedCharacters() []donburi.Entity {
	out := make([]donburi.Entity, 0, len(s.characters))
	for e := range s.characters {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b donburi.Entity) int {
		return int(s.characters[a].ID) - int(s.characters[b].ID)
	})
	return out
}

func (s *Server) sortedProjectiles() []donburi.Entity {
	out := make([]donburi.Entity, 0, len(s.projectiles))
	for e := range s.projectiles {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b donburi.Entity) int {
		return int(s.projectiles[a].ID) - int(s.projectiles[b].ID)
	})
	return out
}

func (s *Server) broadcastEvent(msg any) {
	if err := s.transport.Broadcast(msg); err != nil {
		s.log.Debug().Err(err).Type("message", msg).Msg("broadcast failed")
	}
}

func (s *Server) sendTo(peer network.PeerID, msg any) {
	if peer == "" {
		return
	}
	if err := s.transport.Send(peer, msg); err != nil {
		s.log.Debug().Err(err).Str("peer", string(peer)).Type("message", msg).Msg("send failed")
	}
}
