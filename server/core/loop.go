package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// statsEvery is how many ticks pass between stats log lines.
const statsEvery = 600

type GameLoop struct {
	server   *Server
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	log      zerolog.Logger
	ticks    uint64
}

func NewGameLoop(server *Server, interval time.Duration, logger zerolog.Logger) *GameLoop {
	return &GameLoop{
		server:   server,
		interval: interval,
		stopChan: make(chan struct{}),
		log:      logger,
	}
}

// Run ticks the server at a fixed interval until ctx is done or Stop is called.
func (g *GameLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	g.log.Info().Dur("interval", g.interval).Msg("game loop started")

	for {
		select {
		case <-ctx.Done():
			g.log.Info().Msg("game loop stopped")
			return
		case <-g.stopChan:
			g.log.Info().Msg("game loop stopped")
			return
		case <-ticker.C:
			g.tick()
		}
	}
}

func (g *GameLoop) Stop() {
	g.stopOnce.Do(func() { close(g.stopChan) })
}

func (g *GameLoop) tick() {
	g.server.Tick(g.interval)
	g.ticks++

	if g.ticks%statsEvery == 0 {
		st := g.server.Stats()
		g.log.Debug().
			Uint64("tick", g.ticks).
			Int("players", g.server.PlayerCount()).
			Int64("accepted", st.Accepted).
			Int64("rejected", st.Rejected).
			Int64("duplicate", st.Duplicate).
			Int64("projectiles", st.Projectiles).
			Int64("destroyed", st.Destroyed).
			Msg("stats")
	}
}
