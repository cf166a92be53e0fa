package core

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/automoto/shootnrun-mp/config"
	"github.com/automoto/shootnrun-mp/shared/leveldata"
	"github.com/automoto/shootnrun-mp/tags"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/solarlune/resolv"
)

const levelCellSize = 32

// ServerLevel holds the host's collision space and spawn data for an arena.
type ServerLevel struct {
	Space   *resolv.Space
	Arena   *leveldata.Arena
	Ceiling float64
}

// NewServerLevel builds a resolv.Space from a parsed arena. Obstacles and
// props become static objects; characters and projectiles are added as they
// spawn.
func NewServerLevel(arena *leveldata.Arena, ceiling float64, logger zerolog.Logger) *ServerLevel {
	space := resolv.NewSpace(
		int(math.Ceil(arena.Width)),
		int(math.Ceil(arena.Height)),
		levelCellSize, levelCellSize,
	)

	for _, b := range arena.Obstacles {
		obj := resolv.NewObject(b.X, b.Y, b.W, b.H, tags.ResolvSolid)
		obj.SetShape(resolv.NewRectangle(0, 0, b.W, b.H))
		space.Add(obj)
	}
	for _, p := range arena.Props {
		obj := resolv.NewObject(p.X, p.Y, p.W, p.H, tags.ResolvProp)
		obj.SetShape(resolv.NewRectangle(0, 0, p.W, p.H))
		obj.Data = p.Name
		space.Add(obj)
	}

	logger.Info().
		Str("arena", arena.Name).
		Int("obstacles", len(arena.Obstacles)).
		Int("props", len(arena.Props)).
		Int("spawns", len(arena.SpawnPoints)).
		Float64("width", arena.Width).
		Float64("height", arena.Height).
		Msg("loaded arena")

	return &ServerLevel{
		Space:   space,
		Arena:   arena,
		Ceiling: ceiling,
	}
}

// LoadServerLevel resolves the configured arena: the .tmx file named by
// server.level, or an open arena of the configured size when none is set.
func LoadServerLevel(cfg config.ServerConfig, logger zerolog.Logger) (*ServerLevel, error) {
	if cfg.Level == "" {
		return NewServerLevel(leveldata.OpenArena(cfg.ArenaWidth, cfg.ArenaHeight), cfg.ArenaCeiling, logger), nil
	}
	arena, err := leveldata.LoadArena(os.DirFS(filepath.Dir(cfg.Level)), filepath.Base(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("load level: %w", err)
	}
	return NewServerLevel(arena, cfg.ArenaCeiling, logger), nil
}

// InBounds reports whether p lies inside the arena volume.
func (l *ServerLevel) InBounds(p mgl64.Vec3) bool {
	if !l.Arena.Contains(p.X(), p.Y()) {
		return false
	}
	return p.Z() >= 0 && (l.Ceiling <= 0 || p.Z() <= l.Ceiling)
}

// circleOverlapsObject is the narrow phase for a projectile of radius r
// centred at (x, y) against an axis-aligned resolv object.
func circleOverlapsObject(x, y, r float64, obj *resolv.Object) bool {
	cx := math.Max(obj.X, math.Min(x, obj.X+obj.W))
	cy := math.Max(obj.Y, math.Min(y, obj.Y+obj.H))
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= r*r
}

// distanceToObject is the ground-plane distance from (x, y) to the closest
// point of obj.
func distanceToObject(x, y float64, obj *resolv.Object) float64 {
	cx := math.Max(obj.X, math.Min(x, obj.X+obj.W))
	cy := math.Max(obj.Y, math.Min(y, obj.Y+obj.H))
	return math.Hypot(x-cx, y-cy)
}
