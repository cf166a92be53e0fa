// Package leveldata provides TMX arena parsing shared between host tools and
// tests. It has no dependencies on donburi or resolv, pure data only.
package leveldata

// Arena holds everything the host needs from a level file: its bounds, the
// static obstacles and props projectiles can hit, and character spawn points.
type Arena struct {
	Name        string
	Width       float64
	Height      float64
	Obstacles   []Box
	Props       []Prop
	SpawnPoints []SpawnPoint
}

// Box is an axis-aligned rectangle on the ground plane. Obstacles and props
// extend infinitely along the up axis.
type Box struct {
	X, Y, W, H float64
}

// Prop is a destructible-looking object that absorbs projectiles.
type Prop struct {
	Box
	Name string
}

// SpawnPoint represents a character spawn location.
type SpawnPoint struct {
	X, Y  float64
	Yaw   float64
	Index int
}

// OpenArena returns an obstacle-free arena with a single spawn at its center.
func OpenArena(width, height float64) *Arena {
	return &Arena{
		Name:        "open",
		Width:       width,
		Height:      height,
		SpawnPoints: []SpawnPoint{{X: width / 2, Y: height / 2}},
	}
}

// Contains reports whether the ground-plane point lies inside the arena.
func (a *Arena) Contains(x, y float64) bool {
	return x >= 0 && y >= 0 && x <= a.Width && y <= a.Height
}

// Spawn returns the spawn point for the n-th character, cycling through the
// available points.
func (a *Arena) Spawn(n int) SpawnPoint {
	if len(a.SpawnPoints) == 0 {
		return SpawnPoint{X: a.Width / 2, Y: a.Height / 2}
	}
	if n < 0 {
		n = -n
	}
	return a.SpawnPoints[n%len(a.SpawnPoints)]
}
