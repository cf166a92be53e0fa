package leveldata

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lafriks/go-tiled"
)

const (
	layerObstacles = "obstacles"
	groupObstacles = "Obstacles"
	groupProps     = "Props"
	groupSpawns    = "PlayerSpawn"
)

// LoadArena parses a TMX file into an Arena. It takes an fs.FS so callers can
// pass embed.FS or os.DirFS.
func LoadArena(fsys fs.FS, tmxPath string) (*Arena, error) {
	levelMap, err := tiled.LoadFile(tmxPath, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", tmxPath, err)
	}

	arena := &Arena{
		Name:   strings.TrimSuffix(filepath.Base(tmxPath), ".tmx"),
		Width:  float64(levelMap.Width * levelMap.TileWidth),
		Height: float64(levelMap.Height * levelMap.TileHeight),
	}

	// Every non-empty tile in the obstacles layer is a solid block
	tileW := float64(levelMap.TileWidth)
	tileH := float64(levelMap.TileHeight)
	for _, layer := range levelMap.Layers {
		if layer.Name != layerObstacles {
			continue
		}
		for y := 0; y < levelMap.Height; y++ {
			for x := 0; x < levelMap.Width; x++ {
				tile := layer.Tiles[y*levelMap.Width+x]
				if tile.IsNil() {
					continue
				}
				arena.Obstacles = append(arena.Obstacles, Box{
					X: float64(x) * tileW,
					Y: float64(y) * tileH,
					W: tileW,
					H: tileH,
				})
			}
		}
		break
	}

	for _, og := range levelMap.ObjectGroups {
		switch og.Name {
		case groupObstacles:
			for _, o := range og.Objects {
				arena.Obstacles = append(arena.Obstacles, Box{X: o.X, Y: o.Y, W: o.Width, H: o.Height})
			}
		case groupProps:
			for _, o := range og.Objects {
				arena.Props = append(arena.Props, Prop{
					Box:  Box{X: o.X, Y: o.Y, W: o.Width, H: o.Height},
					Name: o.Name,
				})
			}
		case groupSpawns:
			for _, o := range og.Objects {
				arena.SpawnPoints = append(arena.SpawnPoints, SpawnPoint{
					X:     o.X,
					Y:     o.Y,
					Yaw:   o.Properties.GetFloat("yaw"),
					Index: o.Properties.GetInt("spawnIndex"),
				})
			}
		}
	}

	// Explicit spawn order first, then left-to-right for consistent assignment
	sort.SliceStable(arena.SpawnPoints, func(i, j int) bool {
		a, b := arena.SpawnPoints[i], arena.SpawnPoints[j]
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.X < b.X
	})

	return arena, nil
}

// LoadAllArenas discovers all .tmx files in levelsDir within fsys, loads each,
// and returns a map keyed by stem name plus a sorted list of names.
func LoadAllArenas(fsys fs.FS, levelsDir string) (map[string]*Arena, []string, error) {
	pattern := levelsDir + "/*.tmx"
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("no .tmx files found in %s", levelsDir)
	}

	arenas := make(map[string]*Arena, len(matches))
	names := make([]string, 0, len(matches))

	for _, path := range matches {
		arena, err := LoadArena(fsys, path)
		if err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", path, err)
		}
		arenas[arena.Name] = arena
		names = append(names, arena.Name)
	}

	sort.Strings(names)
	return arenas, names, nil
}
