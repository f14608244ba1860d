// Package arena loads arena maps drawn in Tiled. Map pixels are world units.
//
// Recognised object groups:
//   - "Zone": the first object is the zone center; its "radius" property
//     sets the initial zone radius.
//   - "PlayerSpawn": player spawn points, used in order of "spawnIndex".
//   - "MonsterSpawn": monster spawn points.
package arena

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/automoto/dragonsons/server/world"
	"github.com/lafriks/go-tiled"
)

var ErrNoArenas = errors.New("no arenas")

// Load parses one TMX file from fsys into a world config. It takes an fs.FS
// so callers can pass os.DirFS or an embedded tree.
func Load(fsys fs.FS, tmxPath string) (world.Config, error) {
	m, err := tiled.LoadFile(tmxPath, tiled.WithFileSystem(fsys))
	if err != nil {
		return world.Config{}, fmt.Errorf("load TMX %s: %w", tmxPath, err)
	}

	cfg := world.Config{
		Width:  float64(m.Width * m.TileWidth),
		Height: float64(m.Height * m.TileHeight),
	}
	for _, og := range m.ObjectGroups {
		switch og.Name {
		case "Zone":
			if len(og.Objects) == 0 {
				continue
			}
			o := og.Objects[0]
			cfg.Center = world.Point{X: o.X + o.Width/2, Y: o.Y + o.Height/2}
			cfg.InitialRadius = o.Properties.GetFloat("radius")
		case "PlayerSpawn":
			cfg.PlayerSpawns = spawnPoints(og.Objects)
		case "MonsterSpawn":
			cfg.MonsterSpawns = spawnPoints(og.Objects)
		}
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return world.Config{}, fmt.Errorf("%s: empty map", tmxPath)
	}
	if c := cfg.Center; c.X < 0 || c.Y < 0 || c.X > cfg.Width || c.Y > cfg.Height {
		return world.Config{}, fmt.Errorf("%s: zone center (%.0f,%.0f) outside the map", tmxPath, c.X, c.Y)
	}
	return cfg, nil
}

func spawnPoints(objs []*tiled.Object) []world.Point {
	type indexed struct {
		idx int
		pt  world.Point
	}
	tmp := make([]indexed, 0, len(objs))
	for _, o := range objs {
		tmp = append(tmp, indexed{o.Properties.GetInt("spawnIndex"), world.Point{X: o.X, Y: o.Y}})
	}
	// By spawn index, then left to right for a stable assignment.
	slices.SortStableFunc(tmp, func(a, b indexed) int {
		if c := cmp.Compare(a.idx, b.idx); c != 0 {
			return c
		}
		return cmp.Compare(a.pt.X, b.pt.X)
	})
	out := make([]world.Point, len(tmp))
	for i, t := range tmp {
		out[i] = t.pt
	}
	return out
}

// LoadDir loads every .tmx file in dir, keyed by file stem, and returns the
// sorted names alongside.
func LoadDir(fsys fs.FS, dir string) (map[string]world.Config, []string, error) {
	pattern := path.Join(dir, "*.tmx")
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("%w in %s", ErrNoArenas, dir)
	}

	arenas := make(map[string]world.Config, len(matches))
	names := make([]string, 0, len(matches))
	for _, p := range matches {
		cfg, err := Load(fsys, p)
		if err != nil {
			return nil, nil, err
		}
		stem := strings.TrimSuffix(path.Base(p), ".tmx")
		arenas[stem] = cfg
		names = append(names, stem)
	}
	slices.Sort(names)
	return arenas, names, nil
}
