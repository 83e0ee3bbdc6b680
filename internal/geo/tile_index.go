package geo

import (
	"math"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// maxMercatorLat sits just inside the latitude limit of the web mercator
// tile pyramid (85.05112878).
const maxMercatorLat = 85.0511

// MaxZoom is the deepest zoom level the index accepts.
const MaxZoom = 22

// TileIndex maps slippy-map tiles to the IDs of the features whose vertices
// fall inside them, so "which features are in tile z/x/y" is a map lookup
// instead of a scan over every stored feature.
//
// Two maps are kept in sync: tiles (tile → set of IDs) answers tile queries,
// and features (ID → tiles) makes removal O(tiles of that feature).
//
// Go Learning Note — Struct Keys in Maps:
// maptile.Tile is a struct of three integers. Any comparable struct can be a
// map key in Go, so there is no need to flatten it into a string like "z/x/y".
//
// Go Learning Note — map[string]struct{}:
// struct{} occupies zero bytes, which makes map[string]struct{} the idiomatic
// set type. Membership is tested with the two-value form: _, ok := set[k].
type TileIndex struct {
	mu       sync.RWMutex
	zoom     maptile.Zoom
	tiles    map[maptile.Tile]map[string]struct{}
	features map[string][]maptile.Tile
}

// NewTileIndex creates an empty index at the given zoom, clamped to
// [0, MaxZoom].
func NewTileIndex(zoom int) *TileIndex {
	if zoom < 0 {
		zoom = 0
	}
	if zoom > MaxZoom {
		zoom = MaxZoom
	}
	return &TileIndex{
		zoom:     maptile.Zoom(zoom),
		tiles:    make(map[maptile.Tile]map[string]struct{}),
		features: make(map[string][]maptile.Tile),
	}
}

// Zoom returns the zoom level tiles are computed at.
func (ix *TileIndex) Zoom() maptile.Zoom {
	return ix.zoom
}

// TilesFor returns the distinct tiles containing points, in first-seen order.
func (ix *TileIndex) TilesFor(points []orb.Point) []maptile.Tile {
	seen := make(map[maptile.Tile]struct{}, len(points))
	tiles := make([]maptile.Tile, 0, len(points))
	for _, p := range points {
		t := tileAt(p, ix.zoom)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tiles = append(tiles, t)
	}
	return tiles
}

// Add indexes id under the tiles of points, replacing any previous entry.
func (ix *TileIndex) Add(id string, points []orb.Point) {
	tiles := ix.TilesFor(points)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(id)
	for _, t := range tiles {
		if _, exists := ix.tiles[t]; !exists {
			ix.tiles[t] = make(map[string]struct{})
		}
		ix.tiles[t][id] = struct{}{}
	}
	ix.features[id] = tiles
}

// Remove drops id from every tile it was indexed under.
func (ix *TileIndex) Remove(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(id)
}

func (ix *TileIndex) removeLocked(id string) {
	tiles, exists := ix.features[id]
	if !exists {
		return
	}
	for _, t := range tiles {
		if ids, ok := ix.tiles[t]; ok {
			delete(ids, id)
			if len(ids) == 0 {
				delete(ix.tiles, t) // Clean up empty tiles.
			}
		}
	}
	delete(ix.features, id)
}

// IDsInTile returns the sorted IDs indexed under t. Tiles at other zoom
// levels are answered by covering: a coarser tile returns everything in its
// descendants, a finer tile returns features of its ancestor at the index
// zoom.
func (ix *TileIndex) IDsInTile(t maptile.Tile) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	set := make(map[string]struct{})
	switch {
	case t.Z == ix.zoom:
		for id := range ix.tiles[t] {
			set[id] = struct{}{}
		}
	case t.Z > ix.zoom:
		parent := t.Parent()
		for parent.Z > ix.zoom {
			parent = parent.Parent()
		}
		for id := range ix.tiles[parent] {
			set[id] = struct{}{}
		}
	default:
		for indexed, ids := range ix.tiles {
			if contains(t, indexed) {
				for id := range ids {
					set[id] = struct{}{}
				}
			}
		}
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of indexed features.
func (ix *TileIndex) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.features)
}

// contains reports whether the coarser tile outer covers inner.
func contains(outer, inner maptile.Tile) bool {
	shift := uint32(inner.Z - outer.Z)
	return inner.X>>shift == outer.X && inner.Y>>shift == outer.Y
}

// tileAt returns the tile containing p at zoom z. Latitude is clamped to
// the mercator limit, and the resulting column and row are clamped to the
// last tile: longitude 180 and float rounding near the edges would
// otherwise yield index 2^z, which is outside the pyramid.
func tileAt(p orb.Point, z maptile.Zoom) maptile.Tile {
	lon := math.Max(-180, math.Min(180, p.Lon()))
	lat := math.Max(-maxMercatorLat, math.Min(maxMercatorLat, p.Lat()))

	t := maptile.At(orb.Point{lon, lat}, z)
	last := uint32(1)<<z - 1
	t.X = min(t.X, last)
	t.Y = min(t.Y, last)
	return t
}
