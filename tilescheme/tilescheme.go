// Package tilescheme translates tile rows between the two row-origin
// conventions in use across the system: XYZ (row 0 at the top, used by web
// tile providers) and TMS (row 0 at the bottom, used by MBTiles and the TMS
// protocol). Column and zoom are identical in both.
package tilescheme

import (
	"fmt"

	"github.com/go-spatial/geom/slippy"

	"github.com/mapgrid/tilekit/mathhelp"
)

// Scheme names a tile addressing convention.
type Scheme string

const (
	XYZ     Scheme = "xyz"
	TMS     Scheme = "tms"
	Quadkey Scheme = "quadkey"
)

// ParseScheme returns the Scheme named by s.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case XYZ, TMS, Quadkey:
		return Scheme(s), nil
	default:
		return "", fmt.Errorf("unknown tile addressing scheme: %q", s)
	}
}

// FlipRow converts a row between XYZ and TMS numbering. The conversion is an
// involution: applying it to a TMS row yields the XYZ row and vice versa.
// The row must be valid for the zoom level, see Valid.
func FlipRow(row, zoom uint) uint {
	return mathhelp.Pow2(zoom) - 1 - row
}

// Valid reports whether the tile's x and y fall inside the matrix at its zoom.
func Valid(tile *slippy.Tile) bool {
	limit := mathhelp.Pow2(tile.Z)
	return tile.X < limit && tile.Y < limit
}

// ToTMS returns the TMS-addressed tile for an XYZ-addressed one.
func ToTMS(tile *slippy.Tile) *slippy.Tile {
	return slippy.NewTile(tile.Z, tile.X, FlipRow(tile.Y, tile.Z))
}

// ToXYZ returns the XYZ-addressed tile for a TMS-addressed one.
func ToXYZ(tile *slippy.Tile) *slippy.Tile {
	return slippy.NewTile(tile.Z, tile.X, FlipRow(tile.Y, tile.Z))
}

// StorageRow returns the tile_row value an XYZ-addressed tile is stored
// under in MBTiles, which keeps rows in TMS numbering. Write and read paths
// must both go through this or tilesets come out mirrored.
func StorageRow(tile *slippy.Tile) uint {
	return FlipRow(tile.Y, tile.Z)
}
