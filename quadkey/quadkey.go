// Package quadkey encodes tile indices into Bing's base-4 quadtree addressing
// and back. See https://learn.microsoft.com/en-us/bingmaps/articles/bing-maps-tile-system
package quadkey

import (
	"errors"
	"fmt"

	"github.com/go-spatial/geom/slippy"

	"github.com/mapgrid/tilekit/mathhelp"
)

// maxZoom is the exclusive zoom bound, it guards the bit shifts below.
const maxZoom = 50

var (
	ErrTileOutOfRange = errors.New("tile index out of range for zoom level")
	ErrInvalidDigit   = errors.New("quadkey digit outside '0'..'3'")
	ErrTooLong        = errors.New("quadkey exceeds the supported zoom range")
)

// Encode returns the quadkey for a tile index: one base-4 digit per zoom
// level, most significant level first, x contributing the low bit and y the
// high bit of each digit. Zoom 0 encodes to the empty string.
func Encode(x, y, zoom uint) (string, error) {
	if zoom >= maxZoom {
		return "", fmt.Errorf("%w: zoom %d", ErrTooLong, zoom)
	}
	if limit := mathhelp.Pow2(zoom); x >= limit || y >= limit {
		return "", fmt.Errorf("%w: x=%d y=%d zoom=%d", ErrTileOutOfRange, x, y, zoom)
	}
	// single pre-sized allocation, no incremental concatenation
	key := make([]byte, zoom)
	for level := zoom; level > 0; level-- {
		digit := byte('0')
		mask := uint(1) << (level - 1)
		if x&mask != 0 {
			digit++
		}
		if y&mask != 0 {
			digit += 2
		}
		key[zoom-level] = digit
	}
	return string(key), nil
}

// MustEncode is Encode for indices that are known to be valid.
func MustEncode(x, y, zoom uint) string {
	key, err := Encode(x, y, zoom)
	if err != nil {
		panic(fmt.Errorf("cannot encode tile %d/%d/%d as quadkey: %w", zoom, x, y, err))
	}
	return key
}

// Decode returns the tile index addressed by a quadkey.
// The zoom level is the key's length.
func Decode(key string) (x, y, zoom uint, err error) {
	zoom = uint(len(key))
	if zoom >= maxZoom {
		return 0, 0, 0, fmt.Errorf("%w: length %d", ErrTooLong, zoom)
	}
	for i := 0; i < len(key); i++ {
		mask := uint(1) << (zoom - 1 - uint(i))
		switch key[i] {
		case '0':
		case '1':
			x |= mask
		case '2':
			y |= mask
		case '3':
			x |= mask
			y |= mask
		default:
			return 0, 0, 0, fmt.Errorf("%w: %q at position %d", ErrInvalidDigit, key[i], i)
		}
	}
	return x, y, zoom, nil
}

// FromTile encodes a tile as a quadkey.
func FromTile(tile *slippy.Tile) (string, error) {
	return Encode(tile.X, tile.Y, tile.Z)
}

// ToTile decodes a quadkey into a tile.
func ToTile(key string) (*slippy.Tile, error) {
	x, y, zoom, err := Decode(key)
	if err != nil {
		return nil, err
	}
	return slippy.NewTile(zoom, x, y), nil
}
