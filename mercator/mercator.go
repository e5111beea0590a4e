// Package mercator implements the Web (Spherical) Mercator tile pyramid (EPSG:3857):
// conversions between geographic WGS84 degrees, projected meters and pixel
// coordinates, plus tile index derivation.
// See https://www.maptiler.com/google-maps-coordinates-tile-bounds-projection/
package mercator

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/slippy"

	"github.com/mapgrid/tilekit/mathhelp"
)

const (
	// EarthRadius is the WGS84 semi-major axis in meters, the sphere radius used by EPSG:3857.
	EarthRadius = 6378137.0
	// MaxLatitude is the latitude of the projection's top/bottom edge.
	// The Mercator projection is undefined at the poles.
	MaxLatitude = 85.05112878
	// DefaultTileSize is the usual web map tile size in pixels.
	// MBTiles-adjacent pipelines in this system use 512.
	DefaultTileSize uint = 256
	// MaxZoom is the exclusive upper zoom bound. It guards the bit shifts in
	// resolution and tile count computations, not a practically usable zoom:
	// web maps stop around 22.
	MaxZoom = 50
)

var (
	ErrZoomNegative = errors.New("negative zoom level")
	ErrZoomTooLarge = errors.New("zoom level exceeds maximum")
	ErrNotFinite    = errors.New("coordinate is not a finite number")
)

// Projection holds the per-tile-size constants of the Mercator pyramid.
// It is an immutable value, safe for concurrent use.
type Projection struct {
	tileSize          uint
	initialResolution float64
	originShift       float64
}

// New returns a Projection for the given tile size in pixels.
func New(tileSize uint) Projection {
	return Projection{
		tileSize:          tileSize,
		initialResolution: 2 * math.Pi * EarthRadius / float64(tileSize), // 156543.03392804097 for 256
		originShift:       math.Pi * EarthRadius,                         // 20037508.342789244
	}
}

// Default returns the Projection for DefaultTileSize.
func Default() Projection {
	return New(DefaultTileSize)
}

func (p Projection) TileSize() uint {
	return p.tileSize
}

// OriginShift is half the world circumference in meters,
// the coordinate of the projection's edge.
func (p Projection) OriginShift() float64 {
	return p.originShift
}

// InitialResolution is the resolution in meters per pixel at zoom 0.
func (p Projection) InitialResolution() float64 {
	return p.initialResolution
}

// Resolution returns meters per pixel at the given zoom level, measured at
// the equator. The zoom must already have been validated, see CheckZoom.
func (p Projection) Resolution(zoom int) float64 {
	return p.initialResolution / float64(uint64(1)<<uint(zoom))
}

// CheckZoom validates a zoom level. Everything below 0 is nonsense, everything
// at or above MaxZoom would overflow the tile count shift.
func CheckZoom(zoom int) error {
	if zoom < 0 {
		return fmt.Errorf("%w: %d", ErrZoomNegative, zoom)
	}
	if zoom >= MaxZoom {
		return fmt.Errorf("%w: %d, maximum is %d (exclusive)", ErrZoomTooLarge, zoom, MaxZoom)
	}
	return nil
}

func checkFinite(vs ...float64) error {
	for _, v := range vs {
		if !mathhelp.IsFinite(v) {
			return fmt.Errorf("%w: %v", ErrNotFinite, v)
		}
	}
	return nil
}

// LatLonToMeters converts lon/lat in WGS84 degrees to projected meters.
// The latitude is clipped to ±MaxLatitude first; pole-adjacent input is
// normalized, never rejected.
func (p Projection) LatLonToMeters(lon, lat float64) geom.Point {
	lat = mathhelp.Clip(lat, -MaxLatitude, MaxLatitude)
	mx := lon * p.originShift / 180
	my := math.Log(math.Tan((90+lat)*math.Pi/360)) / (math.Pi / 180)
	my = my * p.originShift / 180
	return geom.Point{mx, my}
}

// MetersToLatLon converts projected meters to lon/lat in WGS84 degrees.
func (p Projection) MetersToLatLon(mx, my float64) geom.Point {
	lon := (mx / p.originShift) * 180
	lat := (my / p.originShift) * 180
	lat = 180 / math.Pi * (2*math.Atan(math.Exp(lat*math.Pi/180)) - math.Pi/2)
	return geom.Point{lon, lat}
}

// PixelsToMeters converts pixel coordinates at the given zoom level to
// projected meters. Pixel origin is the top-left corner of the pyramid,
// pixel y grows downward while projected y grows upward.
func (p Projection) PixelsToMeters(px, py float64, zoom int) (geom.Point, error) {
	if err := CheckZoom(zoom); err != nil {
		return geom.Point{}, err
	}
	if err := checkFinite(px, py); err != nil {
		return geom.Point{}, err
	}
	res := p.Resolution(zoom)
	mx := px*res - p.originShift
	my := p.originShift - py*res
	return geom.Point{mx, my}, nil
}

// MetersToPixels converts projected meters to pixel coordinates at the given
// zoom level. Inverse of PixelsToMeters.
func (p Projection) MetersToPixels(mx, my float64, zoom int) (geom.Point, error) {
	if err := CheckZoom(zoom); err != nil {
		return geom.Point{}, err
	}
	if err := checkFinite(mx, my); err != nil {
		return geom.Point{}, err
	}
	res := p.Resolution(zoom)
	px := (mx + p.originShift) / res
	py := (p.originShift - my) / res
	return geom.Point{px, py}, nil
}

// LatLonToPixels converts lon/lat in WGS84 degrees to pixel coordinates at
// the given zoom level.
func (p Projection) LatLonToPixels(lon, lat float64, zoom int) (geom.Point, error) {
	m := p.LatLonToMeters(lon, lat)
	return p.MetersToPixels(m.X(), m.Y(), zoom)
}

// PixelsToLatLon converts pixel coordinates at the given zoom level to
// lon/lat in WGS84 degrees.
func (p Projection) PixelsToLatLon(px, py float64, zoom int) (geom.Point, error) {
	m, err := p.PixelsToMeters(px, py, zoom)
	if err != nil {
		return geom.Point{}, err
	}
	return p.MetersToLatLon(m.X(), m.Y()), nil
}

// PixelsToTile returns the tile covering the given pixel coordinates.
// Coordinates outside the pyramid are clipped onto its edge tiles.
func (p Projection) PixelsToTile(px, py float64, zoom int) (*slippy.Tile, error) {
	if err := CheckZoom(zoom); err != nil {
		return nil, err
	}
	if err := checkFinite(px, py); err != nil {
		return nil, err
	}
	max := float64(mathhelp.Pow2(uint(zoom)) - 1)
	tx := mathhelp.Clip(math.Floor(px/float64(p.tileSize)), 0, max)
	ty := mathhelp.Clip(math.Floor(py/float64(p.tileSize)), 0, max)
	return slippy.NewTile(uint(zoom), uint(tx), uint(ty)), nil
}

// MetersToTile returns the tile covering the given projected coordinates.
func (p Projection) MetersToTile(mx, my float64, zoom int) (*slippy.Tile, error) {
	px, err := p.MetersToPixels(mx, my, zoom)
	if err != nil {
		return nil, err
	}
	return p.PixelsToTile(px.X(), px.Y(), zoom)
}

// LatLonToTile returns the tile covering the given lon/lat in WGS84 degrees.
func (p Projection) LatLonToTile(lon, lat float64, zoom int) (*slippy.Tile, error) {
	m := p.LatLonToMeters(lon, lat)
	return p.MetersToTile(m.X(), m.Y(), zoom)
}

// TileBounds returns the extent of a tile in projected meters.
func (p Projection) TileBounds(tile *slippy.Tile) (geom.Extent, error) {
	topLeft, err := p.PixelsToMeters(
		float64(tile.X)*float64(p.tileSize),
		float64(tile.Y)*float64(p.tileSize),
		int(tile.Z))
	if err != nil {
		return geom.Extent{}, err
	}
	bottomRight, err := p.PixelsToMeters(
		float64(tile.X+1)*float64(p.tileSize),
		float64(tile.Y+1)*float64(p.tileSize),
		int(tile.Z))
	if err != nil {
		return geom.Extent{}, err
	}
	return geom.Extent{topLeft.X(), bottomRight.Y(), bottomRight.X(), topLeft.Y()}, nil
}

// TileLatLonBounds returns the extent of a tile in WGS84 degrees.
func (p Projection) TileLatLonBounds(tile *slippy.Tile) (geom.Extent, error) {
	bounds, err := p.TileBounds(tile)
	if err != nil {
		return geom.Extent{}, err
	}
	min := p.MetersToLatLon(bounds.MinX(), bounds.MinY())
	max := p.MetersToLatLon(bounds.MaxX(), bounds.MaxY())
	return geom.Extent{min.X(), min.Y(), max.X(), max.Y()}, nil
}

// ZoomForPixelSize returns the deepest zoom level whose resolution is at
// least pixelSize, i.e. the maximal scaledown zoom without scaling up.
func (p Projection) ZoomForPixelSize(pixelSize float64) int {
	for zoom := 0; zoom < MaxZoom; zoom++ {
		if pixelSize > p.Resolution(zoom) {
			if zoom == 0 {
				return 0
			}
			return zoom - 1
		}
	}
	return MaxZoom - 1
}
