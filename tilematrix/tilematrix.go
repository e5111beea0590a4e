// Package tilematrix generates and (un)marshals OGC Tile Matrix Set (v2.0)
// documents for the Web Mercator pyramid, for WMTS and OGC API Tiles
// consumers. See https://www.ogc.org/standard/tms/
package tilematrix

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/perimeterx/marshmallow"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/mapgrid/tilekit/mathhelp"
	"github.com/mapgrid/tilekit/mercator"
)

// StandardizedRenderingPixelSize is the physical pixel size (in meters) the
// OGC standard prescribes for deriving scale denominators from cell sizes.
const StandardizedRenderingPixelSize = 0.28e-3

// maxMatrixZoom bounds generated pyramids; deeper matrices serve no tiling
// purpose and blow up matrixWidth/Height.
const maxMatrixZoom = 30

var ErrZoomOutOfRange = errors.New("tile matrix zoom out of range")

// TwoDPoint is a 2D point in the CRS indicated elsewhere.
type TwoDPoint [2]float64

func (p TwoDPoint) XY() [2]float64 {
	return p
}

// TileMatrix describes one scale level of a tile matrix set.
type TileMatrix struct {
	// Tile matrix identifier, by convention the decimal zoom level
	ID string `validate:"required" json:"id"`
	// Scale denominator of this tile matrix
	ScaleDenominator float64 `validate:"required,gt=0" json:"scaleDenominator"`
	// Cell size (resolution) of this tile matrix in CRS units per pixel
	CellSize float64 `validate:"required,gt=0" json:"cellSize"`
	// The corner of the tile matrix the PointOfOrigin refers to
	CornerOfOrigin string `default:"topLeft" validate:"oneof=topLeft bottomLeft" json:"cornerOfOrigin,omitempty"`
	// Precise position of the CornerOfOrigin in CRS coordinates
	PointOfOrigin TwoDPoint `validate:"required" json:"pointOfOrigin"`
	// Width of each tile in pixels
	TileWidth uint `default:"256" validate:"required,min=1" json:"tileWidth"`
	// Height of each tile in pixels
	TileHeight uint `default:"256" validate:"required,min=1" json:"tileHeight"`
	// Number of tile columns
	MatrixWidth uint `validate:"required,min=1" json:"matrixWidth"`
	// Number of tile rows
	MatrixHeight uint `validate:"required,min=1" json:"matrixHeight"`
}

// TileMatrixSet is a tile matrix set document. Matrices are kept in zoom
// order so the document marshals deterministically.
type TileMatrixSet struct {
	ID          string   `validate:"required" json:"id"`
	Title       string   `json:"title,omitempty"`
	URI         string   `validate:"omitempty,uri" json:"uri,omitempty"`
	CRS         string   `validate:"required" json:"crs"`
	OrderedAxes []string `validate:"omitnil,min=1" json:"orderedAxes,omitempty"`

	matrices *orderedmap.OrderedMap[int, TileMatrix]
}

// WebMercatorQuad generates the tile matrix set of the Web Mercator pyramid
// for zoom levels 0 through maxZoom.
func WebMercatorQuad(maxZoom int) (*TileMatrixSet, error) {
	return ForProjection(mercator.Default(), maxZoom)
}

// ForProjection generates the Web Mercator tile matrix set for a specific
// projection instance (e.g. one with 512px tiles).
func ForProjection(p mercator.Projection, maxZoom int) (*TileMatrixSet, error) {
	if !mathhelp.BetweenInc(int64(maxZoom), 0, maxMatrixZoom) {
		return nil, fmt.Errorf("%w: %d, want 0..%d", ErrZoomOutOfRange, maxZoom, maxMatrixZoom)
	}
	tms := &TileMatrixSet{
		ID:          "WebMercatorQuad",
		Title:       "Google Maps Compatible for the World",
		URI:         "http://www.opengis.net/def/tilematrixset/OGC/1.0/WebMercatorQuad",
		CRS:         "http://www.opengis.net/def/crs/EPSG/0/3857",
		OrderedAxes: []string{"E", "N"},
		matrices:    orderedmap.New[int, TileMatrix](),
	}
	for zoom := 0; zoom <= maxZoom; zoom++ {
		cellSize := p.Resolution(zoom)
		size := mathhelp.Pow2(uint(zoom))
		tms.matrices.Set(zoom, TileMatrix{
			ID:               strconv.Itoa(zoom),
			ScaleDenominator: cellSize / StandardizedRenderingPixelSize,
			CellSize:         cellSize,
			CornerOfOrigin:   "topLeft",
			PointOfOrigin:    TwoDPoint{-p.OriginShift(), p.OriginShift()},
			TileWidth:        p.TileSize(),
			TileHeight:       p.TileSize(),
			MatrixWidth:      size,
			MatrixHeight:     size,
		})
	}
	return tms, tms.validate()
}

// Matrix returns the tile matrix for a zoom level.
func (tms *TileMatrixSet) Matrix(zoom int) (TileMatrix, bool) {
	if tms.matrices == nil {
		return TileMatrix{}, false
	}
	return tms.matrices.Get(zoom)
}

// ZoomLevels returns the zoom levels of the set, ascending.
func (tms *TileMatrixSet) ZoomLevels() []int {
	if tms.matrices == nil {
		return nil
	}
	zooms := make([]int, 0, tms.matrices.Len())
	for pair := tms.matrices.Oldest(); pair != nil; pair = pair.Next() {
		zooms = append(zooms, pair.Key)
	}
	return zooms
}

func (tms *TileMatrixSet) MinZoom() int {
	return slices.Min(tms.ZoomLevels())
}

func (tms *TileMatrixSet) MaxZoom() int {
	return slices.Max(tms.ZoomLevels())
}

func (tms *TileMatrixSet) validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(tms); err != nil {
		return err
	}
	if tms.matrices == nil || tms.matrices.Len() == 0 {
		return fmt.Errorf("tile matrix set %q has no tile matrices", tms.ID)
	}
	for pair := tms.matrices.Oldest(); pair != nil; pair = pair.Next() {
		if err := validate.Struct(pair.Value); err != nil {
			return fmt.Errorf("tile matrix %q: %w", pair.Value.ID, err)
		}
	}
	return nil
}

func (tms *TileMatrixSet) MarshalJSON() ([]byte, error) {
	var tileMatrices []TileMatrix
	if tms.matrices != nil {
		tileMatrices = make([]TileMatrix, 0, tms.matrices.Len())
		for pair := tms.matrices.Oldest(); pair != nil; pair = pair.Next() {
			tileMatrices = append(tileMatrices, pair.Value)
		}
	}
	return json.Marshal(struct {
		TileMatrixSet // not a pointer, that would recurse into this function
		TileMatrices  []TileMatrix `json:"tileMatrices"`
	}{
		TileMatrixSet: *tms,
		TileMatrices:  tileMatrices,
	})
}

func (tms *TileMatrixSet) UnmarshalJSON(data []byte) error {
	if err := defaults.Set(tms); err != nil {
		return err
	}
	specials, err := marshmallow.Unmarshal(data, tms, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}
	rawTileMatrices, ok := specials["tileMatrices"]
	if !ok {
		return fmt.Errorf(`missing key "tileMatrices"`)
	}
	byZoom, err := unmarshalTileMatrices(rawTileMatrices)
	if err != nil {
		return err
	}
	zooms := maps.Keys(byZoom)
	slices.Sort(zooms)
	tms.matrices = orderedmap.New[int, TileMatrix]()
	for _, zoom := range zooms {
		tms.matrices.Set(zoom, byZoom[zoom])
	}
	return tms.validate()
}

func unmarshalTileMatrices(rawTileMatrices interface{}) (map[int]TileMatrix, error) {
	rawList, ok := rawTileMatrices.([]interface{})
	if !ok {
		return nil, fmt.Errorf(`"tileMatrices" should be an array`)
	}
	byZoom := make(map[int]TileMatrix, len(rawList))
	for _, raw := range rawList {
		rawMap, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf(`"tileMatrices" entries should be objects`)
		}
		var tileMatrix TileMatrix
		if err := defaults.Set(&tileMatrix); err != nil {
			return nil, err
		}
		if _, err := marshmallow.UnmarshalFromJSONMap(rawMap, &tileMatrix, marshmallow.WithExcludeKnownFieldsFromMap(true)); err != nil {
			return nil, err
		}
		zoom, err := strconv.Atoi(tileMatrix.ID)
		if err != nil {
			return nil, fmt.Errorf("only integer-like ids are supported for tile matrices: %w", err)
		}
		byZoom[zoom] = tileMatrix
	}
	return byZoom, nil
}
