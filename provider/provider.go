// Package provider builds remote tile URLs from tile indices. A Template
// holds a provider's URL pattern with {x}, {y}, {z}, {q} and {s}
// placeholders; the addressing scheme of the provider decides whether the
// row is flipped (TMS) or encoded as a quadkey (Bing) first.
package provider

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-spatial/geom/slippy"
	"github.com/muesli/reflow/truncate"
	"github.com/umpc/go-sortedmap"

	"github.com/mapgrid/tilekit/quadkey"
	"github.com/mapgrid/tilekit/tilescheme"
)

const maxURLInErr = 64

var (
	ErrNoPlaceholder = errors.New("url template has no tile placeholders")
	ErrInvalidTile   = errors.New("tile index out of range")
	ErrUnknownName   = errors.New("no provider registered under name")
)

// Template describes one remote tile provider.
type Template struct {
	// Registry key, e.g. "osm"
	Name string
	// URL pattern with {x}, {y}, {z}, {q} and {s} placeholders
	URL string
	// Addressing scheme the provider expects; XYZ when empty
	Scheme tilescheme.Scheme
	// Values substituted round-robin for {s}
	Subdomains []string
}

// Validate checks that the template varies per tile: either {x}, {y} and {z}
// or {q} must be present.
func (t Template) Validate() error {
	hasXYZ := strings.Contains(t.URL, "{x}") && strings.Contains(t.URL, "{y}") && strings.Contains(t.URL, "{z}")
	hasQuadkey := strings.Contains(t.URL, "{q}")
	if !hasXYZ && !hasQuadkey {
		return fmt.Errorf("%w: %s", ErrNoPlaceholder, truncate.StringWithTail(t.URL, maxURLInErr, "..."))
	}
	if strings.Contains(t.URL, "{s}") && len(t.Subdomains) == 0 {
		return fmt.Errorf("template %s uses {s} but has no subdomains", t.Name)
	}
	return nil
}

// TileURL returns the URL of an XYZ-addressed tile at this provider.
func (t Template) TileURL(tile *slippy.Tile) (string, error) {
	if !tilescheme.Valid(tile) {
		return "", fmt.Errorf("%w: %d/%d/%d", ErrInvalidTile, tile.Z, tile.X, tile.Y)
	}
	row := tile.Y
	if t.Scheme == tilescheme.TMS {
		row = tilescheme.FlipRow(tile.Y, tile.Z)
	}
	url := t.URL
	if strings.Contains(url, "{q}") {
		key, err := quadkey.Encode(tile.X, tile.Y, tile.Z)
		if err != nil {
			return "", err
		}
		url = strings.ReplaceAll(url, "{q}", key)
	}
	url = strings.ReplaceAll(url, "{x}", strconv.FormatUint(uint64(tile.X), 10))
	url = strings.ReplaceAll(url, "{y}", strconv.FormatUint(uint64(row), 10))
	url = strings.ReplaceAll(url, "{z}", strconv.FormatUint(uint64(tile.Z), 10))
	if len(t.Subdomains) > 0 {
		shard := t.Subdomains[(tile.X+tile.Y)%uint(len(t.Subdomains))]
		url = strings.ReplaceAll(url, "{s}", shard)
	}
	return url, nil
}

// Registry keeps templates sorted by name. Register all providers during
// startup; the registry is not safe for concurrent mutation.
type Registry struct {
	byName *sortedmap.SortedMap
}

func NewRegistry() *Registry {
	return &Registry{
		byName: sortedmap.New(8, func(i, j interface{}) bool {
			return i.(Template).Name < j.(Template).Name
		}),
	}
}

// Register validates and stores a template, replacing any previous template
// with the same name.
func (r *Registry) Register(t Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.byName.Replace(t.Name, t)
	return nil
}

// Lookup returns the template registered under name.
func (r *Registry) Lookup(name string) (Template, error) {
	rec, ok := r.byName.Get(name)
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	return rec.(Template), nil
}

// Names returns the registered provider names in alphabetical order.
func (r *Registry) Names() []string {
	keys := r.byName.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.(string)
	}
	return names
}

// Builtin returns a registry with well-known providers covering all three
// addressing schemes.
func Builtin() *Registry {
	r := NewRegistry()
	for _, t := range []Template{
		{
			Name:   "osm",
			URL:    "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
			Scheme: tilescheme.XYZ,
		},
		{
			Name:       "bing-road",
			URL:        "https://ecn.t{s}.tiles.virtualearth.net/tiles/r{q}.jpeg?g=1",
			Scheme:     tilescheme.Quadkey,
			Subdomains: []string{"0", "1", "2", "3"},
		},
		{
			Name:   "geodata-tms",
			URL:    "https://geodata.example.org/tms/1.0.0/base/{z}/{x}/{y}.png",
			Scheme: tilescheme.TMS,
		},
	} {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}
