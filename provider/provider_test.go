package provider

import (
	"fmt"
	"strings"
	"testing"

	"github.com/go-spatial/geom/slippy"
	"github.com/stretchr/testify/require"

	"github.com/mapgrid/tilekit/tilescheme"
)

func TestTemplate_Validate(t *testing.T) {
	tests := []struct {
		name     string
		template Template
		wantErr  error
	}{
		{name: "xyz placeholders",
			template: Template{Name: "t", URL: "https://example.org/{z}/{x}/{y}.png"}},
		{name: "quadkey placeholder",
			template: Template{Name: "t", URL: "https://example.org/r{q}.jpeg"}},
		{name: "no placeholders",
			template: Template{Name: "t", URL: "https://example.org/static.png"},
			wantErr:  ErrNoPlaceholder},
		{name: "missing z",
			template: Template{Name: "t", URL: "https://example.org/{x}/{y}.png"},
			wantErr:  ErrNoPlaceholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.template.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTemplate_Validate_TruncatesLongURLs(t *testing.T) {
	template := Template{Name: "t", URL: "https://example.org/" + strings.Repeat("a", 200)}
	err := template.Validate()
	require.ErrorIs(t, err, ErrNoPlaceholder)
	require.Contains(t, err.Error(), "...")
	require.Less(t, len(err.Error()), 120)
}

func TestTemplate_Validate_ShardWithoutSubdomains(t *testing.T) {
	template := Template{Name: "t", URL: "https://{s}.example.org/{z}/{x}/{y}.png"}
	require.Error(t, template.Validate())
}

func TestTemplate_TileURL(t *testing.T) {
	type args struct {
		tile *slippy.Tile
	}
	tests := []struct {
		name     string
		template Template
		args
		want    string
		wantErr error
	}{
		{name: "xyz",
			template: Template{URL: "https://tile.openstreetmap.org/{z}/{x}/{y}.png", Scheme: tilescheme.XYZ},
			args:     args{slippy.NewTile(3, 1, 2)},
			want:     "https://tile.openstreetmap.org/3/1/2.png"},
		{name: "tms flips the row",
			template: Template{URL: "https://geodata.example.org/tms/1.0.0/base/{z}/{x}/{y}.png", Scheme: tilescheme.TMS},
			args:     args{slippy.NewTile(3, 1, 2)},
			want:     "https://geodata.example.org/tms/1.0.0/base/3/1/5.png"},
		{name: "quadkey with shard",
			template: Template{
				URL:        "https://ecn.t{s}.tiles.virtualearth.net/tiles/r{q}.jpeg?g=1",
				Scheme:     tilescheme.Quadkey,
				Subdomains: []string{"0", "1", "2", "3"},
			},
			args: args{slippy.NewTile(3, 1, 2)},
			want: "https://ecn.t3.tiles.virtualearth.net/tiles/r021.jpeg?g=1"},
		{name: "tile out of range",
			template: Template{URL: "https://example.org/{z}/{x}/{y}.png"},
			args:     args{slippy.NewTile(2, 4, 0)},
			wantErr:  ErrInvalidTile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.template.TileURL(tt.args.tile)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTemplate_TileURL_ShardIsDeterministic(t *testing.T) {
	template := Template{
		URL:        "https://{s}.example.org/{z}/{x}/{y}.png",
		Subdomains: []string{"a", "b", "c"},
	}
	tile := slippy.NewTile(5, 7, 9)
	first, err := template.TileURL(tile)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := template.TileURL(tile)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
	// (7+9) mod 3 == 1 -> "b"
	require.True(t, strings.HasPrefix(first, "https://b."), first)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Template{Name: "zulu", URL: "https://z.example.org/{z}/{x}/{y}.png"}))
	require.NoError(t, r.Register(Template{Name: "alpha", URL: "https://a.example.org/{z}/{x}/{y}.png"}))
	require.NoError(t, r.Register(Template{Name: "mike", URL: "https://m.example.org/{z}/{x}/{y}.png"}))

	require.Equal(t, []string{"alpha", "mike", "zulu"}, r.Names())

	got, err := r.Lookup("mike")
	require.NoError(t, err)
	require.Equal(t, "https://m.example.org/{z}/{x}/{y}.png", got.URL)

	_, err = r.Lookup("nope")
	require.ErrorIs(t, err, ErrUnknownName)

	// replacing keeps one entry per name
	require.NoError(t, r.Register(Template{Name: "mike", URL: "https://m2.example.org/{z}/{x}/{y}.png"}))
	require.Equal(t, []string{"alpha", "mike", "zulu"}, r.Names())
	got, err = r.Lookup("mike")
	require.NoError(t, err)
	require.Equal(t, "https://m2.example.org/{z}/{x}/{y}.png", got.URL)

	require.ErrorIs(t, r.Register(Template{Name: "bad", URL: "https://example.org/static.png"}), ErrNoPlaceholder)
}

func TestBuiltin(t *testing.T) {
	r := Builtin()
	require.Equal(t, []string{"bing-road", "geodata-tms", "osm"}, r.Names())

	for _, name := range r.Names() {
		t.Run(fmt.Sprintf("builtin %s", name), func(t *testing.T) {
			template, err := r.Lookup(name)
			require.NoError(t, err)
			url, err := template.TileURL(slippy.NewTile(3, 1, 2))
			require.NoError(t, err)
			require.NotContains(t, url, "{")
		})
	}
}
