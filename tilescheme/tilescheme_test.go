package tilescheme

import (
	"fmt"
	"testing"

	"github.com/go-spatial/geom/slippy"
	"github.com/stretchr/testify/require"
)

func TestParseScheme(t *testing.T) {
	tests := []struct {
		in      string
		want    Scheme
		wantErr bool
	}{
		{in: "xyz", want: XYZ},
		{in: "tms", want: TMS},
		{in: "quadkey", want: Quadkey},
		{in: "wmts", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("ParseScheme(%q)", tt.in), func(t *testing.T) {
			got, err := ParseScheme(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFlipRow(t *testing.T) {
	type args struct {
		row, zoom uint
	}
	tests := []struct {
		args
		want uint
	}{
		{args: args{0, 0}, want: 0},
		{args: args{0, 1}, want: 1},
		{args: args{0, 3}, want: 7},
		{args: args{7, 3}, want: 0},
		{args: args{3, 3}, want: 4},
		{args: args{100, 10}, want: 923},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("FlipRow(%d, %d)", tt.row, tt.zoom), func(t *testing.T) {
			require.Equal(t, tt.want, FlipRow(tt.args.row, tt.args.zoom))
		})
	}
}

func TestFlipRowIsInvolution(t *testing.T) {
	for zoom := uint(0); zoom <= 12; zoom++ {
		limit := uint(1) << zoom
		for row := uint(0); row < limit; row += 1 + zoom {
			require.Equalf(t, row, FlipRow(FlipRow(row, zoom), zoom),
				"row %d at zoom %d should survive a double flip", row, zoom)
		}
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		tile *slippy.Tile
		want bool
	}{
		{tile: slippy.NewTile(0, 0, 0), want: true},
		{tile: slippy.NewTile(3, 7, 7), want: true},
		{tile: slippy.NewTile(3, 8, 0), want: false},
		{tile: slippy.NewTile(3, 0, 8), want: false},
		{tile: slippy.NewTile(0, 1, 0), want: false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("Valid(%d/%d/%d)", tt.tile.Z, tt.tile.X, tt.tile.Y), func(t *testing.T) {
			require.Equal(t, tt.want, Valid(tt.tile))
		})
	}
}

func TestToTMSAndBack(t *testing.T) {
	xyz := slippy.NewTile(5, 9, 3)
	tms := ToTMS(xyz)
	require.Equal(t, slippy.NewTile(5, 9, 28), tms)
	require.Equal(t, xyz, ToXYZ(tms))
}

func TestStorageRow(t *testing.T) {
	// MBTiles keeps rows in TMS numbering
	require.Equal(t, uint(28), StorageRow(slippy.NewTile(5, 9, 3)))
	require.Equal(t, uint(0), StorageRow(slippy.NewTile(0, 0, 0)))
}
