package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/go-spatial/geom/slippy"
	"github.com/iancoleman/strcase"
	"github.com/urfave/cli/v2"

	"github.com/mapgrid/tilekit/mercator"
	"github.com/mapgrid/tilekit/provider"
	"github.com/mapgrid/tilekit/quadkey"
	"github.com/mapgrid/tilekit/tilematrix"
	"github.com/mapgrid/tilekit/tilescheme"
)

const LON string = `lon`
const LAT string = `lat`
const ZOOM string = `zoom`
const SCHEME string = `scheme`
const PROVIDER string = `provider`
const TILEX string = `x`
const TILEY string = `y`
const TILEZ string = `z`
const GEOGRAPHIC string = `geographic`
const TILESIZE string = `tilesize`
const MAXZOOM string = `maxzoom`

func main() {
	app := cli.NewApp()
	app.Name = "tilekit"
	app.Usage = "Web Mercator tile coordinate and addressing toolbox"
	app.Version = versioninfo.Short()

	app.Commands = []*cli.Command{
		{
			Name:  "locate",
			Usage: "Convert a lon/lat coordinate to a tile index, quadkey and provider URL",
			Flags: []cli.Flag{
				&cli.Float64Flag{
					Name:     LON,
					Usage:    "Longitude in WGS84 degrees",
					Required: true,
					EnvVars:  []string{strcase.ToScreamingSnake(LON)},
				},
				&cli.Float64Flag{
					Name:     LAT,
					Usage:    "Latitude in WGS84 degrees",
					Required: true,
					EnvVars:  []string{strcase.ToScreamingSnake(LAT)},
				},
				&cli.IntFlag{
					Name:     ZOOM,
					Usage:    "Zoom level",
					Required: true,
					EnvVars:  []string{strcase.ToScreamingSnake(ZOOM)},
				},
				&cli.StringFlag{
					Name:    SCHEME,
					Usage:   "Tile addressing scheme of the printed index: xyz, tms or quadkey",
					Value:   string(tilescheme.XYZ),
					EnvVars: []string{strcase.ToScreamingSnake(SCHEME)},
				},
				&cli.StringFlag{
					Name:    PROVIDER,
					Usage:   "Also print the tile URL at this provider (see 'providers')",
					EnvVars: []string{strcase.ToScreamingSnake(PROVIDER)},
				},
				&cli.UintFlag{
					Name:    TILESIZE,
					Usage:   "Tile size in pixels",
					Value:   mercator.DefaultTileSize,
					EnvVars: []string{strcase.ToScreamingSnake(TILESIZE)},
				},
			},
			Action: locate,
		},
		{
			Name:  "bounds",
			Usage: "Print the bounding box of an XYZ-addressed tile",
			Flags: []cli.Flag{
				&cli.UintFlag{
					Name:     TILEX,
					Usage:    "Tile column",
					Required: true,
					EnvVars:  []string{strcase.ToScreamingSnake("tile_x")},
				},
				&cli.UintFlag{
					Name:     TILEY,
					Usage:    "Tile row (XYZ numbering, 0 at the top)",
					Required: true,
					EnvVars:  []string{strcase.ToScreamingSnake("tile_y")},
				},
				&cli.UintFlag{
					Name:     TILEZ,
					Usage:    "Zoom level",
					Required: true,
					EnvVars:  []string{strcase.ToScreamingSnake("tile_z")},
				},
				&cli.BoolFlag{
					Name:    GEOGRAPHIC,
					Aliases: []string{"g"},
					Usage:   "Print the bounds in WGS84 degrees instead of meters",
					EnvVars: []string{strcase.ToScreamingSnake(GEOGRAPHIC)},
				},
				&cli.UintFlag{
					Name:    TILESIZE,
					Usage:   "Tile size in pixels",
					Value:   mercator.DefaultTileSize,
					EnvVars: []string{strcase.ToScreamingSnake(TILESIZE)},
				},
			},
			Action: bounds,
		},
		{
			Name:  "matrix",
			Usage: "Emit the WebMercatorQuad tile matrix set as OGC TMS 2.0 JSON",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    MAXZOOM,
					Usage:   "Deepest tile matrix to include",
					Value:   22,
					EnvVars: []string{strcase.ToScreamingSnake(MAXZOOM)},
				},
			},
			Action: matrix,
		},
		{
			Name:   "providers",
			Usage:  "List the built-in tile providers",
			Action: providers,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func locate(c *cli.Context) error {
	scheme, err := tilescheme.ParseScheme(c.String(SCHEME))
	if err != nil {
		return err
	}
	proj := mercator.New(c.Uint(TILESIZE))
	tile, err := proj.LatLonToTile(c.Float64(LON), c.Float64(LAT), c.Int(ZOOM))
	if err != nil {
		return err
	}

	switch scheme {
	case tilescheme.TMS:
		tms := tilescheme.ToTMS(tile)
		fmt.Printf("tile (tms): %d/%d/%d\n", tms.Z, tms.X, tms.Y)
	case tilescheme.Quadkey:
		key, err := quadkey.FromTile(tile)
		if err != nil {
			return err
		}
		fmt.Printf("quadkey: %s\n", key)
	default:
		fmt.Printf("tile (xyz): %d/%d/%d\n", tile.Z, tile.X, tile.Y)
	}

	if name := c.String(PROVIDER); name != "" {
		template, err := provider.Builtin().Lookup(name)
		if err != nil {
			return err
		}
		url, err := template.TileURL(tile)
		if err != nil {
			return err
		}
		fmt.Printf("url: %s\n", url)
	}
	return nil
}

func bounds(c *cli.Context) error {
	proj := mercator.New(c.Uint(TILESIZE))
	tile := slippy.NewTile(c.Uint(TILEZ), c.Uint(TILEX), c.Uint(TILEY))
	if !tilescheme.Valid(tile) {
		return fmt.Errorf("tile %d/%d/%d is out of range", tile.Z, tile.X, tile.Y)
	}
	if c.Bool(GEOGRAPHIC) {
		extent, err := proj.TileLatLonBounds(tile)
		if err != nil {
			return err
		}
		fmt.Printf("%.8f %.8f %.8f %.8f\n", extent.MinX(), extent.MinY(), extent.MaxX(), extent.MaxY())
		return nil
	}
	extent, err := proj.TileBounds(tile)
	if err != nil {
		return err
	}
	fmt.Printf("%.4f %.4f %.4f %.4f\n", extent.MinX(), extent.MinY(), extent.MaxX(), extent.MaxY())
	return nil
}

func matrix(c *cli.Context) error {
	tms, err := tilematrix.WebMercatorQuad(c.Int(MAXZOOM))
	if err != nil {
		return err
	}
	doc, err := json.MarshalIndent(tms, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(doc))
	return nil
}

func providers(c *cli.Context) error {
	for _, name := range provider.Builtin().Names() {
		fmt.Println(name)
	}
	return nil
}
