//go:build ignore

// This program generates a synthetic landmass plugin for manual
// testing and demos. Run with: go run generate.go
package main

import (
	"fmt"

	"github.com/aquilax/go-perlin"

	"github.com/Faultbox/mergedlands/internal/land"
	"github.com/Faultbox/mergedlands/pkg/esp"
	"github.com/Faultbox/mergedlands/pkg/grid"
)

const (
	cells     = 4   // cells per axis
	amplitude = 800 // peak elevation in world units
	scale     = 90  // noise feature size in vertices
)

func main() {
	elevation := perlin.NewPerlin(2, 2, 3, 1337)
	ground := perlin.NewPerlin(2, 2, 2, 7331)

	plugin := &esp.Plugin{
		Header: esp.Header{
			Version:     1.3,
			Author:      "mergedlands",
			Description: "Synthetic perlin landmass for testing",
		},
		Textures: []*esp.LTEX{
			{ID: "demo_grass", Index: 0, Filename: "textures\\tx_grass.dds"},
			{ID: "demo_rock", Index: 1, Filename: "textures\\tx_rock.dds"},
		},
	}

	for cy := int32(0); cy < cells; cy++ {
		for cx := int32(0); cx < cells; cx++ {
			plugin.Lands = append(plugin.Lands, generateCell(elevation, ground, cx, cy))
		}
	}

	if err := plugin.Save("demo.esp"); err != nil {
		panic(err)
	}
	fmt.Printf("Generated demo.esp with %d cells\n", len(plugin.Lands))
}

func generateCell(elevation, ground *perlin.Perlin, cx, cy int32) *esp.LAND {
	terrain := grid.New[int32](esp.LandSize)
	for p := range terrain.Points() {
		// Cells share border vertices, so the global position
		// steps by side-1 per cell.
		gx := float64(cx)*(esp.LandSize-1) + float64(p.X)
		gy := float64(cy)*(esp.LandSize-1) + float64(p.Y)
		h := elevation.Noise2D(gx/scale, gy/scale) * amplitude
		// Snap to the codec's storage quantum.
		terrain.Set(p, int32(h)/land.HeightScale*land.HeightScale)
	}

	normals := land.ComputeNormals(terrain)

	textures := grid.New[uint16](esp.TextureSize)
	for p := range textures.Points() {
		gx := float64(cx)*esp.TextureSize + float64(p.X)
		gy := float64(cy)*esp.TextureSize + float64(p.Y)
		if ground.Noise2D(gx/24, gy/24) > 0.1 {
			textures.Set(p, 2) // rock
		} else {
			textures.Set(p, 1) // grass
		}
	}

	worldMap := grid.New[uint8](esp.WorldMapSize)
	for p := range worldMap.Points() {
		sample := terrain.Get(grid.Pt(p.X*8, p.Y*8))
		worldMap.Set(p, uint8(min(max((sample+amplitude)*255/(2*amplitude), 0), 255)))
	}

	return &esp.LAND{
		X:        cx,
		Y:        cy,
		Included: esp.FlagHeightsNormals | esp.FlagTextures,
		Heights:  land.EncodeHeights(terrain),
		Normals:  &normals,
		WorldMap: &worldMap,
		Textures: &textures,
	}
}
