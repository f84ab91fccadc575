// Package esp reads and writes TES3 plugin files (.esp/.esm).
//
// Only the record types the landmass merger needs are decoded: the
// TES3 file header, LAND terrain records, and LTEX texture records.
// Everything else is skipped without error.
package esp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/Faultbox/mergedlands/pkg/grid"
)

// Plugin format errors.
var (
	ErrNotPlugin     = errors.New("not a TES3 plugin: expected TES3 header record")
	ErrTruncatedData = errors.New("truncated plugin data")
	ErrFieldSize     = errors.New("unexpected field size")
)

// Grid side lengths of the LAND subrecords.
const (
	LandSize     = 65 // vertex heights, normals, colors
	TextureSize  = 16 // texture indices
	WorldMapSize = 9  // low-res world map samples
)

// Subrecord payload sizes, fixed by the format.
const (
	sizeINTV = 8
	sizeDATA = 4
	sizeVNML = LandSize * LandSize * 3
	sizeVHGT = 4 + LandSize*LandSize + 3
	sizeWNAM = WorldMapSize * WorldMapSize
	sizeVCLR = LandSize * LandSize * 3
	sizeVTEX = TextureSize * TextureSize * 2
)

// DataFlags records which channels a LAND record includes.
type DataFlags uint32

const (
	// FlagHeightsNormals covers VHGT, VNML, and WNAM together.
	FlagHeightsNormals DataFlags = 1 << 0
	// FlagVertexColors covers VCLR.
	FlagVertexColors DataFlags = 1 << 1
	// FlagTextures covers VTEX.
	FlagTextures DataFlags = 1 << 2
)

// Has reports whether all bits of f are set.
func (d DataFlags) Has(f DataFlags) bool {
	return d&f == f
}

// VertexHeights is the storage form of a cell's elevation: a float
// offset plus a 65×65 grid of signed-8-bit gradients.
type VertexHeights struct {
	Offset   float32
	Gradient grid.Grid[int8]
}

// LAND is one cell's terrain record.
type LAND struct {
	X, Y        int32
	RecordFlags uint32
	Included    DataFlags

	Heights  *VertexHeights
	Normals  *grid.Grid[grid.Vec3[int8]]
	WorldMap *grid.Grid[uint8]
	Colors   *grid.Grid[grid.Vec3[uint8]]
	Textures *grid.Grid[uint16]
}

// LTEX is a landscape texture record.
type LTEX struct {
	ID       string
	Index    uint32
	Filename string
}

// Master names a dependency of a plugin and its size on disk.
type Master struct {
	Name string
	Size uint64
}

// Header is the TES3 file header record.
type Header struct {
	Version     float32
	FileType    uint32
	Author      string
	Description string
	NumRecords  uint32
	Masters     []Master
}

// Plugin is a parsed TES3 plugin, reduced to the records the merger
// cares about.
type Plugin struct {
	Header   Header
	Lands    []*LAND
	Textures []*LTEX
}

type recordHeader struct {
	Tag      [4]byte
	DataSize uint32
	Reserved uint32
	Flags    uint32
}

type fieldHeader struct {
	Tag      [4]byte
	DataSize uint32
}

// Parse parses a plugin from raw bytes.
func Parse(data []byte) (*Plugin, error) {
	r := bytes.NewReader(data)
	plugin := &Plugin{}

	first := true
	for r.Len() > 0 {
		var rec recordHeader
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("%w: reading record header", ErrTruncatedData)
		}
		if int(rec.DataSize) > r.Len() {
			return nil, fmt.Errorf("%w: record %s claims %d bytes, %d remain", ErrTruncatedData, rec.Tag, rec.DataSize, r.Len())
		}

		body := make([]byte, rec.DataSize)
		if _, err := r.Read(body); err != nil {
			return nil, fmt.Errorf("%w: reading record %s", ErrTruncatedData, rec.Tag)
		}

		tag := string(rec.Tag[:])
		if first {
			if tag != "TES3" {
				return nil, ErrNotPlugin
			}
			first = false
		}

		switch tag {
		case "TES3":
			header, err := parseHeader(body)
			if err != nil {
				return nil, fmt.Errorf("parsing TES3 header: %w", err)
			}
			plugin.Header = *header
		case "LAND":
			land, err := parseLAND(body, rec.Flags)
			if err != nil {
				return nil, fmt.Errorf("parsing LAND record: %w", err)
			}
			plugin.Lands = append(plugin.Lands, land)
		case "LTEX":
			ltex, err := parseLTEX(body)
			if err != nil {
				return nil, fmt.Errorf("parsing LTEX record: %w", err)
			}
			plugin.Textures = append(plugin.Textures, ltex)
		default:
			// Skipped: cells, statics, scripts, and so on.
		}
	}

	if first {
		return nil, ErrNotPlugin
	}

	return plugin, nil
}

// Load parses a plugin file from disk.
func Load(path string) (*Plugin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plugin file: %w", err)
	}
	return Parse(data)
}

// fields iterates the subrecords of a record body.
func fields(body []byte, fn func(tag string, data []byte) error) error {
	r := bytes.NewReader(body)
	for r.Len() > 0 {
		var field fieldHeader
		if err := binary.Read(r, binary.LittleEndian, &field); err != nil {
			return fmt.Errorf("%w: reading field header", ErrTruncatedData)
		}
		if int(field.DataSize) > r.Len() {
			return fmt.Errorf("%w: field %s claims %d bytes, %d remain", ErrTruncatedData, field.Tag, field.DataSize, r.Len())
		}
		data := make([]byte, field.DataSize)
		if _, err := r.Read(data); err != nil {
			return fmt.Errorf("%w: reading field %s", ErrTruncatedData, field.Tag)
		}
		if err := fn(string(field.Tag[:]), data); err != nil {
			return err
		}
	}
	return nil
}

func wantSize(tag string, data []byte, want int) error {
	if len(data) != want {
		return fmt.Errorf("%w: %s is %d bytes, want %d", ErrFieldSize, tag, len(data), want)
	}
	return nil
}

// zstring decodes a null-terminated string field.
func zstring(data []byte) string {
	if idx := bytes.IndexByte(data, 0); idx >= 0 {
		return string(data[:idx])
	}
	return string(data)
}

func parseHeader(body []byte) (*Header, error) {
	header := &Header{}
	var pendingMaster string

	err := fields(body, func(tag string, data []byte) error {
		switch tag {
		case "HEDR":
			if err := wantSize(tag, data, 300); err != nil {
				return err
			}
			header.Version = float32FromLE(data[0:4])
			header.FileType = binary.LittleEndian.Uint32(data[4:8])
			header.Author = zstring(data[8:40])
			header.Description = zstring(data[40:296])
			header.NumRecords = binary.LittleEndian.Uint32(data[296:300])
		case "MAST":
			pendingMaster = zstring(data)
		case "DATA":
			if err := wantSize(tag, data, 8); err != nil {
				return err
			}
			header.Masters = append(header.Masters, Master{
				Name: pendingMaster,
				Size: binary.LittleEndian.Uint64(data),
			})
			pendingMaster = ""
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return header, nil
}

func parseLTEX(body []byte) (*LTEX, error) {
	ltex := &LTEX{}
	err := fields(body, func(tag string, data []byte) error {
		switch tag {
		case "NAME":
			ltex.ID = zstring(data)
		case "INTV":
			if err := wantSize(tag, data, 4); err != nil {
				return err
			}
			ltex.Index = binary.LittleEndian.Uint32(data)
		case "DATA":
			ltex.Filename = zstring(data)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ltex, nil
}

func parseLAND(body []byte, recordFlags uint32) (*LAND, error) {
	land := &LAND{RecordFlags: recordFlags}

	err := fields(body, func(tag string, data []byte) error {
		switch tag {
		case "INTV":
			if err := wantSize(tag, data, sizeINTV); err != nil {
				return err
			}
			land.X = int32(binary.LittleEndian.Uint32(data[0:4]))
			land.Y = int32(binary.LittleEndian.Uint32(data[4:8]))
		case "DATA":
			if err := wantSize(tag, data, sizeDATA); err != nil {
				return err
			}
			land.Included = DataFlags(binary.LittleEndian.Uint32(data))
		case "VNML":
			if err := wantSize(tag, data, sizeVNML); err != nil {
				return err
			}
			if land.Included.Has(FlagHeightsNormals) {
				g := parseVec3Grid(data, LandSize, func(b []byte) grid.Vec3[int8] {
					return grid.V3(int8(b[0]), int8(b[1]), int8(b[2]))
				})
				land.Normals = &g
			}
		case "VHGT":
			if err := wantSize(tag, data, sizeVHGT); err != nil {
				return err
			}
			if land.Included.Has(FlagHeightsNormals) {
				heights := &VertexHeights{
					Offset:   float32FromLE(data[0:4]),
					Gradient: grid.New[int8](LandSize),
				}
				cells := heights.Gradient.Cells()
				for i := range cells {
					cells[i] = int8(data[4+i])
				}
				land.Heights = heights
			}
		case "WNAM":
			if err := wantSize(tag, data, sizeWNAM); err != nil {
				return err
			}
			if land.Included.Has(FlagHeightsNormals) {
				g := grid.New[uint8](WorldMapSize)
				copy(g.Cells(), data)
				land.WorldMap = &g
			}
		case "VCLR":
			if err := wantSize(tag, data, sizeVCLR); err != nil {
				return err
			}
			if land.Included.Has(FlagVertexColors) {
				g := parseVec3Grid(data, LandSize, func(b []byte) grid.Vec3[uint8] {
					return grid.V3(b[0], b[1], b[2])
				})
				land.Colors = &g
			}
		case "VTEX":
			if err := wantSize(tag, data, sizeVTEX); err != nil {
				return err
			}
			if land.Included.Has(FlagTextures) {
				g := grid.New[uint16](TextureSize)
				cells := g.Cells()
				for i := range cells {
					cells[i] = binary.LittleEndian.Uint16(data[i*2 : i*2+2])
				}
				land.Textures = &g
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return land, nil
}

func parseVec3Grid[T grid.Scalar](data []byte, side int, decode func([]byte) grid.Vec3[T]) grid.Grid[grid.Vec3[T]] {
	g := grid.New[grid.Vec3[T]](side)
	cells := g.Cells()
	for i := range cells {
		cells[i] = decode(data[i*3 : i*3+3])
	}
	return g
}

func float32FromLE(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
