package esp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/Faultbox/mergedlands/pkg/grid"
)

// Encode serializes the plugin: TES3 header, LTEX records, then a
// minimal exterior CELL stub followed by the LAND record for each
// cell. The stub carries only flags and grid coordinates so the
// plugin loads in-game; cell contents are not this package's
// concern.
func (p *Plugin) Encode() []byte {
	var out bytes.Buffer

	// Records after the header: one LTEX each, CELL+LAND per cell.
	header := p.Header
	header.NumRecords = uint32(len(p.Textures) + 2*len(p.Lands))
	writeRecord(&out, "TES3", 0, encodeHeader(&header))

	for _, ltex := range p.Textures {
		writeRecord(&out, "LTEX", 0, encodeLTEX(ltex))
	}

	for _, land := range p.Lands {
		writeRecord(&out, "CELL", 0, encodeCellStub(land))
		writeRecord(&out, "LAND", land.RecordFlags, encodeLAND(land))
	}

	return out.Bytes()
}

// Save writes the encoded plugin to path.
func (p *Plugin) Save(path string) error {
	if err := os.WriteFile(path, p.Encode(), 0644); err != nil {
		return fmt.Errorf("writing plugin file: %w", err)
	}
	return nil
}

func writeRecord(out *bytes.Buffer, tag string, flags uint32, body []byte) {
	out.WriteString(tag)
	binary.Write(out, binary.LittleEndian, uint32(len(body)))
	binary.Write(out, binary.LittleEndian, uint32(0)) // reserved
	binary.Write(out, binary.LittleEndian, flags)
	out.Write(body)
}

func writeField(out *bytes.Buffer, tag string, data []byte) {
	out.WriteString(tag)
	binary.Write(out, binary.LittleEndian, uint32(len(data)))
	out.Write(data)
}

// writeZString writes s as a null-terminated field.
func writeZString(out *bytes.Buffer, tag, s string) {
	writeField(out, tag, append([]byte(s), 0))
}

func encodeHeader(header *Header) []byte {
	var body bytes.Buffer

	hedr := make([]byte, 300)
	binary.LittleEndian.PutUint32(hedr[0:4], math.Float32bits(header.Version))
	binary.LittleEndian.PutUint32(hedr[4:8], header.FileType)
	copy(hedr[8:40], header.Author)
	copy(hedr[40:296], header.Description)
	binary.LittleEndian.PutUint32(hedr[296:300], header.NumRecords)
	writeField(&body, "HEDR", hedr)

	for _, master := range header.Masters {
		writeZString(&body, "MAST", master.Name)
		size := make([]byte, 8)
		binary.LittleEndian.PutUint64(size, master.Size)
		writeField(&body, "DATA", size)
	}

	return body.Bytes()
}

func encodeLTEX(ltex *LTEX) []byte {
	var body bytes.Buffer
	writeZString(&body, "NAME", ltex.ID)
	index := make([]byte, 4)
	binary.LittleEndian.PutUint32(index, ltex.Index)
	writeField(&body, "INTV", index)
	writeZString(&body, "DATA", ltex.Filename)
	return body.Bytes()
}

func encodeCellStub(land *LAND) []byte {
	var body bytes.Buffer
	writeZString(&body, "NAME", "")
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], 0x02) // exterior, has water
	binary.LittleEndian.PutUint32(data[4:8], uint32(land.X))
	binary.LittleEndian.PutUint32(data[8:12], uint32(land.Y))
	writeField(&body, "DATA", data)
	return body.Bytes()
}

func encodeVec3Grid[T grid.Scalar](g grid.Grid[grid.Vec3[T]], enc func(grid.Vec3[T]) []byte) []byte {
	out := make([]byte, 0, len(g.Cells())*3)
	for _, v := range g.Cells() {
		out = append(out, enc(v)...)
	}
	return out
}

func encodeLAND(land *LAND) []byte {
	var body bytes.Buffer

	intv := make([]byte, sizeINTV)
	binary.LittleEndian.PutUint32(intv[0:4], uint32(land.X))
	binary.LittleEndian.PutUint32(intv[4:8], uint32(land.Y))
	writeField(&body, "INTV", intv)

	data := make([]byte, sizeDATA)
	binary.LittleEndian.PutUint32(data, uint32(land.Included))
	writeField(&body, "DATA", data)

	if land.Normals != nil {
		writeField(&body, "VNML", encodeVec3Grid(*land.Normals, func(v grid.Vec3[int8]) []byte {
			return []byte{byte(v.X), byte(v.Y), byte(v.Z)}
		}))
	}

	if land.Heights != nil {
		vhgt := make([]byte, sizeVHGT)
		binary.LittleEndian.PutUint32(vhgt[0:4], math.Float32bits(land.Heights.Offset))
		for i, g := range land.Heights.Gradient.Cells() {
			vhgt[4+i] = byte(g)
		}
		writeField(&body, "VHGT", vhgt)
	}

	if land.WorldMap != nil {
		wnam := make([]byte, sizeWNAM)
		copy(wnam, land.WorldMap.Cells())
		writeField(&body, "WNAM", wnam)
	}

	if land.Colors != nil {
		writeField(&body, "VCLR", encodeVec3Grid(*land.Colors, func(v grid.Vec3[uint8]) []byte {
			return []byte{v.X, v.Y, v.Z}
		}))
	}

	if land.Textures != nil {
		vtex := make([]byte, sizeVTEX)
		for i, idx := range land.Textures.Cells() {
			binary.LittleEndian.PutUint16(vtex[i*2:i*2+2], idx)
		}
		writeField(&body, "VTEX", vtex)
	}

	return body.Bytes()
}
