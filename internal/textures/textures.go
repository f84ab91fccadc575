// Package textures keeps the global landscape-texture registry and
// the per-plugin index remap tables.
//
// Texture grids store the value 0 for the default texture; any other
// value k refers to the registry entry with index k-1.
package textures

import (
	"fmt"
	"math"
	"slices"

	"github.com/Faultbox/mergedlands/pkg/esp"
	"github.com/Faultbox/mergedlands/pkg/grid"
)

// Remapped maps one plugin's texture indices into the registry's.
type Remapped struct {
	indices map[uint16]uint16
}

// NewRemapped returns an empty remap table.
func NewRemapped() *Remapped {
	return &Remapped{indices: make(map[uint16]uint16)}
}

// RemappedFromUsed builds the compaction table for the registry:
// used[i] says whether the texture with index i is still referenced,
// and surviving textures are renumbered densely in index order.
func RemappedFromUsed(used []bool) *Remapped {
	r := NewRemapped()
	next := uint16(0)
	for index, isUsed := range used {
		if isUsed {
			r.indices[uint16(index)] = next
			next++
		}
	}
	return r
}

// TryRemap translates a texture grid value. Zero is the default
// texture and always maps to itself.
func (r *Remapped) TryRemap(value uint16) (uint16, bool) {
	if value == 0 {
		return 0, true
	}
	index, ok := r.indices[value-1]
	if !ok {
		return 0, false
	}
	return index + 1, true
}

// Remap translates a texture grid value, panicking on indices the
// table does not know.
func (r *Remapped) Remap(value uint16) uint16 {
	mapped, ok := r.TryRemap(value)
	if !ok {
		panic(fmt.Sprintf("textures: no remapping for texture index %d", value-1))
	}
	return mapped
}

// RemapGrid rewrites a texture grid in place through the table.
func RemapGrid(g *grid.Grid[uint16], r *Remapped) {
	cells := g.Cells()
	for i, v := range cells {
		cells[i] = r.Remap(v)
	}
}

// KnownTexture is a registry entry: the LTEX record, with its index
// kept current, and the plugin that last touched it.
type KnownTexture struct {
	LTEX   esp.LTEX
	Plugin string
}

// Known is the id-keyed registry of every landscape texture seen
// while parsing, with stable indices in insertion order.
type Known struct {
	byID map[string]*KnownTexture
}

// NewKnown returns an empty registry.
func NewKnown() *Known {
	return &Known{byID: make(map[string]*KnownTexture)}
}

// Len returns the registry size, panicking if it ever outgrows the
// 16-bit index space of the texture grids.
func (k *Known) Len() int {
	if len(k.byID) >= math.MaxUint16 {
		panic("textures: exceeded 65535 landscape textures")
	}
	return len(k.byID)
}

// Sorted returns the entries ordered by index.
func (k *Known) Sorted() []*KnownTexture {
	out := make([]*KnownTexture, 0, len(k.byID))
	for _, t := range k.byID {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *KnownTexture) int {
		return int(a.LTEX.Index) - int(b.LTEX.Index)
	})
	return out
}

// Add registers a plugin's LTEX record, reusing the entry when the id
// is already known, and records the index translation in the plugin's
// remap table.
func (k *Known) Add(plugin string, ltex *esp.LTEX, remapped *Remapped) {
	oldIndex := narrowIndex(ltex)

	known, ok := k.byID[ltex.ID]
	if !ok {
		known = &KnownTexture{
			LTEX:   *ltex,
			Plugin: plugin,
		}
		known.LTEX.Index = uint32(k.Len())
		k.byID[ltex.ID] = known
	}

	remapped.indices[oldIndex] = uint16(known.LTEX.Index)
}

// Update refreshes an already-known texture's filename from a later
// plugin.
func (k *Known) Update(plugin string, ltex *esp.LTEX) {
	known, ok := k.byID[ltex.ID]
	if !ok {
		panic(fmt.Sprintf("textures: unknown texture id %q", ltex.ID))
	}
	if ltex.Filename != "" {
		known.LTEX.Filename = ltex.Filename
		known.Plugin = plugin
	}
}

// RemoveUnused renumbers every entry through the compaction table and
// drops the ones the table has no mapping for. Returns the number of
// dropped textures.
func (k *Known) RemoveUnused(remapped *Remapped) int {
	var unused []string
	for id, t := range k.byID {
		grid := uint16(t.LTEX.Index) + 1
		if newValue, ok := remapped.TryRemap(grid); ok {
			t.LTEX.Index = uint32(newValue - 1)
		} else {
			unused = append(unused, id)
		}
	}
	for _, id := range unused {
		delete(k.byID, id)
	}
	return len(unused)
}

func narrowIndex(ltex *esp.LTEX) uint16 {
	if ltex.Index > math.MaxUint16 {
		panic(fmt.Sprintf("textures: LTEX %q has out-of-range index %d", ltex.ID, ltex.Index))
	}
	return uint16(ltex.Index)
}
