package merge

import (
	"testing"

	"github.com/Faultbox/mergedlands/internal/land"
	"github.com/Faultbox/mergedlands/pkg/grid"
)

func testLandscape(plugin string) *land.Landscape {
	heights := grid.New[int32](4)
	normals := grid.New[grid.Vec3[int8]](4)
	normals.Fill(grid.V3[int8](0, 0, 127))
	textures := grid.New[uint16](4)

	return &land.Landscape{
		Coords:   land.Coords{X: 1, Y: 2},
		Plugin:   plugin,
		Data:     land.AllChannels,
		Heights:  &heights,
		Normals:  &normals,
		Textures: &textures,
	}
}

func TestFromReference(t *testing.T) {
	d := FromReference(testLandscape("base.esm"), land.AllChannels)

	if d.IsModified() {
		t.Error("reference diff must be conflict free")
	}
	if d.HeightMap == nil || d.VertexNormals == nil || d.TextureIndices == nil {
		t.Error("expected maps for every present channel")
	}
	if d.WorldMapData != nil || d.VertexColors != nil {
		t.Error("expected no maps for absent channels")
	}
	if len(d.Plugins) != 1 || d.Plugins[0].Plugin != "base.esm" {
		t.Errorf("unexpected provenance: %v", d.Plugins)
	}
}

func TestFromReferenceHonorsAllowed(t *testing.T) {
	d := FromReference(testLandscape("base.esm"), land.Heights)
	if d.HeightMap == nil {
		t.Error("expected allowed channel present")
	}
	if d.VertexNormals != nil || d.TextureIndices != nil {
		t.Error("expected disallowed channels dropped")
	}
}

func TestFromDifferenceDropsUnmodified(t *testing.T) {
	reference := testLandscape("base.esm")
	plugin := testLandscape("mod.esp")
	plugin.Heights.Set(grid.Pt(1, 1), 80)

	d := DiffLandscape(plugin, reference, land.AllChannels)

	if d.HeightMap == nil {
		t.Fatal("expected a height map diff")
	}
	if d.HeightMap.Difference(grid.Pt(1, 1)) != 80 {
		t.Errorf("unexpected height difference %d", d.HeightMap.Difference(grid.Pt(1, 1)))
	}
	if d.TextureIndices != nil {
		t.Error("expected identical texture channel to collapse to nil")
	}
}

func TestFromDifferenceMasksNormals(t *testing.T) {
	reference := testLandscape("base.esm")
	plugin := testLandscape("mod.esp")

	// The plugin changes one normal without touching its elevation,
	// and another alongside an elevation edit.
	plugin.Normals.Set(grid.Pt(0, 0), grid.V3[int8](5, 0, 126))
	plugin.Heights.Set(grid.Pt(2, 2), 160)
	plugin.Normals.Set(grid.Pt(2, 2), grid.V3[int8](-3, 0, 126))

	d := DiffLandscape(plugin, reference, land.AllChannels)

	if d.VertexNormals == nil {
		t.Fatal("expected a normals diff")
	}
	if d.VertexNormals.HasDifference(grid.Pt(0, 0)) {
		t.Error("expected normal edit without elevation edit to be dropped")
	}
	if !d.VertexNormals.HasDifference(grid.Pt(2, 2)) {
		t.Error("expected normal edit beside elevation edit to survive")
	}
}

func TestFromDifferenceWithoutReferenceCell(t *testing.T) {
	plugin := testLandscape("mod.esp")
	plugin.Heights.Set(grid.Pt(0, 0), 40)

	d := DiffLandscape(plugin, nil, land.AllChannels)

	if d.HeightMap == nil {
		t.Fatal("expected a height map diff against the zero grid")
	}
	if d.HeightMap.Difference(grid.Pt(0, 0)) != 40 {
		t.Error("expected the plugin value diffed against zero")
	}
}

func TestModifiedData(t *testing.T) {
	reference := testLandscape("base.esm")
	plugin := testLandscape("mod.esp")
	plugin.Heights.Set(grid.Pt(1, 1), 80)
	plugin.Textures.Set(grid.Pt(3, 3), 2)

	d := DiffLandscape(plugin, reference, land.AllChannels)

	modified := d.ModifiedData()
	if !modified.Has(land.Heights | land.Textures) {
		t.Errorf("expected heights+textures modified, got %v", modified)
	}
	if modified.Has(land.Colors) || modified.Has(land.Normals) {
		t.Errorf("unexpected modified channels: %v", modified)
	}
}

func TestMergeChannelDefaults(t *testing.T) {
	reference := testLandscape("base.esm")

	a := testLandscape("a.esp")
	a.Heights.Set(grid.Pt(1, 1), 10)
	a.Textures.Set(grid.Pt(0, 0), 4)

	b := testLandscape("b.esp")
	b.Heights.Set(grid.Pt(1, 1), 50)
	b.Textures.Set(grid.Pt(0, 0), 9)

	merged := FromReference(reference, land.AllChannels)
	merged = merged.Merge(DiffLandscape(a, reference, land.AllChannels), Strategies{}, DefaultConflictParams())
	merged = merged.Merge(DiffLandscape(b, reference, land.AllChannels), Strategies{}, DefaultConflictParams())

	// Heights resolve, texture indices overwrite.
	h := merged.HeightMap.Difference(grid.Pt(1, 1))
	if h <= 10 || h >= 50 {
		t.Errorf("expected blended height difference, got %d", h)
	}
	if tex := merged.TextureIndices.Value(grid.Pt(0, 0)); tex != 9 {
		t.Errorf("expected the later texture edit to win, got %d", tex)
	}
}

func TestMergeStrategyOverride(t *testing.T) {
	reference := testLandscape("base.esm")

	a := testLandscape("a.esp")
	a.Heights.Set(grid.Pt(1, 1), 10)
	b := testLandscape("b.esp")
	b.Heights.Set(grid.Pt(1, 1), 50)

	merged := FromReference(reference, land.AllChannels)
	merged = merged.Merge(DiffLandscape(a, reference, land.AllChannels), Strategies{}, DefaultConflictParams())
	merged = merged.Merge(DiffLandscape(b, reference, land.AllChannels),
		Strategies{HeightMap: Ignore}, DefaultConflictParams())

	if h := merged.HeightMap.Difference(grid.Pt(1, 1)); h != 10 {
		t.Errorf("expected ignored plugin to leave the height at 10, got %d", h)
	}
}

func TestLandmassDiffSortedAndSeams(t *testing.T) {
	lm := NewLandmassDiff("Merged Lands.esp")
	lm.Insert(&LandscapeDiff{Coords: land.Coords{X: 1, Y: 0}})
	lm.Insert(&LandscapeDiff{Coords: land.Coords{X: -1, Y: 3}})
	lm.Insert(&LandscapeDiff{Coords: land.Coords{X: 1, Y: -2}})

	var order []land.Coords
	for c := range lm.Sorted() {
		order = append(order, c)
	}
	want := []land.Coords{{X: -1, Y: 3}, {X: 1, Y: -2}, {X: 1, Y: 0}}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("unexpected iteration order: %v", order)
		}
	}

	lm.MarkPossibleSeam(land.Coords{X: 1, Y: 0})
	lm.MarkPossibleSeam(land.Coords{X: 1, Y: 0})
	if seams := lm.PossibleSeams(); len(seams) != 1 {
		t.Errorf("expected deduplicated seam set, got %v", seams)
	}
	lm.ClearPossibleSeams()
	if len(lm.PossibleSeams()) != 0 {
		t.Error("expected seam set cleared")
	}
}
