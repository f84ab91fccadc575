package textures

import (
	"testing"

	"github.com/Faultbox/mergedlands/pkg/esp"
	"github.com/Faultbox/mergedlands/pkg/grid"
)

func TestAddAssignsStableIndices(t *testing.T) {
	known := NewKnown()

	remapA := NewRemapped()
	known.Add("a.esp", &esp.LTEX{ID: "sand", Index: 0, Filename: "sand.dds"}, remapA)
	known.Add("a.esp", &esp.LTEX{ID: "rock", Index: 1, Filename: "rock.dds"}, remapA)

	// A second plugin lists the same textures in a different order.
	remapB := NewRemapped()
	known.Add("b.esp", &esp.LTEX{ID: "rock", Index: 0, Filename: "rock.dds"}, remapB)
	known.Add("b.esp", &esp.LTEX{ID: "grass", Index: 1, Filename: "grass.dds"}, remapB)

	if known.Len() != 3 {
		t.Fatalf("expected 3 known textures, got %d", known.Len())
	}

	// Grid value 1 in plugin B refers to its texture 0 ("rock"),
	// which the registry knows as index 1, so grid value 2.
	if v := remapB.Remap(1); v != 2 {
		t.Errorf("expected rock remapped to grid value 2, got %d", v)
	}
	if v := remapB.Remap(2); v != 3 {
		t.Errorf("expected grass remapped to grid value 3, got %d", v)
	}
	if v := remapA.Remap(1); v != 1 {
		t.Errorf("expected sand to keep grid value 1, got %d", v)
	}
}

func TestRemapDefaultTexture(t *testing.T) {
	r := NewRemapped()
	if v := r.Remap(0); v != 0 {
		t.Errorf("expected the default texture to map to itself, got %d", v)
	}
	if _, ok := r.TryRemap(5); ok {
		t.Error("expected unknown index to fail")
	}
}

func TestRemapGrid(t *testing.T) {
	known := NewKnown()
	remap := NewRemapped()
	known.Add("a.esp", &esp.LTEX{ID: "sand", Index: 7}, remap)

	g := grid.New[uint16](2)
	g.Set(grid.Pt(0, 0), 8) // plugin texture 7
	RemapGrid(&g, remap)

	if v := g.Get(grid.Pt(0, 0)); v != 1 {
		t.Errorf("expected grid value 1 after remap, got %d", v)
	}
	if v := g.Get(grid.Pt(1, 1)); v != 0 {
		t.Errorf("expected default texture untouched, got %d", v)
	}
}

func TestUpdateRefreshesFilename(t *testing.T) {
	known := NewKnown()
	known.Add("a.esp", &esp.LTEX{ID: "sand", Index: 0, Filename: "old.dds"}, NewRemapped())

	known.Update("b.esp", &esp.LTEX{ID: "sand", Filename: "new.dds"})

	entry := known.Sorted()[0]
	if entry.LTEX.Filename != "new.dds" || entry.Plugin != "b.esp" {
		t.Errorf("unexpected entry after update: %+v", entry)
	}

	// An empty filename does not clobber the known one.
	known.Update("c.esp", &esp.LTEX{ID: "sand"})
	if entry.LTEX.Filename != "new.dds" {
		t.Error("expected empty filename to be ignored")
	}
}

func TestRemoveUnusedCompacts(t *testing.T) {
	known := NewKnown()
	remap := NewRemapped()
	known.Add("a.esp", &esp.LTEX{ID: "sand", Index: 0}, remap)
	known.Add("a.esp", &esp.LTEX{ID: "rock", Index: 1}, remap)
	known.Add("a.esp", &esp.LTEX{ID: "grass", Index: 2}, remap)

	// Only sand and grass are still referenced by the merged grids.
	compaction := RemappedFromUsed([]bool{true, false, true})
	removed := known.RemoveUnused(compaction)

	if removed != 1 {
		t.Fatalf("expected 1 removed texture, got %d", removed)
	}

	sorted := known.Sorted()
	if len(sorted) != 2 {
		t.Fatalf("expected 2 surviving textures, got %d", len(sorted))
	}
	if sorted[0].LTEX.ID != "sand" || sorted[0].LTEX.Index != 0 {
		t.Errorf("unexpected first entry: %+v", sorted[0])
	}
	if sorted[1].LTEX.ID != "grass" || sorted[1].LTEX.Index != 1 {
		t.Errorf("unexpected second entry: %+v", sorted[1])
	}
}
