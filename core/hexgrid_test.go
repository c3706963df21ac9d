package core

import "testing"

// knownCell is a real H3 resolution-9 cell id (San Francisco), used across
// the H3Grid tests so they exercise the actual h3-go bindings rather than
// the fakeGrid stand-in used elsewhere in this package.
const knownCell = CellID("8928308280fffff")

func TestH3GridValidatesKnownCell(t *testing.T) {
	g := NewH3Grid()
	if !g.IsValidCell(knownCell) {
		t.Fatalf("expected %s to be a valid H3 cell", knownCell)
	}
	if g.IsValidCell("not-a-cell") {
		t.Fatalf("expected garbage input to be invalid")
	}
}

func TestH3GridResolution(t *testing.T) {
	g := NewH3Grid()
	res, err := g.Resolution(knownCell)
	if err != nil {
		t.Fatalf("Resolution: %v", err)
	}
	if res != 9 {
		t.Fatalf("expected resolution 9, got %d", res)
	}
}

func TestH3GridParentIsCoarser(t *testing.T) {
	g := NewH3Grid()
	parent, err := g.Parent(knownCell, 5)
	if err != nil {
		t.Fatalf("Parent: %v", err)
	}
	parentRes, err := g.Resolution(parent)
	if err != nil {
		t.Fatalf("Resolution(parent): %v", err)
	}
	if parentRes != 5 {
		t.Fatalf("expected parent resolution 5, got %d", parentRes)
	}
}

func TestH3GridCenterAndBoundary(t *testing.T) {
	g := NewH3Grid()
	center, err := g.Center(knownCell)
	if err != nil {
		t.Fatalf("Center: %v", err)
	}
	if center.Latitude == 0 && center.Longitude == 0 {
		t.Fatalf("expected a non-zero center for a real cell")
	}
	boundary, err := g.Boundary(knownCell)
	if err != nil {
		t.Fatalf("Boundary: %v", err)
	}
	if len(boundary) < 5 {
		t.Fatalf("expected a hexagon-shaped boundary, got %d vertices", len(boundary))
	}
}

func TestH3GridRejectsUnparseableCell(t *testing.T) {
	g := NewH3Grid()
	if _, err := g.Resolution("definitely-not-hex"); err == nil {
		t.Fatalf("expected an error resolving a garbage cell id")
	}
}
