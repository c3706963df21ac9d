package core

import (
	"fmt"

	h3 "github.com/uber/h3-go/v4"
)

// MaxH3Res is the finest resolution the hex grid oracle supports.
const MaxH3Res = 15

// CellID is the canonical string form of a hex grid cell. Every sort,
// hash, and serialization path in this package operates on CellID rather
// than any packed internal representation, per the bit-packed-cell-ids
// design note: an alternative dense encoding may live behind HexGrid, but
// the string form is the one thing every other component agrees on.
type CellID string

// Location is a decimal-degree geographic coordinate, used for both a
// batch's center point and its boundary polygon vertices.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// PrettyLocation formats a location for human readable CLI output.
func PrettyLocation(loc Location) string {
	return fmt.Sprintf("%.6f,%.6f", loc.Latitude, loc.Longitude)
}

// HexGrid is the external oracle described in spec §2 stage 1: a pure,
// total function over cell ids providing resolution, parent, center,
// boundary, and validity. The compressor, validator, and batch assembler
// treat it as trusted and never attempt to reimplement its spatial math.
type HexGrid interface {
	IsValidCell(id CellID) bool
	Resolution(id CellID) (int, error)
	Parent(id CellID, res int) (CellID, error)
	Center(id CellID) (Location, error)
	Boundary(id CellID) ([]Location, error)
}

// H3Grid implements HexGrid over Uber's H3 hexagonal hierarchical grid.
// It is the only HexGrid implementation shipped here; tests may substitute
// a fake for deterministic small hierarchies.
type H3Grid struct{}

// NewH3Grid returns the production hex grid oracle.
func NewH3Grid() *H3Grid { return &H3Grid{} }

func (g *H3Grid) parseCell(id CellID) (h3.Cell, error) {
	var c h3.Cell
	if err := c.UnmarshalText([]byte(id)); err != nil {
		return 0, fmt.Errorf("parse cell %q: %w", id, err)
	}
	return c, nil
}

// IsValidCell reports whether id parses to a valid H3 cell.
func (g *H3Grid) IsValidCell(id CellID) bool {
	c, err := g.parseCell(id)
	if err != nil {
		return false
	}
	return c.IsValid()
}

// Resolution returns the resolution of id.
func (g *H3Grid) Resolution(id CellID) (int, error) {
	c, err := g.parseCell(id)
	if err != nil {
		return 0, err
	}
	return c.Resolution(), nil
}

// Parent returns the ancestor of id at res. res must be <= id's resolution.
func (g *H3Grid) Parent(id CellID, res int) (CellID, error) {
	c, err := g.parseCell(id)
	if err != nil {
		return "", err
	}
	p, err := c.Parent(res)
	if err != nil {
		return "", fmt.Errorf("parent of %q at res %d: %w", id, res, err)
	}
	return CellID(p.String()), nil
}

// Center returns id's cell center in decimal degrees.
func (g *H3Grid) Center(id CellID) (Location, error) {
	c, err := g.parseCell(id)
	if err != nil {
		return Location{}, err
	}
	ll, err := c.LatLng()
	if err != nil {
		return Location{}, fmt.Errorf("center of %q: %w", id, err)
	}
	return Location{Latitude: ll.Lat, Longitude: ll.Lng}, nil
}

// Boundary returns id's cell boundary polygon in decimal degrees.
func (g *H3Grid) Boundary(id CellID) ([]Location, error) {
	c, err := g.parseCell(id)
	if err != nil {
		return nil, err
	}
	b, err := c.Boundary()
	if err != nil {
		return nil, fmt.Errorf("boundary of %q: %w", id, err)
	}
	out := make([]Location, len(b))
	for i, ll := range b {
		out[i] = Location{Latitude: ll.Lat, Longitude: ll.Lng}
	}
	return out, nil
}
