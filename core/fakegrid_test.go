package core

import (
	"fmt"
	"strings"
)

// fakeGrid is a small deterministic hex grid stand-in for tests: a cell id
// is a digit string where length-1 is the resolution and each prefix is
// the id's ancestor at that prefix's length-1 resolution, e.g. "0" is the
// res-0 parent of "01" which is the res-1 parent of "012".
type fakeGrid struct{}

func (fakeGrid) IsValidCell(id CellID) bool {
	if id == "" || len(id) > 4 {
		return false
	}
	for _, r := range string(id) {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (g fakeGrid) Resolution(id CellID) (int, error) {
	if !g.IsValidCell(id) {
		return 0, fmt.Errorf("invalid cell %q", id)
	}
	return len(id) - 1, nil
}

func (g fakeGrid) Parent(id CellID, res int) (CellID, error) {
	own, err := g.Resolution(id)
	if err != nil {
		return "", err
	}
	if res > own {
		return "", fmt.Errorf("parent res %d finer than cell res %d", res, own)
	}
	if res < 0 {
		return "", fmt.Errorf("parent res %d negative", res)
	}
	return CellID(string(id)[:res+1]), nil
}

func (g fakeGrid) Center(id CellID) (Location, error) {
	if !g.IsValidCell(id) {
		return Location{}, fmt.Errorf("invalid cell %q", id)
	}
	sum := 0
	for _, r := range string(id) {
		sum += int(r - '0')
	}
	return Location{Latitude: float64(sum), Longitude: float64(sum) * 2}, nil
}

func (g fakeGrid) Boundary(id CellID) ([]Location, error) {
	c, err := g.Center(id)
	if err != nil {
		return nil, err
	}
	return []Location{
		{Latitude: c.Latitude - 0.5, Longitude: c.Longitude - 0.5},
		{Latitude: c.Latitude + 0.5, Longitude: c.Longitude + 0.5},
	}, nil
}

// childCell builds a child id of parent at one finer resolution by
// appending digit.
func childCell(parent CellID, digit int) CellID {
	return CellID(strings.TrimSpace(string(parent)) + fmt.Sprintf("%d", digit))
}
