package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// OnInvalidMode selects how the validator reacts to a sample that fails a
// bound check or normalizes to an invalid cell.
type OnInvalidMode string

const (
	OnInvalidThrow   OnInvalidMode = "throw"
	OnInvalidMark    OnInvalidMode = "mark"
	OnInvalidDiscard OnInvalidMode = "discard"
)

// InvalidSample records one rejection under OnInvalidMark mode.
type InvalidSample struct {
	Sample Sample
	Reason string
}

// Validator normalizes each sample's cell id to BaseRes, checks declared
// sensor bounds, and applies Mode to whatever fails either check. It
// recurses into a sample's inner Samples array with the same mode.
type Validator struct {
	Grid    HexGrid
	BaseRes int
	Mode    OnInvalidMode
}

// NewValidator constructs a Validator. mode defaults to OnInvalidThrow if
// empty.
func NewValidator(grid HexGrid, baseRes int, mode OnInvalidMode) *Validator {
	if mode == "" {
		mode = OnInvalidThrow
	}
	return &Validator{Grid: grid, BaseRes: baseRes, Mode: mode}
}

// Process validates and normalizes samples, returning the accepted set and,
// under OnInvalidMark, the rejected set. Under OnInvalidThrow the first
// rejection aborts with a *ValidationError.
func (v *Validator) Process(samples []Sample) ([]Sample, []InvalidSample, error) {
	var invalid []InvalidSample
	accepted := make([]Sample, 0, len(samples))
	for _, s := range samples {
		norm, keep, err := v.validateSample(s, &invalid)
		if err != nil {
			return nil, nil, err
		}
		if keep {
			accepted = append(accepted, norm)
		}
	}
	return accepted, invalid, nil
}

func (v *Validator) validateSample(s Sample, invalid *[]InvalidSample) (Sample, bool, error) {
	if !v.Grid.IsValidCell(s.GeoCellID) {
		return v.reject(s, "invalid cell id", invalid)
	}
	res, err := v.Grid.Resolution(s.GeoCellID)
	if err != nil {
		return Sample{}, false, &HierarchyError{Cell: s.GeoCellID, Err: err}
	}
	if res < v.BaseRes {
		return v.reject(s, fmt.Sprintf("cell resolution %d is coarser than base resolution %d", res, v.BaseRes), invalid)
	}
	if res != v.BaseRes {
		parent, err := v.Grid.Parent(s.GeoCellID, v.BaseRes)
		if err != nil {
			return Sample{}, false, &HierarchyError{Cell: s.GeoCellID, Err: err}
		}
		s.GeoCellID = parent
	}

	if err := validateSensors(s); err != nil {
		return v.reject(s, err.(*ValidationError).Reason, invalid)
	}

	if len(s.Samples) > 0 {
		kept := s.Samples[:0:0]
		for _, inner := range s.Samples {
			normInner, keep, err := v.validateSample(inner, invalid)
			if err != nil {
				return Sample{}, false, err
			}
			if keep {
				kept = append(kept, normInner)
			}
		}
		s.Samples = kept
	}
	return s, true, nil
}

func (v *Validator) reject(s Sample, reason string, invalid *[]InvalidSample) (Sample, bool, error) {
	switch v.Mode {
	case OnInvalidMark:
		*invalid = append(*invalid, InvalidSample{Sample: s, Reason: reason})
		return Sample{}, false, nil
	case OnInvalidDiscard:
		return Sample{}, false, nil
	default:
		return Sample{}, false, &ValidationError{Cell: s.GeoCellID, Reason: reason}
	}
}

// Dedup groups accepted samples by their (already base-resolution)
// GeoCellID and removes duplicates within each cell, first-seen wins, per
// spec §4.3: a sample carrying a non-empty issuer dedups on "issuer-timestamp";
// otherwise it dedups on the sha256 hex of its canonical encoding. Each
// cell's surviving entries are returned sorted ascending by timestamp.
func Dedup(accepted []Sample) map[CellID][]Sample {
	type cellState struct {
		seen    map[string]bool
		entries []Sample
	}
	cells := make(map[CellID]*cellState)
	for _, s := range accepted {
		cs, ok := cells[s.GeoCellID]
		if !ok {
			cs = &cellState{seen: make(map[string]bool)}
			cells[s.GeoCellID] = cs
		}
		key := dedupKey(s)
		if cs.seen[key] {
			continue
		}
		cs.seen[key] = true
		cs.entries = append(cs.entries, s)
	}
	out := make(map[CellID][]Sample, len(cells))
	for cell, cs := range cells {
		sort.SliceStable(cs.entries, func(i, j int) bool { return cs.entries[i].Timestamp < cs.entries[j].Timestamp })
		out[cell] = cs.entries
	}
	return out
}

func dedupKey(s Sample) string {
	if s.Issuer != "" {
		return fmt.Sprintf("%s-%d", s.Issuer, s.Timestamp)
	}
	canon, err := Canonical(s)
	if err != nil {
		return fmt.Sprintf("unhashable-%p", &s)
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:])
}

// AggregateCells sorts a cell→entries map's keys ascending and computes
// each cell's sample count per countSamples, ready for the compressor.
func AggregateCells(entriesByCell map[CellID][]Sample) (cells []CellID, sampleCountByCell map[CellID]int) {
	cells = make([]CellID, 0, len(entriesByCell))
	sampleCountByCell = make(map[CellID]int, len(entriesByCell))
	for cell, entries := range entriesByCell {
		cells = append(cells, cell)
		sampleCountByCell[cell] = countSamples(entries)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })
	return cells, sampleCountByCell
}
