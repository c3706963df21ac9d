package core

import "sort"

// segment is one contiguous run of base-resolution cells destined for a
// single geoBatch, plus the resolution at which they were grouped.
type segment struct {
	Res   int
	Cells []CellID
}

// Compressor walks the hex grid hierarchy top-down from Params.MinRes,
// grouping base-resolution cells under ancestors that fit the per-batch
// leaf/sample budgets, per spec §4.4.
type Compressor struct {
	Grid   HexGrid
	Params HGCParams
}

// Compress partitions cells into segments, each destined for one geoBatch.
func (c *Compressor) Compress(cells []CellID, sampleCountByCell map[CellID]int) ([]segment, error) {
	return c.compress(cells, c.Params.MinRes, sampleCountByCell)
}

func (c *Compressor) compress(cells []CellID, currentRes int, counts map[CellID]int) ([]segment, error) {
	if currentRes == c.Params.BaseRes {
		return []segment{{Res: c.Params.BaseRes, Cells: sortedCells(cells)}}, nil
	}

	groups, order, err := c.groupByParent(cells, currentRes)
	if err != nil {
		return nil, err
	}

	var out []segment
	for _, parent := range order {
		children := groups[parent]
		leafCount := len(children)
		sampleCount := sumCounts(children, counts)

		if c.fits(leafCount, sampleCount, c.Params.HysteresisFar) {
			out = append(out, segment{Res: currentRes, Cells: sortedCells(children)})
			continue
		}

		// currentRes < BaseRes here (the == case returned above), so there is
		// always a finer resolution to descend to; overshoot is only ever
		// accepted at BaseRes itself.
		chunks, err := c.packChildGroups(children, currentRes+1, counts)
		if err != nil {
			return nil, err
		}
		for _, chunk := range chunks {
			sub, err := c.compress(chunk, currentRes+1, counts)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}
	return out, nil
}

func (c *Compressor) fits(leafCount, sampleCount int, tolerance float64) bool {
	fitsLeaves := float64(leafCount) <= float64(c.Params.MaxLeavesPerBatch)*tolerance
	fitsSamples := float64(sampleCount) <= float64(c.Params.MaxSamplesPerBatch)*tolerance
	return fitsLeaves && fitsSamples
}

// packChildGroups regroups children by their parent at the next finer
// resolution, then packs those child-groups into chunks using the running
// totals described in spec §4.4: a child-group is never split across
// chunks, and a new chunk is opened whenever adding the next group would
// push either running total past the budget.
func (c *Compressor) packChildGroups(children []CellID, childRes int, counts map[CellID]int) ([][]CellID, error) {
	groups, order, err := c.groupByParent(children, childRes)
	if err != nil {
		return nil, err
	}

	var chunks [][]CellID
	var current []CellID
	var curLeaves, curSamples int
	for _, parent := range order {
		group := groups[parent]
		groupSamples := sumCounts(group, counts)
		if len(current) > 0 && (curLeaves+len(group) > c.Params.MaxLeavesPerBatch || curSamples+groupSamples > c.Params.MaxSamplesPerBatch) {
			chunks = append(chunks, current)
			current = nil
			curLeaves, curSamples = 0, 0
		}
		current = append(current, group...)
		curLeaves += len(group)
		curSamples += groupSamples
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks, nil
}

func (c *Compressor) groupByParent(cells []CellID, res int) (map[CellID][]CellID, []CellID, error) {
	groups := make(map[CellID][]CellID)
	var order []CellID
	for _, cell := range cells {
		parent, err := c.Grid.Parent(cell, res)
		if err != nil {
			return nil, nil, &HierarchyError{Cell: cell, Err: err}
		}
		if _, ok := groups[parent]; !ok {
			order = append(order, parent)
		}
		groups[parent] = append(groups[parent], cell)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return groups, order, nil
}

func sumCounts(cells []CellID, counts map[CellID]int) int {
	n := 0
	for _, c := range cells {
		n += counts[c]
	}
	return n
}

func sortedCells(cells []CellID) []CellID {
	out := make([]CellID, len(cells))
	copy(out, cells)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
