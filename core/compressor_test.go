package core

import "testing"

func TestCompressorSingleSegmentWhenWithinBudget(t *testing.T) {
	cells := []CellID{"000", "001", "002"}
	counts := map[CellID]int{"000": 1, "001": 1, "002": 1}
	comp := &Compressor{Grid: fakeGrid{}, Params: HGCParams{
		BaseRes: 2, MinRes: 0,
		MaxLeavesPerBatch: 10, MaxSamplesPerBatch: 1000,
		HysteresisNear: 0.9, HysteresisFar: 1.1,
	}}
	segs, err := comp.Compress(cells, counts)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected a single segment, got %d", len(segs))
	}
	if segs[0].Res != 0 || len(segs[0].Cells) != 3 {
		t.Fatalf("unexpected segment: %#v", segs[0])
	}
}

func TestCompressorSplitsOverflowingGroup(t *testing.T) {
	var cells []CellID
	counts := make(map[CellID]int)
	for _, mid := range []string{"0", "1", "2", "3", "4"} {
		for leaf := 0; leaf < 3; leaf++ {
			c := CellID("1" + mid + string(rune('0'+leaf)))
			cells = append(cells, c)
			counts[c] = 1
		}
	}
	// 15 cells total, all under res-0 parent "1".

	comp := &Compressor{Grid: fakeGrid{}, Params: HGCParams{
		BaseRes: 2, MinRes: 0,
		MaxLeavesPerBatch: 10, MaxSamplesPerBatch: 1000,
		HysteresisNear: 0.9, HysteresisFar: 1.1,
	}}
	segs, err := comp.Compress(cells, counts)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(segs) < 2 {
		t.Fatalf("expected the oversized res-0 group to split into multiple segments, got %d", len(segs))
	}
	total := 0
	for _, seg := range segs {
		if len(seg.Cells) > 10 {
			t.Fatalf("segment exceeds leaf budget: %d cells", len(seg.Cells))
		}
		total += len(seg.Cells)
	}
	if total != 15 {
		t.Fatalf("expected all 15 cells accounted for across segments, got %d", total)
	}
}

func TestCompressorAcceptsOvershootAtBaseRes(t *testing.T) {
	var cells []CellID
	counts := make(map[CellID]int)
	for leaf := 0; leaf < 5; leaf++ {
		c := CellID("00" + string(rune('0'+leaf)))
		cells = append(cells, c)
		counts[c] = 1
	}
	comp := &Compressor{Grid: fakeGrid{}, Params: HGCParams{
		BaseRes: 2, MinRes: 2,
		MaxLeavesPerBatch: 2, MaxSamplesPerBatch: 1000,
		HysteresisNear: 0.9, HysteresisFar: 1.1,
	}}
	segs, err := comp.Compress(cells, counts)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(segs) != 1 || len(segs[0].Cells) != 5 {
		t.Fatalf("expected a single overshot segment at MinRes==BaseRes, got %#v", segs)
	}
}
