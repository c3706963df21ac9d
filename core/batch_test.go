package core

import "testing"

func testParams() HGCParams {
	return HGCParams{
		BaseRes: 2, MinRes: 0,
		MaxLeavesPerBatch: 100, MaxSamplesPerBatch: 1000,
		HysteresisNear: 0.9, HysteresisFar: 1.1,
	}
}

func TestAssembleBatchComputesConsistentHash(t *testing.T) {
	grid := fakeGrid{}
	cells := []CellID{"000", "001"}
	entries := map[CellID][]Sample{
		"000": {{GeoCellID: "000", Timestamp: 1, Sensors: map[string]float64{"temp": 20}}},
		"001": {{GeoCellID: "001", Timestamp: 2, Sensors: map[string]float64{"temp": 21}}},
	}
	b, err := AssembleBatch(grid, 5, 0, testParams(), cells, entries, 1)
	if err != nil {
		t.Fatalf("AssembleBatch: %v", err)
	}
	if b.GeoBatchID != "0" {
		t.Fatalf("expected geoBatchId '0' (parent at res 0), got %s", b.GeoBatchID)
	}
	if b.CountLeaves != 2 || b.CountSamples != 2 {
		t.Fatalf("unexpected counts: leaves=%d samples=%d", b.CountLeaves, b.CountSamples)
	}
	if b.TsMin == nil || *b.TsMin != 1 || b.TsMax == nil || *b.TsMax != 2 {
		t.Fatalf("unexpected ts bounds: %#v %#v", b.TsMin, b.TsMax)
	}

	ok, err := b.VerifyHash()
	if err != nil {
		t.Fatalf("VerifyHash: %v", err)
	}
	if !ok {
		t.Fatalf("expected freshly assembled batch to verify")
	}
}

func TestAssembleBatchRejectsEmptyCells(t *testing.T) {
	_, err := AssembleBatch(fakeGrid{}, 0, 0, testParams(), nil, nil, 1)
	if err == nil {
		t.Fatalf("expected an error assembling a batch from zero cells")
	}
}

func TestBatchHashChangesWhenDataMutates(t *testing.T) {
	grid := fakeGrid{}
	cells := []CellID{"000"}
	entries := map[CellID][]Sample{
		"000": {{GeoCellID: "000", Timestamp: 1, Sensors: map[string]float64{"temp": 20}}},
	}
	b, err := AssembleBatch(grid, 5, 0, testParams(), cells, entries, 1)
	if err != nil {
		t.Fatalf("AssembleBatch: %v", err)
	}
	originalHash := b.Hash

	b.Data["000"][0].Sensors["temp"] = 99
	recomputed, err := b.computeHash()
	if err != nil {
		t.Fatalf("computeHash: %v", err)
	}
	if recomputed == originalHash {
		t.Fatalf("expected hash to change after mutating data")
	}
}
