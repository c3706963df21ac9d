package core

import "testing"

func TestBuildDataMerkleOrderInsensitive(t *testing.T) {
	entriesA := map[CellID][]Sample{
		"001": {{GeoCellID: "001", Timestamp: 1, Sensors: map[string]float64{"temp": 20}}},
		"002": {{GeoCellID: "002", Timestamp: 2, Sensors: map[string]float64{"temp": 21}}},
	}
	entriesB := map[CellID][]Sample{
		"002": {{GeoCellID: "002", Timestamp: 2, Sensors: map[string]float64{"temp": 21}}},
		"001": {{GeoCellID: "001", Timestamp: 1, Sensors: map[string]float64{"temp": 20}}},
	}

	ra, err := BuildDataMerkle(entriesA)
	if err != nil {
		t.Fatalf("BuildDataMerkle(A): %v", err)
	}
	rb, err := BuildDataMerkle(entriesB)
	if err != nil {
		t.Fatalf("BuildDataMerkle(B): %v", err)
	}
	if ra.Root != rb.Root {
		t.Fatalf("expected construction-order independence, got %s vs %s", ra.Root, rb.Root)
	}
	if ra.LeavesIndex["001"] != 0 || ra.LeavesIndex["002"] != 1 {
		t.Fatalf("expected leaves indexed by sorted cell id, got %#v", ra.LeavesIndex)
	}
}

func TestBuildDataMerkleChangesWithData(t *testing.T) {
	base := map[CellID][]Sample{
		"001": {{GeoCellID: "001", Timestamp: 1, Sensors: map[string]float64{"temp": 20}}},
	}
	changed := map[CellID][]Sample{
		"001": {{GeoCellID: "001", Timestamp: 1, Sensors: map[string]float64{"temp": 99}}},
	}
	r1, err := BuildDataMerkle(base)
	if err != nil {
		t.Fatalf("BuildDataMerkle(base): %v", err)
	}
	r2, err := BuildDataMerkle(changed)
	if err != nil {
		t.Fatalf("BuildDataMerkle(changed): %v", err)
	}
	if r1.Root == r2.Root {
		t.Fatalf("expected different roots for different data")
	}
}

func TestHashSortedPairIsSymmetric(t *testing.T) {
	a := Hash32{1}
	b := Hash32{2}
	if hashSortedPair(a, b) != hashSortedPair(b, a) {
		t.Fatalf("expected hashSortedPair to be order-independent")
	}
}

func TestBuildSuperRootSortsByBatchID(t *testing.T) {
	batches := []Batch{
		{GeoBatchID: "b", MerkleRoot: Hash32{2}},
		{GeoBatchID: "a", MerkleRoot: Hash32{1}},
	}
	reversed := []Batch{batches[1], batches[0]}

	root1, ids1, roots1 := BuildSuperRoot(batches)
	root2, ids2, roots2 := BuildSuperRoot(reversed)

	if root1 != root2 {
		t.Fatalf("expected super root independent of input order")
	}
	if ids1[0] != "a" || ids1[1] != "b" {
		t.Fatalf("expected batch ids sorted ascending, got %v", ids1)
	}
	if len(roots1) != 2 || len(roots2) != 2 {
		t.Fatalf("expected two batch roots")
	}
}

func TestHash32JSONRoundTrip(t *testing.T) {
	h := Hash32{0xde, 0xad, 0xbe, 0xef}
	raw, err := h.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var out Hash32
	if err := out.UnmarshalJSON(raw); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if out != h {
		t.Fatalf("round trip mismatch: got %s want %s", out, h)
	}
}
