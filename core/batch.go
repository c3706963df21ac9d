package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// windowMs is the fixed epoch window length in milliseconds, per spec §3.
const windowMs = int64(3_600_000)

// Batch is one geoBatch: a set of base-resolution cells grouped under a
// common ancestor, their readings, and a Merkle commitment, per spec §3.
type Batch struct {
	GeoBatchID     CellID              `json:"geoBatchId"`
	Epoch          int64               `json:"epoch"`
	CompressedFrom []CellID            `json:"compressedFrom"`
	Data           map[CellID][]Sample `json:"data"`
	CountLeaves    int                 `json:"countLeaves"`
	CountSamples   int                 `json:"countSamples"`
	TsMin          *int64              `json:"tsMin"`
	TsMax          *int64              `json:"tsMax"`
	Center         [2]float64          `json:"center"`
	Boundary       [][2]float64        `json:"boundary"`
	ResBase        int                 `json:"resBase"`
	ResBatch       int                 `json:"resBatch"`
	EpochStartMs   int64               `json:"epochStartMs"`
	WindowMs       int64               `json:"windowMs"`
	SchemaVersion  int                 `json:"schemaVersion"`
	HGCParams      HGCParams           `json:"hgcParams"`
	MerkleRoot     Hash32              `json:"merkleRoot"`
	LeavesIndex    map[CellID]int      `json:"leavesIndex"`
	Hash           string              `json:"hash"`
}

// AssembleBatch builds one Batch from a segment of base-resolution cells
// that share a common ancestor at res, per spec §4.5/§4.6.
func AssembleBatch(grid HexGrid, epoch int64, res int, params HGCParams, cells []CellID, entriesByCell map[CellID][]Sample, schemaVersion int) (*Batch, error) {
	sorted := sortedCells(cells)
	if len(sorted) == 0 {
		return nil, &ValidationError{Reason: "cannot assemble a batch from zero cells"}
	}

	geoBatchID, err := grid.Parent(sorted[0], res)
	if err != nil {
		return nil, &HierarchyError{Cell: sorted[0], Err: err}
	}

	data := make(map[CellID][]Sample, len(sorted))
	totalSamples := 0
	var tsMin, tsMax *int64
	for _, cell := range sorted {
		entries := entriesByCell[cell]
		data[cell] = entries
		totalSamples += countSamples(entries)
		for _, e := range entries {
			ts := e.Timestamp
			if tsMin == nil || ts < *tsMin {
				tsMin = &ts
			}
			if tsMax == nil || ts > *tsMax {
				tsMax = &ts
			}
		}
	}

	center, err := grid.Center(geoBatchID)
	if err != nil {
		return nil, &HierarchyError{Cell: geoBatchID, Err: err}
	}
	boundary, err := grid.Boundary(geoBatchID)
	if err != nil {
		return nil, &HierarchyError{Cell: geoBatchID, Err: err}
	}

	merkle, err := BuildDataMerkle(data)
	if err != nil {
		return nil, err
	}

	b := &Batch{
		GeoBatchID:     geoBatchID,
		Epoch:          epoch,
		CompressedFrom: sorted,
		Data:           data,
		CountLeaves:    len(sorted),
		CountSamples:   totalSamples,
		TsMin:          tsMin,
		TsMax:          tsMax,
		Center:         [2]float64{center.Latitude, center.Longitude},
		Boundary:       locationsToPairs(boundary),
		ResBase:        params.BaseRes,
		ResBatch:       res,
		EpochStartMs:   epoch * windowMs,
		WindowMs:       windowMs,
		SchemaVersion:  schemaVersion,
		HGCParams:      params,
		MerkleRoot:     merkle.Root,
		LeavesIndex:    merkle.LeavesIndex,
	}
	hash, err := b.computeHash()
	if err != nil {
		return nil, err
	}
	b.Hash = hash
	return b, nil
}

// computeHash implements spec §4.6: sha256Hex(canonical(batch \ {hash})).
func (b *Batch) computeHash() (string, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return "", &EncodeError{Reason: err.Error()}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", &EncodeError{Reason: err.Error()}
	}
	delete(m, "hash")
	canon, err := Canonical(m)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyHash recomputes b's hash and reports whether it matches b.Hash.
func (b *Batch) VerifyHash() (bool, error) {
	want, err := b.computeHash()
	if err != nil {
		return false, err
	}
	return want == b.Hash, nil
}

func locationsToPairs(locs []Location) [][2]float64 {
	out := make([][2]float64, len(locs))
	for i, l := range locs {
		out[i] = [2]float64{l.Latitude, l.Longitude}
	}
	return out
}

// SuperRootSummary is the epoch-level commitment record persisted alongside
// the batches, per spec §4.2/§4.7.
type SuperRootSummary struct {
	BatchIDs      []CellID `json:"batchIds"`
	BatchRoots    []Hash32 `json:"batchRoots"`
	SchemaVersion int      `json:"schemaVersion"`
	TsMin         *int64   `json:"tsMin"`
	TsMax         *int64   `json:"tsMax"`
	BatchesTotal  int      `json:"batchesTotal"`
	SamplesTotal  int      `json:"samplesTotal"`
}

func summarize(batches []Batch, batchIDs []CellID, batchRoots []Hash32, schemaVersion int) SuperRootSummary {
	sum := SuperRootSummary{
		BatchIDs:      batchIDs,
		BatchRoots:    batchRoots,
		SchemaVersion: schemaVersion,
		BatchesTotal:  len(batches),
	}
	for _, b := range batches {
		sum.SamplesTotal += b.CountSamples
		if b.TsMin != nil && (sum.TsMin == nil || *b.TsMin < *sum.TsMin) {
			v := *b.TsMin
			sum.TsMin = &v
		}
		if b.TsMax != nil && (sum.TsMax == nil || *b.TsMax > *sum.TsMax) {
			v := *b.TsMax
			sum.TsMax = &v
		}
	}
	return sum
}
