package core

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// VerifyResult reports the outcome of re-checking one persisted artifact
// (a batch file or the epoch's superRoot.json).
type VerifyResult struct {
	Path  string
	OK    bool
	Error string
}

// VerifyEpoch re-derives every batch's hash and Merkle root from its
// persisted data, then re-derives the epoch super-root from the batches
// and compares it against superRoot.json, per spec §4.8/§8 property 10.
func VerifyEpoch(dir string) ([]VerifyResult, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, false, &IOError{Path: dir, Err: err}
	}

	var results []VerifyResult
	var batches []Batch
	allOK := true

	for _, e := range entries {
		if e.IsDir() || e.Name() == "superRoot.json" || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			allOK = false
			results = append(results, VerifyResult{Path: path, Error: err.Error()})
			continue
		}
		var b Batch
		if err := json.Unmarshal(raw, &b); err != nil {
			allOK = false
			results = append(results, VerifyResult{Path: path, Error: err.Error()})
			continue
		}
		ok, err := checkBatch(&b)
		if err != nil {
			allOK = false
			results = append(results, VerifyResult{Path: path, Error: err.Error()})
			continue
		}
		if !ok {
			allOK = false
		}
		results = append(results, VerifyResult{Path: path, OK: ok})
		batches = append(batches, b)
	}

	srPath := filepath.Join(dir, "superRoot.json")
	raw, err := os.ReadFile(srPath)
	if err != nil {
		return results, false, &IOError{Path: srPath, Err: err}
	}
	var sr superRootFile
	if err := json.Unmarshal(raw, &sr); err != nil {
		return results, false, &IOError{Path: srPath, Err: err}
	}

	root, batchIDs, batchRoots := BuildSuperRoot(batches)
	srOK := root == sr.SuperRoot && sameCellIDs(batchIDs, sr.BatchIDs) && sameHashes(batchRoots, sr.BatchRoots)
	if !srOK {
		allOK = false
	}
	results = append(results, VerifyResult{Path: srPath, OK: srOK})
	return results, allOK, nil
}

func checkBatch(b *Batch) (bool, error) {
	wantHash, err := b.computeHash()
	if err != nil {
		return false, err
	}
	merkle, err := BuildDataMerkle(b.Data)
	if err != nil {
		return false, err
	}
	return wantHash == b.Hash && merkle.Root == b.MerkleRoot, nil
}

func sameCellIDs(a, b []CellID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameHashes(a, b []Hash32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
