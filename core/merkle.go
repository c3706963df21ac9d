package core

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Hash32 is a 32-byte digest rendered as a 0x-prefixed hex string in JSON,
// used for the keccak256 Merkle roots and super-roots. The sha256 record and
// map content hashes are kept as plain hex strings instead.
type Hash32 [32]byte

// String returns the 0x-prefixed hex form of h.
func (h Hash32) String() string { return "0x" + hex.EncodeToString(h[:]) }

// MarshalJSON renders h as a 0x-prefixed hex string.
func (h Hash32) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON parses a 0x-prefixed (or bare) hex string into h.
func (h *Hash32) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	copy(h[:], raw)
	return nil
}

// MerkleResult is the output of building a per-batch data Merkle tree: the
// root digest and the index each cell's leaf occupies, both persisted on
// the Batch record for later proof construction.
type MerkleResult struct {
	Root        Hash32
	LeavesIndex map[CellID]int
}

// BuildDataMerkle builds the sorted-pair keccak256 Merkle tree over a
// batch's cell data, per spec §4.2: leaves are
// keccak256(cellId || ':' || canonical(entries)) for cells sorted
// ascending by id, and every internal node hashes its two children after
// sorting them as byte strings so the tree is order-insensitive at every
// level.
func BuildDataMerkle(data map[CellID][]Sample) (*MerkleResult, error) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	leaves := make([]Hash32, len(keys))
	index := make(map[CellID]int, len(keys))
	for i, k := range keys {
		cell := CellID(k)
		payload, err := Canonical(data[cell])
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 0, len(k)+1+len(payload))
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, payload...)
		leaves[i] = Hash32(crypto.Keccak256Hash(buf))
		index[cell] = i
	}
	return &MerkleResult{Root: sortedPairMerkleRoot(leaves), LeavesIndex: index}, nil
}

// sortedPairMerkleRoot folds a level of digests up to a single root,
// sorting each sibling pair as byte strings before hashing so the result
// does not depend on which child was "left".
func sortedPairMerkleRoot(leaves []Hash32) Hash32 {
	if len(leaves) == 0 {
		return Hash32{}
	}
	level := leaves
	for len(level) > 1 {
		next := make([]Hash32, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashSortedPair(level[i], level[i+1]))
		}
		level = next
	}
	return level[0]
}

func hashSortedPair(a, b Hash32) Hash32 {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	buf := make([]byte, 0, 64)
	buf = append(buf, a[:]...)
	buf = append(buf, b[:]...)
	return Hash32(crypto.Keccak256Hash(buf))
}

// BuildSuperRoot implements spec §4.2's epoch super-root: the same
// sorted-pair keccak256 tree, but over one leaf per batch,
// keccak256(geoBatchId || merkleRoot), for batches sorted by geoBatchId.
func BuildSuperRoot(batches []Batch) (root Hash32, batchIDs []CellID, batchRoots []Hash32) {
	sorted := make([]Batch, len(batches))
	copy(sorted, batches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].GeoBatchID < sorted[j].GeoBatchID })

	leaves := make([]Hash32, len(sorted))
	batchIDs = make([]CellID, len(sorted))
	batchRoots = make([]Hash32, len(sorted))
	for i, b := range sorted {
		buf := make([]byte, 0, len(b.GeoBatchID)+32)
		buf = append(buf, b.GeoBatchID...)
		buf = append(buf, b.MerkleRoot[:]...)
		leaves[i] = Hash32(crypto.Keccak256Hash(buf))
		batchIDs[i] = b.GeoBatchID
		batchRoots[i] = b.MerkleRoot
	}
	root = sortedPairMerkleRoot(leaves)
	return
}
