package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// superRootFile is the on-disk shape of an epoch's superRoot.json, per
// spec §4.7.
type superRootFile struct {
	Epoch         int64     `json:"epoch"`
	SuperRoot     Hash32    `json:"superRoot"`
	BatchIDs      []CellID  `json:"batchIds"`
	BatchRoots    []Hash32  `json:"batchRoots"`
	SchemaVersion int       `json:"schemaVersion"`
	HGCParams     HGCParams `json:"hgcParams"`
	TsMin         *int64    `json:"tsMin"`
	TsMax         *int64    `json:"tsMax"`
	BatchesTotal  int       `json:"batchesTotal"`
	SamplesTotal  int       `json:"samplesTotal"`
}

// CrossEpochMap is the append-only {epoch → {cell → geoBatchId}} record
// described in spec §3/§4.7.
type CrossEpochMap map[int64]map[CellID]CellID

// Persistence owns the on-disk layout under BaseDir: per-epoch batch and
// super-root files, and the cross-epoch map, all written atomically via a
// write-to-temp-then-rename pattern.
type Persistence struct {
	BaseDir string
	Logger  *logrus.Logger
}

// NewPersistence constructs a Persistence rooted at baseDir.
func NewPersistence(baseDir string, lg *logrus.Logger) *Persistence {
	if lg == nil {
		lg = logrus.New()
	}
	return &Persistence{BaseDir: baseDir, Logger: lg}
}

func (p *Persistence) dataDir() string { return filepath.Join(p.BaseDir, "data") }

func (p *Persistence) epochDir(epoch int64) string {
	return filepath.Join(p.dataDir(), fmt.Sprintf("epoch_%d", epoch))
}

// EpochDir returns the on-disk directory a given epoch is (or will be)
// persisted under, for callers that need to hand it to a Sink after
// WriteEpoch completes.
func (p *Persistence) EpochDir(epoch int64) string { return p.epochDir(epoch) }

func (p *Persistence) mapPath() string { return filepath.Join(p.dataDir(), "cellToBatchMap.json") }

func (p *Persistence) lockPath() string {
	return filepath.Join(p.dataDir(), ".cellToBatchMap.lock")
}

// WriteEpoch writes one batch file per geoBatch plus superRoot.json to a
// staging directory, then renames it into place, so a crash or
// cancellation mid-write never leaves a partial epoch directory visible
// under its final name (spec §5).
func (p *Persistence) WriteEpoch(result *EpochResult) error {
	if err := os.MkdirAll(p.dataDir(), 0o755); err != nil {
		return &IOError{Path: p.dataDir(), Err: err}
	}

	finalDir := p.epochDir(result.Epoch)
	staging := finalDir + ".staging"
	if err := os.RemoveAll(staging); err != nil {
		return &IOError{Path: staging, Err: err}
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return &IOError{Path: staging, Err: err}
	}

	for _, b := range result.Batches {
		raw, err := json.MarshalIndent(&b, "", "  ")
		if err != nil {
			return &EncodeError{Reason: err.Error()}
		}
		path := filepath.Join(staging, string(b.GeoBatchID)+".json")
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return &IOError{Path: path, Err: err}
		}
	}

	sr := superRootFile{
		Epoch:         result.Epoch,
		SuperRoot:     result.SuperRoot,
		BatchIDs:      result.Summary.BatchIDs,
		BatchRoots:    result.Summary.BatchRoots,
		SchemaVersion: result.Summary.SchemaVersion,
		HGCParams:     result.HGCParams,
		TsMin:         result.Summary.TsMin,
		TsMax:         result.Summary.TsMax,
		BatchesTotal:  result.Summary.BatchesTotal,
		SamplesTotal:  result.Summary.SamplesTotal,
	}
	raw, err := json.MarshalIndent(&sr, "", "  ")
	if err != nil {
		return &EncodeError{Reason: err.Error()}
	}
	srPath := filepath.Join(staging, "superRoot.json")
	if err := os.WriteFile(srPath, raw, 0o644); err != nil {
		return &IOError{Path: srPath, Err: err}
	}

	if err := os.RemoveAll(finalDir); err != nil {
		return &IOError{Path: finalDir, Err: err}
	}
	if err := os.Rename(staging, finalDir); err != nil {
		return &IOError{Path: finalDir, Err: err}
	}
	p.Logger.Infof("epoch %d: wrote %d batch files to %s", result.Epoch, len(result.Batches), finalDir)
	return nil
}

func (p *Persistence) loadMap() (CrossEpochMap, error) {
	raw, err := os.ReadFile(p.mapPath())
	if os.IsNotExist(err) {
		return make(CrossEpochMap), nil
	}
	if err != nil {
		return nil, &IOError{Path: p.mapPath(), Err: err}
	}
	var wire map[string]map[string]string
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &IOError{Path: p.mapPath(), Err: err}
	}
	out := make(CrossEpochMap, len(wire))
	for epochStr, cells := range wire {
		var epoch int64
		if _, err := fmt.Sscanf(epochStr, "%d", &epoch); err != nil {
			return nil, &IOError{Path: p.mapPath(), Err: err}
		}
		m := make(map[CellID]CellID, len(cells))
		for c, b := range cells {
			m[CellID(c)] = CellID(b)
		}
		out[epoch] = m
	}
	return out, nil
}

// MergeCrossEpochMap folds epochMap into the cross-epoch map under an
// exclusive file lock, per spec §4.7/§5. A cell already recorded for this
// epoch with a different geoBatchId aborts the merge with
// *CellMapConflict; failure to acquire the lock within the retry budget
// aborts with *ConcurrentMergeError rather than blocking indefinitely or
// silently overwriting. Returns the sha256 hex content hash of the merged
// map.
func (p *Persistence) MergeCrossEpochMap(epoch int64, epochMap map[CellID]CellID) (string, error) {
	if err := os.MkdirAll(p.dataDir(), 0o755); err != nil {
		return "", &IOError{Path: p.dataDir(), Err: err}
	}

	fl := flock.New(p.lockPath())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil || !locked {
		return "", &ConcurrentMergeError{Path: p.lockPath(), Err: err}
	}
	defer fl.Unlock()

	existing, err := p.loadMap()
	if err != nil {
		return "", err
	}
	if _, ok := existing[epoch]; !ok {
		existing[epoch] = make(map[CellID]CellID)
	}
	for cell, batchID := range epochMap {
		if cur, ok := existing[epoch][cell]; ok && cur != batchID {
			return "", &CellMapConflict{Cell: cell, Existing: cur, New: batchID}
		}
		existing[epoch][cell] = batchID
	}

	hash, err := p.writeMapAtomic(existing)
	if err != nil {
		return "", err
	}
	p.Logger.Infof("epoch %d: cross-epoch map merged, content hash %s", epoch, hash)
	return hash, nil
}

// writeMapAtomic serializes m with its outer epoch keys in numeric-ascending
// order. encoding/json always re-emits map keys in lexicographic order
// regardless of insertion order, so the ordered epoch/cell bytes below are
// assembled by hand rather than through a second json.Marshal of a map.
func (p *Persistence) writeMapAtomic(m CrossEpochMap) (string, error) {
	epochs := make([]int64, 0, len(m))
	for e := range m {
		epochs = append(epochs, e)
	}
	sort.Slice(epochs, func(i, j int) bool { return epochs[i] < epochs[j] })

	ordered := make(map[string]map[string]string, len(epochs))
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, e := range epochs {
		cells := make([]CellID, 0, len(m[e]))
		for c := range m[e] {
			cells = append(cells, c)
		}
		sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })
		inner := make(map[string]string, len(cells))
		for _, c := range cells {
			inner[string(c)] = string(m[e][c])
		}
		ordered[fmt.Sprintf("%d", e)] = inner

		innerRaw, err := json.MarshalIndent(inner, "  ", "  ")
		if err != nil {
			return "", &EncodeError{Reason: err.Error()}
		}
		fmt.Fprintf(&buf, "  %q: %s", fmt.Sprintf("%d", e), innerRaw)
		if i < len(epochs)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}")

	canon, err := Canonical(ordered)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	hash := hex.EncodeToString(sum[:])

	raw := buf.Bytes()
	tmp := p.mapPath() + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return "", &IOError{Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, p.mapPath()); err != nil {
		return "", &IOError{Path: p.mapPath(), Err: err}
	}
	return hash, nil
}
