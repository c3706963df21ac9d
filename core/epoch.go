package core

import "github.com/sirupsen/logrus"

// EpochResult is the output of compressing one epoch's samples: the
// assembled batches, the leaf→geoBatch map for this epoch, and the
// epoch super-root commitment, per spec §3/§4.2.
type EpochResult struct {
	Epoch     int64
	Batches   []Batch
	Map       map[CellID]CellID
	SuperRoot Hash32
	Summary   SuperRootSummary
	HGCParams HGCParams
}

// RunConfig carries the knobs needed to run one epoch, beyond the raw
// samples themselves.
type RunConfig struct {
	Epoch         int64
	Params        HGCParams
	OnInvalid     OnInvalidMode
	SchemaVersion int
}

// RunEpoch executes the full pipeline described in spec §2: validate and
// dedup samples, aggregate per-cell sample counts, compress cells into
// geoBatch segments, assemble each batch, and fold the batches into an
// epoch super-root. Rejections collected under OnInvalidMark are returned
// alongside the result; under OnInvalidThrow the first rejection aborts
// the run.
func RunEpoch(grid HexGrid, samples []Sample, cfg RunConfig, lg *logrus.Logger) (*EpochResult, []InvalidSample, error) {
	if lg == nil {
		lg = logrus.New()
	}
	if err := ValidateParams(cfg.Params); err != nil {
		return nil, nil, err
	}

	v := NewValidator(grid, cfg.Params.BaseRes, cfg.OnInvalid)
	accepted, invalid, err := v.Process(samples)
	if err != nil {
		return nil, nil, err
	}
	if len(invalid) > 0 {
		lg.Warnf("epoch %d: %d samples rejected under mark mode", cfg.Epoch, len(invalid))
	}

	entriesByCell := Dedup(accepted)
	cells, counts := AggregateCells(entriesByCell)

	comp := &Compressor{Grid: grid, Params: cfg.Params}
	segments, err := comp.Compress(cells, counts)
	if err != nil {
		return nil, nil, err
	}

	batches := make([]Batch, 0, len(segments))
	cellMap := make(map[CellID]CellID, len(cells))
	for _, seg := range segments {
		b, err := AssembleBatch(grid, cfg.Epoch, seg.Res, cfg.Params, seg.Cells, entriesByCell, cfg.SchemaVersion)
		if err != nil {
			return nil, nil, err
		}
		batches = append(batches, *b)
		for _, c := range seg.Cells {
			cellMap[c] = b.GeoBatchID
		}
	}

	root, batchIDs, batchRoots := BuildSuperRoot(batches)
	summary := summarize(batches, batchIDs, batchRoots, cfg.SchemaVersion)

	lg.Infof("epoch %d: compressed %d cells into %d batches, superRoot=%s", cfg.Epoch, len(cells), len(batches), root)

	return &EpochResult{
		Epoch:     cfg.Epoch,
		Batches:   batches,
		Map:       cellMap,
		SuperRoot: root,
		Summary:   summary,
		HGCParams: cfg.Params,
	}, invalid, nil
}
