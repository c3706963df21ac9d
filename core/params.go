package core

import "fmt"

// HGCParams controls compressor behavior: hex-grid resolutions, per-batch
// budgets, and the hysteresis bands that let a batch settle near its
// budget instead of oscillating between splits and merges across epochs.
type HGCParams struct {
	BaseRes            int     `json:"baseRes" mapstructure:"base_res"`
	MinRes             int     `json:"minRes" mapstructure:"min_res"`
	MaxLeavesPerBatch  int     `json:"maxLeavesPerBatch" mapstructure:"max_leaves_per_batch"`
	MaxSamplesPerBatch int     `json:"maxSamplesPerBatch" mapstructure:"max_samples_per_batch"`
	HysteresisNear     float64 `json:"hysteresisNear" mapstructure:"hysteresis_near"`
	HysteresisFar      float64 `json:"hysteresisFar" mapstructure:"hysteresis_far"`
	Volume             int64   `json:"volume" mapstructure:"volume"`
}

// ConfigError reports an invalid HGCParams value.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "config: " + e.Reason }

// ValidateParams checks the invariants spec §4.4/§9 requires before a run
// starts: minRes in [0, baseRes], baseRes within the grid's supported
// range, and a sane hysteresis band.
func ValidateParams(p HGCParams) error {
	if p.MinRes < 0 || p.MinRes > p.BaseRes {
		return &ConfigError{Reason: fmt.Sprintf("minRes %d must be in [0, baseRes %d]", p.MinRes, p.BaseRes)}
	}
	if p.BaseRes < 0 || p.BaseRes > MaxH3Res {
		return &ConfigError{Reason: fmt.Sprintf("baseRes %d must be in [0, %d]", p.BaseRes, MaxH3Res)}
	}
	if p.MaxLeavesPerBatch <= 0 || p.MaxSamplesPerBatch <= 0 {
		return &ConfigError{Reason: "maxLeavesPerBatch and maxSamplesPerBatch must be positive"}
	}
	if p.HysteresisNear <= 0 || p.HysteresisNear > 1 {
		return &ConfigError{Reason: fmt.Sprintf("hysteresisNear %v must be in (0,1]", p.HysteresisNear)}
	}
	if p.HysteresisFar < 1 {
		return &ConfigError{Reason: fmt.Sprintf("hysteresisFar %v must be >= 1", p.HysteresisFar)}
	}
	return nil
}

// DefaultParamsForVolume returns the tier-by-volume defaults for
// maxLeavesPerBatch/maxSamplesPerBatch, per spec §4.4's "coarser tiers for
// higher expected volume". It is a pure function of volume, read once at
// config load time rather than consulted during compression.
func DefaultParamsForVolume(volume int64) HGCParams {
	p := HGCParams{
		BaseRes:        8,
		MinRes:         0,
		HysteresisNear: 0.9,
		HysteresisFar:  1.1,
		Volume:         volume,
	}
	switch {
	case volume < 5_000:
		p.MaxLeavesPerBatch = 64
		p.MaxSamplesPerBatch = 512
	case volume < 50_000:
		p.MaxLeavesPerBatch = 256
		p.MaxSamplesPerBatch = 4096
	default:
		p.MaxLeavesPerBatch = 1024
		p.MaxSamplesPerBatch = 16384
	}
	return p
}
