package simulator

import (
	"encoding/json"
	"testing"

	"geo3hgc/core"
)

func TestGenerateSamplesIsDeterministic(t *testing.T) {
	cfg := Config{Seed: 42, NumNodes: 5, NSamples: 20, BaseRes: 6, Epoch: 3}
	a, err := GenerateSamples(cfg)
	if err != nil {
		t.Fatalf("GenerateSamples: %v", err)
	}
	b, err := GenerateSamples(cfg)
	if err != nil {
		t.Fatalf("GenerateSamples (second call): %v", err)
	}
	rawA, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal a: %v", err)
	}
	rawB, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal b: %v", err)
	}
	if string(rawA) != string(rawB) {
		t.Fatalf("expected identical output for the same seed and config")
	}
	if len(a) != cfg.NSamples {
		t.Fatalf("expected %d samples, got %d", cfg.NSamples, len(a))
	}
}

func TestGenerateSamplesDiffersWithSeed(t *testing.T) {
	cfg1 := Config{Seed: 1, NumNodes: 5, NSamples: 20, BaseRes: 6, Epoch: 3}
	cfg2 := Config{Seed: 2, NumNodes: 5, NSamples: 20, BaseRes: 6, Epoch: 3}
	a, err := GenerateSamples(cfg1)
	if err != nil {
		t.Fatalf("GenerateSamples(seed=1): %v", err)
	}
	b, err := GenerateSamples(cfg2)
	if err != nil {
		t.Fatalf("GenerateSamples(seed=2): %v", err)
	}
	rawA, _ := json.Marshal(a)
	rawB, _ := json.Marshal(b)
	if string(rawA) == string(rawB) {
		t.Fatalf("expected different seeds to produce different samples")
	}
}

func TestGenerateSamplesRejectsZeroNodes(t *testing.T) {
	_, err := GenerateSamples(Config{Seed: 1, NumNodes: 0, NSamples: 10, BaseRes: 6, Epoch: 0})
	if err == nil {
		t.Fatalf("expected an error when NumNodes is non-positive")
	}
}

func TestGenerateSamplesTagsValidCells(t *testing.T) {
	samples, err := GenerateSamples(Config{Seed: 7, NumNodes: 3, NSamples: 10, BaseRes: 5, Epoch: 0})
	if err != nil {
		t.Fatalf("GenerateSamples: %v", err)
	}
	grid := core.NewH3Grid()
	for _, s := range samples {
		if s.GeoCellID == "" {
			t.Fatalf("expected every sample to carry a cell id")
		}
		if !grid.IsValidCell(s.GeoCellID) {
			t.Fatalf("expected %s to be a valid H3 cell", s.GeoCellID)
		}
	}
}
