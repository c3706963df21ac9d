// Package simulator generates deterministic synthetic sensor samples for
// local runs and demos, standing in for a real sensor network per spec.md
// §1's "simulated node and sample generation" collaborator.
package simulator

import (
	"fmt"
	"math/rand"

	h3 "github.com/uber/h3-go/v4"

	"geo3hgc/core"
)

// Config controls sample generation. The same Seed/NumNodes/NSamples
// always produces byte-identical samples, grounded on
// other_examples' epoch_runner.go deterministic-tick shape, adapted to run
// synchronously once per invocation instead of on a ticker.
type Config struct {
	Seed     int64
	NumNodes int
	NSamples int
	BaseRes  int
	Epoch    int64
}

type node struct {
	lat, lng float64
}

// GenerateSamples deterministically scatters NumNodes synthetic node
// locations and draws NSamples readings from them, tagging each with the
// hex cell at BaseRes its node falls in.
func GenerateSamples(cfg Config) ([]core.Sample, error) {
	if cfg.NumNodes <= 0 {
		return nil, fmt.Errorf("simulator: numNodes must be positive, got %d", cfg.NumNodes)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	nodes := make([]node, cfg.NumNodes)
	for i := range nodes {
		nodes[i] = node{
			lat: rng.Float64()*180 - 90,
			lng: rng.Float64()*360 - 180,
		}
	}

	samples := make([]core.Sample, 0, cfg.NSamples)
	for i := 0; i < cfg.NSamples; i++ {
		n := nodes[i%len(nodes)]
		cell, err := cellFromLatLng(n.lat, n.lng, cfg.BaseRes)
		if err != nil {
			return nil, fmt.Errorf("simulator: sample %d: %w", i, err)
		}
		samples = append(samples, core.Sample{
			GeoCellID: cell,
			Timestamp: cfg.Epoch*3_600_000 + int64(i),
			Sensors: map[string]float64{
				"pm25": rng.Float64() * 100,
				"co2":  300 + rng.Float64()*500,
				"temp": rng.Float64()*40 - 10,
				"hum":  rng.Float64() * 100,
			},
		})
	}
	return samples, nil
}

// cellFromLatLng mints the h3-go cell id for a coordinate. The core
// package's HexGrid oracle never runs this direction (it only resolves
// existing cell ids), so the simulator talks to h3-go directly.
func cellFromLatLng(lat, lng float64, res int) (core.CellID, error) {
	c, err := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lng}, res)
	if err != nil {
		return "", err
	}
	return core.CellID(c.String()), nil
}
