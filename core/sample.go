package core

import (
	"encoding/json"
	"fmt"
)

// Sample is one sensor reading tagged with a hex grid cell, per spec §3.
// Declared sensor fields (co2, pm25, temp, hum, ...) are open-ended, so
// Sample marshals them flattened alongside the fixed fields rather than
// nesting them under a "sensors" key.
type Sample struct {
	GeoCellID CellID             `json:"geoCellId"`
	Timestamp int64              `json:"timestamp"`
	Issuer    string             `json:"issuer,omitempty"`
	Sensors   map[string]float64 `json:"-"`
	Samples   []Sample           `json:"samples,omitempty"`
}

// MarshalJSON flattens Sensors onto the object alongside the fixed fields.
func (s Sample) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(s.Sensors)+4)
	m["geoCellId"] = s.GeoCellID
	m["timestamp"] = s.Timestamp
	if s.Issuer != "" {
		m["issuer"] = s.Issuer
	}
	for k, v := range s.Sensors {
		m[k] = v
	}
	if len(s.Samples) > 0 {
		m["samples"] = s.Samples
	}
	return json.Marshal(m)
}

// UnmarshalJSON collects any key other than the fixed fields into Sensors.
func (s *Sample) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if v, ok := raw["geoCellId"]; ok {
		if err := json.Unmarshal(v, &s.GeoCellID); err != nil {
			return err
		}
		delete(raw, "geoCellId")
	}
	if v, ok := raw["timestamp"]; ok {
		if err := json.Unmarshal(v, &s.Timestamp); err != nil {
			return err
		}
		delete(raw, "timestamp")
	}
	if v, ok := raw["issuer"]; ok {
		if err := json.Unmarshal(v, &s.Issuer); err != nil {
			return err
		}
		delete(raw, "issuer")
	}
	if v, ok := raw["samples"]; ok {
		if err := json.Unmarshal(v, &s.Samples); err != nil {
			return err
		}
		delete(raw, "samples")
	}
	s.Sensors = make(map[string]float64, len(raw))
	for k, v := range raw {
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return fmt.Errorf("sensor field %q: %w", k, err)
		}
		s.Sensors[k] = f
	}
	return nil
}

// sensorBounds declares the accepted range for each known sensor field.
// Unknown fields pass through unchecked.
var sensorBounds = map[string][2]float64{
	"co2":  {0, 10000},
	"pm25": {0, 1000},
	"temp": {-100, 100},
	"hum":  {0, 100},
}

func validateSensors(s Sample) error {
	for k, v := range s.Sensors {
		b, ok := sensorBounds[k]
		if !ok {
			continue
		}
		if v < b[0] || v > b[1] {
			return &ValidationError{Cell: s.GeoCellID, Reason: fmt.Sprintf("%s=%v out of range [%v,%v]", k, v, b[0], b[1])}
		}
	}
	return nil
}

// countSamples implements spec §4.5's sample-count rule: an entry with a
// non-empty inner Samples array counts as len(Samples); otherwise it
// counts as one.
func countSamples(entries []Sample) int {
	n := 0
	for _, e := range entries {
		if len(e.Samples) > 0 {
			n += len(e.Samples)
		} else {
			n++
		}
	}
	return n
}
