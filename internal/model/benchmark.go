package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// BenchmarkSample is one run of the benchmark workload on Cores cores.
// Higher Result is better; NaN marks a run that produced no usable score.
type BenchmarkSample struct {
	Cores  uint    `json:"cores" yaml:"cores"`
	Result float64 `json:"result" yaml:"result"`
}

type sampleJSON struct {
	Cores  uint            `json:"cores"`
	Result json.RawMessage `json:"result"`
}

// MarshalJSON writes non-finite results as the strings "NaN", "+Inf" and
// "-Inf", which plain JSON numbers cannot hold.
func (s BenchmarkSample) MarshalJSON() ([]byte, error) {
	var result []byte
	switch {
	case math.IsNaN(s.Result):
		result = []byte(`"NaN"`)
	case math.IsInf(s.Result, 1):
		result = []byte(`"+Inf"`)
	case math.IsInf(s.Result, -1):
		result = []byte(`"-Inf"`)
	default:
		result = strconv.AppendFloat(nil, s.Result, 'g', -1, 64)
	}
	return json.Marshal(sampleJSON{Cores: s.Cores, Result: result})
}

// UnmarshalJSON accepts a number, one of the non-finite strings, or null
// (read as NaN).
func (s *BenchmarkSample) UnmarshalJSON(data []byte) error {
	var raw sampleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Cores = raw.Cores
	switch string(raw.Result) {
	case "", "null", `"NaN"`:
		s.Result = math.NaN()
		return nil
	case `"+Inf"`, `"Inf"`:
		s.Result = math.Inf(1)
		return nil
	case `"-Inf"`:
		s.Result = math.Inf(-1)
		return nil
	}
	if err := json.Unmarshal(raw.Result, &s.Result); err != nil {
		return fmt.Errorf("benchmark result %s: %w", raw.Result, err)
	}
	return nil
}

// BenchmarkBundle is the file/wire shape a benchmark runner hands over.
type BenchmarkBundle struct {
	Hostname   string            `json:"hostname" yaml:"hostname"`
	SourcePath string            `json:"source_path,omitempty" yaml:"source_path,omitempty"`
	AppVersion string            `json:"app_version,omitempty" yaml:"app_version,omitempty"`
	Address    string            `json:"address,omitempty" yaml:"address,omitempty"`
	Benchmarks []BenchmarkSample `json:"benchmarks" yaml:"benchmarks"`
}
