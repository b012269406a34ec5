package codec

import (
	"bytes"
	"math"
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"fleetbench/internal/model"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDecodeFileJSONWithComments(t *testing.T) {
	path := writeFile(t, "bundle.jsonc", `{
  // produced by the runner
  "hostname": "bench-01",
  "address": "10.0.0.4",
  "benchmarks": [
    {"cores": 1, "result": 12.5},
    {"cores": 8, "result": 80.25}, // trailing comma below
  ],
}`)
	var b model.BenchmarkBundle
	if err := DecodeFile(path, &b); err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if b.Hostname != "bench-01" || b.Address != "10.0.0.4" || len(b.Benchmarks) != 2 {
		t.Fatalf("bundle = %+v", b)
	}
	if b.Benchmarks[1] != (model.BenchmarkSample{Cores: 8, Result: 80.25}) {
		t.Fatalf("benchmarks[1] = %+v", b.Benchmarks[1])
	}
}

func TestDecodeFileYAMLReport(t *testing.T) {
	path := writeFile(t, "report.yaml", `
address: 192.168.10.2
hostname: rack3-node2
samples:
  - cores: 4
    result: 101.5
  - cores: 8
    result: .nan
host:
  hostname: rack3-node2
  cpu_cores: 4
  cpu_virtual_cores: 8
  total_memory: 17179869184
  disks:
    - disk_type: SSD
      file_system: ext4
`)
	var r model.EndpointReport
	if err := DecodeFile(path, &r); err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if r.Address != netip.MustParseAddr("192.168.10.2") {
		t.Fatalf("address = %v", r.Address)
	}
	if r.Host.VirtualCores != 8 || r.Host.PhysicalCores != 4 || len(r.Host.Disks) != 1 {
		t.Fatalf("host = %+v", r.Host)
	}
	if !math.IsNaN(r.Samples[1].Result) {
		t.Fatalf("expected NaN sample, got %v", r.Samples[1].Result)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestCBORCarriesNaNAndAddress(t *testing.T) {
	in := model.EndpointReport{
		Address:  netip.MustParseAddr("fd00::7"),
		Hostname: "v6-node",
		Samples:  []model.BenchmarkSample{{Cores: 2, Result: math.NaN()}, {Cores: 4, Result: math.Inf(1)}},
		Host:     model.HostSnapshot{Hostname: "v6-node", VirtualCores: 4, PhysicalCores: 2},
	}
	path := filepath.Join(t.TempDir(), "report.cbor")
	if err := EncodeFile(path, in); err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}
	var out model.EndpointReport
	if err := DecodeFile(path, &out); err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if out.Address != in.Address || out.Hostname != in.Hostname {
		t.Fatalf("identity lost: %+v", out)
	}
	if !math.IsNaN(out.Samples[0].Result) || !math.IsInf(out.Samples[1].Result, 1) {
		t.Fatalf("samples = %+v", out.Samples)
	}
}

func TestCBORIsDeterministic(t *testing.T) {
	r := model.BenchmarkBundle{Hostname: "a", Address: "10.0.0.1", Benchmarks: []model.BenchmarkSample{{Cores: 1, Result: 2}}}
	first, err := CBOR.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := CBOR.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("encoding differs between runs")
	}
}

func TestJSONCarriesNonFiniteResults(t *testing.T) {
	in := []model.BenchmarkSample{{Cores: 1, Result: math.NaN()}, {Cores: 2, Result: math.Inf(1)}, {Cores: 3, Result: math.Inf(-1)}, {Cores: 4, Result: 2.5}}
	data, err := JSON.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `[{"cores":1,"result":"NaN"},{"cores":2,"result":"+Inf"},{"cores":3,"result":"-Inf"},{"cores":4,"result":2.5}]`
	if string(data) != want {
		t.Fatalf("json = %s, want %s", data, want)
	}
	var out []model.BenchmarkSample
	if err := JSON.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !math.IsNaN(out[0].Result) || !math.IsInf(out[1].Result, 1) || !math.IsInf(out[2].Result, -1) || out[3].Result != 2.5 {
		t.Fatalf("samples = %+v", out)
	}
}

func TestJSONReadsNullResultAsNaN(t *testing.T) {
	var s model.BenchmarkSample
	if err := JSON.Unmarshal([]byte(`{"cores": 8, "result": null}`), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s.Cores != 8 || !math.IsNaN(s.Result) {
		t.Fatalf("sample = %+v", s)
	}
	if err := JSON.Unmarshal([]byte(`{"cores": 8, "result": "fast"}`), &s); err == nil {
		t.Fatal("expected error for a non-numeric result")
	}
}

func TestForName(t *testing.T) {
	for _, name := range []string{"", "json", "JSON"} {
		c, err := ForName(name)
		if err != nil || c.Name() != NameJSON {
			t.Fatalf("ForName(%q) = %v, %v", name, c, err)
		}
	}
	if c, err := ForName("cbor"); err != nil || c.Name() != NameCBOR {
		t.Fatalf("ForName(cbor) = %v, %v", c, err)
	}
	if _, err := ForName("protobuf"); err == nil {
		t.Fatalf("expected error for unknown codec")
	}
}

func TestDecodeUnknownExtension(t *testing.T) {
	path := writeFile(t, "report.toml", "x = 1")
	var r model.EndpointReport
	if err := DecodeFile(path, &r); err == nil {
		t.Fatalf("expected error for .toml")
	}
}
