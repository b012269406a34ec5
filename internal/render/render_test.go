package render

import (
	"bytes"
	"math"
	"net/netip"
	"strings"
	"testing"

	"fleetbench/internal/fleet"
	"fleetbench/internal/model"
)

func TestKeyValuesPadsAndMergesNotes(t *testing.T) {
	var buf bytes.Buffer
	pairs := []model.KeyValue{{Key: "Hostname", Value: "bench-1"}, {Key: "CPU Cores", Value: "8"}}
	notes := []model.KeyValue{{Key: "CPU Cores", Value: "16"}, {Key: "Benchmark", Value: "primes"}}
	if err := KeyValues(&buf, pairs, notes...); err != nil {
		t.Fatal(err)
	}
	want := "Hostname  :: bench-1\n" +
		"CPU Cores :: 16\n" +
		"Benchmark :: primes\n"
	if got := buf.String(); got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}
}

func TestKeyValuesEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := KeyValues(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("output = %q, want empty", buf.String())
	}
}

func TestHostHumanizesBytes(t *testing.T) {
	var buf bytes.Buffer
	h := model.HostSnapshot{
		Hostname:         "bench-1",
		PhysicalCores:    4,
		VirtualCores:     8,
		TotalMemoryBytes: 16 << 30,
		Disks:            []model.DiskInfo{{Kind: "SSD", FreeSpace: "1073741824"}, {FreeSpace: "unknown"}},
	}
	if err := Host(&buf, h); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Total Memory          :: 16 GiB", "Disk 0 Free Space     :: 1.0 GiB", "Disk 1 Free Space     :: unknown", "CPU Virtual Cores     :: 8"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func fields(out string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		rows = append(rows, strings.Fields(line))
	}
	return rows
}

func TestIndex(t *testing.T) {
	idx, err := fleet.IndexCores([]fleet.CoreCount{
		{Address: netip.MustParseAddr("10.0.0.1"), VirtualCores: 3},
		{Address: netip.MustParseAddr("10.0.0.2"), VirtualCores: 0},
		{Address: netip.MustParseAddr("10.0.0.3"), VirtualCores: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Index(&buf, idx); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"10.0.0.1  [0, 3)", "10.0.0.3  [3, 5)", "3 endpoints, 5 virtual cores, 5 indexed slots"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRankingAndLeaderboard(t *testing.T) {
	a := netip.MustParseAddr("10.0.0.1")
	b := netip.MustParseAddr("10.0.0.2")
	ranking := []fleet.RankedSample{
		{Address: a, Hostname: "a", Sample: model.BenchmarkSample{Cores: 1, Result: math.NaN()}},
		{Address: b, Hostname: "b", Sample: model.BenchmarkSample{Cores: 2, Result: 42.5}},
	}
	var buf bytes.Buffer
	if err := Ranking(&buf, ranking); err != nil {
		t.Fatal(err)
	}
	rows := fields(buf.String())
	if len(rows) != 3 {
		t.Fatalf("rows = %v", rows)
	}
	if got := strings.Join(rows[1], " "); got != "1 10.0.0.1 a 1 NaN" {
		t.Fatalf("row 1 = %q", got)
	}
	if got := strings.Join(rows[2], " "); got != "2 10.0.0.2 b 2 42.5" {
		t.Fatalf("row 2 = %q", got)
	}

	buf.Reset()
	lb := fleet.Leaderboard{
		{Key: fleet.RankKeyOf(42), Address: b, Hostname: "b", Sample: model.BenchmarkSample{Cores: 2, Result: 42}},
		{Key: fleet.RankKeyOf(42), Address: a, Hostname: "a", Sample: model.BenchmarkSample{Cores: 4, Result: 42}},
	}
	if err := Leaderboard(&buf, lb); err != nil {
		t.Fatal(err)
	}
	rows = fields(buf.String())
	if len(rows) != 3 || rows[0][4] != "BEST" || rows[2][1] != "10.0.0.1" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestExtrema(t *testing.T) {
	reports := []model.EndpointReport{
		{Address: netip.MustParseAddr("10.0.0.1"), Hostname: "a", Samples: []model.BenchmarkSample{{Cores: 1, Result: 3}, {Cores: 2, Result: 9}}},
		{Address: netip.MustParseAddr("10.0.0.2"), Hostname: "b"},
		{Address: netip.MustParseAddr("10.0.0.3"), Hostname: "c", Samples: []model.BenchmarkSample{{Cores: 4, Result: 1}}},
	}
	var buf bytes.Buffer
	if err := Extrema(&buf, reports); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"3 @1", "9 @2", "fleet min 1 @4 on 10.0.0.3, max 9 @2 on 10.0.0.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	rows := fields(out)
	if got := strings.Join(rows[2], " "); got != "10.0.0.2 b - -" {
		t.Fatalf("empty endpoint row = %q", got)
	}
}

func TestFormatResult(t *testing.T) {
	tests := map[float64]string{
		42:           "42",
		42.1:         "42.1",
		math.Inf(-1): "-Inf",
		1e21:         "1e+21",
	}
	for in, want := range tests {
		if got := FormatResult(in); got != want {
			t.Errorf("FormatResult(%v) = %q, want %q", in, got, want)
		}
	}
}
