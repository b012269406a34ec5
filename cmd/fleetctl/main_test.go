package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fleetYAML = `
- address: 10.0.0.2
  hostname: beta
  samples:
    - {cores: 1, result: 42}
    - {cores: 4, result: 7}
  host: {hostname: beta, cpu_cores: 2, cpu_virtual_cores: 4}
- address: 10.0.0.1
  hostname: alpha
  samples:
    - {cores: 1, result: 42}
  host: {hostname: alpha, cpu_cores: 1, cpu_virtual_cores: 2}
`

const singleJSON = `{
  // one endpoint per file is fine too
  "address": "10.0.0.3",
  "hostname": "gamma",
  "samples": [{"cores": 8, "result": 99.5}],
  "host": {"hostname": "gamma", "cpu_cores": 4, "cpu_virtual_cores": 8, "total_memory": 1073741824},
}`

func writeFiles(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	a := filepath.Join(dir, "fleet.yaml")
	b := filepath.Join(dir, "gamma.jsonc")
	if err := os.WriteFile(a, []byte(fleetYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte(singleJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return []string{a, b}
}

func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	if err := run(args, &stdout, &stderr); err != nil {
		t.Fatalf("run %v: %v (stderr: %s)", args, err, stderr.String())
	}
	return stdout.String()
}

func TestIndexCommandRespectsOrder(t *testing.T) {
	files := writeFiles(t)

	out := runCmd(t, append([]string{"index"}, files...)...)
	for _, want := range []string{"10.0.0.1  [0, 2)", "10.0.0.2  [2, 6)", "10.0.0.3  [6, 14)", "3 endpoints, 14 virtual cores"} {
		if !strings.Contains(out, want) {
			t.Errorf("address order output missing %q:\n%s", want, out)
		}
	}

	out = runCmd(t, append([]string{"index", "--order", "arrival"}, files...)...)
	if !strings.Contains(out, "10.0.0.2  [0, 4)") {
		t.Errorf("arrival order output:\n%s", out)
	}
}

func TestLeaderboardKeepsTies(t *testing.T) {
	out := runCmd(t, append([]string{"leaderboard"}, writeFiles(t)...)...)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[1], "10.0.0.3") || !strings.Contains(lines[2], "10.0.0.1") || !strings.Contains(lines[3], "10.0.0.2") {
		t.Fatalf("leaderboard order:\n%s", out)
	}
}

func TestRankingTop(t *testing.T) {
	files := writeFiles(t)
	out := runCmd(t, append([]string{"ranking", "--top", "1"}, files...)...)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "99.5") {
		t.Fatalf("top 1:\n%s", out)
	}

	out = runCmd(t, append([]string{"ranking"}, files...)...)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 || !strings.Contains(lines[1], "7") {
		t.Fatalf("full ranking:\n%s", out)
	}
}

func TestHostCommandRendersReports(t *testing.T) {
	out := runCmd(t, "host", writeFiles(t)[1])
	for _, want := range []string{"gamma", "1.0 GiB", "Ip: 10.0.0.3, Threads: 8"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLoadReportsKeepsListError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.json")
	body := `[{"address": "10.0.0.1", "hostname": "a"}, {"address": "not-an-ip", "hostname": "b"}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := loadReports([]string{path})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "not-an-ip") {
		t.Fatalf("error hides the list element cause: %v", err)
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"hostname": "no-address"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := [][]string{
		{"bogus"},
		{"index"},
		{"index", "--order", "random", bad},
		{"index", bad},
		{"index", filepath.Join(dir, "missing.json")},
	}
	for _, args := range tests {
		var stdout, stderr bytes.Buffer
		if err := run(args, &stdout, &stderr); err == nil {
			t.Errorf("run %v: expected error", args)
		}
	}
}
