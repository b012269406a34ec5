package system

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

type CPUTopology struct {
	PhysicalCores uint
	VirtualCores  uint
}

func ReadCPUTopology() (CPUTopology, error) {
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return CPUTopology{}, fmt.Errorf("open /proc/cpuinfo: %w", err)
	}
	defer f.Close()

	topo, err := parseCPUInfo(f)
	if err != nil {
		return CPUTopology{}, err
	}
	if topo.VirtualCores == 0 {
		n := uint(runtime.NumCPU())
		topo = CPUTopology{PhysicalCores: n, VirtualCores: n}
	}
	return topo, nil
}

// parseCPUInfo counts processor blocks as virtual cores and unique
// (physical id, core id) pairs as physical cores. Kernels that omit core
// ids (some ARM boards, VMs) report one physical core per processor.
func parseCPUInfo(r io.Reader) (CPUTopology, error) {
	var (
		virtual   uint
		coreIDs   = map[string]struct{}{}
		physical  string
		coreID    string
		sawCoreID bool
	)
	flush := func() {
		if coreID != "" {
			coreIDs[physical+"/"+coreID] = struct{}{}
		}
		physical, coreID = "", ""
	}

	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			flush()
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		switch key {
		case "processor":
			virtual++
		case "physical id":
			physical = val
		case "core id":
			coreID = val
			sawCoreID = true
		}
	}
	if err := s.Err(); err != nil {
		return CPUTopology{}, fmt.Errorf("scan /proc/cpuinfo: %w", err)
	}
	flush()

	phys := uint(len(coreIDs))
	if !sawCoreID || phys == 0 || phys > virtual {
		phys = virtual
	}
	return CPUTopology{PhysicalCores: phys, VirtualCores: virtual}, nil
}
