package system

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type MemoryInfo struct {
	TotalBytes     uint64
	UsedBytes      uint64
	FreeBytes      uint64
	SwapTotalBytes uint64
	SwapUsedBytes  uint64
}

func ReadMemoryInfo() (MemoryInfo, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return MemoryInfo{}, fmt.Errorf("open /proc/meminfo: %w", err)
	}
	defer f.Close()
	return parseMemInfo(f)
}

func parseMemInfo(r io.Reader) (MemoryInfo, error) {
	vals := map[string]uint64{}
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		key := strings.TrimSuffix(parts[0], ":")
		v, convErr := strconv.ParseUint(parts[1], 10, 64)
		if convErr != nil {
			continue
		}
		vals[key] = v * 1024
	}
	if err := s.Err(); err != nil {
		return MemoryInfo{}, fmt.Errorf("scan /proc/meminfo: %w", err)
	}
	total := vals["MemTotal"]
	avail, ok := vals["MemAvailable"]
	if !ok {
		avail = vals["MemFree"] + vals["Buffers"] + vals["Cached"]
	}
	if total == 0 {
		return MemoryInfo{}, fmt.Errorf("MemTotal missing")
	}
	avail = min(avail, total)
	swapTotal := vals["SwapTotal"]
	swapFree := min(vals["SwapFree"], swapTotal)
	return MemoryInfo{
		TotalBytes:     total,
		UsedBytes:      total - avail,
		FreeBytes:      avail,
		SwapTotalBytes: swapTotal,
		SwapUsedBytes:  swapTotal - swapFree,
	}, nil
}
