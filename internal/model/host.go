package model

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrCoreTopology = errors.New("physical cores exceed virtual cores")

// DiskInfo describes one mounted disk. Empty fields mean the collector
// could not read them.
type DiskInfo struct {
	Kind       string `json:"disk_type,omitempty" yaml:"disk_type,omitempty"`
	Filesystem string `json:"file_system,omitempty" yaml:"file_system,omitempty"`
	FreeSpace  string `json:"free_space,omitempty" yaml:"free_space,omitempty"`
}

// HostSnapshot is the static and runtime resource view of one machine at
// capture time.
type HostSnapshot struct {
	SystemName       string     `json:"system_name" yaml:"system_name"`
	KernelVersion    string     `json:"kernel_version" yaml:"kernel_version"`
	OSVersion        string     `json:"os_version" yaml:"os_version"`
	Hostname         string     `json:"hostname" yaml:"hostname"`
	PhysicalCores    uint       `json:"cpu_cores" yaml:"cpu_cores"`
	VirtualCores     uint       `json:"cpu_virtual_cores" yaml:"cpu_virtual_cores"`
	TotalMemoryBytes uint64     `json:"total_memory" yaml:"total_memory"`
	UsedMemoryBytes  uint64     `json:"used_memory" yaml:"used_memory"`
	TotalSwapBytes   uint64     `json:"total_swap" yaml:"total_swap"`
	UsedSwapBytes    uint64     `json:"used_swap" yaml:"used_swap"`
	Disks            []DiskInfo `json:"disks" yaml:"disks"`
}

func (h HostSnapshot) Validate() error {
	if h.PhysicalCores > h.VirtualCores {
		return fmt.Errorf("%w: physical=%d virtual=%d", ErrCoreTopology, h.PhysicalCores, h.VirtualCores)
	}
	return nil
}

// Clone returns a deep copy so the caller owns its disk list.
func (h HostSnapshot) Clone() HostSnapshot {
	out := h
	out.Disks = append([]DiskInfo(nil), h.Disks...)
	return out
}

type KeyValue struct {
	Key   string
	Value string
}

// KeyValues flattens the snapshot into labelled pairs in a fixed order.
// Disk entries are suffixed with their position so several disks never
// overwrite each other.
func (h HostSnapshot) KeyValues() []KeyValue {
	out := []KeyValue{
		{Key: "System Name", Value: h.SystemName},
		{Key: "System kernel version", Value: h.KernelVersion},
		{Key: "System OS version", Value: h.OSVersion},
		{Key: "Hostname", Value: h.Hostname},
		{Key: "CPU Cores", Value: strconv.FormatUint(uint64(h.PhysicalCores), 10)},
		{Key: "CPU Virtual Cores", Value: strconv.FormatUint(uint64(h.VirtualCores), 10)},
		{Key: "Total Memory", Value: strconv.FormatUint(h.TotalMemoryBytes, 10)},
		{Key: "Used Memory", Value: strconv.FormatUint(h.UsedMemoryBytes, 10)},
		{Key: "Total Swap", Value: strconv.FormatUint(h.TotalSwapBytes, 10)},
		{Key: "Used Swap", Value: strconv.FormatUint(h.UsedSwapBytes, 10)},
	}
	for i, d := range h.Disks {
		if d.Kind != "" {
			out = append(out, KeyValue{Key: fmt.Sprintf("Disk %d Type", i), Value: d.Kind})
		}
		if d.Filesystem != "" {
			out = append(out, KeyValue{Key: fmt.Sprintf("Disk %d File System", i), Value: d.Filesystem})
		}
		if d.FreeSpace != "" {
			out = append(out, KeyValue{Key: fmt.Sprintf("Disk %d Free Space", i), Value: d.FreeSpace})
		}
	}
	return out
}
