package collector

import (
	"context"
	"fmt"
	"log/slog"

	"fleetbench/internal/libvirt"
	"fleetbench/internal/model"
	"fleetbench/internal/system"
)

// HostCollector produces the local machine's snapshot.
type HostCollector interface {
	Collect(ctx context.Context) (model.HostSnapshot, error)
}

// ProcHostCollector reads procfs, sysfs and uname. CPU and memory are
// required; OS and disk details are best effort and left empty on error.
type ProcHostCollector struct {
	logger    *slog.Logger
	readOS    func() (system.OSInfo, error)
	readCPU   func() (system.CPUTopology, error)
	readMem   func() (system.MemoryInfo, error)
	readDisks func() ([]model.DiskInfo, error)
}

func NewProcHostCollector(logger *slog.Logger) *ProcHostCollector {
	return &ProcHostCollector{
		logger:    logger,
		readOS:    system.ReadOSInfo,
		readCPU:   system.ReadCPUTopology,
		readMem:   system.ReadMemoryInfo,
		readDisks: system.ReadDisks,
	}
}

func (c *ProcHostCollector) Collect(ctx context.Context) (model.HostSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.HostSnapshot{}, err
	}
	cpu, err := c.readCPU()
	if err != nil {
		return model.HostSnapshot{}, fmt.Errorf("cpu topology: %w", err)
	}
	mem, err := c.readMem()
	if err != nil {
		return model.HostSnapshot{}, fmt.Errorf("memory info: %w", err)
	}

	snap := model.HostSnapshot{
		PhysicalCores:    cpu.PhysicalCores,
		VirtualCores:     cpu.VirtualCores,
		TotalMemoryBytes: mem.TotalBytes,
		UsedMemoryBytes:  mem.UsedBytes,
		TotalSwapBytes:   mem.SwapTotalBytes,
		UsedSwapBytes:    mem.SwapUsedBytes,
	}
	if osInfo, err := c.readOS(); err != nil {
		c.logger.Warn("os info unavailable", "error", err)
	} else {
		snap.SystemName = osInfo.SystemName
		snap.KernelVersion = osInfo.KernelVersion
		snap.OSVersion = osInfo.OSVersion
		snap.Hostname = osInfo.Hostname
	}
	if disks, err := c.readDisks(); err != nil {
		c.logger.Warn("disk info unavailable", "error", err)
	} else {
		snap.Disks = disks
	}
	return snap, snap.Validate()
}

// LibvirtHostCollector takes core counts and total memory from the
// hypervisor and everything else from base.
type LibvirtHostCollector struct {
	base     HostCollector
	topology *libvirt.TopologyReader
}

func NewLibvirtHostCollector(base HostCollector, topology *libvirt.TopologyReader) *LibvirtHostCollector {
	return &LibvirtHostCollector{base: base, topology: topology}
}

func (c *LibvirtHostCollector) Collect(ctx context.Context) (model.HostSnapshot, error) {
	snap, err := c.base.Collect(ctx)
	if err != nil {
		return model.HostSnapshot{}, err
	}
	topo, err := c.topology.Read(ctx)
	if err != nil {
		return model.HostSnapshot{}, fmt.Errorf("libvirt topology: %w", err)
	}
	if topo.VirtualCores > 0 {
		snap.PhysicalCores = topo.PhysicalCores
		snap.VirtualCores = topo.VirtualCores
	}
	if topo.TotalMemoryBytes > 0 {
		snap.TotalMemoryBytes = topo.TotalMemoryBytes
	}
	if snap.Hostname == "" {
		snap.Hostname = topo.Hostname
	}
	return snap, snap.Validate()
}
