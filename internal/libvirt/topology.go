package libvirt

import (
	"context"
	"fmt"
	"strings"
)

// NodeClient is the slice of the libvirt RPC API the topology reader uses.
// *golibvirt.Libvirt satisfies it.
type NodeClient interface {
	NodeGetInfo() (rModel [32]int8, rMemory uint64, rCpus int32, rMhz int32, rNodes int32, rSockets int32, rCores int32, rThreads int32, err error)
	ConnectGetHostname() (string, error)
}

// ClientSource hands out a connected NodeClient.
type ClientSource interface {
	NodeClient(ctx context.Context) (NodeClient, error)
}

// Topology is what the hypervisor reports about the host it runs on.
type Topology struct {
	Hostname         string
	PhysicalCores    uint
	VirtualCores     uint
	TotalMemoryBytes uint64
}

type TopologyReader struct {
	source ClientSource
}

func NewTopologyReader(source ClientSource) *TopologyReader {
	return &TopologyReader{source: source}
}

// Read queries NodeGetInfo. Physical cores are nodes*sockets*cores; when
// libvirt cannot describe the layout (any factor <= 0) the active CPU
// count is used for both.
func (r *TopologyReader) Read(ctx context.Context) (Topology, error) {
	client, err := r.source.NodeClient(ctx)
	if err != nil {
		return Topology{}, err
	}
	_, memoryKiB, cpus, _, nodes, sockets, cores, _, err := client.NodeGetInfo()
	if err != nil {
		return Topology{}, fmt.Errorf("NodeGetInfo: %w", err)
	}
	if cpus < 0 {
		cpus = 0
	}
	virtual := uint(cpus)
	physical := virtual
	if nodes > 0 && sockets > 0 && cores > 0 {
		physical = uint(nodes) * uint(sockets) * uint(cores)
	}
	if physical > virtual {
		physical = virtual
	}

	hostname, err := client.ConnectGetHostname()
	if err != nil {
		return Topology{}, fmt.Errorf("ConnectGetHostname: %w", err)
	}

	return Topology{
		Hostname:         strings.TrimSpace(hostname),
		PhysicalCores:    physical,
		VirtualCores:     virtual,
		TotalMemoryBytes: memoryKiB * 1024,
	}, nil
}
