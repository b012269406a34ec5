package server

import (
	"net/netip"
	"slices"
	"sync"
	"time"

	"fleetbench/internal/model"
)

type registryEntry struct {
	nodeID     string
	report     model.EndpointReport
	receivedAt time.Time
	firstSeen  uint64
}

// Registry keeps the latest report per endpoint address. Arrival order is
// the order addresses were first seen; a newer report from the same
// address replaces the old one without moving it.
type Registry struct {
	mu      sync.Mutex
	entries map[netip.Addr]*registryEntry
	seq     uint64
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{entries: map[netip.Addr]*registryEntry{}, now: time.Now}
}

// Upsert validates and stores a copy of r. IPv4-mapped IPv6 addresses
// are keyed by their IPv4 form.
func (g *Registry) Upsert(nodeID string, r model.EndpointReport) error {
	r.Address = r.Address.Unmap()
	if err := r.Validate(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[r.Address]
	if !ok {
		g.seq++
		e = &registryEntry{firstSeen: g.seq}
		g.entries[r.Address] = e
	}
	e.nodeID = nodeID
	e.report = r.Clone()
	e.receivedAt = g.now()
	return nil
}

// Expire drops endpoints not heard from within ttl. A ttl of zero keeps
// everything.
func (g *Registry) Expire(ttl time.Duration) []netip.Addr {
	if ttl <= 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	cutoff := g.now().Add(-ttl)
	var out []netip.Addr
	for addr, e := range g.entries {
		if e.receivedAt.Before(cutoff) {
			delete(g.entries, addr)
			out = append(out, addr)
		}
	}
	slices.SortFunc(out, func(a, b netip.Addr) int { return a.Compare(b) })
	return out
}

// Snapshot returns deep copies of the stored reports in arrival order.
func (g *Registry) Snapshot() []model.EndpointReport {
	g.mu.Lock()
	entries := make([]*registryEntry, 0, len(g.entries))
	for _, e := range g.entries {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b *registryEntry) int {
		switch {
		case a.firstSeen < b.firstSeen:
			return -1
		case a.firstSeen > b.firstSeen:
			return 1
		}
		return 0
	})
	out := make([]model.EndpointReport, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.report.Clone())
	}
	g.mu.Unlock()
	return out
}

func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
