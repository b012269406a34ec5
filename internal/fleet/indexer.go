// Package fleet derives read-only fleet views from a collection of endpoint
// reports: the global core index and the benchmark rankings. Nothing here
// performs I/O or mutates its input.
package fleet

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"net/netip"
	"sort"

	"fleetbench/internal/model"
)

// ErrCounterOverflow is returned when the fleet has more virtual cores than
// the slot counter can address.
var ErrCounterOverflow = errors.New("global core slot counter overflow")

// maxSlots bounds the slot counter. Slots are uint32 so an index can be
// shipped to workers that address cores with 32-bit integers.
const maxSlots = math.MaxUint32

// CoreCount is the indexer input for one endpoint.
type CoreCount struct {
	Address      netip.Addr
	VirtualCores uint
}

// CoreSpan is the half-open slot range [Start, End) owned by Address.
type CoreSpan struct {
	Address netip.Addr `json:"address"`
	Start   uint32     `json:"start"`
	End     uint32     `json:"end"`
}

// Len is the number of slots in the span.
func (s CoreSpan) Len() uint32 {
	return s.End - s.Start
}

// GlobalCoreIndex maps dense zero-based slots to endpoints. Spans are
// contiguous and appear in input order.
type GlobalCoreIndex struct {
	spans     []CoreSpan
	endpoints uint
}

// FleetSummary holds fleet totals derived alongside the index.
type FleetSummary struct {
	TotalVirtualCores uint `json:"total_virtual_cores"`
	TotalEndpoints    uint `json:"total_endpoints"`
}

// CoreCounts derives indexer input from reports, keeping their order.
func CoreCounts(reports []model.EndpointReport) []CoreCount {
	out := make([]CoreCount, 0, len(reports))
	for _, r := range reports {
		out = append(out, CoreCount{Address: r.Address, VirtualCores: r.Host.VirtualCores})
	}
	return out
}

// IndexCores assigns slots by prefix sum over counts in the given order.
// Endpoints with zero cores, or more cores than a slot counter can hold,
// get no slots. If the running total would pass the counter range the
// whole index is rejected with ErrCounterOverflow.
func IndexCores(counts []CoreCount) (GlobalCoreIndex, error) {
	idx := GlobalCoreIndex{
		spans:     make([]CoreSpan, 0, len(counts)),
		endpoints: uint(len(counts)),
	}
	var next uint32
	for i, c := range counts {
		if c.VirtualCores == 0 || uint64(c.VirtualCores) > maxSlots {
			continue
		}
		n := uint32(c.VirtualCores)
		if n > maxSlots-next {
			return GlobalCoreIndex{}, fmt.Errorf("%w: endpoint %d (%s) adds %d cores at slot %d", ErrCounterOverflow, i, c.Address, n, next)
		}
		idx.spans = append(idx.spans, CoreSpan{Address: c.Address, Start: next, End: next + n})
		next += n
	}
	return idx, nil
}

// Summarize computes fleet totals with the same skipping rules as IndexCores.
func Summarize(counts []CoreCount) (FleetSummary, error) {
	idx, err := IndexCores(counts)
	if err != nil {
		return FleetSummary{}, err
	}
	return idx.Summary(), nil
}

// Len is the total number of indexed slots.
func (x GlobalCoreIndex) Len() uint32 {
	if len(x.spans) == 0 {
		return 0
	}
	return x.spans[len(x.spans)-1].End
}

// Summary returns the fleet totals; TotalEndpoints counts endpoints with no
// slots too.
func (x GlobalCoreIndex) Summary() FleetSummary {
	return FleetSummary{TotalVirtualCores: uint(x.Len()), TotalEndpoints: x.endpoints}
}

// Owner returns the endpoint that owns slot.
func (x GlobalCoreIndex) Owner(slot uint32) (netip.Addr, bool) {
	i := sort.Search(len(x.spans), func(i int) bool { return x.spans[i].End > slot })
	if i == len(x.spans) || slot < x.spans[i].Start {
		return netip.Addr{}, false
	}
	return x.spans[i].Address, true
}

// Range returns the first span owned by addr.
func (x GlobalCoreIndex) Range(addr netip.Addr) (CoreSpan, bool) {
	for _, s := range x.spans {
		if s.Address == addr {
			return s, true
		}
	}
	return CoreSpan{}, false
}

// Spans returns a copy of the partition.
func (x GlobalCoreIndex) Spans() []CoreSpan {
	return append([]CoreSpan(nil), x.spans...)
}

// All yields every slot with its owner in ascending slot order.
func (x GlobalCoreIndex) All() iter.Seq2[uint32, netip.Addr] {
	return func(yield func(uint32, netip.Addr) bool) {
		for _, s := range x.spans {
			for slot := s.Start; slot < s.End; slot++ {
				if !yield(slot, s.Address) {
					return
				}
			}
		}
	}
}
