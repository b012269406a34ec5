package fleet

import (
	"fmt"
	"slices"
	"strings"

	"fleetbench/internal/model"
)

// Order selects how a round arranges endpoints before indexing. The index
// partition depends on it, so callers that need addressing independent of
// arrival order should pick address or hostname.
type Order string

const (
	OrderAsGiven    Order = "arrival"
	OrderByAddress  Order = "address"
	OrderByHostname Order = "hostname"
)

func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case OrderAsGiven, OrderByAddress, OrderByHostname:
		return o, nil
	case "":
		return OrderByAddress, nil
	default:
		return "", fmt.Errorf("unsupported index order %q", s)
	}
}

// Round is one aggregation pass over a fixed collection of reports.
type Round struct {
	order   Order
	reports []model.EndpointReport
}

// NewRound copies reports and arranges the copy by order. The caller's
// slice is never reordered.
func NewRound(reports []model.EndpointReport, order Order) Round {
	cp := slices.Clone(reports)
	switch order {
	case OrderByAddress:
		slices.SortStableFunc(cp, func(a, b model.EndpointReport) int {
			return a.Address.Compare(b.Address)
		})
	case OrderByHostname:
		slices.SortStableFunc(cp, func(a, b model.EndpointReport) int {
			if c := strings.Compare(a.Hostname, b.Hostname); c != 0 {
				return c
			}
			return a.Address.Compare(b.Address)
		})
	}
	return Round{order: order, reports: cp}
}

func (r Round) Order() Order {
	return r.order
}

func (r Round) Reports() []model.EndpointReport {
	return slices.Clone(r.reports)
}

func (r Round) Index() (GlobalCoreIndex, error) {
	return IndexCores(CoreCounts(r.reports))
}

func (r Round) Summary() (FleetSummary, error) {
	return Summarize(CoreCounts(r.reports))
}

func (r Round) Ranking() []RankedSample {
	return GlobalRanking(r.reports)
}

func (r Round) Leaderboard() Leaderboard {
	return BestPerEndpoint(r.reports)
}
