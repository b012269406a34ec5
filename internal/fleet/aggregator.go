package fleet

import (
	"cmp"
	"math"
	"net/netip"
	"slices"

	"fleetbench/internal/model"
)

// Extrema holds copies of the lowest and highest scoring samples.
type Extrema struct {
	Min model.BenchmarkSample `json:"min"`
	Max model.BenchmarkSample `json:"max"`
}

// RankedSample is a sample tagged with the endpoint that produced it.
type RankedSample struct {
	Address  netip.Addr            `json:"address"`
	Hostname string                `json:"hostname"`
	Sample   model.BenchmarkSample `json:"sample"`
}

// LeaderboardEntry is the best sample of one endpoint.
type LeaderboardEntry struct {
	Key      RankKey               `json:"key"`
	Address  netip.Addr            `json:"address"`
	Hostname string                `json:"hostname"`
	Sample   model.BenchmarkSample `json:"sample"`
}

// Leaderboard lists one entry per endpoint, best result first. Equal
// results are ordered by address; endpoints whose best result is NaN
// come last.
type Leaderboard []LeaderboardEntry

// Lookup returns the entry for addr.
func (l Leaderboard) Lookup(addr netip.Addr) (LeaderboardEntry, bool) {
	for _, e := range l {
		if e.Address == addr {
			return e, true
		}
	}
	return LeaderboardEntry{}, false
}

// PerEndpointExtrema scans one report's samples. NaN results never win a
// comparison; if every result is NaN the first sample is both bounds.
// On equal results the first sample in iteration order is kept.
func PerEndpointExtrema(r model.EndpointReport) (Extrema, bool) {
	return sampleExtrema(r.Samples)
}

func sampleExtrema(samples []model.BenchmarkSample) (Extrema, bool) {
	if len(samples) == 0 {
		return Extrema{}, false
	}
	start := slices.IndexFunc(samples, func(s model.BenchmarkSample) bool { return !math.IsNaN(s.Result) })
	if start < 0 {
		return Extrema{Min: samples[0], Max: samples[0]}, true
	}
	ex := Extrema{Min: samples[start], Max: samples[start]}
	for _, s := range samples[start+1:] {
		if s.Result < ex.Min.Result {
			ex.Min = s
		}
		if s.Result > ex.Max.Result {
			ex.Max = s
		}
	}
	return ex, true
}

// GlobalRanking flattens every sample of every report and sorts ascending
// by result. The sort is stable, so equal results keep report order then
// sample order. NaN results sort before all numbers and carry no ordering
// guarantee relative to each other beyond stability.
func GlobalRanking(reports []model.EndpointReport) []RankedSample {
	n := 0
	for _, r := range reports {
		n += len(r.Samples)
	}
	out := make([]RankedSample, 0, n)
	for _, r := range reports {
		for _, s := range r.Samples {
			out = append(out, RankedSample{Address: r.Address, Hostname: r.Hostname, Sample: s})
		}
	}
	slices.SortStableFunc(out, func(a, b RankedSample) int {
		return cmp.Compare(a.Sample.Result, b.Sample.Result)
	})
	return out
}

// TopK returns up to k ranked samples, best first. NaN results are never
// part of a top-K view.
func TopK(ranking []RankedSample, k int) []RankedSample {
	if k <= 0 {
		return []RankedSample{}
	}
	out := make([]RankedSample, 0, min(k, len(ranking)))
	for i := len(ranking) - 1; i >= 0 && len(out) < k; i-- {
		if math.IsNaN(ranking[i].Sample.Result) {
			continue
		}
		out = append(out, ranking[i])
	}
	return out
}

// FleetExtrema returns the lowest and highest scoring samples across all
// reports, using the same rules as PerEndpointExtrema.
func FleetExtrema(reports []model.EndpointReport) (lo, hi RankedSample, ok bool) {
	found := false
	for _, r := range reports {
		ex, exOK := PerEndpointExtrema(r)
		if !exOK {
			continue
		}
		curLo := RankedSample{Address: r.Address, Hostname: r.Hostname, Sample: ex.Min}
		curHi := RankedSample{Address: r.Address, Hostname: r.Hostname, Sample: ex.Max}
		if !found {
			lo, hi, found = curLo, curHi, true
			continue
		}
		if !math.IsNaN(curLo.Sample.Result) && (math.IsNaN(lo.Sample.Result) || curLo.Sample.Result < lo.Sample.Result) {
			lo = curLo
		}
		if !math.IsNaN(curHi.Sample.Result) && (math.IsNaN(hi.Sample.Result) || curHi.Sample.Result > hi.Sample.Result) {
			hi = curHi
		}
	}
	return lo, hi, found
}

// BestPerEndpoint builds the leaderboard from each endpoint's maximum
// sample. Every endpoint with at least one sample gets exactly one entry;
// equal results never collapse.
func BestPerEndpoint(reports []model.EndpointReport) Leaderboard {
	out := make(Leaderboard, 0, len(reports))
	for _, r := range reports {
		ex, ok := PerEndpointExtrema(r)
		if !ok {
			continue
		}
		out = append(out, LeaderboardEntry{
			Key:      RankKeyOf(ex.Max.Result),
			Address:  r.Address,
			Hostname: r.Hostname,
			Sample:   ex.Max,
		})
	}
	slices.SortStableFunc(out, compareEntries)
	return out
}

func compareEntries(a, b LeaderboardEntry) int {
	aNaN, bNaN := math.IsNaN(a.Sample.Result), math.IsNaN(b.Sample.Result)
	switch {
	case aNaN && !bNaN:
		return 1
	case !aNaN && bNaN:
		return -1
	case !aNaN && !bNaN:
		if c := cmp.Compare(b.Key, a.Key); c != 0 {
			return c
		}
	}
	return a.Address.Compare(b.Address)
}
