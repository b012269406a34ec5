package model

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

var (
	ErrMissingAddress  = errors.New("endpoint address is required")
	ErrMissingHostname = errors.New("endpoint hostname is required")
)

// EndpointReport binds one machine's identity to its host snapshot and
// benchmark samples. It owns both; constructors copy their inputs.
type EndpointReport struct {
	Address    netip.Addr        `json:"address" yaml:"address"`
	Hostname   string            `json:"hostname" yaml:"hostname"`
	AppVersion string            `json:"app_version,omitempty" yaml:"app_version,omitempty"`
	Samples    []BenchmarkSample `json:"samples" yaml:"samples"`
	Host       HostSnapshot      `json:"host" yaml:"host"`
}

// NewEndpointReport validates identity before the report can reach any
// fleet view. An empty hostname falls back to the snapshot's hostname.
func NewEndpointReport(addr netip.Addr, hostname, appVersion string, samples []BenchmarkSample, host HostSnapshot) (EndpointReport, error) {
	hostname = strings.TrimSpace(hostname)
	if hostname == "" {
		hostname = strings.TrimSpace(host.Hostname)
	}
	r := EndpointReport{
		Address:    addr.Unmap(),
		Hostname:   hostname,
		AppVersion: strings.TrimSpace(appVersion),
		Samples:    append([]BenchmarkSample(nil), samples...),
		Host:       host.Clone(),
	}
	if err := r.Validate(); err != nil {
		return EndpointReport{}, err
	}
	return r, nil
}

// EndpointReportFromBundle converts a runner bundle plus the local host
// snapshot. The bundle must carry a parseable address.
func EndpointReportFromBundle(b BenchmarkBundle, host HostSnapshot) (EndpointReport, error) {
	raw := strings.TrimSpace(b.Address)
	if raw == "" {
		return EndpointReport{}, ErrMissingAddress
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return EndpointReport{}, fmt.Errorf("parse bundle address %q: %w", raw, err)
	}
	return NewEndpointReport(addr, b.Hostname, b.AppVersion, b.Benchmarks, host)
}

func (r EndpointReport) Validate() error {
	if !r.Address.IsValid() {
		return ErrMissingAddress
	}
	if strings.TrimSpace(r.Hostname) == "" {
		return fmt.Errorf("%s: %w", r.Address, ErrMissingHostname)
	}
	if err := r.Host.Validate(); err != nil {
		return fmt.Errorf("%s: %w", r.Address, err)
	}
	return nil
}

// Clone returns a deep copy.
func (r EndpointReport) Clone() EndpointReport {
	out := r
	out.Samples = append([]BenchmarkSample(nil), r.Samples...)
	out.Host = r.Host.Clone()
	return out
}

func (r EndpointReport) String() string {
	return fmt.Sprintf("Ip: %s, Threads: %d", r.Address, r.Host.VirtualCores)
}
