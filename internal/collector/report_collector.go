package collector

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"fleetbench/internal/codec"
	"fleetbench/internal/model"
	"fleetbench/internal/system"
)

// LoadBundle reads a benchmark runner bundle in any format codec.DecodeFile
// understands.
func LoadBundle(path string) (model.BenchmarkBundle, error) {
	var b model.BenchmarkBundle
	if err := codec.DecodeFile(path, &b); err != nil {
		return model.BenchmarkBundle{}, err
	}
	if b.SourcePath == "" {
		b.SourcePath = path
	}
	return b, nil
}

// ReportCollector joins the host snapshot with the latest benchmark bundle.
// The report address comes from the bundle, then the advertise address,
// then the interface holding the default route.
type ReportCollector struct {
	host       HostCollector
	bundlePath string
	advertise  netip.Addr
	appVersion string
	primary    func() (netip.Addr, error)
}

func NewReportCollector(host HostCollector, bundlePath string, advertise netip.Addr, appVersion string) *ReportCollector {
	return &ReportCollector{
		host:       host,
		bundlePath: bundlePath,
		advertise:  advertise,
		appVersion: appVersion,
		primary:    system.PrimaryAddress,
	}
}

func (c *ReportCollector) Collect(ctx context.Context) (model.EndpointReport, error) {
	snap, err := c.host.Collect(ctx)
	if err != nil {
		return model.EndpointReport{}, err
	}

	var bundle model.BenchmarkBundle
	if c.bundlePath != "" {
		if bundle, err = LoadBundle(c.bundlePath); err != nil {
			return model.EndpointReport{}, err
		}
	}

	addr, err := c.address(bundle)
	if err != nil {
		return model.EndpointReport{}, err
	}
	appVersion := bundle.AppVersion
	if appVersion == "" {
		appVersion = c.appVersion
	}
	return model.NewEndpointReport(addr, bundle.Hostname, appVersion, bundle.Benchmarks, snap)
}

func (c *ReportCollector) address(b model.BenchmarkBundle) (netip.Addr, error) {
	if raw := strings.TrimSpace(b.Address); raw != "" {
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return netip.Addr{}, fmt.Errorf("parse bundle address %q: %w", raw, err)
		}
		return addr, nil
	}
	if c.advertise.IsValid() {
		return c.advertise, nil
	}
	addr, err := c.primary()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("resolve endpoint address: %w", err)
	}
	return addr, nil
}
