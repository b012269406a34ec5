package system

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"strings"
)

// PrimaryAddress returns the first global unicast address of the
// interface carrying the default IPv4 route.
func PrimaryAddress() (netip.Addr, error) {
	f, err := os.Open("/proc/net/route")
	if err != nil {
		return netip.Addr{}, fmt.Errorf("open /proc/net/route: %w", err)
	}
	defer f.Close()

	iface, err := parseDefaultRoute(f)
	if err != nil {
		return netip.Addr{}, err
	}
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("lookup interface %s: %w", iface, err)
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("list addresses of %s: %w", iface, err)
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip, ok := netip.AddrFromSlice(ipNet.IP)
		if !ok {
			continue
		}
		ip = ip.Unmap()
		if ip.IsGlobalUnicast() || ip.IsPrivate() {
			return ip, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("interface %s has no usable address", iface)
}

// parseDefaultRoute returns the interface of the 0.0.0.0/0 route with the
// lowest metric.
func parseDefaultRoute(r io.Reader) (string, error) {
	best := ""
	bestMetric := ""
	s := bufio.NewScanner(r)
	lineNo := 0
	for s.Scan() {
		lineNo++
		if lineNo == 1 {
			continue
		}
		parts := strings.Fields(s.Text())
		if len(parts) < 8 {
			continue
		}
		iface, dest, mask, metric := parts[0], parts[1], parts[7], parts[6]
		if dest != "00000000" || mask != "00000000" || iface == "lo" {
			continue
		}
		if best == "" || lessNumeric(metric, bestMetric) {
			best, bestMetric = iface, metric
		}
	}
	if err := s.Err(); err != nil {
		return "", fmt.Errorf("scan /proc/net/route: %w", err)
	}
	if best == "" {
		return "", fmt.Errorf("default route not found")
	}
	return best, nil
}

func lessNumeric(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
