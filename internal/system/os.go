package system

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

type OSInfo struct {
	SystemName    string
	KernelVersion string
	OSVersion     string
	Hostname      string
}

// ReadOSInfo combines uname with /etc/os-release. Distribution fields
// fall back to the kernel's sysname when os-release is missing.
func ReadOSInfo() (OSInfo, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return OSInfo{}, fmt.Errorf("uname: %w", err)
	}
	info := OSInfo{
		SystemName:    unix.ByteSliceToString(uts.Sysname[:]),
		KernelVersion: unix.ByteSliceToString(uts.Release[:]),
		Hostname:      unix.ByteSliceToString(uts.Nodename[:]),
	}
	if h, err := os.Hostname(); err == nil && h != "" {
		info.Hostname = h
	}

	f, err := os.Open("/etc/os-release")
	if err != nil {
		return info, nil
	}
	defer f.Close()
	rel, err := parseOSRelease(f)
	if err != nil {
		return info, err
	}
	if rel["NAME"] != "" {
		info.SystemName = rel["NAME"]
	}
	info.OSVersion = rel["VERSION_ID"]
	return info, nil
}

func parseOSRelease(r io.Reader) (map[string]string, error) {
	out := map[string]string{}
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[key] = strings.Trim(val, `"'`)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan os-release: %w", err)
	}
	return out, nil
}
