package system

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"fleetbench/internal/model"
)

type mountEntry struct {
	Device     string
	Mountpoint string
	FSType     string
}

// ReadDisks lists mounted block devices with their filesystem, kind and
// free space. A device mounted at several points is reported once.
func ReadDisks() ([]model.DiskInfo, error) {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return nil, fmt.Errorf("open /proc/mounts: %w", err)
	}
	defer f.Close()

	mounts, err := parseMounts(f)
	if err != nil {
		return nil, err
	}
	out := make([]model.DiskInfo, 0, len(mounts))
	for _, m := range mounts {
		d := model.DiskInfo{Filesystem: m.FSType, Kind: diskKind(m.Device)}
		var st unix.Statfs_t
		if err := unix.Statfs(m.Mountpoint, &st); err == nil {
			d.FreeSpace = strconv.FormatUint(st.Bavail*uint64(st.Bsize), 10)
		}
		out = append(out, d)
	}
	return out, nil
}

func parseMounts(r io.Reader) ([]mountEntry, error) {
	seen := map[string]struct{}{}
	var out []mountEntry
	s := bufio.NewScanner(r)
	for s.Scan() {
		parts := strings.Fields(s.Text())
		if len(parts) < 3 {
			continue
		}
		dev := parts[0]
		if !strings.HasPrefix(dev, "/dev/") {
			continue
		}
		name := filepath.Base(dev)
		if !isBlockDevice(name) {
			continue
		}
		if _, dup := seen[dev]; dup {
			continue
		}
		seen[dev] = struct{}{}
		out = append(out, mountEntry{Device: dev, Mountpoint: unescapeMount(parts[1]), FSType: parts[2]})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan /proc/mounts: %w", err)
	}
	return out, nil
}

// unescapeMount decodes the octal escapes /proc/mounts uses for spaces,
// tabs and backslashes.
func unescapeMount(p string) string {
	if !strings.Contains(p, `\`) {
		return p
	}
	var b strings.Builder
	for i := 0; i < len(p); i++ {
		if p[i] == '\\' && i+3 < len(p) {
			if v, err := strconv.ParseUint(p[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(p[i])
	}
	return b.String()
}

func isBlockDevice(name string) bool {
	if strings.HasPrefix(name, "loop") || strings.HasPrefix(name, "ram") || strings.HasPrefix(name, "fd") {
		return false
	}
	if strings.HasPrefix(name, "dm-") || strings.HasPrefix(name, "nvme") || strings.HasPrefix(name, "sd") || strings.HasPrefix(name, "vd") || strings.HasPrefix(name, "xvd") || strings.HasPrefix(name, "mmcblk") {
		return true
	}
	return false
}

// diskKind reads the rotational flag of the parent block device.
func diskKind(dev string) string {
	name := parentBlockDevice(filepath.Base(dev))
	raw, err := os.ReadFile(filepath.Join("/sys/block", name, "queue", "rotational"))
	if err != nil {
		return "Unknown"
	}
	switch strings.TrimSpace(string(raw)) {
	case "0":
		return "SSD"
	case "1":
		return "HDD"
	default:
		return "Unknown"
	}
}

// parentBlockDevice strips the partition suffix: sda1 -> sda,
// nvme0n1p2 -> nvme0n1, mmcblk0p1 -> mmcblk0.
func parentBlockDevice(name string) string {
	if strings.HasPrefix(name, "nvme") || strings.HasPrefix(name, "mmcblk") {
		if i := strings.LastIndex(name, "p"); i > 0 && i < len(name)-1 && isDigits(name[i+1:]) && isDigits(name[i-1:i]) {
			return name[:i]
		}
		return name
	}
	if strings.HasPrefix(name, "dm-") {
		return name
	}
	return strings.TrimRight(name, "0123456789")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
