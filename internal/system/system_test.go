package system

import (
	"strings"
	"testing"
)

func TestParseCPUInfoHyperThreaded(t *testing.T) {
	var b strings.Builder
	// 2 physical cores, 2 threads each, one socket.
	for i, core := range []string{"0", "1", "0", "1"} {
		b.WriteString("processor\t: " + string(rune('0'+i)) + "\n")
		b.WriteString("model name\t: Test CPU\n")
		b.WriteString("physical id\t: 0\n")
		b.WriteString("core id\t\t: " + core + "\n\n")
	}
	topo, err := parseCPUInfo(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("parseCPUInfo: %v", err)
	}
	if topo.VirtualCores != 4 || topo.PhysicalCores != 2 {
		t.Fatalf("topology = %+v, want 2 physical / 4 virtual", topo)
	}
}

func TestParseCPUInfoWithoutCoreIDs(t *testing.T) {
	in := "processor\t: 0\nBogoMIPS\t: 50.00\n\nprocessor\t: 1\nBogoMIPS\t: 50.00\n"
	topo, err := parseCPUInfo(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parseCPUInfo: %v", err)
	}
	if topo.VirtualCores != 2 || topo.PhysicalCores != 2 {
		t.Fatalf("topology = %+v", topo)
	}
}

func TestParseMemInfo(t *testing.T) {
	in := `MemTotal:       16000000 kB
MemFree:         2000000 kB
MemAvailable:    6000000 kB
SwapTotal:       4000000 kB
SwapFree:        3000000 kB
`
	mem, err := parseMemInfo(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parseMemInfo: %v", err)
	}
	if mem.TotalBytes != 16000000*1024 || mem.UsedBytes != 10000000*1024 {
		t.Fatalf("memory = %+v", mem)
	}
	if mem.SwapTotalBytes != 4000000*1024 || mem.SwapUsedBytes != 1000000*1024 {
		t.Fatalf("swap = %+v", mem)
	}
}

func TestParseMemInfoMissingTotal(t *testing.T) {
	if _, err := parseMemInfo(strings.NewReader("MemFree: 10 kB\n")); err == nil {
		t.Fatalf("expected error without MemTotal")
	}
}

func TestParseMounts(t *testing.T) {
	in := `sysfs /sys sysfs rw,nosuid 0 0
/dev/nvme0n1p2 / ext4 rw,relatime 0 0
/dev/nvme0n1p2 /var/lib/docker ext4 rw,relatime 0 0
/dev/loop3 /snap/core squashfs ro 0 0
/dev/sda1 /mnt/bulk\040data xfs rw 0 0
tmpfs /run tmpfs rw 0 0
`
	mounts, err := parseMounts(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parseMounts: %v", err)
	}
	if len(mounts) != 2 {
		t.Fatalf("mounts = %+v, want 2", mounts)
	}
	if mounts[0].Mountpoint != "/" || mounts[0].FSType != "ext4" {
		t.Fatalf("mounts[0] = %+v", mounts[0])
	}
	if mounts[1].Mountpoint != "/mnt/bulk data" || mounts[1].FSType != "xfs" {
		t.Fatalf("mounts[1] = %+v", mounts[1])
	}
}

func TestParentBlockDevice(t *testing.T) {
	tests := map[string]string{
		"sda1":      "sda",
		"sdb":       "sdb",
		"nvme0n1p2": "nvme0n1",
		"nvme0n1":   "nvme0n1",
		"mmcblk0p1": "mmcblk0",
		"dm-0":      "dm-0",
		"vda3":      "vda",
	}
	for in, want := range tests {
		if got := parentBlockDevice(in); got != want {
			t.Errorf("parentBlockDevice(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseDefaultRoute(t *testing.T) {
	in := `Iface	Destination	Gateway 	Flags	RefCnt	Use	Metric	Mask		MTU	Window	IRTT
wlan0	00000000	0101A8C0	0003	0	0	600	00000000	0	0	0
eth0	00000000	0100000A	0003	0	0	100	00000000	0	0	0
eth0	0000000A	00000000	0001	0	0	100	00FFFFFF	0	0	0
`
	iface, err := parseDefaultRoute(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parseDefaultRoute: %v", err)
	}
	if iface != "eth0" {
		t.Fatalf("iface = %q, want eth0 (lowest metric)", iface)
	}

	if _, err := parseDefaultRoute(strings.NewReader("Iface\tDestination\n")); err == nil {
		t.Fatalf("expected error without a default route")
	}
}

func TestParseOSRelease(t *testing.T) {
	in := `# comment
NAME="Ubuntu"
VERSION_ID="24.04"
ID=ubuntu
`
	rel, err := parseOSRelease(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parseOSRelease: %v", err)
	}
	if rel["NAME"] != "Ubuntu" || rel["VERSION_ID"] != "24.04" || rel["ID"] != "ubuntu" {
		t.Fatalf("os-release = %v", rel)
	}
}
