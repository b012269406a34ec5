package agent

import (
	"sync/atomic"
	"time"
)

type HealthStatus struct {
	libvirtConnected atomic.Bool
	streamConnected  atomic.Bool
	lastReportAt     atomic.Int64
	reportsSent      atomic.Uint64
	sendFailures     atomic.Uint64
}

func NewHealthStatus() *HealthStatus {
	return &HealthStatus{}
}

func (h *HealthStatus) SetLibvirtConnected(ok bool) {
	h.libvirtConnected.Store(ok)
}

func (h *HealthStatus) SetStreamConnected(ok bool) {
	h.streamConnected.Store(ok)
}

func (h *HealthStatus) MarkReportSent(ts time.Time) {
	h.lastReportAt.Store(ts.UnixNano())
	h.reportsSent.Add(1)
}

func (h *HealthStatus) MarkSendFailure() {
	h.sendFailures.Add(1)
}

func (h *HealthStatus) Snapshot() map[string]any {
	out := map[string]any{
		"libvirt_connected": h.libvirtConnected.Load(),
		"stream_connected":  h.streamConnected.Load(),
		"reports_sent":      h.reportsSent.Load(),
		"send_failures":     h.sendFailures.Load(),
	}
	if v := h.lastReportAt.Load(); v > 0 {
		out["last_report_at"] = time.Unix(0, v).UTC()
	}
	return out
}
