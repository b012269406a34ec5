package version

import (
	"time"

	"fleetbench/internal/config"
)

func Get(cfg config.Config) Info {
	return Info{
		NodeID:          cfg.NodeID,
		AgentVersion:    cfg.AgentVersion,
		AppVersion:      cfg.AppVersion,
		StreamMode:      string(cfg.StreamMode),
		WireCodec:       cfg.WireCodec,
		HostSource:      string(cfg.HostSource),
		ProbeListenAddr: cfg.ProbeListenAddr,
		CheckedAtUnix:   time.Now().UTC().Unix(),
	}
}
