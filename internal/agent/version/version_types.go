package version

// Info identifies a running agent to probes and to the aggregator's logs.
type Info struct {
	NodeID          string `json:"node_id"`
	AgentVersion    string `json:"agent_version"`
	AppVersion      string `json:"app_version,omitempty"`
	StreamMode      string `json:"stream_mode"`
	WireCodec       string `json:"wire_codec"`
	HostSource      string `json:"host_source"`
	ProbeListenAddr string `json:"probe_listen_addr"`
	CheckedAtUnix   int64  `json:"checked_at_unix"`
}
