package model

type MessageType string

const MessageTypeEndpointReport MessageType = "endpoint_report"

// ReportFrame is one report pushed by an agent over a stream.
type ReportFrame struct {
	NodeID        string         `json:"node_id"`
	TimestampUnix int64          `json:"timestamp_unix"`
	Report        EndpointReport `json:"report"`
}

// Envelope is transport-agnostic framing for message-oriented transports.
type Envelope struct {
	Type  MessageType `json:"type"`
	Frame ReportFrame `json:"frame"`
}

// StreamAck closes a client stream. Rejected counts frames whose report
// failed validation.
type StreamAck struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}
