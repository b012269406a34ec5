package stream

import (
	"context"
	"fmt"
	"time"

	"fleetbench/internal/codec"
	"fleetbench/internal/model"
)

// Sink delivers endpoint reports to the aggregator.
type Sink interface {
	SendReport(ctx context.Context, nodeID string, r model.EndpointReport) error
	Close(ctx context.Context) error
}

func NewReportFrame(nodeID string, r model.EndpointReport, at time.Time) model.ReportFrame {
	if at.IsZero() {
		at = time.Now()
	}
	return model.ReportFrame{NodeID: nodeID, TimestampUnix: at.UTC().Unix(), Report: r}
}

func EncodeEnvelope(c codec.Codec, frame model.ReportFrame) ([]byte, error) {
	payload, err := c.Marshal(model.Envelope{Type: model.MessageTypeEndpointReport, Frame: frame})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", c.Name(), err)
	}
	return payload, nil
}

func DecodeEnvelope(c codec.Codec, data []byte) (model.Envelope, error) {
	var e model.Envelope
	if err := c.Unmarshal(data, &e); err != nil {
		return model.Envelope{}, fmt.Errorf("decode %s envelope: %w", c.Name(), err)
	}
	if e.Type != model.MessageTypeEndpointReport {
		return model.Envelope{}, fmt.Errorf("unexpected envelope type %q", e.Type)
	}
	return e, nil
}
