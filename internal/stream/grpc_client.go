package stream

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"fleetbench/internal/codec"
	"fleetbench/internal/model"
)

// GRPCClient pushes report frames on one long-lived client stream and
// reopens it once when a send fails.
type GRPCClient struct {
	mu sync.Mutex

	logger      *slog.Logger
	addr        string
	tlsConfig   *tls.Config
	token       string
	method      string
	codec       codec.Codec
	dialOpts    []grpc.DialOption
	conn        *grpc.ClientConn
	stream      grpc.ClientStream
	cancel      context.CancelFunc
	dialTimeout time.Duration
}

func NewGRPCClient(addr string, tlsCfg *tls.Config, token, method string, c codec.Codec, logger *slog.Logger, opts ...grpc.DialOption) *GRPCClient {
	if c == nil {
		c = codec.JSON
	}
	return &GRPCClient{
		logger:      logger,
		addr:        addr,
		tlsConfig:   tlsCfg,
		token:       token,
		method:      method,
		codec:       c,
		dialOpts:    opts,
		dialTimeout: 8 * time.Second,
	}
}

func (c *GRPCClient) SendReport(ctx context.Context, nodeID string, r model.EndpointReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureConnLocked(ctx); err != nil {
		return err
	}
	if c.stream == nil {
		if err := c.openStreamLocked(); err != nil {
			return err
		}
	}
	frame := NewReportFrame(nodeID, r, time.Now())
	if err := c.stream.SendMsg(&frame); err != nil {
		c.logger.Warn("grpc report send failed, reopening stream", "error", err)
		c.closeStreamLocked()
		if err2 := c.openStreamLocked(); err2 != nil {
			return fmt.Errorf("reopen report stream: %w", err2)
		}
		if err2 := c.stream.SendMsg(&frame); err2 != nil {
			return fmt.Errorf("send report frame: %w", err2)
		}
	}
	return nil
}

// Close half-closes the stream, waits for the aggregator's ack and tears
// down the connection.
func (c *GRPCClient) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		if err := c.stream.CloseSend(); err == nil {
			var ack model.StreamAck
			if err := c.stream.RecvMsg(&ack); err == nil {
				c.logger.Debug("report stream acknowledged", "accepted", ack.Accepted)
			}
		}
		c.closeStreamLocked()
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	_ = ctx
	return nil
}

func (c *GRPCClient) ensureConnLocked(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()

	var creds credentials.TransportCredentials
	if c.tlsConfig != nil {
		creds = credentials.NewTLS(c.tlsConfig)
	} else {
		creds = insecure.NewCredentials()
	}

	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithBlock(),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(c.codec), grpc.CallContentSubtype(c.codec.Name())),
	}, c.dialOpts...)
	conn, err := grpc.DialContext(dialCtx, c.addr, opts...)
	if err != nil {
		return fmt.Errorf("grpc dial %s: %w", c.addr, err)
	}
	c.conn = conn
	c.logger.Info("grpc stream connected", "addr", c.addr, "codec", c.codec.Name())
	return nil
}

// openStreamLocked opens the stream on a context detached from any single
// send so it survives between push rounds.
func (c *GRPCClient) openStreamLocked() error {
	if c.conn == nil {
		return fmt.Errorf("grpc conn is nil")
	}
	streamCtx, cancel := context.WithCancel(context.Background())
	if c.token != "" {
		streamCtx = metadata.AppendToOutgoingContext(streamCtx, "authorization", "Bearer "+c.token)
	}
	s, err := c.conn.NewStream(streamCtx, &grpc.StreamDesc{ClientStreams: true}, c.method)
	if err != nil {
		cancel()
		return fmt.Errorf("open report stream: %w", err)
	}
	c.stream = s
	c.cancel = cancel
	return nil
}

func (c *GRPCClient) closeStreamLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.stream = nil
}
