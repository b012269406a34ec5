package server

import (
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"fleetbench/internal/model"
)

const (
	ReportServiceName  = "fleetbench.v1.ReportService"
	ReportStreamName   = "StreamReports"
	ReportStreamMethod = "/" + ReportServiceName + "/" + ReportStreamName
)

type reportService interface {
	streamReports(grpc.ServerStream) error
}

// The service has no generated stubs; frames are decoded by whichever
// codec the client named in its content-subtype.
var reportServiceDesc = grpc.ServiceDesc{
	ServiceName: ReportServiceName,
	HandlerType: (*reportService)(nil),
	Streams: []grpc.StreamDesc{{
		StreamName:    ReportStreamName,
		ClientStreams: true,
		Handler: func(srv any, stream grpc.ServerStream) error {
			return srv.(reportService).streamReports(stream)
		},
	}},
	Metadata: "fleetbench/v1/report.proto",
}

// GRPCServer accepts client streams of report frames and stores each
// report in the registry.
type GRPCServer struct {
	srv      *grpc.Server
	registry *Registry
	token    string
	logger   *slog.Logger
}

func NewGRPCServer(registry *Registry, token string, logger *slog.Logger, opts ...grpc.ServerOption) *GRPCServer {
	s := &GRPCServer{
		srv:      grpc.NewServer(opts...),
		registry: registry,
		token:    token,
		logger:   logger,
	}
	s.srv.RegisterService(&reportServiceDesc, s)
	return s
}

func (s *GRPCServer) Serve(lis net.Listener) error {
	err := s.srv.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

func (s *GRPCServer) GracefulStop() { s.srv.GracefulStop() }

func (s *GRPCServer) Stop() { s.srv.Stop() }

func (s *GRPCServer) streamReports(stream grpc.ServerStream) error {
	if s.token != "" {
		md, _ := metadata.FromIncomingContext(stream.Context())
		if !bearerMatches(md.Get("authorization"), s.token) {
			return status.Error(codes.Unauthenticated, "invalid bearer token")
		}
	}

	var ack model.StreamAck
	for {
		var frame model.ReportFrame
		err := stream.RecvMsg(&frame)
		if errors.Is(err, io.EOF) {
			return stream.SendMsg(&ack)
		}
		if err != nil {
			return err
		}
		if err := s.registry.Upsert(frame.NodeID, frame.Report); err != nil {
			ack.Rejected++
			s.logger.Warn("report rejected", "node_id", frame.NodeID, "error", err)
			continue
		}
		ack.Accepted++
		s.logger.Debug("report received", "node_id", frame.NodeID, "endpoint", frame.Report.String())
	}
}

func bearerMatches(values []string, token string) bool {
	for _, v := range values {
		got, ok := strings.CutPrefix(strings.TrimSpace(v), "Bearer ")
		if ok && subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1 {
			return true
		}
	}
	return false
}
