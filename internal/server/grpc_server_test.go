package server

import (
	"context"
	"math"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"fleetbench/internal/codec"
	"fleetbench/internal/logutil"
	"fleetbench/internal/model"
	"fleetbench/internal/stream"
)

func startBufServer(t *testing.T, token string) (*Registry, *bufconn.Listener) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	reg := NewRegistry()
	srv := NewGRPCServer(reg, token, logutil.Discard())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return reg, lis
}

func bufClient(lis *bufconn.Listener, token string, c codec.Codec) *stream.GRPCClient {
	dialer := grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
	return stream.NewGRPCClient("passthrough:///bufnet", nil, token, ReportStreamMethod, c, logutil.Discard(), dialer)
}

func TestGRPCStreamStoresReports(t *testing.T) {
	for _, c := range []codec.Codec{codec.JSON, codec.CBOR} {
		t.Run(c.Name(), func(t *testing.T) {
			reg, lis := startBufServer(t, "secret")
			client := bufClient(lis, "secret", c)
			ctx := context.Background()

			if err := client.SendReport(ctx, "n1", testReport(t, "10.0.0.1", "a", model.BenchmarkSample{Cores: 4, Result: 12.5})); err != nil {
				t.Fatalf("SendReport: %v", err)
			}
			if err := client.SendReport(ctx, "n2", testReport(t, "2001:db8::7", "b", model.BenchmarkSample{Cores: 8, Result: 30})); err != nil {
				t.Fatalf("SendReport: %v", err)
			}
			if err := client.Close(ctx); err != nil {
				t.Fatalf("Close: %v", err)
			}

			snap := reg.Snapshot()
			if len(snap) != 2 {
				t.Fatalf("stored %d reports, want 2", len(snap))
			}
			if snap[1].Address.String() != "2001:db8::7" || snap[1].Samples[0].Result != 30 {
				t.Fatalf("second report = %+v", snap[1])
			}
		})
	}
}

func TestGRPCStreamCarriesNaNOverCBOR(t *testing.T) {
	reg, lis := startBufServer(t, "")
	client := bufClient(lis, "", codec.CBOR)
	ctx := context.Background()

	r := testReport(t, "10.0.0.1", "a", model.BenchmarkSample{Cores: 1, Result: math.NaN()}, model.BenchmarkSample{Cores: 2, Result: math.Inf(1)})
	if err := client.SendReport(ctx, "n1", r); err != nil {
		t.Fatalf("SendReport: %v", err)
	}
	if err := client.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	snap := reg.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("stored %d reports, want 1", len(snap))
	}
	if !math.IsNaN(snap[0].Samples[0].Result) || !math.IsInf(snap[0].Samples[1].Result, 1) {
		t.Fatalf("samples = %+v", snap[0].Samples)
	}
}

func TestGRPCStreamRejectsBadToken(t *testing.T) {
	reg, lis := startBufServer(t, "secret")
	client := bufClient(lis, "wrong", codec.JSON)
	ctx := context.Background()

	_ = client.SendReport(ctx, "n1", testReport(t, "10.0.0.1", "a"))
	_ = client.Close(ctx)
	if reg.Len() != 0 {
		t.Fatalf("stored %d reports with a bad token", reg.Len())
	}
}

func TestGRPCStreamSkipsInvalidReports(t *testing.T) {
	reg, lis := startBufServer(t, "")
	client := bufClient(lis, "", codec.JSON)
	ctx := context.Background()

	if err := client.SendReport(ctx, "n1", model.EndpointReport{Hostname: "no-address"}); err != nil {
		t.Fatalf("SendReport: %v", err)
	}
	if err := client.SendReport(ctx, "n2", testReport(t, "10.0.0.2", "ok")); err != nil {
		t.Fatalf("SendReport: %v", err)
	}
	if err := client.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	snap := reg.Snapshot()
	if len(snap) != 1 || snap[0].Hostname != "ok" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestBearerMatches(t *testing.T) {
	tests := []struct {
		values []string
		want   bool
	}{
		{nil, false},
		{[]string{"secret"}, false},
		{[]string{"Bearer secret"}, true},
		{[]string{"Bearer nope", " Bearer secret "}, true},
		{[]string{"Bearer secrets"}, false},
	}
	for _, tt := range tests {
		if got := bearerMatches(tt.values, "secret"); got != tt.want {
			t.Errorf("bearerMatches(%q) = %v, want %v", tt.values, got, tt.want)
		}
	}
}
