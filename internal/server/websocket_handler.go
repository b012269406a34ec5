package server

import (
	"log/slog"
	"net/http"

	"nhooyr.io/websocket"

	"fleetbench/internal/codec"
	"fleetbench/internal/stream"
)

// WebSocketHandler accepts envelopes from agents: text messages are JSON,
// binary messages are CBOR.
type WebSocketHandler struct {
	registry *Registry
	token    string
	logger   *slog.Logger
}

func NewWebSocketHandler(registry *Registry, token string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{registry: registry, token: token, logger: logger}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.token != "" && !bearerMatches(r.Header.Values("Authorization"), h.token) {
		http.Error(w, "invalid bearer token", http.StatusUnauthorized)
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(10 << 20)

	ctx := r.Context()
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				h.logger.Debug("websocket agent disconnected", "remote", r.RemoteAddr)
			default:
				h.logger.Warn("websocket read failed", "remote", r.RemoteAddr, "error", err)
			}
			return
		}
		c := codec.JSON
		if typ == websocket.MessageBinary {
			c = codec.CBOR
		}
		env, err := stream.DecodeEnvelope(c, data)
		if err != nil {
			h.logger.Warn("websocket envelope dropped", "remote", r.RemoteAddr, "error", err)
			continue
		}
		if err := h.registry.Upsert(env.Frame.NodeID, env.Frame.Report); err != nil {
			h.logger.Warn("report rejected", "node_id", env.Frame.NodeID, "error", err)
			continue
		}
		h.logger.Debug("report received", "node_id", env.Frame.NodeID, "endpoint", env.Frame.Report.String())
	}
}
