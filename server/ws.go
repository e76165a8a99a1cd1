package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	liveviewcommon "github.com/tranvictor/liveview/common"
	"github.com/tranvictor/liveview/session"
	"github.com/tranvictor/liveview/token"
)

const outboundBuffer = 64

// Request is the inbound subscription message.
type Request struct {
	Chain     string   `json:"chain"`
	Addresses []string `json:"addresses"`
}

// ErrorMessage is the terminal error sent when a subscription request is
// rejected. The caller may simply resend a corrected request.
type ErrorMessage struct {
	ConnectionID string `json:"connectionId"`
	Message      string `json:"message"`
}

// handleWS owns one websocket connection: it reads subscription requests,
// runs at most one active session for the connection, and funnels all
// outbound traffic through a single writer goroutine.
func (s *Server) handleWS(c *websocket.Conn) {
	connID := uuid.NewString()
	logger := s.logger.With("connection", connID)
	logger.Debug("websocket connected", "remote", c.RemoteAddr().String())

	respCh := make(chan session.Response, outboundBuffer)
	errCh := make(chan ErrorMessage, 8)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case resp := <-respCh:
				if err := writeJSON(c, resp); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			case msg := <-errCh:
				if err := writeJSON(c, msg); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			}
		}
	}()

	var sess *session.Session
	defer func() {
		// Disconnect is the cancellation signal for the running session.
		if sess != nil {
			sess.Cancel()
		}
		close(done)
		logger.Debug("websocket disconnected")
	}()

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}

		req := Request{}
		if err = json.Unmarshal(raw, &req); err != nil {
			sendError(errCh, connID, "malformed request", logger)
			continue
		}

		if sess != nil && sess.State() != session.StateTerminated {
			sendError(errCh, connID, "a subscription is already active on this connection", logger)
			continue
		}

		backend, err := s.registry.Get(req.Chain)
		if err != nil {
			sendError(errCh, connID, "unsupported chain", logger)
			continue
		}

		badHex := false
		for _, a := range req.Addresses {
			if !liveviewcommon.IsAddress(a) {
				sendError(errCh, connID, "malformed address "+a, logger)
				badHex = true
				break
			}
		}
		if badHex {
			continue
		}
		addresses := liveviewcommon.DedupAddresses(liveviewcommon.HexToAddresses(req.Addresses))

		sess = session.New(connID, backend.Client(), backend.MultiCallContract(), s.resolver, respCh, logger)
		if err = sess.Subscribe(context.Background(), addresses); err != nil {
			sendError(errCh, connID, subscribeErrorMessage(err), logger)
			continue
		}
		logger.Info("subscription started",
			"chain", backend.Network().GetName(),
			"addresses", len(addresses),
		)
	}
}

// subscribeErrorMessage keeps the terminal error messages distinct per
// failure kind without leaking node internals to the client.
func subscribeErrorMessage(err error) string {
	var invalid *token.AddressInvalidError
	switch {
	case errors.Is(err, session.ErrNoAddresses):
		return "no addresses provided"
	case errors.As(err, &invalid):
		return invalid.Error()
	case errors.Is(err, token.ErrTransport):
		return "failed to fetch token data"
	case errors.Is(err, token.ErrSubscribeFailed):
		return "failed to subscribe to transfer events"
	default:
		return "failed to subscribe to transfer events"
	}
}

func sendError(errCh chan<- ErrorMessage, connID, message string, logger *slog.Logger) {
	select {
	case errCh <- ErrorMessage{ConnectionID: connID, Message: message}:
	default:
		logger.Warn("error channel full, dropping error message", "message", message)
	}
}

func writeJSON(c *websocket.Conn, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, payload)
}
