package api

import (
	"net/http"

	"SocialPulse/internal/usecase"
	xlogger "SocialPulse/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// StreamHandler pushes streaming updates to WebSocket clients. Each
// connection gets its own scheduler subscription; a slow client only
// loses its own updates.
type StreamHandler struct {
	logger   *xlogger.Logger
	engine   *usecase.SignalEngine
	upgrader websocket.Upgrader
}

// NewStreamHandler creates the WebSocket endpoint.
func NewStreamHandler(logger *xlogger.Logger, engine *usecase.SignalEngine) *StreamHandler {
	return &StreamHandler{
		logger: logger,
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the connection and relays updates until the client
// disconnects or the scheduler stops (channel closed).
func (h *StreamHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	updates, unsubscribe := h.engine.SubscribeUpdates(32)
	defer unsubscribe()

	// reader goroutine: detect client close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return nil
		case update, ok := <-updates:
			if !ok {
				// scheduler stopped; tell the client and end cleanly
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "streaming stopped"))
				return nil
			}
			if err := conn.WriteJSON(update); err != nil {
				h.logger.Debug("ws write failed", xlogger.Error(err))
				return nil
			}
		}
	}
}
