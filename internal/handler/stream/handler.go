package stream

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	xlogger "MarketPulse/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// EchoHandler exposes the hub at /ws/snapshot.
type EchoHandler struct {
	hub *Hub
	l   *xlogger.Logger
}

func NewEchoHandler(hub *Hub, l *xlogger.Logger) *EchoHandler {
	return &EchoHandler{hub: hub, l: l}
}

func (h *EchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/snapshot", h.Serve)
}

func (h *EchoHandler) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Warn("websocket upgrade", xlogger.Error(err))
		return nil
	}

	cl := &client{hub: h.hub, conn: conn, send: make(chan []byte, sendBuffer), remote: c.RealIP()}
	if !h.hub.join(cl) {
		_ = conn.Close()
		return nil
	}
	go cl.writePump()
	go cl.readPump()
	return nil
}
