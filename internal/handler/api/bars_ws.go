package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"barflow/internal/domain/models"
	drepo "barflow/internal/domain/repository"
	"barflow/internal/usecase"
	xhttp "barflow/pkg/http"
	xlogger "barflow/pkg/logger"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// BarStreamHandler pushes closed bars to websocket clients as they are
// produced.
type BarStreamHandler struct {
	logger *xlogger.Logger
	broker *usecase.BarBroker
}

// NewBarStreamHandler creates a new BarStreamHandler instance.
func NewBarStreamHandler(logger *xlogger.Logger, broker *usecase.BarBroker) *BarStreamHandler {
	return &BarStreamHandler{logger: logger, broker: broker}
}

// RegisterRoutes implements the server Handler contract.
func (h *BarStreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/bars", h.Stream)
}

// Stream upgrades the connection and forwards closed bars matching the
// requested symbol and timeframe until the client disconnects.
func (h *BarStreamHandler) Stream(c echo.Context) error {
	req := &models.BarStreamRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := drepo.NormalizeTimeframe(req.TF)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	bars, cancel := h.broker.Subscribe(req.Symbol, tf, 64)
	defer cancel()

	h.logger.Info("bar stream opened",
		xlogger.String("symbol", req.Symbol),
		xlogger.String("tf", string(tf)),
		xlogger.String("remote", conn.RemoteAddr().String()))

	// Drain the read side so close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return nil
		case <-c.Request().Context().Done():
			return nil
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case bar, ok := <-bars:
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(bar); err != nil {
				h.logger.Debug("bar stream write failed", xlogger.Error(err))
				return nil
			}
		}
	}
}
