package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agamariel/poscore/internal/broadcast"
	"github.com/labstack/echo/v4"
)

// StreamHandler отдаёт снимки заказов клиентам по SSE. Каждый подключённый
// клиент получает собственную подписку; отставший клиент отключается
// рассыльщиком и обязан перечитать состояние при переподключении.
type StreamHandler struct {
	broadcaster *broadcast.Broadcaster
}

// NewStreamHandler создаёт новый handler.
func NewStreamHandler(broadcaster *broadcast.Broadcaster) *StreamHandler {
	return &StreamHandler{broadcaster: broadcaster}
}

// Stream обрабатывает GET /api/stream.
func (h *StreamHandler) Stream(c echo.Context) error {
	clientType := c.QueryParam("client")
	if clientType == "" {
		clientType = "pos"
	}

	sub := h.broadcaster.Subscribe(clientType)
	defer sub.Close()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-sub.Events():
			if !ok {
				// Подписка снята рассыльщиком за переполнение буфера.
				return nil
			}
			data, err := json.Marshal(snap)
			if err != nil {
				c.Logger().Errorf("failed to marshal order snapshot: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(resp, "event: order\ndata: %s\n\n", data); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}
