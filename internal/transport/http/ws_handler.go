package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// watchStandings streams live pre-publish standings for one assessment to an
// admin over a websocket. Every accepted submission pushes a fresh snapshot.
func (h *Handler) watchStandings(c *gin.Context) {
	assessmentID := c.Param("id")

	updates, cancel, err := h.service.WatchStandings(c.Request.Context(), assessmentID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Reader only notices the peer going away.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case lb, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[any]{Type: "standings", Payload: lb}); err != nil {
				h.log.Warn("ws write error", zap.Error(err))
				return
			}
		case <-readerDone:
			return
		}
	}
}
