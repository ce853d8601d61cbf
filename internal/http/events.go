package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/civicspot/internal/constants"
)

const eventsWriteTimeout = 10 * time.Second

// sessionEvents streams a session snapshot over a websocket after every
// session change, starting with the current one.
func (s *Server) sessionEvents(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the client
		s.logger.DebugContext(c.Request.Context(), "session events upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := s.session.Subscribe()
	defer cancel()

	// The client never sends; reading only notices when it goes away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(constants.SessionEventsPingInterval)
	defer ping.Stop()

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteTimeout))
			if err := conn.WriteJSON(newSessionResponse(st)); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(eventsWriteTimeout)); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
