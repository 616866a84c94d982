package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/portfolio-chat/internal/chat"
)

const eventWriteTimeout = 5 * time.Second

// Events streams the visitor's chat events over a websocket. The first frame
// is a state.changed event carrying the current snapshot.
func (h *Handler) Events(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	log := h.Log.With("visitor_id", sess.ID())

	ws, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Warn("websocket accept failed", "error", err)
		return
	}
	defer func() {
		if err := ws.Close(websocket.StatusNormalClosure, "stream ended"); err != nil {
			log.Debug("websocket close", "error", err)
		}
	}()

	events, cancel := h.Hub.Subscribe(sess.ID())
	defer cancel()

	// the client never sends; CloseRead handles control frames and cancels
	// ctx when the peer goes away
	ctx := ws.CloseRead(c.Request.Context())

	first := chat.Event{
		Kind:      chat.EventStateChanged,
		VisitorID: sess.ID(),
		Snapshot:  sess.Snapshot(),
		At:        time.Now().UTC(),
	}
	if err := writeEvent(ctx, ws, first); err != nil {
		log.Debug("websocket write failed", "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(ctx, ws, ev); err != nil {
				if websocket.CloseStatus(err) == -1 {
					log.Debug("websocket write failed", "error", err)
				}
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, ws *websocket.Conn, ev chat.Event) error {
	ev.Snapshot = render(ev.Snapshot)
	if ev.Message != nil {
		m := renderMessages([]chat.Message{*ev.Message})[0]
		ev.Message = &m
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
	defer cancel()
	return ws.Write(wctx, websocket.MessageText, b)
}
