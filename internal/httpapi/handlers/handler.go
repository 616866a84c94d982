package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/portfolio-chat/internal/chat"
	"github.com/suPer8Hu/portfolio-chat/internal/common"
	"github.com/suPer8Hu/portfolio-chat/internal/config"
	"github.com/suPer8Hu/portfolio-chat/internal/markup"
)

type Handler struct {
	Cfg     config.Config
	ChatSvc *chat.Service
	Hub     *chat.Hub
	Log     *slog.Logger
}

func NewHandler(cfg config.Config, svc *chat.Service, hub *chat.Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Cfg: cfg, ChatSvc: svc, Hub: hub, Log: logger}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true, "sessions": h.ChatSvc.Len()})
}

// render sanitizes message text again on the way out; stored text is
// trusted only as far as the inline policy allows.
func render(s chat.Snapshot) chat.Snapshot {
	msgs := make([]chat.Message, len(s.Messages))
	for i, m := range s.Messages {
		m.Text = markup.Clean(m.Text)
		msgs[i] = m
	}
	s.Messages = msgs
	return s
}

func renderMessages(in []chat.Message) []chat.Message {
	return render(chat.Snapshot{Messages: in}).Messages
}

func internalError(c *gin.Context, msg string, err error) {
	slog.Error(msg, "error", err, "path", c.FullPath())
	common.Fail(c, http.StatusInternalServerError, 50001, msg)
}
