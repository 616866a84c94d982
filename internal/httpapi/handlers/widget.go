package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/portfolio-chat/internal/auth"
	"github.com/suPer8Hu/portfolio-chat/internal/chat"
	"github.com/suPer8Hu/portfolio-chat/internal/common"
	"github.com/suPer8Hu/portfolio-chat/internal/httpapi/middleware"
)

// CreateSession starts a new visitor and hands back its token.
func (h *Handler) CreateSession(c *gin.Context) {
	sess, err := h.ChatSvc.Start(c.Request.Context())
	if err != nil {
		internalError(c, "failed to create session", err)
		return
	}
	token, err := auth.SignVisitorToken(sess.ID(), h.Cfg.JWTSecret, h.Cfg.VisitorTokenTTL)
	if err != nil {
		internalError(c, "failed to sign token", err)
		return
	}
	common.OK(c, gin.H{
		"visitor_id": sess.ID(),
		"token":      token,
		"snapshot":   render(sess.Snapshot()),
	})
}

// ResumeSession remounts the visitor's session and refreshes the token.
func (h *Handler) ResumeSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	token, err := auth.SignVisitorToken(sess.ID(), h.Cfg.JWTSecret, h.Cfg.VisitorTokenTTL)
	if err != nil {
		internalError(c, "failed to sign token", err)
		return
	}
	common.OK(c, gin.H{
		"visitor_id": sess.ID(),
		"token":      token,
		"snapshot":   render(sess.Snapshot()),
	})
}

func (h *Handler) Snapshot(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	common.OK(c, render(sess.Snapshot()))
}

func (h *Handler) Open(c *gin.Context) {
	h.apply(c, (*chat.Session).Open)
}

func (h *Handler) Minimize(c *gin.Context) {
	h.apply(c, (*chat.Session).Minimize)
}

func (h *Handler) Close(c *gin.Context) {
	h.apply(c, (*chat.Session).Close)
}

func (h *Handler) ClearMessages(c *gin.Context) {
	h.apply(c, (*chat.Session).Clear)
}

type submitReq struct {
	Message string `json:"message"`
}

// SubmitMessage accepts empty and oversized text: the validation reply is
// part of the chat log, not an HTTP error.
func (h *Handler) SubmitMessage(c *gin.Context) {
	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	h.apply(c, func(s *chat.Session) error { return s.Submit(req.Message) })
}

type sectionReq struct {
	Section string `json:"section"`
}

func (h *Handler) SetSection(c *gin.Context) {
	var req sectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	h.apply(c, func(s *chat.Session) error { return s.SetSection(req.Section) })
}

func (h *Handler) apply(c *gin.Context, op func(*chat.Session) error) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := op(sess); err != nil {
		switch {
		case errors.Is(err, chat.ErrReplyPending):
			common.Fail(c, http.StatusConflict, 40901, "assistant is still typing")
		case errors.Is(err, chat.ErrSessionDisposed):
			common.Fail(c, http.StatusConflict, 40902, "session expired, retry")
		default:
			internalError(c, "widget operation failed", err)
		}
		return
	}
	common.OK(c, render(sess.Snapshot()))
}

// session resolves the token's visitor to a live session, remounting it from
// storage after a sweep or restart.
func (h *Handler) session(c *gin.Context) (*chat.Session, bool) {
	id, ok := middleware.VisitorID(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return nil, false
	}
	sess, err := h.ChatSvc.Resume(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "session not found")
			return nil, false
		}
		internalError(c, "failed to load session", err)
		return nil, false
	}
	return sess, true
}
