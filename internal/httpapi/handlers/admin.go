package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/portfolio-chat/internal/auth"
	"github.com/suPer8Hu/portfolio-chat/internal/chat"
	"github.com/suPer8Hu/portfolio-chat/internal/common"
)

const adminTokenTTL = 12 * time.Hour

type adminLoginReq struct {
	Password string `json:"password"`
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var req adminLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Password == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "password required")
		return
	}
	if h.Cfg.AdminPasswordHash == "" {
		common.Fail(c, http.StatusForbidden, 40301, "admin login disabled")
		return
	}
	if !auth.CheckPassword(h.Cfg.AdminPasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 40103, "invalid password")
		return
	}

	token, err := auth.SignAdminToken(h.Cfg.JWTSecret, adminTokenTTL)
	if err != nil {
		internalError(c, "failed to sign token", err)
		return
	}
	common.OK(c, gin.H{"token": token})
}

func (h *Handler) ListVisitors(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	ids, err := h.ChatSvc.Visitors(c.Request.Context(), limit)
	if err != nil {
		if errors.Is(err, chat.ErrListUnsupported) {
			common.Fail(c, http.StatusNotImplemented, 50101, "storage backend cannot list visitors")
			return
		}
		internalError(c, "failed to list visitors", err)
		return
	}
	common.OK(c, gin.H{"visitors": ids})
}

func (h *Handler) GetTranscript(c *gin.Context) {
	id := c.Param("visitor_id")
	if !common.IsULID(id) {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid visitor id")
		return
	}
	msgs, err := h.ChatSvc.Transcript(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "transcript not found")
			return
		}
		internalError(c, "failed to read transcript", err)
		return
	}
	common.OK(c, gin.H{
		"visitor_id": id,
		"messages":   renderMessages(msgs),
	})
}
