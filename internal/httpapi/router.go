package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/portfolio-chat/internal/common"
	"github.com/suPer8Hu/portfolio-chat/internal/config"
	"github.com/suPer8Hu/portfolio-chat/internal/httpapi/handlers"
	"github.com/suPer8Hu/portfolio-chat/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	r.GET("/ping", h.Ping)

	// widget
	r.POST("/widget/sessions", h.CreateSession)
	widget := r.Group("/widget")
	widget.Use(middleware.VisitorAuth(cfg.JWTSecret))
	widget.POST("/sessions/resume", h.ResumeSession)
	widget.GET("/snapshot", h.Snapshot)
	widget.POST("/open", h.Open)
	widget.POST("/minimize", h.Minimize)
	widget.POST("/close", h.Close)
	widget.PUT("/section", h.SetSection)
	widget.DELETE("/messages", h.ClearMessages)
	widget.GET("/events", h.Events)

	limiter := middleware.NewRateLimiter(cfg.SubmitRate, cfg.SubmitBurst)
	widget.POST("/messages", limiter.Middleware(), h.SubmitMessage)

	// admin
	r.POST("/admin/login", h.AdminLogin)
	admin := r.Group("/admin")
	admin.Use(middleware.AdminAuth(cfg.JWTSecret))
	admin.GET("/visitors", h.ListVisitors)
	admin.GET("/transcripts/:visitor_id", h.GetTranscript)
	return r
}
