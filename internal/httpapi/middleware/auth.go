package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/portfolio-chat/internal/auth"
	"github.com/suPer8Hu/portfolio-chat/internal/common"
)

const VisitorIDKey = "visitor_id"

// VisitorAuth requires a visitor token and stores its subject under
// VisitorIDKey. Browsers cannot set headers on a websocket upgrade, so the
// token may also come from the "token" query parameter.
func VisitorAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c)
		if tok == "" {
			tok = c.Query("token")
		}
		if tok == "" {
			common.Fail(c, http.StatusUnauthorized, 40101, "missing token")
			return
		}
		claims, err := auth.ParseJWT(tok, auth.RoleVisitor, secret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40102, "invalid token")
			return
		}
		c.Set(VisitorIDKey, claims.Subject)
		c.Next()
	}
}

func AdminAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c)
		if tok == "" {
			common.Fail(c, http.StatusUnauthorized, 40101, "missing token")
			return
		}
		if _, err := auth.ParseJWT(tok, auth.RoleAdmin, secret); err != nil {
			common.Fail(c, http.StatusUnauthorized, 40102, "invalid token")
			return
		}
		c.Next()
	}
}

func VisitorID(c *gin.Context) (string, bool) {
	id := c.GetString(VisitorIDKey)
	return id, id != ""
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
