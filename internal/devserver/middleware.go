package devserver

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/nutrinow/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxRequestID = "request_id"
	ctxUserID    = "user_id"
)

const msgUnauthenticated = "Usuário não autenticado"

// requestID propagates the caller's X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(common.RequestIDHeaderName, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(ctxRequestID),
		)
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		s.log.Error(c.Request.Context(), "handler panic", "error", err, "path", c.Request.URL.Path)
		fail(c, http.StatusInternalServerError, "Erro interno")
	})
}

// authRequired resolves the session cookie to a live user id.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, err := c.Cookie(common.SessionCookieName)
		if err != nil || tok == "" {
			fail(c, http.StatusUnauthorized, msgUnauthenticated)
			return
		}
		id, err := UserIDFromToken(tok, []byte(s.cfg.Secret))
		if err != nil {
			s.log.Debug(c.Request.Context(), "rejected session token", "error", err)
			fail(c, http.StatusUnauthorized, msgUnauthenticated)
			return
		}
		if _, err := s.state.user(id); err != nil {
			fail(c, http.StatusUnauthorized, msgUnauthenticated)
			return
		}
		c.Set(ctxUserID, id)
		c.Next()
	}
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
