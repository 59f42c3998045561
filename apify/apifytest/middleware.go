package apifytest

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/apifykit/logger"
)

const headerRequestID = "X-Request-Id"

// requestID echoes or assigns an X-Request-Id.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// recovery turns a handler panic into a 500 with the API error envelope.
func recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.WithContext(c.Request.Context()).Error("Panic recovered", logger.Fields(
					"error", fmt.Sprintf("%v", err),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				))
				respondError(c, http.StatusInternalServerError, "internal-server-error", "Internal server error")
			}
		}()
		c.Next()
	}
}

// record stores a copy of every incoming request before it is handled.
func (s *Server) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:   c.Request.Method,
			Path:     strings.TrimPrefix(c.Request.URL.EscapedPath(), basePath),
			RawQuery: c.Request.URL.RawQuery,
			Header:   c.Request.Header.Clone(),
			Body:     body,
		})
		s.mu.Unlock()
		c.Next()
	}
}

// authenticate rejects requests without the expected bearer token.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.token == "" {
			c.Next()
			return
		}
		if c.GetHeader("Authorization") != "Bearer "+s.token {
			respondError(c, http.StatusUnauthorized, "token-not-valid", "Authentication token is not valid.")
			return
		}
		c.Next()
	}
}

// failures replays a scripted failure for the matching route.
func (s *Server) failures() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Request.Method + " " + strings.TrimPrefix(c.Request.URL.EscapedPath(), basePath)
		s.mu.Lock()
		f, ok := s.failing[key]
		if ok && f.Times > 0 {
			f.Times--
			if f.Times == 0 {
				delete(s.failing, key)
			} else {
				s.failing[key] = f
			}
		}
		s.mu.Unlock()
		if ok {
			respondError(c, f.Status, f.Type, f.Message)
			return
		}
		c.Next()
	}
}
