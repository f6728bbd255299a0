// Package middleware provides HTTP middleware for the Gin router.
//
// Go Learning Note — Middleware Pattern (Gin):
// In Gin, middleware is any function with the signature `gin.HandlerFunc`, which
// is `func(*gin.Context)`. Middleware functions form a chain: each one runs,
// optionally calls c.Next() to pass control to the next handler, and can call
// c.Abort() to stop the chain.
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tripreco/internal/domain/entities"
	"tripreco/internal/logging"
	"tripreco/internal/metrics"
	"tripreco/internal/repository"
	"tripreco/pkg/utils"
)

// SessionKey is the gin context key of the request's *entities.Session.
const SessionKey = "session"

// Session attaches a recommendation session to every request. The id is
// read from header; a request without one gets a fresh id. Either way the id
// is echoed back in the response header so the client can reuse it.
//
// Go Learning Note — c.Abort():
// c.Abort() prevents subsequent handlers in the chain from running. Without it,
// even after writing an error response, the next handler would still execute.
func Session(header string, sessions repository.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" {
			id = utils.GenerateID()
		} else if !utils.IsValidID(id) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
			c.Abort()
			return
		}

		session, err := sessions.GetOrCreate(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(SessionKey, session)
		c.Request = c.Request.WithContext(logging.ContextWithSessionID(c.Request.Context(), id))
		c.Header(header, id)
		c.Next()
	}
}

// GetSession retrieves the session stored by Session. It panics when the
// middleware did not run, which is a routing bug.
func GetSession(c *gin.Context) *entities.Session {
	session, _ := c.Get(SessionKey)
	return session.(*entities.Session)
}

// Observe logs every request and records its latency under the matched
// route pattern rather than the raw path.
func Observe() gin.HandlerFunc {
	log := logging.Component("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		duration := time.Since(start)
		status := c.Writer.Status()
		metrics.RecordAPIRequest(c.Request.Method, route, status, duration)

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", duration).
			Str("session_id", logging.SessionIDFromContext(c.Request.Context())).
			Msg("request")
	}
}
