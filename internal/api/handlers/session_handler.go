package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripreco/internal/api/middleware"
	"tripreco/internal/repository"
)

type SessionHandler struct {
	sessions repository.SessionRepository
}

func NewSessionHandler(sessions repository.SessionRepository) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Get handles GET /session
func (h *SessionHandler) Get(c *gin.Context) {
	session := middleware.GetSession(c)
	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"created_at": session.CreatedAt,
		"visited":    session.Visited(),
	})
}

// Reset handles DELETE /session. The next request with the same id starts
// with an empty visited set.
func (h *SessionHandler) Reset(c *gin.Context) {
	session := middleware.GetSession(c)
	session.Reset()
	if err := h.sessions.Delete(c.Request.Context(), session.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
