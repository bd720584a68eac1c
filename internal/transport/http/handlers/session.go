package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/core/port"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/transport/http/middleware"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/usecase"
)

var sessionErrors = newErrorMap(http.StatusInternalServerError, "session validation failed").
	on(usecase.ErrSessionNotFound, http.StatusNotFound, "session not found").
	on(usecase.ErrSessionExpired, http.StatusUnauthorized, "session expired")

// SessionHandler exposes the caller's session registry.
type SessionHandler struct {
	auth       *usecase.AuthService
	tokens     *usecase.TokenService
	sessions   port.SessionStore
	cookieName string
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(auth *usecase.AuthService, tokens *usecase.TokenService, sessions port.SessionStore, cookieName string) *SessionHandler {
	return &SessionHandler{
		auth:       auth,
		tokens:     tokens,
		sessions:   sessions,
		cookieName: cookieName,
	}
}

// RegisterRoutes binds session routes onto the group. All routes require a
// valid access token.
func (h *SessionHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.Use(middleware.RequireAuth(h.tokens))
	r.GET("", h.list)
	r.GET("/current", h.current)
	r.DELETE("/:id", h.revoke)
}

func (h *SessionHandler) list(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	ids, err := h.sessions.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list sessions"))
		return
	}

	summaries := make([]SessionSummary, 0, len(ids))
	for _, id := range ids {
		session, err := h.sessions.Get(c.Request.Context(), id)
		if err != nil {
			// Expired entries can linger in the list until the next save.
			continue
		}
		summaries = append(summaries, newSessionSummary(session))
	}

	c.JSON(http.StatusOK, SessionListResponse{
		Sessions: summaries,
		Total:    len(summaries),
	})
}

func (h *SessionHandler) current(c *gin.Context) {
	sessionID, err := c.Cookie(h.cookieName)
	if err != nil || sessionID == "" {
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "no session cookie"))
		return
	}

	session, err := h.auth.ValidateSession(c.Request.Context(), sessionID, c.ClientIP())
	if err != nil {
		sessionErrors.respond(c, err)
		return
	}

	c.JSON(http.StatusOK, newSessionSummary(session))
}

func (h *SessionHandler) revoke(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	sessionID := c.Param("id")

	session, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "session not found"))
		return
	}
	if session.UserID != userID {
		// Do not leak whether the session exists for another user.
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "session not found"))
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), userID, sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to revoke session"))
		return
	}

	c.Status(http.StatusNoContent)
}
