package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/transport/http/middleware"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/usecase"
)

var (
	resetConfirmErrors = newErrorMap(http.StatusInternalServerError, "password reset failed").
				on(usecase.ErrResetTokenUsed, http.StatusConflict, "reset token already used").
				on(usecase.ErrExpiredResetToken, http.StatusBadRequest, "reset token expired").
				on(usecase.ErrInvalidResetToken, http.StatusBadRequest, "invalid reset token").
				on(usecase.ErrPasswordPolicyViolation, http.StatusBadRequest, "password does not meet requirements").
				on(usecase.ErrUserNotFound, http.StatusNotFound, "user not found")

	passwordChangeErrors = newErrorMap(http.StatusInternalServerError, "password change failed").
				on(usecase.ErrCurrentPasswordInvalid, http.StatusUnauthorized, "current password is incorrect").
				on(usecase.ErrPasswordPolicyViolation, http.StatusBadRequest, "password does not meet requirements").
				on(usecase.ErrUserNotFound, http.StatusNotFound, "user not found")
)

// PasswordHandler exposes password change and reset endpoints.
type PasswordHandler struct {
	passwords *usecase.PasswordService
	tokens    *usecase.TokenService
	isDev     bool
}

// NewPasswordHandler constructs a PasswordHandler.
func NewPasswordHandler(passwords *usecase.PasswordService, tokens *usecase.TokenService, isDev bool) *PasswordHandler {
	return &PasswordHandler{
		passwords: passwords,
		tokens:    tokens,
		isDev:     isDev,
	}
}

// RegisterRoutes binds password routes onto the group.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/reset/request", h.requestReset)
	r.POST("/reset/confirm", h.confirmReset)
	r.POST("/change", middleware.RequireAuth(h.tokens), h.change)
}

func (h *PasswordHandler) requestReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset request payload"))
		return
	}

	// The response does not reveal whether the identifier matched an
	// account: unknown identifiers get the same acknowledgement.
	accepted := PasswordResetResponse{
		Message: "if the account exists, reset instructions have been sent",
	}

	result, err := h.passwords.RequestReset(c.Request.Context(), strings.TrimSpace(req.Identifier))
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusAccepted, accepted)
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to process reset request"))
		return
	}

	accepted.Destination = result.MaskedDestination
	if h.isDev {
		accepted.DevToken = result.Token
	}

	c.JSON(http.StatusAccepted, accepted)
}

func (h *PasswordHandler) confirmReset(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset confirmation payload"))
		return
	}

	if err := h.passwords.ConfirmReset(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		resetConfirmErrors.respond(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}

func (h *PasswordHandler) change(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid password change payload"))
		return
	}

	if err := h.passwords.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		passwordChangeErrors.respond(c, err)
		return
	}

	// All tokens are dead now, the caller has to log in again.
	c.JSON(http.StatusOK, MessageResponse{Message: "password changed, please log in again"})
}
