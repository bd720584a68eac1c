package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/config"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/infra/security"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/transport/http/middleware"
	"github.com/horuscamacho/noticias-pachuca-sub004/internal/usecase"
)

var (
	registerErrors = newErrorMap(http.StatusInternalServerError, "failed to register user").
			on(usecase.ErrUserExists, http.StatusConflict, "username or email already registered").
			on(usecase.ErrPasswordPolicyViolation, http.StatusBadRequest, "password does not meet requirements")

	loginErrors = newErrorMap(http.StatusInternalServerError, "login failed").
			on(usecase.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials").
			on(usecase.ErrInactiveAccount, http.StatusForbidden, "account is not active")

	refreshErrors = newErrorMap(http.StatusInternalServerError, "token refresh failed").
			on(usecase.ErrRefreshTokenReplay, http.StatusUnauthorized, "refresh token reuse detected").
			on(usecase.ErrExpiredRefreshToken, http.StatusUnauthorized, "refresh token expired").
			on(usecase.ErrTokenFamilyMismatch, http.StatusUnauthorized, "invalid refresh token").
			on(usecase.ErrInvalidRefreshToken, http.StatusUnauthorized, "invalid refresh token").
			on(usecase.ErrInactiveAccount, http.StatusForbidden, "account is not active")

	verifyEmailErrors = newErrorMap(http.StatusInternalServerError, "email verification failed").
				on(usecase.ErrResetTokenUsed, http.StatusConflict, "verification token already used").
				on(usecase.ErrExpiredResetToken, http.StatusBadRequest, "verification token expired").
				on(usecase.ErrInvalidResetToken, http.StatusBadRequest, "invalid verification token").
				on(usecase.ErrUserNotFound, http.StatusNotFound, "user not found")
)

// AuthHandler exposes authentication and token lifecycle endpoints.
type AuthHandler struct {
	cfg          *config.AppConfig
	auth         *usecase.AuthService
	registration *usecase.RegistrationService
	tokens       *usecase.TokenService
	isDev        bool
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(cfg *config.AppConfig, auth *usecase.AuthService, registration *usecase.RegistrationService, tokens *usecase.TokenService) *AuthHandler {
	return &AuthHandler{
		cfg:          cfg,
		auth:         auth,
		registration: registration,
		tokens:       tokens,
		isDev:        cfg.App.Env == "development",
	}
}

// RegisterRoutes binds authentication routes onto the group.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.POST("/refresh", h.refresh)
	r.POST("/verify-email", h.verifyEmail)
	r.POST("/logout", middleware.RequireAuth(h.tokens), h.logout)
	r.POST("/logout-all", middleware.RequireAuth(h.tokens), h.logoutAll)
}

func (h *AuthHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	result, err := h.registration.Register(c.Request.Context(), usecase.RegisterInput{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		Device:   middleware.GetDevice(c),
	})
	if err != nil {
		registerErrors.respond(c, err)
		return
	}

	resp := RegisterResponse{
		User:                 newUserSummary(result.User),
		AccessToken:          result.AccessToken,
		RefreshToken:         result.RefreshToken,
		TokenType:            "Bearer",
		ExpiresIn:            int(h.cfg.JWT.AccessTokenTTL.Seconds()),
		RequiresVerification: true,
		Message:              "verification required",
	}
	if h.isDev {
		resp.DevToken = result.VerificationToken
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Identifier: strings.TrimSpace(req.Identifier),
		Password:   req.Password,
		Device:     middleware.GetDevice(c),
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	if err != nil {
		loginErrors.respond(c, err)
		return
	}

	resp := LoginResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(h.cfg.JWT.AccessTokenTTL.Seconds()),
		User:         newUserSummary(result.User),
	}

	if result.Session != nil {
		summary := newSessionSummary(result.Session)
		resp.Session = &summary
		h.setSessionCookie(c, result.Session.ID, int(h.cfg.Session.TTL.Seconds()))
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid refresh payload"))
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		refreshErrors.respond(c, err)
		return
	}

	c.JSON(http.StatusOK, RefreshResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(h.cfg.JWT.AccessTokenTTL.Seconds()),
	})
}

func (h *AuthHandler) verifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid verification payload"))
		return
	}

	if err := h.registration.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		verifyEmailErrors.respond(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "email verified"})
}

func (h *AuthHandler) logout(c *gin.Context) {
	claims := getAccessTokenClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	sessionID, _ := c.Cookie(h.cfg.Session.CookieName)

	revoked, err := h.auth.Logout(c.Request.Context(), usecase.LogoutInput{
		AccessClaims: claims,
		SessionID:    sessionID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed"))
		return
	}

	if sessionID != "" {
		h.setSessionCookie(c, "", -1)
	}

	c.JSON(http.StatusOK, RevocationResponse{
		Message:       "logged out",
		TokensRevoked: revoked,
	})
}

func (h *AuthHandler) logoutAll(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	revoked, err := h.auth.LogoutAll(c.Request.Context(), userID, "user_logout_all")
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed"))
		return
	}

	h.setSessionCookie(c, "", -1)

	c.JSON(http.StatusOK, RevocationResponse{
		Message:       "logged out everywhere",
		TokensRevoked: revoked,
	})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetCookie(h.cfg.Session.CookieName, value, maxAge, "/", "", !h.isDev, true)
}

func getAccessTokenClaims(c *gin.Context) *security.AccessTokenClaims {
	v, exists := c.Get(middleware.ClaimsKey)
	if !exists {
		return nil
	}
	claims, _ := v.(*security.AccessTokenClaims)
	return claims
}
