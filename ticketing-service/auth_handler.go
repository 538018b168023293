package main

import (
	"net/http"

	"github.com/eventix/ticketing/ticketing-service/config"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	users      *service.UserService
	jwtService *JWTService
	cfg        config.JWT
	logger     *zap.Logger
}

func NewAuthHandler(users *service.UserService, jwtService *JWTService, cfg config.JWT, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:      users,
		jwtService: jwtService,
		cfg:        cfg,
		logger:     logger,
	}
}

// Register handles self-service sign up and signs the new user in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.issueTokens(c, http.StatusCreated, user)
}

// SignIn handles user authentication
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.issueTokens(c, http.StatusOK, user)
}

// Refresh exchanges the current refresh token for a new token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := model.Validate(req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	claims, err := h.jwtService.ValidateToken(req.RefreshToken, tokenTypeRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired refresh token",
		})
		return
	}

	user, err := h.users.VerifyRefreshToken(c.Request.Context(), claims.UserID, req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.issueTokens(c, http.StatusOK, user)
}

// Me returns the signed in user.
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user.ToUserResponse())
}

// Logout revokes the refresh token and clears the auth cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	identity, ok := mustIdentity(c)
	if !ok {
		return
	}

	if err := h.users.SetRefreshToken(c.Request.Context(), identity.UserID, ""); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, "", -1, "/", "", h.cfg.SecureCookie, true)
	c.JSON(http.StatusOK, model.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) issueTokens(c *gin.Context, status int, user *model.User) {
	accessToken, err := h.jwtService.GenerateAccessToken(user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	refreshToken, err := h.jwtService.GenerateRefreshToken(user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.users.SetRefreshToken(c.Request.Context(), user.ID, refreshToken); err != nil {
		respondError(c, h.logger, err)
		return
	}

	maxAge := int(h.cfg.AccessTTL().Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, accessToken, maxAge, "/", "", h.cfg.SecureCookie, true)

	c.JSON(status, model.AuthResponse{
		User:         user.ToUserResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(maxAge),
	})
}
