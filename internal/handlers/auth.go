package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice/api/internal/middleware"
	"backoffice/api/internal/service"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

func (h HandlerSet) RegisterAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	session, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setSessionCookies(c, session)
	c.JSON(http.StatusCreated, session.View())
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	session, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setSessionCookies(c, session)
	c.JSON(http.StatusOK, session.View())
}

func (h HandlerSet) Refresh(c *gin.Context) {
	subjectID, refreshToken, ok := middleware.RefreshSubject(c)
	if !ok {
		h.respondError(c, service.ErrInvalidRefresh)
		return
	}

	session, err := h.auth.Refresh(c.Request.Context(), subjectID, refreshToken)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setSessionCookies(c, session)
	c.JSON(http.StatusOK, session.View())
}

func (h HandlerSet) Logout(c *gin.Context) {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		h.respondError(c, service.ErrUnauthorized)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), admin.ID, middleware.AccessClaims(c)); err != nil {
		h.respondError(c, err)
		return
	}

	h.clearSessionCookies(c)
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Me(c *gin.Context) {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		h.respondError(c, service.ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, h.auth.ToPublicView(admin))
}

func (h HandlerSet) setSessionCookies(c *gin.Context, session service.Session) {
	security := h.cfg.Security
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AccessCookie, session.AccessToken,
		int(security.JWTAccessTTL.Seconds()), "/", "", security.CookieSecure, true)
	c.SetCookie(middleware.RefreshCookie, session.RefreshToken,
		int(security.JWTRefreshTTL.Seconds()), security.RefreshCookiePath, "", security.CookieSecure, true)
}

// clearSessionCookies expires both cookies on the paths they were set with.
func (h HandlerSet) clearSessionCookies(c *gin.Context) {
	security := h.cfg.Security
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AccessCookie, "", -1, "/", "", security.CookieSecure, true)
	c.SetCookie(middleware.RefreshCookie, "", -1, security.RefreshCookiePath, "", security.CookieSecure, true)
}
