package handlers

import (
	"errors"
	"net/http"

	"blueridge/services/oauth"
	"blueridge/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OAuthStart serves GET /api/oauth/google and redirects to the consent screen.
func (hb *HandlerBundle) OAuthStart(c *gin.Context) {
	if hb.OAuth == nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "Google OAuth is not configured", "")
		return
	}
	url, err := hb.OAuth.AuthURL(c.Query("owner_id"))
	if errors.Is(err, oauth.ErrNotConfigured) {
		utils.JSONError(c, http.StatusServiceUnavailable, "Google OAuth is not configured", err.Error())
		return
	}
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "oauth start failed", err.Error())
		return
	}
	c.Redirect(http.StatusFound, url)
}

// OAuthCallback serves GET /api/oauth/google/callback.
func (hb *HandlerBundle) OAuthCallback(c *gin.Context) {
	logger := getLogger(c)
	if hb.OAuth == nil {
		c.Redirect(http.StatusFound, hb.AppBaseURL+"/?oauth=error")
		return
	}
	if denied := c.Query("error"); denied != "" {
		logger.Warn("OAuth consent denied", zap.String("error", denied))
		c.Redirect(http.StatusFound, hb.AppBaseURL+"/?oauth=error")
		return
	}
	owner, err := hb.OAuth.Exchange(c.Request.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		logger.Error("OAuth exchange failed", zap.Error(err))
		c.Redirect(http.StatusFound, hb.AppBaseURL+"/?oauth=error")
		return
	}
	logger.Info("Google calendar connected", zap.String("owner", owner))
	c.Redirect(http.StatusFound, hb.AppBaseURL+"/?oauth=success")
}
