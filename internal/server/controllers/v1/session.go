package v1

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	apimodels "github.com/supmap/navd/internal/server/apimodels/v1"
	"github.com/supmap/navd/internal/session"
)

func getSessions(c *gin.Context) (*session.Store, bool) {
	sessions, ok := c.MustGet("sessions").(*session.Store)
	if !ok {
		slog.Error("Failed to get session store from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return nil, false
	}
	return sessions, true
}

func GETSession(c *gin.Context) {
	sessions, ok := getSessions(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": sessions.Authenticated(),
		"cookieConsent": sessions.CookieConsent(),
	})
}

func PUTSessionConsent(c *gin.Context) {
	sessions, ok := getSessions(c)
	if !ok {
		return
	}
	var req apimodels.ConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sessions.SetCookieConsent(*req.CookieConsent); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cookieConsent": sessions.CookieConsent()})
}

func POSTSessionToken(c *gin.Context) {
	sessions, ok := getSessions(c)
	if !ok {
		return
	}
	var req apimodels.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sessions.SaveToken(req.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": sessions.Authenticated()})
}

func DELETESessionToken(c *gin.Context) {
	sessions, ok := getSessions(c)
	if !ok {
		return
	}
	if err := sessions.ClearToken(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": sessions.Authenticated()})
}
