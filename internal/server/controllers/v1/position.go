package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/supmap/navd/internal/nav"
	apimodels "github.com/supmap/navd/internal/server/apimodels/v1"
)

// POSTPosition takes a fix pushed by the UI. It lands in the mailbox
// for the poll schedule and is applied immediately; the jitter gate
// decides whether anything downstream actually fires.
func POSTPosition(c *gin.Context) {
	engine, ok := getEngine(c)
	if !ok {
		return
	}
	mailbox, ok := c.MustGet("mailbox").(*nav.Mailbox)
	if !ok {
		slog.Error("Failed to get mailbox from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}
	tracker, ok := c.MustGet("tracker").(*nav.Tracker)
	if !ok {
		slog.Error("Failed to get tracker from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}

	var req apimodels.PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fix := nav.Fix{Latitude: *req.Latitude, Longitude: *req.Longitude, At: time.Now()}
	mailbox.Publish(fix)
	tracker.Reset()
	accepted := engine.HandleFix(c.Request.Context(), fix)
	c.JSON(http.StatusOK, gin.H{"accepted": accepted})
}
