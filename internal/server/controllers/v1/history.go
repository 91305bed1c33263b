package v1

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/supmap/navd/internal/history"
)

func getHistory(c *gin.Context) (*history.Selector, bool) {
	selector, ok := c.MustGet("history").(*history.Selector)
	if !ok {
		slog.Error("Failed to get history selector from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return nil, false
	}
	return selector, true
}

func GETHistory(c *gin.Context) {
	selector, ok := getHistory(c)
	if !ok {
		return
	}
	items, err := selector.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func POSTHistorySync(c *gin.Context) {
	selector, ok := getHistory(c)
	if !ok {
		return
	}
	synced, err := selector.SyncToRemote(c.Request.Context())
	if err != nil {
		// Partial progress still counts; report both
		c.JSON(http.StatusMultiStatus, gin.H{"synced": synced, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"synced": synced})
}
