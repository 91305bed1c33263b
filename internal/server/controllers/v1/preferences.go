package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/supmap/navd/internal/api"
)

func PUTPreferences(c *gin.Context) {
	client, ok := getAPI(c)
	if !ok {
		return
	}
	var prefs api.NavigationPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := client.UpdateNavigationPreferences(c.Request.Context(), prefs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}
