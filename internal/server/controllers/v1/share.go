package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apimodels "github.com/supmap/navd/internal/server/apimodels/v1"
)

func POSTShareLocation(c *gin.Context) {
	client, ok := getAPI(c)
	if !ok {
		return
	}
	var req apimodels.ShareLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := client.ShareLocation(c.Request.Context(), *req.Latitude, *req.Longitude); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func POSTShareRoute(c *gin.Context) {
	client, ok := getAPI(c)
	if !ok {
		return
	}
	var req apimodels.ShareRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := client.ShareRoute(c.Request.Context(), req.RoutePoints); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
