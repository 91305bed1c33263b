package v1

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/supmap/navd/internal/api"
	apimodels "github.com/supmap/navd/internal/server/apimodels/v1"
)

func getAPI(c *gin.Context) (*api.Client, bool) {
	client, ok := c.MustGet("api").(*api.Client)
	if !ok {
		slog.Error("Failed to get api client from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return nil, false
	}
	return client, true
}

func POSTAlert(c *gin.Context) {
	client, ok := getAPI(c)
	if !ok {
		return
	}
	var req apimodels.AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	alert, err := client.SubmitAlert(c.Request.Context(), api.AlertType(req.AlertType), *req.Latitude, *req.Longitude)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

func PUTAlertValidate(c *gin.Context) {
	client, ok := getAPI(c)
	if !ok {
		return
	}
	id, ok := c.Params.Get("id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	if err := client.ValidateAlert(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func PUTAlertInvalidate(c *gin.Context) {
	client, ok := getAPI(c)
	if !ok {
		return
	}
	id, ok := c.Params.Get("id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	if err := client.InvalidateAlert(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
