package v1

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/supmap/navd/internal/api"
	"github.com/supmap/navd/internal/favorites"
	apimodels "github.com/supmap/navd/internal/server/apimodels/v1"
)

func getFavorites(c *gin.Context) (*favorites.Manager, bool) {
	manager, ok := c.MustGet("favorites").(*favorites.Manager)
	if !ok {
		slog.Error("Failed to get favorites manager from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return nil, false
	}
	return manager, true
}

func saveRequestFromAPI(req apimodels.FavoriteRequest) favorites.SaveRequest {
	return favorites.SaveRequest{
		Name:         req.Name,
		Address:      req.Address,
		LocationType: api.LocationType(req.LocationType),
	}
}

func GETFavorites(c *gin.Context) {
	manager, ok := getFavorites(c)
	if !ok {
		return
	}
	list, err := manager.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func POSTFavorite(c *gin.Context) {
	manager, ok := getFavorites(c)
	if !ok {
		return
	}
	var req apimodels.FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := manager.Add(c.Request.Context(), saveRequestFromAPI(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func PUTFavorite(c *gin.Context) {
	manager, ok := getFavorites(c)
	if !ok {
		return
	}
	id, ok := c.Params.Get("id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	var req apimodels.FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := manager.Update(c.Request.Context(), id, saveRequestFromAPI(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func DELETEFavorite(c *gin.Context) {
	manager, ok := getFavorites(c)
	if !ok {
		return
	}
	id, ok := c.Params.Get("id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	if err := manager.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, manager.Cached())
}
