package v1

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/supmap/navd/internal/maps"
	"github.com/supmap/navd/internal/nav"
	apimodels "github.com/supmap/navd/internal/server/apimodels/v1"
)

func getEngine(c *gin.Context) (*nav.Engine, bool) {
	engine, ok := c.MustGet("engine").(*nav.Engine)
	if !ok {
		slog.Error("Failed to get engine from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return nil, false
	}
	return engine, true
}

func waypointFromRequest(req apimodels.WaypointRequest) nav.Waypoint {
	wp := nav.Waypoint{
		Address:        req.Address,
		IsUserLocation: req.IsUserLocation,
		Placeholder:    req.Placeholder,
	}
	if req.Lat != nil && req.Lng != nil {
		wp.Coords = &maps.LatLng{Lat: *req.Lat, Lng: *req.Lng}
	}
	return wp
}

func GETWaypoints(c *gin.Context) {
	engine, ok := getEngine(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, engine.Waypoints())
}

func POSTWaypoint(c *gin.Context) {
	engine, ok := getEngine(c)
	if !ok {
		return
	}
	var req apimodels.WaypointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wp, err := engine.AddWaypoint(waypointFromRequest(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wp)
}

func PUTWaypoint(c *gin.Context) {
	engine, ok := getEngine(c)
	if !ok {
		return
	}
	id, ok := c.Params.Get("id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	var req apimodels.WaypointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := engine.UpdateWaypoint(id, waypointFromRequest(req)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, engine.Waypoints())
}

func DELETEWaypoint(c *gin.Context) {
	engine, ok := getEngine(c)
	if !ok {
		return
	}
	id, ok := c.Params.Get("id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	if err := engine.RemoveWaypoint(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, engine.Waypoints())
}

func PUTWaypointsReorder(c *gin.Context) {
	engine, ok := getEngine(c)
	if !ok {
		return
	}
	var req apimodels.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := engine.ReorderWaypoints(req.IDs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, engine.Waypoints())
}
