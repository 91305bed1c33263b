package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/supmap/navd/internal/maps"
	"github.com/supmap/navd/internal/nav"
	apimodels "github.com/supmap/navd/internal/server/apimodels/v1"
)

func travelModeFromRequest(mode string) maps.TravelMode {
	switch strings.ToUpper(mode) {
	case string(maps.TravelModeWalking):
		return maps.TravelModeWalking
	case string(maps.TravelModeBicycling):
		return maps.TravelModeBicycling
	case string(maps.TravelModeTransit):
		return maps.TravelModeTransit
	default:
		return maps.TravelModeDriving
	}
}

func POSTRouteCalculate(c *gin.Context) {
	engine, ok := getEngine(c)
	if !ok {
		return
	}
	var req apimodels.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := engine.Calculate(c.Request.Context(), nav.CalculateRequest{
		Mode:          travelModeFromRequest(req.Mode),
		AvoidTolls:    req.AvoidTolls,
		AvoidHighways: req.AvoidHighways,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, engine.Route())
}

func GETRoute(c *gin.Context) {
	engine, ok := getEngine(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, engine.Route())
}

func PUTRouteAlternative(c *gin.Context) {
	engine, ok := getEngine(c)
	if !ok {
		return
	}
	var req apimodels.AlternativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := engine.SelectAlternative(c.Request.Context(), *req.Index); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, engine.Route())
}

func DELETERoute(c *gin.Context) {
	engine, ok := getEngine(c)
	if !ok {
		return
	}
	engine.Cancel()
	c.JSON(http.StatusOK, engine.Route())
}
