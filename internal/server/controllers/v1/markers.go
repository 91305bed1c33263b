package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GETAlertMarkers(c *gin.Context) {
	engine, ok := getEngine(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, engine.AlertsSnapshot())
}

func GETRouteAlertMarkers(c *gin.Context) {
	engine, ok := getEngine(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, engine.RouteAlertsSnapshot())
}

func GETUserMarkers(c *gin.Context) {
	engine, ok := getEngine(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, engine.UsersSnapshot())
}
