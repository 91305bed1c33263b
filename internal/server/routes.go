package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	controllersV1 "github.com/supmap/navd/internal/server/controllers/v1"
	websocketControllers "github.com/supmap/navd/internal/server/websocket"
	"github.com/supmap/navd/internal/websocket"
)

func applyRoutes(r *gin.Engine, deps Deps, eventsWebsocket *websocketControllers.EventsWebsocket) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	apiV1 := r.Group("/v1")
	v1(apiV1, deps)

	ws := r.Group("/ws")
	ws.GET("", websocket.CreateHandler(eventsWebsocket, deps.Config))

	r.NoRoute(func(c *gin.Context) {
		slog.Warn("Not Found", "path", c.Request.URL.Path)
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})
}

func v1(group *gin.RouterGroup, deps Deps) {
	group.GET("/waypoints", controllersV1.GETWaypoints)
	group.POST("/waypoints", controllersV1.POSTWaypoint)
	group.PUT("/waypoints/reorder", controllersV1.PUTWaypointsReorder)
	group.PUT("/waypoints/:id", controllersV1.PUTWaypoint)
	group.DELETE("/waypoints/:id", controllersV1.DELETEWaypoint)

	group.POST("/route/calculate", controllersV1.POSTRouteCalculate)
	group.GET("/route", controllersV1.GETRoute)
	group.PUT("/route/alternative", controllersV1.PUTRouteAlternative)
	group.DELETE("/route", controllersV1.DELETERoute)

	group.GET("/markers/alerts", controllersV1.GETAlertMarkers)
	group.GET("/markers/route-alerts", controllersV1.GETRouteAlertMarkers)
	group.GET("/markers/users", controllersV1.GETUserMarkers)

	group.GET("/favorites", requireSession(deps.Sessions), controllersV1.GETFavorites)
	group.POST("/favorites", requireSession(deps.Sessions), controllersV1.POSTFavorite)
	group.PUT("/favorites/:id", requireSession(deps.Sessions), controllersV1.PUTFavorite)
	group.DELETE("/favorites/:id", requireSession(deps.Sessions), controllersV1.DELETEFavorite)

	group.GET("/history", controllersV1.GETHistory)
	group.POST("/history/sync", requireSession(deps.Sessions), controllersV1.POSTHistorySync)

	group.POST("/alerts", requireSession(deps.Sessions), controllersV1.POSTAlert)
	group.PUT("/alerts/validate/:id", requireSession(deps.Sessions), controllersV1.PUTAlertValidate)
	group.PUT("/alerts/invalidate/:id", requireSession(deps.Sessions), controllersV1.PUTAlertInvalidate)

	group.POST("/share/location", requireSession(deps.Sessions), controllersV1.POSTShareLocation)
	group.POST("/share/route", requireSession(deps.Sessions), controllersV1.POSTShareRoute)

	group.PUT("/preferences", requireSession(deps.Sessions), controllersV1.PUTPreferences)

	group.POST("/position", controllersV1.POSTPosition)

	group.GET("/session", controllersV1.GETSession)
	group.PUT("/session/consent", controllersV1.PUTSessionConsent)
	group.POST("/session/token", controllersV1.POSTSessionToken)
	group.DELETE("/session/token", controllersV1.DELETESessionToken)
}
