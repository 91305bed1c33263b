package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/supmap/navd/internal/api"
	"github.com/supmap/navd/internal/maps"
	"github.com/supmap/navd/internal/nav"
)

// respondError maps domain errors onto facade status codes. Backend
// rejections pass their status through unchanged.
func respondError(c *gin.Context, err error) {
	var httpErr *api.HTTPError
	switch {
	case errors.Is(err, api.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.As(err, &httpErr):
		c.JSON(httpErr.Status, gin.H{"error": err.Error()})
	case errors.Is(err, nav.ErrTooManyWaypoints):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, nav.ErrWaypointNotFound),
		errors.Is(err, nav.ErrNoActiveRoute):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, nav.ErrCalculationRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, nav.ErrEndpointImmovable),
		errors.Is(err, nav.ErrNotEnoughWaypoints),
		errors.Is(err, nav.ErrNoPositionFix),
		errors.Is(err, nav.ErrNoSuchAlternative),
		errors.Is(err, maps.ErrNoRoutes),
		errors.Is(err, maps.ErrAddressUnresolved):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
