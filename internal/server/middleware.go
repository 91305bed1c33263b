package server

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
	"github.com/supmap/navd/internal/api"
	"github.com/supmap/navd/internal/config"
	"github.com/supmap/navd/internal/favorites"
	"github.com/supmap/navd/internal/history"
	"github.com/supmap/navd/internal/nav"
	"github.com/supmap/navd/internal/session"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func applyMiddleware(r *gin.Engine, deps Deps, otelComponent string) {
	r.Use(gin.Recovery())

	r.TrustedPlatform = "X-Real-IP"

	// CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "authorization")
	corsConfig.AllowCredentials = true
	corsConfig.AllowWildcard = true
	if len(deps.Config.HTTP.CORSHosts) == 0 {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowOrigins = deps.Config.HTTP.CORSHosts
	r.Use(cors.New(corsConfig))

	err := r.SetTrustedProxies(deps.Config.HTTP.TrustedProxies)
	if err != nil {
		slog.Error("Failed to set trusted proxies", "error", err.Error())
	}

	r.Use(engineMiddleware(deps.Engine))
	r.Use(favoritesMiddleware(deps.Favorites))
	r.Use(historyMiddleware(deps.History))
	r.Use(apiMiddleware(deps.API))
	r.Use(sessionMiddleware(deps.Sessions))
	r.Use(positionMiddleware(deps.Mailbox, deps.Tracker))
	r.Use(configMiddleware(deps.Config))

	if deps.Config.HTTP.Tracing.Enabled {
		r.Use(otelgin.Middleware(otelComponent))
		r.Use(tracingProvider(deps.Config))
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	r.Use(sloggin.NewWithConfig(logger, sloggin.Config{
		WithSpanID:        deps.Config.HTTP.Tracing.Enabled,
		WithTraceID:       deps.Config.HTTP.Tracing.Enabled,
		DefaultLevel:      slog.LevelInfo,
		ClientErrorLevel:  slog.LevelWarn,
		ServerErrorLevel:  slog.LevelError,
		WithRequestHeader: false,
	}))
}

func engineMiddleware(engine *nav.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("engine", engine)
		c.Next()
	}
}

func favoritesMiddleware(favorites *favorites.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("favorites", favorites)
		c.Next()
	}
}

func historyMiddleware(history *history.Selector) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("history", history)
		c.Next()
	}
}

func apiMiddleware(client *api.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("api", client)
		c.Next()
	}
}

func sessionMiddleware(sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("sessions", sessions)
		c.Next()
	}
}

func positionMiddleware(mailbox *nav.Mailbox, tracker *nav.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("mailbox", mailbox)
		c.Set("tracker", tracker)
		c.Next()
	}
}

func configMiddleware(config *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("config", config)
		c.Next()
	}
}

func tracingProvider(config *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.HTTP.Tracing.OTLPEndpoint != "" {
			ctx := c.Request.Context()
			span := trace.SpanFromContext(ctx)
			if span.IsRecording() {
				span.SetAttributes(
					attribute.String("http.method", c.Request.Method),
					attribute.String("http.path", c.Request.URL.Path),
				)
			}
		}
		c.Next()
	}
}

// requireSession refuses account-scoped routes early with a clear 401
// instead of letting the backend call fail mid-handler.
func requireSession(sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sessions.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
