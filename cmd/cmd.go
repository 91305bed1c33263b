package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/supmap/navd/internal/api"
	"github.com/supmap/navd/internal/config"
	"github.com/supmap/navd/internal/db"
	"github.com/supmap/navd/internal/events"
	"github.com/supmap/navd/internal/favorites"
	"github.com/supmap/navd/internal/history"
	"github.com/supmap/navd/internal/maps"
	"github.com/supmap/navd/internal/markers"
	"github.com/supmap/navd/internal/metrics"
	"github.com/supmap/navd/internal/nav"
	"github.com/supmap/navd/internal/server"
	"github.com/supmap/navd/internal/session"
	"github.com/ztrue/shutdown"
	"golang.org/x/sync/errgroup"
)

func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "navd",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	slog.Info("navd", "version", cmd.Annotations["version"], "commit", cmd.Annotations["commit"])

	config, err := config.LoadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	sessions, err := session.NewStore(config.Session.StateDirectory)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	database, err := db.MakeDB(config)
	if err != nil {
		return fmt.Errorf("failed to make database: %w", err)
	}
	slog.Info("Database connection established")

	promMetrics := metrics.NewMetrics()
	bus := events.NewEventBus()
	client := api.NewClient(config.Backend.URL, sessions)
	loader := maps.NewLoader(config.GoogleMaps.APIKey)

	alerts := markers.NewAlertsManager(client, time.Duration(config.Nav.AlertsIntervalSeconds)*time.Second, promMetrics, bus)
	routeAlerts := markers.NewRouteAlertsManager(client, time.Duration(config.Nav.RouteAlertsIntervalSeconds)*time.Second, promMetrics, bus)
	users := markers.NewUsersManager(client, sessions, time.Duration(config.Nav.UsersIntervalSeconds)*time.Second, promMetrics, bus)

	selector := history.NewSelector(
		history.NewLocalStore(database, promMetrics),
		history.NewRemoteStore(client, promMetrics),
		sessions,
	)

	engine := nav.NewEngine(nav.EngineParams{
		Loader:        loader,
		Alerts:        alerts,
		RouteAlerts:   routeAlerts,
		Users:         users,
		History:       selector,
		Sessions:      sessions,
		Bus:           bus,
		Metrics:       promMetrics,
		SettlingDelay: time.Duration(config.Nav.SettlingDelaySeconds) * time.Second,
	})

	mailbox := nav.NewMailbox()
	tracker := nav.NewTracker(
		mailbox,
		engine,
		time.Duration(config.Nav.TrackerBaseIntervalSeconds)*time.Second,
		time.Duration(config.Nav.TrackerMaxIntervalSeconds)*time.Second,
		int(config.Nav.TrackerBackoffAfter),
	)
	trackerCtx, stopTracker := context.WithCancel(cmd.Context())
	go func() {
		if err := tracker.Run(trackerCtx); err != nil {
			slog.Error("Position tracker error", "error", err.Error())
		}
	}()

	slog.Info("Starting HTTP server")
	httpServer := server.NewServer(server.Deps{
		Config:    config,
		Engine:    engine,
		Favorites: favorites.NewManager(client, loader),
		History:   selector,
		API:       client,
		Sessions:  sessions,
		Mailbox:   mailbox,
		Tracker:   tracker,
		Bus:       bus,
	})
	err = httpServer.Start()
	if err != nil {
		stopTracker()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	stop := func(_ os.Signal) {
		slog.Info("Shutting down")

		stopTracker()
		engine.Close()
		alerts.Close()
		routeAlerts.Close()
		users.Close()

		errGrp := errgroup.Group{}

		errGrp.Go(func() error {
			return httpServer.Stop()
		})

		err := errGrp.Wait()
		if err != nil {
			slog.Error("Shutdown error", "error", err.Error())
		}
		slog.Info("Shutdown complete")
	}

	if cmd.Annotations["version"] == "testing" {
		doneChannel := make(chan struct{})
		go func() {
			slog.Info("Sleeping for 5 seconds")
			time.Sleep(5 * time.Second)
			slog.Info("Sending SIGTERM")
			stop(syscall.SIGTERM)
			doneChannel <- struct{}{}
		}()
		<-doneChannel
	} else {
		shutdown.AddWithParam(stop)
		shutdown.Listen(syscall.SIGINT, syscall.SIGKILL, syscall.SIGTERM, syscall.SIGQUIT)
	}

	return nil
}
