package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-errors/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP        HTTP        `json:"http"`
	Backend     Backend     `json:"backend"`
	GoogleMaps  GoogleMaps  `json:"google_maps" yaml:"google_maps"`
	Persistence Persistence `json:"persistence"`
	Session     Session     `json:"session"`
	Nav         Nav         `json:"nav"`
}

type Backend struct {
	URL string `json:"url"`
}

type GoogleMaps struct {
	APIKey string `json:"api_key" yaml:"api_key"`
}

type Persistence struct {
	Database string `json:"database"`
}

// Session controls where the daemon finds the Supmap credential. The
// consent flag inside the state directory decides whether the
// credential is read from the cookie jar or from the token file.
type Session struct {
	StateDirectory string `json:"state_dir" yaml:"state_dir"`
}

type Nav struct {
	SettlingDelaySeconds       uint `json:"settling_delay_seconds" yaml:"settling_delay_seconds"`
	TrackerBaseIntervalSeconds uint `json:"tracker_base_interval_seconds" yaml:"tracker_base_interval_seconds"`
	TrackerMaxIntervalSeconds  uint `json:"tracker_max_interval_seconds" yaml:"tracker_max_interval_seconds"`
	TrackerBackoffAfter        uint `json:"tracker_backoff_after" yaml:"tracker_backoff_after"`
	AlertsIntervalSeconds      uint `json:"alerts_interval_seconds" yaml:"alerts_interval_seconds"`
	RouteAlertsIntervalSeconds uint `json:"route_alerts_interval_seconds" yaml:"route_alerts_interval_seconds"`
	UsersIntervalSeconds       uint `json:"users_interval_seconds" yaml:"users_interval_seconds"`
}

type HTTPListener struct {
	IPV4Host string `json:"ipv4_host" yaml:"ipv4_host"`
	IPV6Host string `json:"ipv6_host" yaml:"ipv6_host"`
	Port     uint16 `json:"port"`
}

type Tracing struct {
	Enabled      bool   `json:"enabled"`
	OTLPEndpoint string `json:"otlp_endpoint" yaml:"otlp_endpoint"`
}

type PProf struct {
	Enabled bool `json:"enabled"`
}

type Metrics struct {
	HTTPListener
	Enabled bool `json:"enabled"`
}

type HTTP struct {
	HTTPListener
	Tracing        Tracing  `json:"tracing"`
	PProf          PProf    `json:"pprof"`
	TrustedProxies []string `json:"trusted_proxies" yaml:"trusted_proxies"`
	Metrics        Metrics  `json:"metrics"`
	CORSHosts      []string `json:"cors_hosts" yaml:"cors_hosts"`
}

//nolint:golint,gochecknoglobals
var (
	ConfigFileKey             = "config"
	HTTPIPV4HostKey           = "http.ipv4_host"
	HTTPIPV6HostKey           = "http.ipv6_host"
	HTTPPortKey               = "http.port"
	HTTPTracingEnabledKey     = "http.tracing.enabled"
	HTTPTracingOTLPEndKey     = "http.tracing.otlp_endpoint"
	HTTPPProfEnabledKey       = "http.pprof.enabled"
	HTTPTrustedProxiesKey     = "http.trusted_proxies"
	HTTPMetricsEnabledKey     = "http.metrics.enabled"
	HTTPMetricsIPV4HostKey    = "http.metrics.ipv4_host"
	HTTPMetricsIPV6HostKey    = "http.metrics.ipv6_host"
	HTTPMetricsPortKey        = "http.metrics.port"
	HTTPCORSHostsKey          = "http.cors_hosts"
	BackendURLKey             = "backend.url"
	GoogleMapsAPIKeyKey       = "google_maps.api_key"
	PersistenceDatabaseKey    = "persistence.database"
	SessionStateDirectoryKey  = "session.state_dir"
	NavSettlingDelayKey       = "nav.settling_delay_seconds"
	NavTrackerBaseIntervalKey = "nav.tracker_base_interval_seconds"
	NavTrackerMaxIntervalKey  = "nav.tracker_max_interval_seconds"
	NavTrackerBackoffAfterKey = "nav.tracker_backoff_after"
	NavAlertsIntervalKey      = "nav.alerts_interval_seconds"
	NavRouteAlertsIntervalKey = "nav.route_alerts_interval_seconds"
	NavUsersIntervalKey       = "nav.users_interval_seconds"
)

const (
	DefaultConfigPath                 = "config.yaml"
	DefaultHTTPIPV4Host               = "127.0.0.1"
	DefaultHTTPIPV6Host               = "::1"
	DefaultHTTPPort                   = 8090
	DefaultHTTPMetricsIPV4Host        = "127.0.0.1"
	DefaultHTTPMetricsIPV6Host        = "::1"
	DefaultHTTPMetricsPort            = 8091
	DefaultPersistenceDatabase        = "navd.db"
	DefaultSessionStateDirectory      = ".navd"
	DefaultNavSettlingDelaySeconds    = 2
	DefaultNavTrackerBaseSeconds      = 180
	DefaultNavTrackerMaxSeconds       = 600
	DefaultNavTrackerBackoffAfter     = 5
	DefaultNavAlertsIntervalSeconds   = 10
	DefaultNavRouteAlertsIntervalSecs = 15
	DefaultNavUsersIntervalSeconds    = 20
)

func RegisterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(ConfigFileKey, "c", DefaultConfigPath, "Config file path")
	cmd.Flags().String(HTTPIPV4HostKey, DefaultHTTPIPV4Host, "HTTP server IPv4 host")
	cmd.Flags().String(HTTPIPV6HostKey, DefaultHTTPIPV6Host, "HTTP server IPv6 host")
	cmd.Flags().Uint16(HTTPPortKey, DefaultHTTPPort, "HTTP server port")
	cmd.Flags().Bool(HTTPTracingEnabledKey, false, "Enable Open Telemetry tracing")
	cmd.Flags().String(HTTPTracingOTLPEndKey, "", "Open Telemetry endpoint")
	cmd.Flags().Bool(HTTPPProfEnabledKey, false, "Enable pprof")
	cmd.Flags().StringSlice(HTTPTrustedProxiesKey, []string{}, "Comma-separated list of trusted proxies")
	cmd.Flags().Bool(HTTPMetricsEnabledKey, false, "Enable metrics server")
	cmd.Flags().String(HTTPMetricsIPV4HostKey, DefaultHTTPMetricsIPV4Host, "Metrics server IPv4 host")
	cmd.Flags().String(HTTPMetricsIPV6HostKey, DefaultHTTPMetricsIPV6Host, "Metrics server IPv6 host")
	cmd.Flags().Uint16(HTTPMetricsPortKey, DefaultHTTPMetricsPort, "Metrics server port")
	cmd.Flags().StringSlice(HTTPCORSHostsKey, []string{}, "Comma-separated list of CORS hosts")
	cmd.Flags().String(BackendURLKey, "", "Supmap backend base URL")
	cmd.Flags().String(GoogleMapsAPIKeyKey, "", "Google Maps API key")
	cmd.Flags().String(PersistenceDatabaseKey, DefaultPersistenceDatabase, "Local database path")
	cmd.Flags().String(SessionStateDirectoryKey, DefaultSessionStateDirectory, "Session state directory")
	cmd.Flags().Uint(NavSettlingDelayKey, DefaultNavSettlingDelaySeconds, "Delay in seconds before a calculated route is saved to history")
	cmd.Flags().Uint(NavTrackerBaseIntervalKey, DefaultNavTrackerBaseSeconds, "Base position poll interval in seconds")
	cmd.Flags().Uint(NavTrackerMaxIntervalKey, DefaultNavTrackerMaxSeconds, "Maximum position poll interval in seconds")
	cmd.Flags().Uint(NavTrackerBackoffAfterKey, DefaultNavTrackerBackoffAfter, "Consecutive polls before the position interval backs off")
	cmd.Flags().Uint(NavAlertsIntervalKey, DefaultNavAlertsIntervalSeconds, "Minimum interval in seconds between nearby alert fetches")
	cmd.Flags().Uint(NavRouteAlertsIntervalKey, DefaultNavRouteAlertsIntervalSecs, "Minimum interval in seconds between route alert fetches")
	cmd.Flags().Uint(NavUsersIntervalKey, DefaultNavUsersIntervalSeconds, "Minimum interval in seconds between nearby user fetches")
}

var (
	ErrBackendURLRequired       = errors.New("Backend URL is required")
	ErrGoogleMapsAPIKeyRequired = errors.New("Google Maps API key is required")
	ErrOTLPEndpointRequired     = errors.New("OTLP endpoint is required when tracing is enabled")
	ErrDatabaseRequired         = errors.New("Database path is required")
	ErrStateDirectoryRequired   = errors.New("Session state directory is required")
	ErrTrackerIntervalInvalid   = errors.New("Tracker max interval must not be below the base interval")
)

func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return ErrBackendURLRequired
	}
	if c.GoogleMaps.APIKey == "" {
		return ErrGoogleMapsAPIKeyRequired
	}
	if c.HTTP.Tracing.Enabled && c.HTTP.Tracing.OTLPEndpoint == "" {
		return ErrOTLPEndpointRequired
	}
	if c.Persistence.Database == "" {
		return ErrDatabaseRequired
	}
	if c.Session.StateDirectory == "" {
		return ErrStateDirectoryRequired
	}
	if c.Nav.TrackerMaxIntervalSeconds < c.Nav.TrackerBaseIntervalSeconds {
		return ErrTrackerIntervalInvalid
	}

	return nil
}

func LoadConfig(cmd *cobra.Command) (*Config, error) {
	var config Config

	// Load flags from envs
	ctx, cancel := context.WithCancelCause(cmd.Context())
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if ctx.Err() != nil {
			return
		}
		optName := strings.ReplaceAll(strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_"), ".", "__")
		if val, ok := os.LookupEnv(optName); !f.Changed && ok {
			if err := f.Value.Set(val); err != nil {
				cancel(err)
			}
			f.Changed = true
		}
	})
	if ctx.Err() != nil {
		return &config, fmt.Errorf("failed to load env: %w", context.Cause(ctx))
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return &config, fmt.Errorf("failed to get config path: %w", err)
	}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return &config, fmt.Errorf("failed to read config: %w", err)
		} else if err == nil {
			if err := yaml.Unmarshal(data, &config); err != nil {
				return &config, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		}
	}

	err = overrideFlags(&config, cmd)
	if err != nil {
		return &config, fmt.Errorf("failed to override flags: %w", err)
	}

	// Defaults
	if config.HTTP.IPV4Host == "" {
		config.HTTP.IPV4Host = DefaultHTTPIPV4Host
	}
	if config.HTTP.IPV6Host == "" {
		config.HTTP.IPV6Host = DefaultHTTPIPV6Host
	}
	if config.HTTP.Port == 0 {
		config.HTTP.Port = DefaultHTTPPort
	}
	if config.HTTP.Metrics.IPV4Host == "" {
		config.HTTP.Metrics.IPV4Host = DefaultHTTPMetricsIPV4Host
	}
	if config.HTTP.Metrics.IPV6Host == "" {
		config.HTTP.Metrics.IPV6Host = DefaultHTTPMetricsIPV6Host
	}
	if config.HTTP.Metrics.Port == 0 {
		config.HTTP.Metrics.Port = DefaultHTTPMetricsPort
	}
	if config.Persistence.Database == "" {
		config.Persistence.Database = DefaultPersistenceDatabase
	}
	if config.Session.StateDirectory == "" {
		config.Session.StateDirectory = DefaultSessionStateDirectory
	}
	if config.Nav.SettlingDelaySeconds == 0 {
		config.Nav.SettlingDelaySeconds = DefaultNavSettlingDelaySeconds
	}
	if config.Nav.TrackerBaseIntervalSeconds == 0 {
		config.Nav.TrackerBaseIntervalSeconds = DefaultNavTrackerBaseSeconds
	}
	if config.Nav.TrackerMaxIntervalSeconds == 0 {
		config.Nav.TrackerMaxIntervalSeconds = DefaultNavTrackerMaxSeconds
	}
	if config.Nav.TrackerBackoffAfter == 0 {
		config.Nav.TrackerBackoffAfter = DefaultNavTrackerBackoffAfter
	}
	if config.Nav.AlertsIntervalSeconds == 0 {
		config.Nav.AlertsIntervalSeconds = DefaultNavAlertsIntervalSeconds
	}
	if config.Nav.RouteAlertsIntervalSeconds == 0 {
		config.Nav.RouteAlertsIntervalSeconds = DefaultNavRouteAlertsIntervalSecs
	}
	if config.Nav.UsersIntervalSeconds == 0 {
		config.Nav.UsersIntervalSeconds = DefaultNavUsersIntervalSeconds
	}

	return &config, nil
}

func overrideFlags(config *Config, cmd *cobra.Command) error {
	var err error
	if cmd.Flags().Changed(HTTPIPV4HostKey) {
		config.HTTP.IPV4Host, err = cmd.Flags().GetString(HTTPIPV4HostKey)
		if err != nil {
			return fmt.Errorf("failed to get HTTP IPv4 host: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPIPV6HostKey) {
		config.HTTP.IPV6Host, err = cmd.Flags().GetString(HTTPIPV6HostKey)
		if err != nil {
			return fmt.Errorf("failed to get HTTP IPv6 host: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPPortKey) {
		config.HTTP.Port, err = cmd.Flags().GetUint16(HTTPPortKey)
		if err != nil {
			return fmt.Errorf("failed to get HTTP port: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPPProfEnabledKey) {
		config.HTTP.PProf.Enabled, err = cmd.Flags().GetBool(HTTPPProfEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get pprof enabled: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPTrustedProxiesKey) {
		config.HTTP.TrustedProxies, err = cmd.Flags().GetStringSlice(HTTPTrustedProxiesKey)
		if err != nil {
			return fmt.Errorf("failed to get trusted proxies: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPMetricsEnabledKey) {
		config.HTTP.Metrics.Enabled, err = cmd.Flags().GetBool(HTTPMetricsEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics enabled: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPMetricsIPV4HostKey) {
		config.HTTP.Metrics.IPV4Host, err = cmd.Flags().GetString(HTTPMetricsIPV4HostKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics IPv4 host: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPMetricsIPV6HostKey) {
		config.HTTP.Metrics.IPV6Host, err = cmd.Flags().GetString(HTTPMetricsIPV6HostKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics IPv6 host: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPMetricsPortKey) {
		config.HTTP.Metrics.Port, err = cmd.Flags().GetUint16(HTTPMetricsPortKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics port: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPTracingEnabledKey) {
		config.HTTP.Tracing.Enabled, err = cmd.Flags().GetBool(HTTPTracingEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get tracing enabled: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPTracingOTLPEndKey) {
		config.HTTP.Tracing.OTLPEndpoint, err = cmd.Flags().GetString(HTTPTracingOTLPEndKey)
		if err != nil {
			return fmt.Errorf("failed to get tracing OTLP endpoint: %w", err)
		}
	}

	if cmd.Flags().Changed(HTTPCORSHostsKey) {
		config.HTTP.CORSHosts, err = cmd.Flags().GetStringSlice(HTTPCORSHostsKey)
		if err != nil {
			return fmt.Errorf("failed to get CORS hosts: %w", err)
		}
	}

	if cmd.Flags().Changed(BackendURLKey) {
		config.Backend.URL, err = cmd.Flags().GetString(BackendURLKey)
		if err != nil {
			return fmt.Errorf("failed to get backend URL: %w", err)
		}
	}

	if cmd.Flags().Changed(GoogleMapsAPIKeyKey) {
		config.GoogleMaps.APIKey, err = cmd.Flags().GetString(GoogleMapsAPIKeyKey)
		if err != nil {
			return fmt.Errorf("failed to get Google Maps API key: %w", err)
		}
	}

	if cmd.Flags().Changed(PersistenceDatabaseKey) {
		config.Persistence.Database, err = cmd.Flags().GetString(PersistenceDatabaseKey)
		if err != nil {
			return fmt.Errorf("failed to get database path: %w", err)
		}
	}

	if cmd.Flags().Changed(SessionStateDirectoryKey) {
		config.Session.StateDirectory, err = cmd.Flags().GetString(SessionStateDirectoryKey)
		if err != nil {
			return fmt.Errorf("failed to get session state directory: %w", err)
		}
	}

	if cmd.Flags().Changed(NavSettlingDelayKey) {
		config.Nav.SettlingDelaySeconds, err = cmd.Flags().GetUint(NavSettlingDelayKey)
		if err != nil {
			return fmt.Errorf("failed to get settling delay: %w", err)
		}
	}

	if cmd.Flags().Changed(NavTrackerBaseIntervalKey) {
		config.Nav.TrackerBaseIntervalSeconds, err = cmd.Flags().GetUint(NavTrackerBaseIntervalKey)
		if err != nil {
			return fmt.Errorf("failed to get tracker base interval: %w", err)
		}
	}

	if cmd.Flags().Changed(NavTrackerMaxIntervalKey) {
		config.Nav.TrackerMaxIntervalSeconds, err = cmd.Flags().GetUint(NavTrackerMaxIntervalKey)
		if err != nil {
			return fmt.Errorf("failed to get tracker max interval: %w", err)
		}
	}

	if cmd.Flags().Changed(NavTrackerBackoffAfterKey) {
		config.Nav.TrackerBackoffAfter, err = cmd.Flags().GetUint(NavTrackerBackoffAfterKey)
		if err != nil {
			return fmt.Errorf("failed to get tracker backoff threshold: %w", err)
		}
	}

	if cmd.Flags().Changed(NavAlertsIntervalKey) {
		config.Nav.AlertsIntervalSeconds, err = cmd.Flags().GetUint(NavAlertsIntervalKey)
		if err != nil {
			return fmt.Errorf("failed to get alerts interval: %w", err)
		}
	}

	if cmd.Flags().Changed(NavRouteAlertsIntervalKey) {
		config.Nav.RouteAlertsIntervalSeconds, err = cmd.Flags().GetUint(NavRouteAlertsIntervalKey)
		if err != nil {
			return fmt.Errorf("failed to get route alerts interval: %w", err)
		}
	}

	if cmd.Flags().Changed(NavUsersIntervalKey) {
		config.Nav.UsersIntervalSeconds, err = cmd.Flags().GetUint(NavUsersIntervalKey)
		if err != nil {
			return fmt.Errorf("failed to get users interval: %w", err)
		}
	}

	return nil
}
