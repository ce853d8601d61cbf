package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/civicspot/internal/constants"
	"github.com/civicspot/internal/domain"
)

// Config holds the application configuration
type Config struct {
	Environment   string              `yaml:"environment"`
	LogJSON       bool                `yaml:"log_json"`
	ServerAddress string              `yaml:"server_address"`
	APIBaseURL    string              `yaml:"api_base_url"`
	TokenStore    TokenStoreConfig    `yaml:"token_store"`
	Session       SessionConfig       `yaml:"session"`
	Routes        RoutesConfig        `yaml:"routes"`
	CORS          CORSConfig          `yaml:"cors"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Tracing       TracingConfig       `yaml:"tracing"`
	FakeAPI       FakeAPIConfig       `yaml:"fakeapi"`
}

// TokenStoreConfig selects where the bearer credential is persisted
type TokenStoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// SessionConfig holds session controller options
type SessionConfig struct {
	HydrateTimeout time.Duration `yaml:"hydrate_timeout"` // 0 = wait forever
	SingleFlight   bool          `yaml:"single_flight"`
}

// RoutesConfig holds the client-side redirect targets of the route guard
type RoutesConfig struct {
	Login      string `yaml:"login"`
	AdminLogin string `yaml:"admin_login"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// NotificationsConfig holds the unread badge refresh schedule
type NotificationsConfig struct {
	Refresh string `yaml:"refresh"` // cron spec, empty disables
}

// MetricsConfig holds prometheus exposition settings
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingConfig holds OpenTelemetry export settings
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Output      string `yaml:"output"` // file path, empty = stderr
}

// FakeAPIConfig holds configuration of the stand-in backend
type FakeAPIConfig struct {
	Address       string        `yaml:"address"`
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminEmail    string        `yaml:"admin_email"`
	AdminPassword string        `yaml:"admin_password"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Environment:   constants.EnvDevelopment,
		ServerAddress: constants.DefaultServerAddress,
		APIBaseURL:    "http://localhost:5000",
		TokenStore: TokenStoreConfig{
			Driver: constants.TokenStoreSQLite,
			Path:   "./data/civicspot.db",
		},
		Routes: RoutesConfig{
			Login:      constants.RouteLogin,
			AdminLogin: constants.RouteAdminLogin,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:8080"},
		},
		Notifications: NotificationsConfig{
			Refresh: constants.DefaultNotificationsRefresh,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Tracing: TracingConfig{
			ServiceName: constants.DefaultServiceName,
		},
		FakeAPI: FakeAPIConfig{
			Address:    ":5000",
			JWTSecret:  "change-me-in-production-secret-key",
			TokenTTL:   7 * 24 * time.Hour,
			AdminEmail: "admin@civicspot.local",
		},
	}
}

// Load loads configuration from an optional YAML file named by
// CIVICSPOT_CONFIG, then applies environment variables on top.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CIVICSPOT_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error

	c.Environment = getEnv("APP_ENV", c.Environment)
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.APIBaseURL = getEnv("API_BASE_URL", c.APIBaseURL)
	c.TokenStore.Driver = getEnv("TOKEN_STORE", c.TokenStore.Driver)
	c.TokenStore.Path = getEnv("TOKEN_STORE_PATH", c.TokenStore.Path)
	c.Routes.Login = getEnv("LOGIN_PATH", c.Routes.Login)
	c.Routes.AdminLogin = getEnv("ADMIN_LOGIN_PATH", c.Routes.AdminLogin)
	c.Tracing.ServiceName = getEnv("TRACING_SERVICE_NAME", c.Tracing.ServiceName)
	c.Tracing.Output = getEnv("TRACING_OUTPUT", c.Tracing.Output)
	c.FakeAPI.Address = getEnv("FAKEAPI_ADDRESS", c.FakeAPI.Address)
	c.FakeAPI.JWTSecret = getEnv("FAKEAPI_JWT_SECRET", c.FakeAPI.JWTSecret)
	c.FakeAPI.AdminEmail = getEnv("FAKEAPI_ADMIN_EMAIL", c.FakeAPI.AdminEmail)
	c.FakeAPI.AdminPassword = getEnv("FAKEAPI_ADMIN_PASSWORD", c.FakeAPI.AdminPassword)

	if origins, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok && origins != "" {
		c.CORS.AllowedOrigins = parseCommaSeparatedList(origins)
	}
	// An explicitly empty value turns the badge refresh off.
	if refresh, ok := os.LookupEnv("NOTIFICATIONS_REFRESH"); ok {
		c.Notifications.Refresh = strings.TrimSpace(refresh)
	}

	if c.LogJSON, err = getEnvBool("LOG_JSON", c.LogJSON); err != nil {
		return err
	}
	if c.Session.SingleFlight, err = getEnvBool("SESSION_SINGLE_FLIGHT", c.Session.SingleFlight); err != nil {
		return err
	}
	if c.Metrics.Enabled, err = getEnvBool("METRICS_ENABLED", c.Metrics.Enabled); err != nil {
		return err
	}
	if c.Tracing.Enabled, err = getEnvBool("TRACING_ENABLED", c.Tracing.Enabled); err != nil {
		return err
	}
	if c.Session.HydrateTimeout, err = getEnvDuration("SESSION_HYDRATE_TIMEOUT", c.Session.HydrateTimeout); err != nil {
		return err
	}
	if c.FakeAPI.TokenTTL, err = getEnvDuration("FAKEAPI_TOKEN_TTL", c.FakeAPI.TokenTTL); err != nil {
		return err
	}

	return nil
}

// Validate reports configuration combinations that cannot work
func (c *Config) Validate() error {
	var errs []error

	switch c.TokenStore.Driver {
	case constants.TokenStoreSQLite, constants.TokenStoreFile:
		if c.TokenStore.Path == "" {
			errs = append(errs, fmt.Errorf("token store %q requires TOKEN_STORE_PATH", c.TokenStore.Driver))
		}
	case constants.TokenStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown token store driver %q", c.TokenStore.Driver))
	}

	if _, err := domain.NewOrigin(c.APIBaseURL); err != nil {
		errs = append(errs, fmt.Errorf("invalid API_BASE_URL: %w", err))
	}

	if !strings.HasPrefix(c.Routes.Login, "/") || !strings.HasPrefix(c.Routes.AdminLogin, "/") {
		errs = append(errs, errors.New("login paths must be absolute"))
	}
	if c.Routes.Login == c.Routes.AdminLogin {
		errs = append(errs, errors.New("login path and admin login path must differ"))
	}
	for _, p := range []string{c.Routes.Login, c.Routes.AdminLogin} {
		if reservedRoute(p) {
			errs = append(errs, fmt.Errorf("login path %q collides with a shell route", p))
		}
	}

	if c.Session.HydrateTimeout < 0 {
		errs = append(errs, errors.New("SESSION_HYDRATE_TIMEOUT cannot be negative"))
	}

	return errors.Join(errs...)
}

// reservedRoute reports whether path is already served by the shell for
// something other than a login page.
func reservedRoute(path string) bool {
	switch path {
	case constants.RouteHome, constants.RouteRegister, constants.RouteMap,
		constants.RouteCampaigns, constants.RouteExplore, constants.RouteDashboard,
		constants.RouteReport, constants.RouteCreateCampaign, constants.RouteProfile,
		constants.RouteRewards, constants.RouteAdminDashboard:
		return true
	}
	for _, prefix := range []string{"/api", "/session", "/healthz", "/metrics"} {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// parseCommaSeparatedList splits a comma-separated string into a slice
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return []string{}
	}

	items := strings.Split(s, ",")
	result := make([]string, 0, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}

	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
