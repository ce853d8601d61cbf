package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configKeys = []string{
	"CIVICSPOT_CONFIG",
	"APP_ENV",
	"LOG_JSON",
	"SERVER_ADDRESS",
	"API_BASE_URL",
	"TOKEN_STORE",
	"TOKEN_STORE_PATH",
	"SESSION_HYDRATE_TIMEOUT",
	"SESSION_SINGLE_FLIGHT",
	"LOGIN_PATH",
	"ADMIN_LOGIN_PATH",
	"CORS_ALLOWED_ORIGINS",
	"NOTIFICATIONS_REFRESH",
	"METRICS_ENABLED",
	"TRACING_ENABLED",
	"TRACING_SERVICE_NAME",
	"TRACING_OUTPUT",
	"FAKEAPI_ADDRESS",
	"FAKEAPI_JWT_SECRET",
	"FAKEAPI_TOKEN_TTL",
	"FAKEAPI_ADMIN_EMAIL",
	"FAKEAPI_ADMIN_PASSWORD",
}

// clearEnv unsets every config key for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		orig, had := os.LookupEnv(key)
		os.Unsetenv(key)
		t.Cleanup(func() {
			if had {
				os.Setenv(key, orig)
			} else {
				os.Unsetenv(key)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	config, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.ServerAddress != "127.0.0.1:8080" {
		t.Errorf("Expected ServerAddress to be 127.0.0.1:8080, got %s", config.ServerAddress)
	}
	if config.Tracing.Enabled {
		t.Error("Expected tracing to be disabled by default")
	}
	if config.Tracing.ServiceName != "civicspot-shell" {
		t.Errorf("Expected default tracing service name, got %s", config.Tracing.ServiceName)
	}
	if config.APIBaseURL != "http://localhost:5000" {
		t.Errorf("Expected APIBaseURL to be http://localhost:5000, got %s", config.APIBaseURL)
	}
	if config.TokenStore.Driver != "sqlite" {
		t.Errorf("Expected TokenStore.Driver to be sqlite, got %s", config.TokenStore.Driver)
	}
	if config.Session.HydrateTimeout != 0 {
		t.Errorf("Expected no hydrate timeout by default, got %v", config.Session.HydrateTimeout)
	}
	if config.Session.SingleFlight {
		t.Error("Expected SingleFlight to be off by default")
	}
	if config.Routes.Login != "/login" || config.Routes.AdminLogin != "/admin/login" {
		t.Errorf("Unexpected default routes: %+v", config.Routes)
	}
	if config.Notifications.Refresh != "@every 1m" {
		t.Errorf("Expected default refresh '@every 1m', got %q", config.Notifications.Refresh)
	}
	if config.FakeAPI.JWTSecret != "change-me-in-production-secret-key" {
		t.Errorf("Expected default JWT secret, got %s", config.FakeAPI.JWTSecret)
	}

	expectedOrigins := []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:8080"}
	if len(config.CORS.AllowedOrigins) != len(expectedOrigins) {
		t.Fatalf("Expected %d CORS origins, got %d", len(expectedOrigins), len(config.CORS.AllowedOrigins))
	}
	for i, origin := range expectedOrigins {
		if config.CORS.AllowedOrigins[i] != origin {
			t.Errorf("Expected CORS origin %s at index %d, got %s", origin, i, config.CORS.AllowedOrigins[i])
		}
	}
}

func TestLoadWithCustomEnv(t *testing.T) {
	clearEnv(t)

	os.Setenv("APP_ENV", "production")
	os.Setenv("LOG_JSON", "true")
	os.Setenv("SERVER_ADDRESS", ":9000")
	os.Setenv("API_BASE_URL", "https://api.civicspot.org")
	os.Setenv("TOKEN_STORE", "file")
	os.Setenv("TOKEN_STORE_PATH", "/custom/credentials.json")
	os.Setenv("SESSION_HYDRATE_TIMEOUT", "15s")
	os.Setenv("SESSION_SINGLE_FLIGHT", "true")
	os.Setenv("CORS_ALLOWED_ORIGINS", "https://example.com,https://app.example.com")
	os.Setenv("NOTIFICATIONS_REFRESH", "")
	os.Setenv("METRICS_ENABLED", "false")
	os.Setenv("FAKEAPI_TOKEN_TTL", "1h")
	os.Setenv("TRACING_ENABLED", "true")
	os.Setenv("TRACING_SERVICE_NAME", "shell-eu")
	os.Setenv("TRACING_OUTPUT", "/var/log/civicspot/traces.json")

	config, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Environment != "production" || !config.LogJSON {
		t.Errorf("Unexpected logging config: env=%s json=%v", config.Environment, config.LogJSON)
	}
	if config.ServerAddress != ":9000" {
		t.Errorf("Expected ServerAddress to be :9000, got %s", config.ServerAddress)
	}
	if config.TokenStore.Driver != "file" || config.TokenStore.Path != "/custom/credentials.json" {
		t.Errorf("Unexpected token store config: %+v", config.TokenStore)
	}
	if config.Session.HydrateTimeout != 15*time.Second {
		t.Errorf("Expected hydrate timeout 15s, got %v", config.Session.HydrateTimeout)
	}
	if !config.Session.SingleFlight {
		t.Error("Expected SingleFlight to be enabled")
	}
	if !config.Tracing.Enabled || config.Tracing.ServiceName != "shell-eu" || config.Tracing.Output != "/var/log/civicspot/traces.json" {
		t.Errorf("Unexpected tracing config: %+v", config.Tracing)
	}
	if config.Notifications.Refresh != "" {
		t.Errorf("Expected empty refresh to disable the schedule, got %q", config.Notifications.Refresh)
	}
	if config.Metrics.Enabled {
		t.Error("Expected metrics to be disabled")
	}
	if config.FakeAPI.TokenTTL != time.Hour {
		t.Errorf("Expected token TTL 1h, got %v", config.FakeAPI.TokenTTL)
	}
	if len(config.CORS.AllowedOrigins) != 2 || config.CORS.AllowedOrigins[1] != "https://app.example.com" {
		t.Errorf("Unexpected CORS origins: %v", config.CORS.AllowedOrigins)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "civicspot.yaml")
	content := `
api_base_url: http://backend.internal:5000
token_store:
  driver: memory
session:
  hydrate_timeout: 3s
routes:
  login: /signin
  admin_login: /staff/signin
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	os.Setenv("CIVICSPOT_CONFIG", path)
	os.Setenv("LOGIN_PATH", "/auth/login")

	config, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.APIBaseURL != "http://backend.internal:5000" {
		t.Errorf("Expected file API base URL, got %s", config.APIBaseURL)
	}
	if config.TokenStore.Driver != "memory" {
		t.Errorf("Expected memory driver from file, got %s", config.TokenStore.Driver)
	}
	if config.Session.HydrateTimeout != 3*time.Second {
		t.Errorf("Expected hydrate timeout from file, got %v", config.Session.HydrateTimeout)
	}
	if config.Routes.Login != "/auth/login" {
		t.Errorf("Expected env to override file login path, got %s", config.Routes.Login)
	}
	if config.Routes.AdminLogin != "/staff/signin" {
		t.Errorf("Expected admin login from file, got %s", config.Routes.AdminLogin)
	}
	if config.ServerAddress != "127.0.0.1:8080" {
		t.Errorf("Expected default server address to survive, got %s", config.ServerAddress)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"TOKEN_STORE": "redis"}},
		{name: "bad base url", env: map[string]string{"API_BASE_URL": "ftp://example.com"}},
		{name: "same login paths", env: map[string]string{"LOGIN_PATH": "/login", "ADMIN_LOGIN_PATH": "/login"}},
		{name: "login path on a page route", env: map[string]string{"LOGIN_PATH": "/dashboard"}},
		{name: "admin login path under the proxy", env: map[string]string{"ADMIN_LOGIN_PATH": "/api/admin/login"}},
		{name: "relative login path", env: map[string]string{"LOGIN_PATH": "login"}},
		{name: "bad bool", env: map[string]string{"SESSION_SINGLE_FLIGHT": "maybe"}},
		{name: "bad tracing bool", env: map[string]string{"TRACING_ENABLED": "sometimes"}},
		{name: "bad duration", env: map[string]string{"SESSION_HYDRATE_TIMEOUT": "soon"}},
		{name: "negative duration", env: map[string]string{"SESSION_HYDRATE_TIMEOUT": "-1s"}},
		{name: "missing config file", env: map[string]string{"CIVICSPOT_CONFIG": "/nonexistent/civicspot.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			if _, err := Load(); err == nil {
				t.Error("expected error but got nil")
			}
		})
	}
}

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{input: "a,b,c", expected: []string{"a", "b", "c"}},
		{input: "a, b , c ", expected: []string{"a", "b", "c"}},
		{input: "", expected: []string{}},
		{input: "a,,c", expected: []string{"a", "c"}},
		{input: ",,", expected: []string{}},
		{input: "single", expected: []string{"single"}},
	}

	for _, tt := range tests {
		list := parseCommaSeparatedList(tt.input)
		if len(list) != len(tt.expected) {
			t.Errorf("%q: expected %d items, got %d", tt.input, len(tt.expected), len(list))
			continue
		}
		for i, item := range tt.expected {
			if list[i] != item {
				t.Errorf("%q: expected item %s at index %d, got %s", tt.input, item, i, list[i])
			}
		}
	}
}

func TestGetEnv(t *testing.T) {
	key := "TEST_GET_ENV"
	os.Setenv(key, "test-value")
	defer os.Unsetenv(key)

	if result := getEnv(key, "default"); result != "test-value" {
		t.Errorf("Expected test-value, got %s", result)
	}

	os.Unsetenv(key)
	if result := getEnv(key, "default"); result != "default" {
		t.Errorf("Expected 'default', got %s", result)
	}

	os.Setenv(key, "")
	if result := getEnv(key, "default"); result != "default" {
		t.Errorf("Expected 'default' for empty env var, got %s", result)
	}
}
