package constants

import "time"

// Client-side routes
const (
	RouteHome           = "/"
	RouteLogin          = "/login"
	RouteRegister       = "/register"
	RouteAdminLogin     = "/admin/login"
	RouteMap            = "/map"
	RouteCampaigns      = "/campaigns"
	RouteExplore        = "/explore"
	RouteDashboard      = "/dashboard"
	RouteReport         = "/report"
	RouteCreateCampaign = "/create-campaign"
	RouteProfile        = "/profile"
	RouteRewards        = "/rewards"
	RouteAdminDashboard = "/admin/dashboard"
	RouteAdminPrefix    = "/admin"
)

// Token store drivers
const (
	TokenStoreSQLite = "sqlite"
	TokenStoreFile   = "file"
	TokenStoreMemory = "memory"
)

// Session observer events
const (
	EventHydrateSuccess   = "hydrate_success"
	EventHydrateFailed    = "hydrate_failed"
	EventHydrateAnonymous = "hydrate_anonymous"
	EventLogin            = "login"
	EventLoginFailed      = "login_failed"
	EventRegister         = "register"
	EventRegisterFailed   = "register_failed"
	EventLogout           = "logout"
	EventProfileUpdated   = "profile_updated"
)

// Environment names
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DefaultServerAddress keeps the shell on loopback: it acts with the
// bound credential for anyone who can reach it.
const DefaultServerAddress = "127.0.0.1:8080"

// DefaultServiceName names the shell in traces
const DefaultServiceName = "civicspot-shell"

// Timeout and interval constants
const (
	// ServerReadTimeout is the HTTP server read timeout
	ServerReadTimeout = 30 * time.Second

	// ServerWriteTimeout is the HTTP server write timeout
	ServerWriteTimeout = 120 * time.Second

	// ServerIdleTimeout is the HTTP server idle timeout
	ServerIdleTimeout = 120 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the HTTP servers
	ShutdownTimeout = 10 * time.Second

	// LoadingRefreshSeconds is the Refresh header sent with the guard's loading placeholder
	LoadingRefreshSeconds = 1

	// SessionEventsPingInterval keeps idle session event sockets alive
	SessionEventsPingInterval = 30 * time.Second

	// CLIRequestTimeout bounds each command issued by civicspotctl
	CLIRequestTimeout = 30 * time.Second
)

// Request limits
const (
	// MaxJSONBodyBytes caps JSON request bodies accepted by the shell
	MaxJSONBodyBytes = 1 << 20

	// MaxProfileUploadBytes caps multipart profile updates (picture included)
	MaxProfileUploadBytes = 5 << 20

	// MinPasswordLength is the shortest password the stand-in backend accepts
	MinPasswordLength = 6
)

// DefaultNotificationsRefresh is the cron spec for refreshing the unread badge
const DefaultNotificationsRefresh = "@every 1m"
