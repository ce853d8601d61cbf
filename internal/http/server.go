// Package http serves the CivicSpot shell: page views gated by the route
// guard, the session endpoints and an authenticated proxy to the backend.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/civicspot/internal/apiclient"
	"github.com/civicspot/internal/config"
	"github.com/civicspot/internal/constants"
	"github.com/civicspot/internal/domain"
	"github.com/civicspot/internal/guard"
	"github.com/civicspot/internal/metrics"
	"github.com/civicspot/internal/nav"
	"github.com/civicspot/internal/notifications"
	"github.com/civicspot/internal/session"
)

const (
	requestIDHeader = "X-Request-ID"
	tracerName      = "github.com/civicspot/internal/http"
)

// Deps are the collaborators of the shell. Badge, Metrics and
// TracerProvider are optional.
type Deps struct {
	Session        *session.Controller
	Client         *apiclient.Client
	Badge          *notifications.Badge
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
}

// Server wraps the HTTP server
type Server struct {
	config   *config.Config
	session  *session.Controller
	client   *apiclient.Client
	badge    *notifications.Badge
	metrics  *metrics.Metrics
	guard    *guard.Guard
	menus    nav.Menus
	engine   *gin.Engine
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, domain.WrapMissingDependency("config")
	}
	if deps.Session == nil {
		return nil, domain.WrapMissingDependency("session controller")
	}
	if deps.Client == nil {
		return nil, domain.WrapMissingDependency("api client")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.TracerProvider == nil {
		deps.TracerProvider = otel.GetTracerProvider()
	}

	// Set Gin mode based on environment
	if cfg.Environment == constants.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	// Middleware - order matters
	engine.Use(requestIDMiddleware())
	engine.Use(securityHeadersMiddleware())
	engine.Use(corsMiddleware(cfg))
	engine.Use(cacheControlMiddleware())
	engine.Use(tracingMiddleware(deps.TracerProvider.Tracer(tracerName)))
	engine.Use(loggerMiddleware(deps.Logger))
	engine.Use(originGuardMiddleware(cfg))
	engine.Use(jsonBodyLimitMiddleware(constants.MaxJSONBodyBytes))

	engine.MaxMultipartMemory = constants.MaxProfileUploadBytes

	var guardOpts []guard.Option
	if deps.Metrics != nil {
		guardOpts = append(guardOpts, guard.WithObserver(deps.Metrics.GuardObserver()))
	}

	server := &Server{
		config:  cfg,
		session: deps.Session,
		client:  deps.Client,
		badge:   deps.Badge,
		metrics: deps.Metrics,
		guard: guard.New(deps.Session, guard.Routes{
			Login:      cfg.Routes.Login,
			AdminLogin: cfg.Routes.AdminLogin,
		}, guardOpts...),
		menus:  nav.New(cfg.Routes.Login, cfg.Routes.AdminLogin),
		engine: engine,
		logger: deps.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originAllowed(cfg, origin) || sameHost(origin, r.Host)
			},
		},
	}

	server.setupRoutes()

	return server, nil
}

// Handler returns the gin engine, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.ServerAddress
	if addr == "" {
		addr = constants.DefaultServerAddress
	}

	// Configure server with timeouts
	server := &http.Server{
		Addr:           addr,
		Handler:        s.engine,
		ReadTimeout:    constants.ServerReadTimeout,
		WriteTimeout:   constants.ServerWriteTimeout,
		IdleTimeout:    constants.ServerIdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("shell listening", "address", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestIDMiddleware tags every request with an id, reusing a caller's one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// securityHeadersMiddleware adds security-related HTTP headers
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevent MIME type sniffing
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		// Prevent clickjacking
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		// HSTS (only if using HTTPS)
		if c.Request.TLS != nil {
			c.Writer.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// corsMiddleware adds CORS headers with configurable origin
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if originAllowed(cfg, origin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func originAllowed(cfg *config.Config, origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range cfg.CORS.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// originGuardMiddleware refuses cross-site calls to the endpoints that act
// with the bound credential. Requests without an Origin header, such as
// CLI tools, pass unless the browser marks them cross-site.
func originGuardMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !credentialed(c.Request.URL.Path) {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		allowed := origin == "" || originAllowed(cfg, origin) || sameHost(origin, c.Request.Host)
		if origin == "" && c.GetHeader("Sec-Fetch-Site") == "cross-site" {
			allowed = false
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Cross-origin request refused"})
			return
		}
		c.Next()
	}
}

// credentialed reports whether path is served with the session credential
func credentialed(path string) bool {
	return strings.HasPrefix(path, "/api/") || path == "/session" || strings.HasPrefix(path, "/session/")
}

func sameHost(origin, host string) bool {
	o, err := domain.NewOrigin(origin)
	if err != nil {
		return false
	}
	_, rest, _ := strings.Cut(o.String(), "://")
	return strings.EqualFold(rest, host)
}

// cacheControlMiddleware keeps session-dependent responses out of caches
func cacheControlMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/session") {
			c.Writer.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Writer.Header().Set("Pragma", "no-cache")
			c.Writer.Header().Set("Expires", "0")
		} else if path != "/metrics" && path != "/healthz" {
			// Page views embed the identity and must not be shared
			c.Writer.Header().Set("Cache-Control", "private, no-cache")
		}

		c.Next()
	}
}

// jsonBodyLimitMiddleware limits the size of JSON request bodies to prevent DoS
func jsonBodyLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only apply to JSON requests
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodDelete && c.Request.Method != http.MethodOptions {
			contentType := c.GetHeader("Content-Type")
			if strings.Contains(contentType, "application/json") {
				if c.Request.ContentLength > maxBytes {
					c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
						"message": "Request body too large",
					})
					return
				}
				// Wrap the request body with MaxBytesReader
				c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
			}
		}
		c.Next()
	}
}

// tracingMiddleware opens a server span per request, continuing a trace
// context sent by the caller.
func tracingMiddleware(tracer trace.Tracer) gin.HandlerFunc {
	prop := propagation.TraceContext{}
	return func(c *gin.Context) {
		ctx := prop.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

// loggerMiddleware logs HTTP requests
func loggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString("requestID"),
			"remote_addr", c.Request.RemoteAddr,
		)
	}
}
