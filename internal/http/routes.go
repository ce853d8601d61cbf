package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civicspot/internal/constants"
)

// setupRoutes configures all shell routes
func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "civicspot",
			"session": s.session.State().Status(),
		})
	})

	if s.metrics != nil && s.config.Metrics.Enabled {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	// Public pages
	s.engine.GET(constants.RouteHome, s.page("home", nil))
	// Login pages live wherever the guard sends visitors
	s.engine.GET(s.config.Routes.Login, s.page("login", nil))
	s.engine.GET(constants.RouteRegister, s.page("register", nil))
	s.engine.GET(s.config.Routes.AdminLogin, s.page("admin-login", nil))
	s.engine.GET(constants.RouteMap, s.page("map", nil))
	s.engine.GET(constants.RouteCampaigns, s.page("campaigns", s.campaignsData))
	s.engine.GET(constants.RouteExplore, s.page("explore", nil))

	// Pages for any signed-in user
	member := s.engine.Group("", s.guard.Gin(false))
	{
		member.GET(constants.RouteDashboard, s.page("dashboard", s.dashboardData))
		member.GET(constants.RouteReport, s.page("report", nil))
		member.GET(constants.RouteCreateCampaign, s.page("create-campaign", nil))
		member.GET(constants.RouteProfile, s.page("profile", nil))
		member.GET(constants.RouteRewards, s.page("rewards", s.rewardsData))
	}

	// Admin-only pages
	admin := s.engine.Group("", s.guard.Gin(true))
	{
		admin.GET(constants.RouteAdminDashboard, s.page("admin-dashboard", s.adminDashboardData))
	}

	sessionGroup := s.engine.Group("/session")
	{
		sessionGroup.GET("", s.getSession)
		sessionGroup.POST("/login", s.login)
		sessionGroup.POST("/register", s.register)
		sessionGroup.POST("/logout", s.logout)
		sessionGroup.PUT("/profile", s.updateProfile)
		sessionGroup.POST("/notifications/:id/read", s.markNotificationRead)
		sessionGroup.GET("/events", s.sessionEvents)
	}

	// Backend passthrough carrying the bound credential
	s.engine.Any("/api/*path", s.proxy)

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Page not found"})
	})
}
