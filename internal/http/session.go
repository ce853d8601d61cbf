package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/civicspot/internal/apiclient"
	"github.com/civicspot/internal/constants"
	"github.com/civicspot/internal/domain"
	"github.com/civicspot/internal/session"
)

// SessionResponse is the public form of a session snapshot
type SessionResponse struct {
	Status  session.Status `json:"status"`
	Loading bool           `json:"loading"`
	User    *domain.User   `json:"user"`
}

func newSessionResponse(st session.State) SessionResponse {
	return SessionResponse{Status: st.Status(), Loading: st.Loading, User: st.User}
}

// AuthResponse answers a successful login or register with where to go next
type AuthResponse struct {
	User *domain.User `json:"user"`
	Next string       `json:"next"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents a register request
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, newSessionResponse(s.session.State()))
}

// requireJSON answers 415 unless the body is declared as JSON
func requireJSON(c *gin.Context) bool {
	if c.ContentType() != binding.MIMEJSON {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"message": "Content-Type must be application/json"})
		return false
	}
	return true
}

func (s *Server) login(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.WarnContext(c.Request.Context(), "invalid login request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}

	u, err := s.session.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, "login failed", err)
		return
	}
	c.JSON(http.StatusOK, AuthResponse{User: u, Next: nextAfterAuth(u)})
}

func (s *Server) register(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.WarnContext(c.Request.Context(), "invalid register request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Name, email and password are required"})
		return
	}

	u, err := s.session.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeError(c, "register failed", err)
		return
	}
	c.JSON(http.StatusCreated, AuthResponse{User: u, Next: nextAfterAuth(u)})
}

func nextAfterAuth(u *domain.User) string {
	if u.Role() == domain.RoleAdmin {
		return constants.RouteAdminDashboard
	}
	return constants.RouteDashboard
}

func (s *Server) logout(c *gin.Context) {
	s.session.Logout()
	c.JSON(http.StatusOK, gin.H{"next": constants.RouteHome})
}

func (s *Server) updateProfile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxProfileUploadBytes)

	upd := domain.ProfileUpdate{
		Name:     strings.TrimSpace(c.PostForm("name")),
		Username: strings.TrimSpace(c.PostForm("username")),
	}

	fh, err := c.FormFile("profilePicture")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		s.logger.WarnContext(c.Request.Context(), "invalid profile form", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid profile form"})
		return
	default:
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid profile picture"})
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid profile picture"})
			return
		}
		upd.PictureName = fh.Filename
		upd.Picture = data
	}

	u, err := s.session.UpdateProfile(c.Request.Context(), upd)
	if err != nil {
		s.writeError(c, "profile update failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (s *Server) markNotificationRead(c *gin.Context) {
	id := c.Param("id")

	var err error
	if s.badge != nil {
		err = s.badge.MarkRead(c.Request.Context(), id)
	} else {
		err = s.client.MarkNotificationRead(c.Request.Context(), id)
	}
	if err != nil {
		s.writeError(c, "mark notification read failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeError maps a session or backend error to a response. Backend
// rejections are passed through with their original status and payload.
func (s *Server) writeError(c *gin.Context, msg string, err error) {
	ctx := c.Request.Context()

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		s.logger.InfoContext(ctx, msg, "status", apiErr.StatusCode, "error", apiErr.Message)
		c.Data(apiErr.StatusCode, "application/json; charset=utf-8", apiErr.Payload())
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrAuthInFlight):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case domain.IsValidationError(err):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNetworkOperation):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(ctx, msg, "error", err)
	} else {
		s.logger.InfoContext(ctx, msg, "error", err)
	}
	c.JSON(status, gin.H{"message": domain.PublicMessage(err)})
}
