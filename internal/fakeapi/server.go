// Package fakeapi is an in-process stand-in for the CivicSpot REST backend.
// It implements the auth endpoints the session core depends on, plus the
// admin stats and notification endpoints used by the shell pages, so the
// client can run and be tested without the real service.
package fakeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/civicspot/internal/apipaths"
	"github.com/civicspot/internal/config"
	"github.com/civicspot/internal/constants"
	"github.com/civicspot/internal/domain"
	"github.com/civicspot/internal/validation"
)

var errAlreadyTaken = errors.New("already taken")

type ctxKey struct{}

// Server is the stand-in backend
type Server struct {
	users  *users
	tokens *tokens
	logger *slog.Logger
	router chi.Router
}

// New returns a backend with the admin account from cfg seeded when both
// admin email and password are set.
func New(cfg config.FakeAPIConfig, logger *slog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, domain.WrapRequiredField("jwt secret")
	}
	if cfg.TokenTTL <= 0 {
		return nil, domain.WrapValidationError("token ttl", fmt.Errorf("must be positive, got %s", cfg.TokenTTL))
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		users:  newUsers(),
		tokens: newTokens(cfg.JWTSecret, cfg.TokenTTL),
		logger: logger,
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := s.users.create("Administrator", cfg.AdminEmail, cfg.AdminPassword, true); err != nil {
			return nil, fmt.Errorf("failed to seed admin account: %w", err)
		}
		logger.Info("seeded admin account", "email", normalizeEmail(cfg.AdminEmail))
	}

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get(apipaths.Health, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post(apipaths.AuthRegister, s.register)
	r.Post(apipaths.AuthLogin, s.login)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get(apipaths.AuthProfile, s.profile)
		r.Put(apipaths.AuthProfile, s.updateProfile)

		r.Get(apipaths.Notifications, s.listNotifications)
		r.Get(apipaths.UnreadCount, s.unreadCount)
		r.Patch(apipaths.NotificationRead("{id}"), s.markRead)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get(apipaths.AdminStats, s.adminStats)
			r.Post(apipaths.AdminCreateNotification, s.createNotification)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	})
	return r
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Notify queues a notification for the user with the given id
func (s *Server) Notify(userID, message string) bool {
	return s.users.notify(userID, message) == 1
}

// ============================================================================
// Auth
// ============================================================================

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string  `json:"token"`
	User  account `json:"user"`
}

type userResponse struct {
	User account `json:"user"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	for _, err := range []error{
		validation.ValidateDisplayName(req.Name),
		validation.ValidateEmail(req.Email),
		validation.ValidatePassword(req.Password),
	} {
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	a, err := s.users.create(req.Name, req.Email, req.Password, false)
	if errors.Is(err, domain.ErrUserAlreadyExists) {
		writeMessage(w, http.StatusBadRequest, "User already exists")
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to create user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	s.respondWithToken(w, r, http.StatusCreated, a)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	a, err := s.users.authenticate(req.Email, req.Password)
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case errors.Is(err, domain.ErrUnauthorized):
		writeMessage(w, http.StatusForbidden, "Account is deactivated")
		return
	case err != nil:
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	s.respondWithToken(w, r, http.StatusOK, a)
}

func (s *Server) respondWithToken(w http.ResponseWriter, r *http.Request, status int, a account) {
	tok, err := s.tokens.issue(a)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to issue token", "userID", a.ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, status, authResponse{Token: tok, User: a})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userResponse{User: currentAccount(r)})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxProfileUploadBytes)
	if err := r.ParseMultipartForm(constants.MaxProfileUploadBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	name := r.FormValue("name")
	username := strings.TrimPrefix(r.FormValue("username"), "@")
	if err := validation.ValidateDisplayName(name); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateUsername(username); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	var picture string
	file, header, err := r.FormFile("profilePicture")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		writeMessage(w, http.StatusBadRequest, "Invalid profile picture")
		return
	default:
		defer file.Close()
		if err := validation.ValidateProfilePicture(header.Filename, header.Size); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		// Pictures are not kept; only the URL a real upload would get.
		if _, err := io.Copy(io.Discard, file); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid profile picture")
			return
		}
		picture = "/uploads/" + uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
	}

	a, err := s.users.update(currentAccount(r).ID, name, username, picture)
	if err != nil {
		if domain.IsValidationError(err) {
			writeMessage(w, http.StatusBadRequest, "Username already taken")
			return
		}
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: a})
}

// ============================================================================
// Notifications and admin
// ============================================================================

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.users.listNotifications(currentAccount(r).ID))
}

func (s *Server) unreadCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": s.users.unread(currentAccount(r).ID)})
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	if !s.users.markRead(currentAccount(r).ID, chi.URLParam(r, "id")) {
		writeMessage(w, http.StatusNotFound, "Notification not found")
		return
	}
	writeMessage(w, http.StatusOK, "Notification marked as read")
}

func (s *Server) adminStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.users.stats())
}

type createNotificationRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

func (s *Server) createNotification(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeMessage(w, http.StatusBadRequest, "Message is required")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"created": s.users.notify(req.UserID, req.Message)})
}

// ============================================================================
// Middleware and helpers
// ============================================================================

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		userID, err := s.tokens.verify(raw)
		if err != nil {
			s.logger.DebugContext(r.Context(), "rejected bearer token", "error", err)
			writeMessage(w, http.StatusUnauthorized, "Token is not valid")
			return
		}

		a, found := s.users.get(userID)
		if !found || !a.IsActive {
			writeMessage(w, http.StatusUnauthorized, "Token is not valid")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, a)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !currentAccount(r).IsAdmin {
			writeMessage(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.DebugContext(r.Context(), "fakeapi request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
		)
	})
}

func currentAccount(r *http.Request) account {
	a, _ := r.Context().Value(ctxKey{}).(account)
	return a
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request format")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
