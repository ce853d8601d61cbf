// Package guard gates protected views on the session state.
package guard

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/civicspot/internal/constants"
	"github.com/civicspot/internal/session"
)

// Outcome is the result of a guard decision
type Outcome string

const (
	Allow              Outcome = "allow"
	Loading            Outcome = "loading"
	RedirectLogin      Outcome = "redirect_login"
	RedirectAdminLogin Outcome = "redirect_admin_login"
)

// Routes are the redirect destinations. They must differ.
type Routes struct {
	Login      string
	AdminLogin string
}

// DefaultRoutes returns /login and /admin/login
func DefaultRoutes() Routes {
	return Routes{Login: constants.RouteLogin, AdminLogin: constants.RouteAdminLogin}
}

// Decision is what to do with a request for a guarded view.
// Location is set for the redirect outcomes only.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Decide applies the guard rules to a session snapshot.
func Decide(st session.State, requireAdmin bool, routes Routes) Decision {
	switch {
	case st.Loading:
		return Decision{Outcome: Loading}
	case st.User == nil:
		return Decision{Outcome: RedirectLogin, Location: routes.Login}
	case requireAdmin && !st.User.IsAdmin:
		return Decision{Outcome: RedirectAdminLogin, Location: routes.AdminLogin}
	default:
		return Decision{Outcome: Allow}
	}
}

// StateSource provides session snapshots; *session.Controller satisfies it.
type StateSource interface {
	State() session.State
}

// Option configures a Guard
type Option func(*Guard)

// WithObserver sets a hook called with every decision
func WithObserver(o func(Decision)) Option {
	return func(g *Guard) {
		g.observe = o
	}
}

// Guard evaluates Decide against a live session.
type Guard struct {
	src     StateSource
	routes  Routes
	observe func(Decision)
}

// New returns a guard reading from src. It panics when src is nil: a guard
// without a session cannot make any decision.
func New(src StateSource, routes Routes, opts ...Option) *Guard {
	if src == nil {
		panic("guard: nil session state source")
	}
	g := &Guard{src: src, routes: routes}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check decides for the current session state.
func (g *Guard) Check(requireAdmin bool) Decision {
	d := Decide(g.src.State(), requireAdmin, g.routes)
	if g.observe != nil {
		g.observe(d)
	}
	return d
}

// Gin returns gin middleware guarding the routes it is attached to.
func (g *Guard) Gin(requireAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := g.Check(requireAdmin)
		switch d.Outcome {
		case Allow:
			c.Next()
		case Loading:
			setLoadingHeaders(c.Writer.Header())
			c.AbortWithStatusJSON(http.StatusOK, loadingBody)
		default:
			c.Redirect(http.StatusFound, d.Location)
			c.Abort()
		}
	}
}

// Middleware is the net/http form of Gin, usable with chi or http.ServeMux.
func (g *Guard) Middleware(requireAdmin bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Check(requireAdmin)
			switch d.Outcome {
			case Allow:
				next.ServeHTTP(w, r)
			case Loading:
				setLoadingHeaders(w.Header())
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusOK)
				_ = json.NewEncoder(w).Encode(loadingBody)
			default:
				http.Redirect(w, r, d.Location, http.StatusFound)
			}
		})
	}
}

var loadingBody = map[string]string{"status": "loading"}

// setLoadingHeaders keeps the placeholder out of caches and asks the
// browser to retry once hydration has had a moment to finish.
func setLoadingHeaders(h http.Header) {
	h.Set("Cache-Control", "no-store")
	h.Set("Refresh", strconv.Itoa(constants.LoadingRefreshSeconds))
}
