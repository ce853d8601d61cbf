package session

import "github.com/civicspot/internal/domain"

// Status is the controller state derived from a State snapshot
type Status string

const (
	StatusInitializing  Status = "INITIALIZING"
	StatusAuthenticated Status = "AUTHENTICATED"
	StatusAnonymous     Status = "ANONYMOUS"
)

// State is an immutable snapshot of the session.
type State struct {
	User    *domain.User `json:"user"`
	Loading bool         `json:"loading"`
}

// Status reports the controller state of s. Loading wins over identity:
// a login that resolves during hydration is still INITIALIZING.
func (s State) Status() Status {
	switch {
	case s.Loading:
		return StatusInitializing
	case s.User != nil:
		return StatusAuthenticated
	default:
		return StatusAnonymous
	}
}

// Authenticated reports whether an identity is resolved.
func (s State) Authenticated() bool {
	return s.User != nil
}

// Role returns the navigation role of the current identity.
func (s State) Role() domain.Role {
	return s.User.Role()
}
