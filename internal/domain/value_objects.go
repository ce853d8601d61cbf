package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// ============================================================================
// Value Objects
// ============================================================================

// Role is the navigation role derived from the current identity
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
)

// String returns the string value of the role
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleAnonymous, RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// ============================================================================

// Origin identifies the backend a credential belongs to: scheme://host[:port].
type Origin struct {
	value string
}

// NewOrigin derives the origin of a base URL. Paths, queries and default
// ports are dropped so that equivalent URLs share one credential.
func NewOrigin(rawURL string) (Origin, error) {
	if rawURL == "" {
		return Origin{}, WrapRequiredField("base URL")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Origin{}, WrapValidationError("base URL", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return Origin{}, WrapValidationError("base URL", fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return Origin{}, WrapValidationError("base URL", fmt.Errorf("missing host"))
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host = host + ":" + port
	}

	return Origin{value: scheme + "://" + host}, nil
}

// String returns the string value of the origin
func (o Origin) String() string {
	return o.value
}

// IsZero reports whether o was never set
func (o Origin) IsZero() bool {
	return o.value == ""
}
