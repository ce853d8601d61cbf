package domain

import "context"

// ============================================================================
// Secondary Ports (Infrastructure)
// ============================================================================

// TokenStore persists the single bearer credential of one origin.
// Load reports ok=false when no token is stored. Clear is idempotent.
type TokenStore interface {
	Save(token string) error
	Load() (token string, ok bool, err error)
	Clear() error
}

// CredentialBinder attaches the current credential to outgoing requests.
type CredentialBinder interface {
	SetCredential(token string)
	ClearCredential()
}

// AuthAPI is the subset of the backend the session depends on.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (AuthResult, error)
	Register(ctx context.Context, name, email, password string) (AuthResult, error)
	FetchProfile(ctx context.Context) (*User, error)
	UpdateProfile(ctx context.Context, upd ProfileUpdate) (*User, error)
}
