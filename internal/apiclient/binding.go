package apiclient

import (
	"net/http"
	"sync"

	"github.com/civicspot/internal/domain"
)

// Binding holds the credential attached to every request issued through
// its Transport. The zero value has no credential.
type Binding struct {
	mu    sync.RWMutex
	token string
}

// NewBinding returns a binding with no credential.
func NewBinding() *Binding {
	return &Binding{}
}

// SetCredential binds token. An empty token clears the binding.
func (b *Binding) SetCredential(token string) {
	b.mu.Lock()
	b.token = token
	b.mu.Unlock()
}

// ClearCredential removes the bound credential.
func (b *Binding) ClearCredential() {
	b.SetCredential("")
}

// Credential returns the bound token, if any.
func (b *Binding) Credential() (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.token, b.token != ""
}

// Transport wraps next so that each request carries the credential bound
// at the time it is sent. A nil next uses http.DefaultTransport.
func (b *Binding) Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &bearerTransport{binding: b, next: next}
}

// ScopedTransport is Transport restricted to origin: requests to any other
// origin, such as a cross-host redirect, go out without the credential.
func (b *Binding) ScopedTransport(origin domain.Origin, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &bearerTransport{binding: b, next: next, origin: origin.String()}
}

type bearerTransport struct {
	binding *Binding
	next    http.RoundTripper
	origin  string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request
	out := req.Clone(req.Context())
	if token, ok := t.binding.Credential(); ok && t.allowed(req) {
		out.Header.Set("Authorization", "Bearer "+token)
	} else {
		out.Header.Del("Authorization")
	}
	return t.next.RoundTrip(out)
}

// allowed reports whether req targets the origin the credential belongs to.
func (t *bearerTransport) allowed(req *http.Request) bool {
	if t.origin == "" {
		return true
	}
	o, err := domain.NewOrigin(req.URL.Scheme + "://" + req.URL.Host)
	return err == nil && o.String() == t.origin
}
