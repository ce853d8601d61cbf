// Package session owns the client identity and credential lifecycle.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/civicspot/internal/constants"
	"github.com/civicspot/internal/domain"
	"github.com/civicspot/internal/logger"
)

const tracerName = "github.com/civicspot/internal/session"

// Controller is the only writer of the identity and the credential.
// Construct one per client profile with New and share it by reference.
type Controller struct {
	store  domain.TokenStore
	binder domain.CredentialBinder
	api    domain.AuthAPI

	logger         *slog.Logger
	tracer         trace.Tracer
	hydrateTimeout time.Duration
	singleFlight   bool
	observer       Observer

	hydrateOnce sync.Once
	ready       chan struct{}
	inFlight    atomic.Bool

	mu      sync.RWMutex
	user    *domain.User
	loading bool
	token   string
	// gen increments on every credential write; profile results fetched
	// under an older generation are not applied.
	gen     uint64
	subs    map[int]chan State
	nextSub int
}

// New returns a controller in the INITIALIZING state.
func New(store domain.TokenStore, binder domain.CredentialBinder, api domain.AuthAPI, opts ...Option) (*Controller, error) {
	if store == nil {
		return nil, domain.WrapMissingDependency("token store")
	}
	if binder == nil {
		return nil, domain.WrapMissingDependency("credential binder")
	}
	if api == nil {
		return nil, domain.WrapMissingDependency("auth api")
	}

	c := &Controller{
		store:   store,
		binder:  binder,
		api:     api,
		logger:  logger.Discard(),
		tracer:  otel.Tracer(tracerName),
		ready:   make(chan struct{}),
		loading: true,
		subs:    make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ============================================================================
// Reads
// ============================================================================

// State returns a snapshot of the session
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// User returns a copy of the current identity, or nil
func (c *Controller) User() *domain.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user.Clone()
}

// Loading reports whether startup hydration is still pending
func (c *Controller) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Ready is closed once hydration has finished
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// Subscribe returns a channel that receives the latest snapshot after every
// change. Slow readers only see the most recent one. Call cancel to stop.
func (c *Controller) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			close(ch)
			c.mu.Unlock()
		})
	}
	return ch, cancel
}

// ============================================================================
// Hydration
// ============================================================================

// Hydrate resolves the identity of a stored credential. It runs at most once;
// later calls return immediately. Failures are logged and leave the session
// anonymous with the credential cleared.
func (c *Controller) Hydrate(ctx context.Context) {
	c.hydrateOnce.Do(func() {
		c.hydrate(ctx)
	})
}

func (c *Controller) hydrate(ctx context.Context) {
	ctx, span := c.tracer.Start(ctx, "session.Hydrate")
	defer span.End()

	token, ok, err := c.store.Load()
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("failed to read stored credential", "error", err)
		c.finishHydration(constants.EventHydrateFailed)
		return
	}
	if !ok {
		c.finishHydration(constants.EventHydrateAnonymous)
		return
	}

	c.mu.Lock()
	gen := c.bindLocked(token)
	c.mu.Unlock()

	fetchCtx := ctx
	if c.hydrateTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, c.hydrateTimeout)
		defer cancel()
	}

	user, err := c.api.FetchProfile(fetchCtx)

	c.mu.Lock()
	event := constants.EventHydrateSuccess
	switch {
	case gen != c.gen:
		// A login or logout replaced the credential while we waited.
		event = constants.EventHydrateAnonymous
		if c.user != nil {
			event = constants.EventHydrateSuccess
		}
	case err != nil:
		event = constants.EventHydrateFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile fetch failed")
		c.logger.Warn("stored credential rejected, continuing anonymously", "error", err)
		c.clearCredentialLocked()
	default:
		c.user = user.Clone()
	}
	st := c.resolveLoadingLocked()
	c.mu.Unlock()

	c.emit(event, st)
}

func (c *Controller) finishHydration(event string) {
	c.mu.Lock()
	st := c.resolveLoadingLocked()
	c.mu.Unlock()
	c.emit(event, st)
}

// resolveLoadingLocked flips loading to false exactly once.
func (c *Controller) resolveLoadingLocked() State {
	if c.loading {
		c.loading = false
		close(c.ready)
	}
	return c.publishLocked()
}

// ============================================================================
// Mutations
// ============================================================================

// Login authenticates, persists and binds the returned token, then fetches
// the canonical profile with it. Backend failures are returned unchanged.
func (c *Controller) Login(ctx context.Context, email, password string) (*domain.User, error) {
	return c.authenticate(ctx, "session.Login", constants.EventLogin, constants.EventLoginFailed,
		func(ctx context.Context) (domain.AuthResult, error) {
			return c.api.Login(ctx, email, password)
		})
}

// Register creates an account and signs in with the same steps as Login.
func (c *Controller) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	return c.authenticate(ctx, "session.Register", constants.EventRegister, constants.EventRegisterFailed,
		func(ctx context.Context) (domain.AuthResult, error) {
			return c.api.Register(ctx, name, email, password)
		})
}

func (c *Controller) authenticate(
	ctx context.Context,
	spanName, okEvent, failEvent string,
	call func(context.Context) (domain.AuthResult, error),
) (*domain.User, error) {
	if c.singleFlight {
		if !c.inFlight.CompareAndSwap(false, true) {
			return nil, domain.ErrAuthInFlight
		}
		defer c.inFlight.Store(false)
	}

	ctx, span := c.tracer.Start(ctx, spanName)
	defer span.End()

	fail := func(stage string, err error) (*domain.User, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, stage)
		span.SetAttributes(attribute.String("session.stage", stage))
		c.emit(failEvent, c.State())
		return nil, err
	}

	res, err := call(ctx)
	if err != nil {
		return fail("authenticate", err)
	}

	// Persist, then bind, then fetch: the profile request depends on the binding.
	c.mu.Lock()
	prev, prevGen := c.token, c.gen
	if err := c.store.Save(res.Token); err != nil {
		c.mu.Unlock()
		return fail("persist", err)
	}
	gen := c.bindLocked(res.Token)
	c.mu.Unlock()

	user, err := c.api.FetchProfile(ctx)
	if err != nil {
		c.mu.Lock()
		if gen == c.gen {
			c.restoreCredentialLocked(prev, prevGen)
		}
		c.mu.Unlock()
		return fail("fetch profile", err)
	}

	c.mu.Lock()
	if gen == c.gen {
		c.user = user.Clone()
	}
	st := c.publishLocked()
	c.mu.Unlock()

	c.emit(okEvent, st)
	return user.Clone(), nil
}

// Logout clears the credential and the identity. It never fails; a store
// error is logged.
func (c *Controller) Logout() {
	c.mu.Lock()
	c.clearCredentialLocked()
	st := c.publishLocked()
	c.mu.Unlock()

	c.emit(constants.EventLogout, st)
}

// SetUser replaces the identity with a fresher server snapshot, leaving the
// credential untouched.
func (c *Controller) SetUser(u *domain.User) error {
	if u == nil {
		return domain.WrapRequiredField("user")
	}

	c.mu.Lock()
	if c.token == "" {
		c.mu.Unlock()
		return domain.ErrNotAuthenticated
	}
	c.user = u.Clone()
	st := c.publishLocked()
	c.mu.Unlock()

	c.emit(constants.EventProfileUpdated, st)
	return nil
}

// UpdateProfile saves the profile form and pushes the returned identity.
func (c *Controller) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (*domain.User, error) {
	ctx, span := c.tracer.Start(ctx, "session.UpdateProfile")
	defer span.End()

	c.mu.RLock()
	held := c.token != ""
	c.mu.RUnlock()
	if !held {
		return nil, domain.ErrNotAuthenticated
	}

	user, err := c.api.UpdateProfile(ctx, upd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update profile")
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := c.SetUser(user); err != nil {
		return nil, err
	}
	return user.Clone(), nil
}

// ============================================================================
// Helpers (caller holds c.mu)
// ============================================================================

func (c *Controller) bindLocked(token string) uint64 {
	c.token = token
	c.binder.SetCredential(token)
	c.gen++
	return c.gen
}

func (c *Controller) clearCredentialLocked() {
	if err := c.store.Clear(); err != nil {
		c.logger.Error("failed to clear stored credential", "error", err)
	}
	c.binder.ClearCredential()
	c.token = ""
	c.user = nil
	c.gen++
}

// restoreCredentialLocked puts back the credential held before a failed
// login, so a rejected profile fetch leaves the session as it was. The
// previous generation comes back with it: a profile fetch still in flight
// for that credential may apply its result.
func (c *Controller) restoreCredentialLocked(prev string, prevGen uint64) {
	if prev == "" {
		c.clearCredentialLocked()
		return
	}
	if err := c.store.Save(prev); err != nil {
		c.logger.Error("failed to restore stored credential", "error", err)
	}
	c.token = prev
	c.binder.SetCredential(prev)
	c.gen = prevGen
}

func (c *Controller) snapshotLocked() State {
	return State{User: c.user.Clone(), Loading: c.loading}
}

// publishLocked delivers the current snapshot to subscribers. Sends never
// block: a full buffer is drained and refilled with the newer snapshot.
func (c *Controller) publishLocked() State {
	st := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- st
		}
	}
	return st
}

func (c *Controller) emit(event string, st State) {
	c.logger.Debug("session event", "event", event, "status", st.Status())
	if c.observer != nil {
		c.observer(event, st)
	}
}
