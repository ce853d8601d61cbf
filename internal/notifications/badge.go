// Package notifications keeps the unread notification count shown in the nav.
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/civicspot/internal/domain"
	"github.com/civicspot/internal/logger"
	"github.com/civicspot/internal/session"
)

// Source is the backend side of the badge
type Source interface {
	UnreadNotificationCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// SessionFeed is the part of the session controller the badge follows
type SessionFeed interface {
	Subscribe() (<-chan session.State, func())
}

// Option configures a Badge
type Option func(*Badge)

// WithLogger sets the badge logger
func WithLogger(l *slog.Logger) Option {
	return func(b *Badge) {
		b.logger = l
	}
}

// WithSchedule sets the cron spec of the periodic refresh. Empty disables it.
func WithSchedule(spec string) Option {
	return func(b *Badge) {
		b.schedule = spec
	}
}

// Badge tracks the unread count of the signed-in regular user. Admins and
// anonymous sessions always read 0.
type Badge struct {
	src      Source
	feed     SessionFeed
	logger   *slog.Logger
	schedule string

	mu     sync.RWMutex
	count  int
	userID string

	cron   *cron.Cron
	cancel func()
	done   chan struct{}
}

// NewBadge returns a stopped badge; call Start to follow the session.
func NewBadge(src Source, feed SessionFeed, opts ...Option) (*Badge, error) {
	if src == nil {
		return nil, domain.WrapMissingDependency("notification source")
	}
	if feed == nil {
		return nil, domain.WrapMissingDependency("session feed")
	}

	b := &Badge{src: src, feed: feed, logger: logger.Discard()}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Start follows session changes and runs the refresh schedule until ctx is
// done or Stop is called.
func (b *Badge) Start(ctx context.Context) error {
	if b.schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(b.schedule, func() { b.Refresh(ctx) }); err != nil {
			return fmt.Errorf("invalid notifications schedule %q: %w", b.schedule, err)
		}
		b.cron = c
		c.Start()
	}

	updates, cancel := b.feed.Subscribe()
	b.cancel = cancel
	b.done = make(chan struct{})

	go func() {
		defer close(b.done)
		for {
			select {
			case st, ok := <-updates:
				if !ok {
					return
				}
				b.follow(ctx, st)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop ends the schedule and the session subscription.
func (b *Badge) Stop() {
	if b.cron != nil {
		<-b.cron.Stop().Done()
	}
	if b.cancel != nil {
		b.cancel()
		<-b.done
	}
}

func (b *Badge) follow(ctx context.Context, st session.State) {
	eligible := st.User != nil && !st.User.IsAdmin

	b.mu.Lock()
	if !eligible {
		b.userID = ""
		b.count = 0
		b.mu.Unlock()
		return
	}
	changed := b.userID != st.User.ID
	b.userID = st.User.ID
	if changed {
		b.count = 0
	}
	b.mu.Unlock()

	if changed {
		b.Refresh(ctx)
	}
}

// Refresh fetches the count. Failures are logged and keep the last value.
func (b *Badge) Refresh(ctx context.Context) {
	b.mu.RLock()
	userID := b.userID
	b.mu.RUnlock()
	if userID == "" {
		return
	}

	n, err := b.src.UnreadNotificationCount(ctx)
	if err != nil {
		b.logger.Warn("failed to fetch unread notification count", "error", err)
		return
	}

	b.mu.Lock()
	// Drop results for an identity that signed out meanwhile.
	if b.userID == userID {
		b.count = n
	}
	b.mu.Unlock()
}

// MarkRead marks a notification as read and decrements the count.
func (b *Badge) MarkRead(ctx context.Context, id string) error {
	if err := b.src.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	b.mu.Lock()
	if b.count > 0 {
		b.count--
	}
	b.mu.Unlock()
	return nil
}

// Count returns the current unread count
func (b *Badge) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}
