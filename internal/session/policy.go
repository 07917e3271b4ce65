package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/shared"
)

// RefreshMargin is how long before expiry a token stops being handed out.
const RefreshMargin = 60 * time.Second

// Refresher exchanges a refresh token for a new token. services.SpotifyService implements it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (models.TokenRecord, error)
}

// Policy hands out valid tokens for a session, refreshing them through a [Refresher] when needed.
type Policy struct {
	store     Store
	refresher Refresher
	logger    *log.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sem  chan struct{}
	refs int
}

// PolicyOpts overrides the defaults of [NewPolicy].
type PolicyOpts struct {
	Logger *log.Logger
	Now    func() time.Time
}

func NewPolicy(store Store, refresher Refresher, opts *PolicyOpts) *Policy {
	if opts == nil {
		opts = &PolicyOpts{}
	}

	p := &Policy{
		store:     store,
		refresher: refresher,
		logger:    opts.Logger,
		now:       opts.Now,
		locks:     make(map[string]*sessionLock),
	}
	if p.logger == nil {
		p.logger = shared.NewLogger(nil)
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// NeedsRefresh reports whether rec expires in less than [RefreshMargin] at now.
// A token with exactly the margin left is still valid.
func NeedsRefresh(rec models.TokenRecord, now time.Time) bool {
	return rec.ExpiresIn(now) < int64(RefreshMargin/time.Second)
}

// Token returns a token for sessionID that is valid for at least [RefreshMargin].
//
// It fails with [shared.ErrTokenMissing] when the session has no token and with [shared.ErrRefreshFailed]
// when the exchange fails.
func (p *Policy) Token(ctx context.Context, sessionID string) (models.TokenRecord, error) {
	rec, err := p.store.Get(ctx, sessionID)
	if err != nil {
		return models.TokenRecord{}, err
	}
	if !NeedsRefresh(rec, p.now()) {
		return rec, nil
	}

	unlock, err := p.lock(ctx, sessionID)
	if err != nil {
		return models.TokenRecord{}, err
	}
	defer unlock()

	// Another request may have refreshed while we waited.
	rec, err = p.store.Get(ctx, sessionID)
	if err != nil {
		return models.TokenRecord{}, err
	}
	if !NeedsRefresh(rec, p.now()) {
		return rec, nil
	}

	return p.refresh(ctx, sessionID, rec)
}

func (p *Policy) refresh(ctx context.Context, sessionID string, old models.TokenRecord) (models.TokenRecord, error) {
	logger := shared.WithLogger(p.logger, "session", sessionID)

	fresh, err := p.refresher.Refresh(ctx, old.RefreshToken)
	if err != nil {
		logger.Warn("token refresh failed", "reason", err)
		return models.TokenRecord{}, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if fresh.RefreshToken == "" {
		fresh.RefreshToken = old.RefreshToken
	}
	if len(fresh.Scopes) == 0 {
		fresh.Scopes = old.Scopes
	}

	if err := p.store.Put(ctx, sessionID, fresh); err != nil {
		return models.TokenRecord{}, fmt.Errorf("%w: failed to store token: %v", shared.ErrRefreshFailed, err)
	}

	logger.Debug("token refreshed", "expires_at", time.Unix(fresh.ExpiresAt, 0).Format(time.RFC3339))
	return fresh, nil
}

// Store saves a freshly exchanged token for sessionID.
func (p *Policy) Store(ctx context.Context, sessionID string, rec models.TokenRecord) error {
	return p.store.Put(ctx, sessionID, rec)
}

// Clear removes the token of sessionID.
func (p *Policy) Clear(ctx context.Context, sessionID string) error {
	return p.store.Delete(ctx, sessionID)
}

// IsReauth reports whether err means the user has to log in again.
func IsReauth(err error) bool {
	return errors.Is(err, shared.ErrTokenMissing) || errors.Is(err, shared.ErrRefreshFailed)
}

// lock acquires the refresh lock of sessionID, giving up when ctx is done.
func (p *Policy) lock(ctx context.Context, sessionID string) (func(), error) {
	p.mu.Lock()
	l, ok := p.locks[sessionID]
	if !ok {
		l = &sessionLock{sem: make(chan struct{}, 1)}
		p.locks[sessionID] = l
	}
	l.refs++
	p.mu.Unlock()

	release := func() {
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, sessionID)
		}
		p.mu.Unlock()
	}

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			release()
		}, nil
	case <-ctx.Done():
		release()
		return nil, ctx.Err()
	}
}
