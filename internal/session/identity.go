package session

import (
	"context"
	"sync"

	"github.com/2beens/rebuildweb/internal/backend"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=session_test

type userFetcher interface {
	CurrentUser(ctx context.Context, session backend.Session) (*backend.User, error)
}

// Identity is the per-request view of who the visitor is. A nil User means anonymous.
type Identity struct {
	fetcher userFetcher

	mu      sync.RWMutex
	user    *backend.User
	session backend.Session
}

func NewIdentity(fetcher userFetcher, session backend.Session) *Identity {
	return &Identity{
		fetcher: fetcher,
		session: session,
	}
}

// Anonymous returns an identity without a user or session.
func Anonymous() *Identity {
	return &Identity{}
}

func (i *Identity) User() *backend.User {
	if i == nil {
		return nil
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.user
}

func (i *Identity) Session() backend.Session {
	if i == nil {
		return backend.Session{}
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.session
}

func (i *Identity) LoggedIn() bool {
	return i.User() != nil
}

// Refresh asks the backend who owns the session, on every page load and again after a
// mutation. The snapshot is replaced wholesale, never merged; on failure the identity
// becomes anonymous and the error is returned for logging.
func (i *Identity) Refresh(ctx context.Context) error {
	if i.fetcher == nil {
		return nil
	}

	session := i.Session()
	user, err := i.fetcher.CurrentUser(ctx, session)

	i.mu.Lock()
	defer i.mu.Unlock()
	if err != nil {
		i.user = nil
		return err
	}
	i.user = user
	return nil
}

// SetSession replaces the session, e.g. right after a login, and drops the user snapshot.
func (i *Identity) SetSession(session backend.Session) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.session = session
	i.user = nil
}

type identityKey struct{}

func NewContext(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// FromContext returns the request identity, or an anonymous one if none was set.
func FromContext(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(identityKey{}).(*Identity); ok && identity != nil {
		return identity
	}
	return Anonymous()
}
