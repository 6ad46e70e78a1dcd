// Package session owns who is logged in and the bearer credential attached
// to outgoing API requests.
//
// The Manager is the only writer of the session record and of the persisted
// credential. It holds a single subscription to the identity provider for
// its whole lifetime; every provider-pushed change goes through one
// internal handler, which rewrites storage and the in-memory record and
// then emits a Transition to subscribers.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/evcraddock/homenest/internal/identity"
)

// Storage keys for persisted credentials.
const (
	TokenKey        = "userToken"
	RefreshTokenKey = "refreshToken"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusUnknown        Status = "unknown"
	StatusAuthenticating Status = "authenticating"
	StatusAuthenticated  Status = "authenticated"
	StatusAnonymous      Status = "anonymous"
)

// ErrNotAuthenticated is returned by operations that require a session.
var ErrNotAuthenticated = errors.New("not logged in")

// ProviderError is an identity provider rejection.
type ProviderError = identity.Error

// Identity is the signed-in user as seen by the rest of the application.
type Identity struct {
	Email       string         `json:"email"`
	DisplayName string         `json:"displayName"`
	PhotoURL    string         `json:"photoURL"`
	Provider    *identity.User `json:"-"`
}

// Name returns the display name, or "Anonymous" when unset.
func (id *Identity) Name() string {
	if id == nil || id.DisplayName == "" {
		return "Anonymous"
	}
	return id.DisplayName
}

// Session is a snapshot of the session record.
// Credential is non-empty if and only if Status is StatusAuthenticated.
type Session struct {
	Identity   *Identity `json:"identity,omitempty"`
	Credential string    `json:"-"`
	Status     Status    `json:"status"`
}

// Transition is emitted to subscribers after every state change.
type Transition struct {
	From    Status
	To      Status
	Session Session
}

// Provider is the identity provider collaborator.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*identity.User, error)
	SignIn(ctx context.Context, email, password string) (*identity.User, error)
	UpdateProfile(ctx context.Context, displayName, photoURL string) (*identity.User, error)
	Restore(ctx context.Context, refreshToken string) (*identity.User, error)
	IDToken(ctx context.Context, forceRefresh bool) (string, error)
	SignOut()
	OnAuthStateChanged(fn identity.Listener) func()
}

// FederatedFlow runs an interactive provider consent, for example a
// Google sign-in through the browser.
type FederatedFlow interface {
	SignIn(ctx context.Context) (*identity.User, error)
}

// Storage is durable local storage for the credential entries.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// Manager is the single source of truth for the current session.
type Manager struct {
	provider  Provider
	federated FederatedFlow
	store     Storage

	mu      sync.Mutex
	current Session
	subs    map[int]chan Transition
	nextSub int

	unsubscribe func()
}

// Option configures a Manager.
type Option func(*Manager)

// WithFederatedFlow sets the flow used by LoginWithFederatedProvider.
func WithFederatedFlow(f FederatedFlow) Option {
	return func(m *Manager) { m.federated = f }
}

// NewManager creates a manager in the unknown state and subscribes it to
// provider auth-state changes.
func NewManager(p Provider, store Storage, opts ...Option) *Manager {
	m := &Manager{
		provider: p,
		store:    store,
		current:  Session{Status: StatusUnknown},
		subs:     make(map[int]chan Transition),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.unsubscribe = p.OnAuthStateChanged(m.handleAuthStateChanged)
	return m
}

// Close drops the provider subscription and closes subscriber channels.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.subs {
		close(ch)
		delete(m.subs, id)
	}
}

// Current returns a snapshot of the session.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Credential returns the bearer credential, or "" when not authenticated.
func (m *Manager) Credential() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Credential
}

// Identity returns the signed-in identity, or nil.
func (m *Manager) Identity() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Identity
}

// Subscribe returns a channel of transitions and a cancel function.
// Slow subscribers miss transitions rather than block the manager.
func (m *Manager) Subscribe() (<-chan Transition, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan Transition, 8)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.subs[id]; ok {
			close(c)
			delete(m.subs, id)
		}
	}
}

// Resolve moves the session out of the unknown state by rehydrating the
// provider session from the persisted refresh token.
//
// An unreachable provider leaves the persisted credentials in place so a
// later run can restore them; only a rejected token clears storage.
func (m *Manager) Resolve(ctx context.Context) Session {
	refresh, err := m.store.Get(RefreshTokenKey)
	if err != nil || refresh == "" {
		m.handleAuthStateChanged(nil)
		return m.Current()
	}

	if _, err := m.provider.Restore(ctx, refresh); err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) && perr.Code == identity.CodeNetwork {
			slog.Warn("could not reach identity provider; continuing signed out", "err", err)
			if m.Current().Status == StatusUnknown {
				m.transition(func(s *Session) { *s = Session{Status: StatusAnonymous} })
			}
			return m.Current()
		}

		slog.Debug("restoring session", "err", err)
		// A rejected restore yields no provider transition when the
		// provider was already signed out, so apply the loss here.
		if m.Current().Status == StatusUnknown {
			m.handleAuthStateChanged(nil)
		}
	}
	return m.Current()
}

// Refresh renews the credential through the provider. The new token
// arrives through the auth-state handler like any other change. Unless
// force is set the provider only contacts the server once the token has
// expired.
func (m *Manager) Refresh(ctx context.Context, force bool) error {
	if m.Current().Status != StatusAuthenticated {
		return ErrNotAuthenticated
	}
	if _, err := m.provider.IDToken(ctx, force); err != nil {
		return fmt.Errorf("renewing credential: %w", err)
	}
	return nil
}

// CredentialContext returns the bearer credential, renewing it first when
// it has expired. A failed renewal is logged and the held credential is
// returned; a rejected one has already signed the session out.
func (m *Manager) CredentialContext(ctx context.Context) string {
	if m.Current().Status == StatusAuthenticated {
		if err := m.Refresh(ctx, false); err != nil {
			slog.Warn("could not renew credential", "err", err)
		}
	}
	return m.Credential()
}

// Register creates an account, sets optional profile fields and signs in.
// Callers validate the password policy first.
func (m *Manager) Register(ctx context.Context, email, password, displayName, photoURL string) (*Identity, error) {
	prev := m.begin()

	if _, err := m.provider.SignUp(ctx, email, password); err != nil {
		m.abort(prev)
		return nil, err
	}
	if displayName != "" || photoURL != "" {
		if _, err := m.provider.UpdateProfile(ctx, displayName, photoURL); err != nil {
			// The account exists and is signed in; the profile can be
			// set later.
			slog.Warn("setting profile after sign-up", "err", err)
		}
	}
	return m.signedIn()
}

// Login signs in with email and password.
func (m *Manager) Login(ctx context.Context, email, password string) (*Identity, error) {
	prev := m.begin()

	if _, err := m.provider.SignIn(ctx, email, password); err != nil {
		m.abort(prev)
		return nil, err
	}
	return m.signedIn()
}

// LoginWithFederatedProvider runs the interactive federated consent.
func (m *Manager) LoginWithFederatedProvider(ctx context.Context) (*Identity, error) {
	if m.federated == nil {
		return nil, &ProviderError{Code: identity.CodeNotAllowed, Message: "federated sign-in is not configured"}
	}
	prev := m.begin()

	if _, err := m.federated.SignIn(ctx); err != nil {
		m.abort(prev)
		return nil, err
	}
	return m.signedIn()
}

// LogOut ends the session locally. It never fails; storage errors are
// logged.
func (m *Manager) LogOut(ctx context.Context) {
	m.provider.SignOut()
	// The provider only notifies on a change; make sure a session that was
	// never backed by a provider user is cleared too.
	if m.Current().Status != StatusAnonymous {
		m.handleAuthStateChanged(nil)
	}
}

// begin marks an in-flight login and returns the record to restore on
// failure. The credential is withheld while authenticating.
func (m *Manager) begin() Session {
	var prev Session
	m.transition(func(s *Session) {
		prev = *s
		*s = Session{Status: StatusAuthenticating}
	})
	return prev
}

// abort restores the last stable record after a failed login.
func (m *Manager) abort(prev Session) {
	if prev.Status == StatusAuthenticating || prev.Status == StatusUnknown {
		prev = Session{Status: StatusAnonymous}
	}
	m.mu.Lock()
	still := m.current.Status == StatusAuthenticating
	m.mu.Unlock()
	if still {
		m.transition(func(s *Session) { *s = prev })
	}
}

func (m *Manager) signedIn() (*Identity, error) {
	s := m.Current()
	if s.Status != StatusAuthenticated || s.Identity == nil {
		return nil, fmt.Errorf("sign-in completed without a session: %w", ErrNotAuthenticated)
	}
	return s.Identity, nil
}

// handleAuthStateChanged is the single handler for provider-pushed
// changes. It re-derives the credential, rewrites storage and replaces the
// session record.
func (m *Manager) handleAuthStateChanged(u *identity.User) {
	if u == nil || u.IDToken == "" {
		m.clearStorage()
		m.transition(func(s *Session) {
			*s = Session{Status: StatusAnonymous}
		})
		return
	}

	if err := m.store.Set(TokenKey, u.IDToken); err != nil {
		slog.Error("persisting credential", "err", err)
	}
	if u.RefreshToken != "" {
		if err := m.store.Set(RefreshTokenKey, u.RefreshToken); err != nil {
			slog.Error("persisting refresh token", "err", err)
		}
	}

	id := &Identity{
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		Provider:    u,
	}
	m.transition(func(s *Session) {
		*s = Session{Identity: id, Credential: u.IDToken, Status: StatusAuthenticated}
	})
}

func (m *Manager) clearStorage() {
	for _, key := range []string{TokenKey, RefreshTokenKey} {
		if err := m.store.Remove(key); err != nil {
			slog.Error("removing persisted credential", "key", key, "err", err)
		}
	}
}

// transition applies fn to the record and notifies subscribers. Sends
// never block, so they happen under the lock.
func (m *Manager) transition(fn func(s *Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.current.Status
	fn(&m.current)
	t := Transition{From: from, To: m.current.Status, Session: m.current}

	slog.Debug("session transition", "from", t.From, "to", t.To)
	for _, ch := range m.subs {
		select {
		case ch <- t:
		default:
			slog.Warn("dropping session transition for slow subscriber", "to", t.To)
		}
	}
}
