package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/evcraddock/homenest/internal/identity"
	"github.com/evcraddock/homenest/internal/localstore"
)

// fakeProvider mimics the identity client: it notifies its listener on
// every change of the current user.
type fakeProvider struct {
	current  *identity.User
	listener identity.Listener
	subs     int

	signInErr  error
	signUpErr  error
	restoreErr error
	restored   string
	profile    [2]string

	// expired makes IDToken renew; renewErr makes renewal fail.
	expired  bool
	renewErr error
	renewals int
}

func (p *fakeProvider) set(u *identity.User) {
	if p.current == nil && u == nil {
		return
	}
	p.current = u
	if p.listener != nil {
		p.listener(u)
	}
}

func (p *fakeProvider) SignUp(ctx context.Context, email, password string) (*identity.User, error) {
	if p.signUpErr != nil {
		return nil, p.signUpErr
	}
	u := &identity.User{UID: "new", Email: email, IDToken: "tok-signup", RefreshToken: "r-signup"}
	p.set(u)
	return u, nil
}

func (p *fakeProvider) SignIn(ctx context.Context, email, password string) (*identity.User, error) {
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	u := &identity.User{UID: "u1", Email: email, DisplayName: "Ann", IDToken: "tok-" + email, RefreshToken: "r1"}
	p.set(u)
	return u, nil
}

func (p *fakeProvider) UpdateProfile(ctx context.Context, displayName, photoURL string) (*identity.User, error) {
	p.profile = [2]string{displayName, photoURL}
	u := *p.current
	u.DisplayName = displayName
	u.PhotoURL = photoURL
	u.IDToken = "tok-profile"
	p.set(&u)
	return &u, nil
}

func (p *fakeProvider) Restore(ctx context.Context, refreshToken string) (*identity.User, error) {
	p.restored = refreshToken
	if p.restoreErr != nil {
		p.set(nil)
		return nil, p.restoreErr
	}
	u := &identity.User{UID: "u1", Email: "a@example.com", IDToken: "tok-restored", RefreshToken: "r2"}
	p.set(u)
	return u, nil
}

func (p *fakeProvider) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	if p.current == nil {
		return "", &ProviderError{Code: identity.CodeNoCurrentUser}
	}
	if !forceRefresh && !p.expired {
		return p.current.IDToken, nil
	}
	p.renewals++
	if p.renewErr != nil {
		var perr *ProviderError
		if errors.As(p.renewErr, &perr) && perr.Code == identity.CodeTokenExpired {
			p.set(nil)
		}
		return "", p.renewErr
	}
	u := *p.current
	u.IDToken = "tok-renewed"
	u.RefreshToken = "r-renewed"
	p.expired = false
	p.set(&u)
	return u.IDToken, nil
}

func (p *fakeProvider) SignOut() { p.set(nil) }

func (p *fakeProvider) OnAuthStateChanged(fn identity.Listener) func() {
	p.subs++
	p.listener = fn
	return func() { p.listener = nil }
}

type fakeFlow struct {
	p   *fakeProvider
	err error
}

func (f *fakeFlow) SignIn(ctx context.Context) (*identity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u := &identity.User{UID: "g1", Email: "g@example.com", IDToken: "tok-google", ProviderID: "google.com"}
	f.p.set(u)
	return u, nil
}

func openStore(t *testing.T) *localstore.Store {
	t.Helper()
	s, err := localstore.Open(filepath.Join(t.TempDir(), "local.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}

func assertInvariant(t *testing.T, s Session) {
	t.Helper()
	if (s.Credential != "") != (s.Status == StatusAuthenticated) {
		t.Errorf("credential/status invariant broken: status=%s credential=%q", s.Status, s.Credential)
	}
}

func TestNewManagerSubscribesOnce(t *testing.T) {
	p := &fakeProvider{}
	m := NewManager(p, openStore(t))
	defer m.Close()

	if p.subs != 1 {
		t.Errorf("provider subscriptions = %d, want 1", p.subs)
	}
	if m.Current().Status != StatusUnknown {
		t.Errorf("initial status = %s, want unknown", m.Current().Status)
	}
}

func TestLoginPersistsAndLogoutClears(t *testing.T) {
	store := openStore(t)
	p := &fakeProvider{}
	m := NewManager(p, store)
	defer m.Close()

	id, err := m.Login(context.Background(), "a@example.com", "Secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if id.Email != "a@example.com" || id.Provider == nil {
		t.Errorf("identity = %+v", id)
	}

	tok, err := store.Get(TokenKey)
	if err != nil || tok == "" {
		t.Fatalf("persisted token = %q, %v; want non-empty", tok, err)
	}
	if m.Credential() != tok {
		t.Errorf("credential = %q, persisted = %q", m.Credential(), tok)
	}
	assertInvariant(t, m.Current())

	m.LogOut(context.Background())

	if _, err := store.Get(TokenKey); !errors.Is(err, localstore.ErrNotFound) {
		t.Errorf("after logout: err = %v, want ErrNotFound", err)
	}
	if _, err := store.Get(RefreshTokenKey); !errors.Is(err, localstore.ErrNotFound) {
		t.Errorf("refresh token survived logout: %v", err)
	}
	if m.Current().Status != StatusAnonymous {
		t.Errorf("status = %s, want anonymous", m.Current().Status)
	}
	assertInvariant(t, m.Current())
}

func TestLoginFailureRestoresPriorState(t *testing.T) {
	perr := &ProviderError{Code: identity.CodeInvalidCredential}
	p := &fakeProvider{}
	m := NewManager(p, openStore(t))
	defer m.Close()
	m.Resolve(context.Background())

	p.signInErr = perr
	_, err := m.Login(context.Background(), "a@example.com", "wrong")
	if !errors.Is(err, perr) {
		t.Fatalf("err = %v, want provider error", err)
	}
	if m.Current().Status != StatusAnonymous {
		t.Errorf("status = %s, want anonymous", m.Current().Status)
	}

	p.signInErr = nil
	if _, err := m.Login(context.Background(), "a@example.com", "Secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	p.signInErr = perr
	if _, err := m.Login(context.Background(), "b@example.com", "wrong"); err == nil {
		t.Fatal("expected error")
	}
	s := m.Current()
	if s.Status != StatusAuthenticated || s.Identity.Email != "a@example.com" {
		t.Errorf("failed re-login should keep prior session, got %+v", s)
	}
	assertInvariant(t, s)
}

func TestRegisterSetsProfile(t *testing.T) {
	p := &fakeProvider{}
	m := NewManager(p, openStore(t))
	defer m.Close()

	id, err := m.Register(context.Background(), "n@example.com", "Secret1", "Neo", "https://example.com/n.png")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.profile != [2]string{"Neo", "https://example.com/n.png"} {
		t.Errorf("profile = %v", p.profile)
	}
	if id.DisplayName != "Neo" || id.PhotoURL != "https://example.com/n.png" {
		t.Errorf("identity = %+v", id)
	}
	if m.Credential() != "tok-profile" {
		t.Errorf("credential = %q, want refreshed token", m.Credential())
	}
}

func TestRegisterSkipsEmptyProfile(t *testing.T) {
	p := &fakeProvider{}
	m := NewManager(p, openStore(t))
	defer m.Close()

	if _, err := m.Register(context.Background(), "n@example.com", "Secret1", "", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.profile != [2]string{} {
		t.Errorf("profile update should be skipped, got %v", p.profile)
	}
}

func TestRegisterProviderError(t *testing.T) {
	p := &fakeProvider{signUpErr: &ProviderError{Code: identity.CodeEmailInUse}}
	m := NewManager(p, openStore(t))
	defer m.Close()

	_, err := m.Register(context.Background(), "n@example.com", "Secret1", "", "")
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Code != identity.CodeEmailInUse {
		t.Fatalf("err = %v", err)
	}
	assertInvariant(t, m.Current())
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		refresh    string
		restoreErr error
		want       Status
		wantCred   string
		// wantKept means the seeded entries survive untouched.
		wantKept bool
	}{
		{"no persisted session", "", nil, StatusAnonymous, "", false},
		{"restores from refresh token", "r1", nil, StatusAuthenticated, "tok-restored", false},
		{"rejected refresh token", "stale", &ProviderError{Code: identity.CodeTokenExpired}, StatusAnonymous, "", false},
		{"provider unreachable", "r1", &ProviderError{Code: identity.CodeNetwork}, StatusAnonymous, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := openStore(t)
			if tt.refresh != "" {
				if err := store.Set(RefreshTokenKey, tt.refresh); err != nil {
					t.Fatalf("seed: %v", err)
				}
				if err := store.Set(TokenKey, "old"); err != nil {
					t.Fatalf("seed: %v", err)
				}
			}

			p := &fakeProvider{restoreErr: tt.restoreErr}
			m := NewManager(p, store)
			defer m.Close()

			s := m.Resolve(context.Background())
			if s.Status != tt.want {
				t.Errorf("status = %s, want %s", s.Status, tt.want)
			}
			if s.Credential != tt.wantCred {
				t.Errorf("credential = %q, want %q", s.Credential, tt.wantCred)
			}
			assertInvariant(t, s)

			tok, err := store.Get(TokenKey)
			if tt.wantKept {
				if tok != "old" {
					t.Errorf("persisted token = %q (%v), want kept", tok, err)
				}
				if refresh, err := store.Get(RefreshTokenKey); refresh != tt.refresh {
					t.Errorf("persisted refresh token = %q (%v), want %q", refresh, err, tt.refresh)
				}
				return
			}
			if tt.wantCred == "" {
				if !errors.Is(err, localstore.ErrNotFound) {
					t.Errorf("persisted token = %q, want removed", tok)
				}
			} else if tok != tt.wantCred {
				t.Errorf("persisted token = %q, want %q", tok, tt.wantCred)
			}
		})
	}
}

func TestResolveOfflineKeepsSavedLogin(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	store := openStore(t)
	if err := store.Set(RefreshTokenKey, "r-valid"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	idp := identity.New(identity.Config{APIKey: "k", ToolkitURL: url, SecureTokenURL: url})
	m := NewManager(idp, store)
	defer m.Close()

	s := m.Resolve(context.Background())
	if s.Status != StatusAnonymous {
		t.Errorf("status = %s, want anonymous", s.Status)
	}
	assertInvariant(t, s)

	refresh, err := store.Get(RefreshTokenKey)
	if err != nil || refresh != "r-valid" {
		t.Fatalf("refresh token = %q (%v), want it kept for the next run", refresh, err)
	}
}

func TestRefreshRequiresSession(t *testing.T) {
	m := NewManager(&fakeProvider{}, openStore(t))
	defer m.Close()
	m.Resolve(context.Background())

	if err := m.Refresh(context.Background(), true); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
	if got := m.CredentialContext(context.Background()); got != "" {
		t.Errorf("credential = %q, want empty", got)
	}
}

func TestCredentialContextRenewsExpiredToken(t *testing.T) {
	store := openStore(t)
	p := &fakeProvider{}
	m := NewManager(p, store)
	defer m.Close()

	if _, err := m.Login(context.Background(), "a@example.com", "Secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := m.CredentialContext(context.Background()); got != "tok-a@example.com" || p.renewals != 0 {
		t.Fatalf("fresh credential = %q after %d renewals", got, p.renewals)
	}

	p.expired = true
	if got := m.CredentialContext(context.Background()); got != "tok-renewed" {
		t.Errorf("credential = %q, want tok-renewed", got)
	}
	if p.renewals != 1 {
		t.Errorf("renewals = %d, want 1", p.renewals)
	}
	if tok, _ := store.Get(TokenKey); tok != "tok-renewed" {
		t.Errorf("persisted token = %q", tok)
	}
	if refresh, _ := store.Get(RefreshTokenKey); refresh != "r-renewed" {
		t.Errorf("persisted refresh token = %q", refresh)
	}
	assertInvariant(t, m.Current())
}

func TestCredentialContextRejectedRenewalSignsOut(t *testing.T) {
	store := openStore(t)
	p := &fakeProvider{}
	m := NewManager(p, store)
	defer m.Close()

	if _, err := m.Login(context.Background(), "a@example.com", "Secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	p.expired = true
	p.renewErr = &ProviderError{Code: identity.CodeTokenExpired}

	if got := m.CredentialContext(context.Background()); got != "" {
		t.Errorf("credential = %q, want empty after rejection", got)
	}
	if m.Current().Status != StatusAnonymous {
		t.Errorf("status = %s, want anonymous", m.Current().Status)
	}
	if _, err := store.Get(RefreshTokenKey); !errors.Is(err, localstore.ErrNotFound) {
		t.Errorf("refresh token kept after rejection: %v", err)
	}
}

func TestCredentialContextKeepsTokenWhenRenewalUnreachable(t *testing.T) {
	p := &fakeProvider{}
	m := NewManager(p, openStore(t))
	defer m.Close()

	if _, err := m.Login(context.Background(), "a@example.com", "Secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	p.expired = true
	p.renewErr = &ProviderError{Code: identity.CodeNetwork}

	if got := m.CredentialContext(context.Background()); got != "tok-a@example.com" {
		t.Errorf("credential = %q, want held token", got)
	}
	if m.Current().Status != StatusAuthenticated {
		t.Errorf("status = %s", m.Current().Status)
	}
}

func TestProviderPushedChangeReplacesSession(t *testing.T) {
	store := openStore(t)
	p := &fakeProvider{}
	m := NewManager(p, store)
	defer m.Close()

	if _, err := m.Login(context.Background(), "a@example.com", "Secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// The provider revokes the session on its own, e.g. after a failed
	// token refresh.
	p.set(nil)

	if m.Current().Status != StatusAnonymous {
		t.Errorf("status = %s, want anonymous", m.Current().Status)
	}
	if _, err := store.Get(TokenKey); !errors.Is(err, localstore.ErrNotFound) {
		t.Error("credential should be removed on loss of session")
	}
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	p := &fakeProvider{}
	m := NewManager(p, openStore(t))
	defer m.Close()

	ch, cancel := m.Subscribe()
	defer cancel()

	m.Resolve(context.Background())
	if _, err := m.Login(context.Background(), "a@example.com", "Secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	m.LogOut(context.Background())

	want := []Transition{
		{From: StatusUnknown, To: StatusAnonymous},
		{From: StatusAnonymous, To: StatusAuthenticating},
		{From: StatusAuthenticating, To: StatusAuthenticated},
		{From: StatusAuthenticated, To: StatusAnonymous},
	}
	for i, w := range want {
		select {
		case got := <-ch:
			if got.From != w.From || got.To != w.To {
				t.Errorf("transition %d = %s->%s, want %s->%s", i, got.From, got.To, w.From, w.To)
			}
		default:
			t.Fatalf("missing transition %d (%s->%s)", i, w.From, w.To)
		}
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	m := NewManager(&fakeProvider{}, openStore(t))
	defer m.Close()

	ch, cancel := m.Subscribe()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("expected closed channel")
	}
	m.Resolve(context.Background())
}

func TestFederatedLogin(t *testing.T) {
	p := &fakeProvider{}
	m := NewManager(p, openStore(t), WithFederatedFlow(&fakeFlow{p: p}))
	defer m.Close()

	id, err := m.LoginWithFederatedProvider(context.Background())
	if err != nil {
		t.Fatalf("federated login: %v", err)
	}
	if id.Email != "g@example.com" || id.Provider.ProviderID != "google.com" {
		t.Errorf("identity = %+v", id)
	}
}

func TestFederatedLoginClosed(t *testing.T) {
	p := &fakeProvider{}
	closed := &ProviderError{Code: identity.CodePopupClosed}
	m := NewManager(p, openStore(t), WithFederatedFlow(&fakeFlow{p: p, err: closed}))
	defer m.Close()
	m.Resolve(context.Background())

	_, err := m.LoginWithFederatedProvider(context.Background())
	if !errors.Is(err, closed) {
		t.Fatalf("err = %v", err)
	}
	if m.Current().Status != StatusAnonymous {
		t.Errorf("status = %s", m.Current().Status)
	}
}

func TestFederatedLoginNotConfigured(t *testing.T) {
	m := NewManager(&fakeProvider{}, openStore(t))
	defer m.Close()

	_, err := m.LoginWithFederatedProvider(context.Background())
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Code != identity.CodeNotAllowed {
		t.Fatalf("err = %v", err)
	}
}

func TestLogOutWhenAnonymous(t *testing.T) {
	m := NewManager(&fakeProvider{}, openStore(t))
	defer m.Close()
	m.Resolve(context.Background())
	m.LogOut(context.Background())
	if m.Current().Status != StatusAnonymous {
		t.Errorf("status = %s", m.Current().Status)
	}
}

func TestIdentityName(t *testing.T) {
	var nilID *Identity
	if nilID.Name() != "Anonymous" {
		t.Error("nil identity should be Anonymous")
	}
	if (&Identity{DisplayName: "Ann"}).Name() != "Ann" {
		t.Error("expected display name")
	}
}
