// Package identity talks to the identity provider: email/password accounts
// and federated sign-in through the Firebase Identity Toolkit REST API.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultToolkitURL     = "https://identitytoolkit.googleapis.com/v1"
	defaultSecureTokenURL = "https://securetoken.googleapis.com/v1"
)

// Config holds provider settings.
type Config struct {
	APIKey string

	// Overridable for tests.
	ToolkitURL     string
	SecureTokenURL string
	HTTPClient     *http.Client
}

// Listener receives the current user after every auth-state change.
// A nil user means signed out.
type Listener func(*User)

// Client is an Identity Toolkit client holding the current user.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time

	mu        sync.Mutex
	current   *User
	listeners map[int]Listener
	nextID    int
}

// New creates a provider client.
func New(cfg Config) *Client {
	if cfg.ToolkitURL == "" {
		cfg.ToolkitURL = defaultToolkitURL
	}
	if cfg.SecureTokenURL == "" {
		cfg.SecureTokenURL = defaultSecureTokenURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		cfg:        cfg,
		httpClient: hc,
		now:        time.Now,
		listeners:  make(map[int]Listener),
	}
}

// OnAuthStateChanged registers fn to be called after every change of the
// current user. The returned function unregisters it.
func (c *Client) OnAuthStateChanged(fn Listener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (c *Client) CurrentUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	u := *c.current
	return &u
}

// setCurrent replaces the current user and notifies listeners when the
// state actually changed.
func (c *Client) setCurrent(u *User) {
	c.mu.Lock()
	changed := !sameUser(c.current, u)
	c.current = u
	fns := make([]Listener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range fns {
		if u == nil {
			fn(nil)
			continue
		}
		cp := *u
		fn(&cp)
	}
}

func sameUser(a, b *User) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UID == b.UID && a.IDToken == b.IDToken &&
		a.DisplayName == b.DisplayName && a.PhotoURL == b.PhotoURL
}

// authResponse is the shared shape of signUp, signInWithPassword,
// signInWithIdp and update responses.
type authResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	ProviderID   string `json:"providerId"`
}

func (c *Client) userFrom(r *authResponse, providerID string) *User {
	u := &User{
		UID:          r.LocalID,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		PhotoURL:     r.PhotoURL,
		ProviderID:   providerID,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
	}
	if r.ProviderID != "" {
		u.ProviderID = r.ProviderID
	}
	if secs, err := strconv.Atoi(r.ExpiresIn); err == nil {
		u.ExpiresAt = c.now().Add(time.Duration(secs) * time.Second)
	}
	if claims, err := parseIDToken(r.IDToken); err == nil {
		u.applyClaims(claims)
	}
	return u
}

// SignUp creates an email/password account and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password string) (*User, error) {
	body := map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	var resp authResponse
	if err := c.toolkit(ctx, "accounts:signUp", body, &resp); err != nil {
		return nil, err
	}
	u := c.userFrom(&resp, "password")
	c.setCurrent(u)
	return u, nil
}

// SignIn exchanges email and password for a signed-in user.
func (c *Client) SignIn(ctx context.Context, email, password string) (*User, error) {
	body := map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	var resp authResponse
	if err := c.toolkit(ctx, "accounts:signInWithPassword", body, &resp); err != nil {
		return nil, err
	}
	u := c.userFrom(&resp, "password")
	c.setCurrent(u)
	return u, nil
}

// SignInWithIDP signs in with a federated provider's ID token.
// requestURI is the redirect URI used for the consent flow.
func (c *Client) SignInWithIDP(ctx context.Context, providerID, idToken, requestURI string) (*User, error) {
	post := url.Values{"id_token": {idToken}, "providerId": {providerID}}
	body := map[string]interface{}{
		"postBody":            post.Encode(),
		"requestUri":          requestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}
	var resp authResponse
	if err := c.toolkit(ctx, "accounts:signInWithIdp", body, &resp); err != nil {
		return nil, err
	}
	u := c.userFrom(&resp, providerID)
	c.setCurrent(u)
	return u, nil
}

// UpdateProfile sets display fields on the current user. Empty values are
// left unchanged.
func (c *Client) UpdateProfile(ctx context.Context, displayName, photoURL string) (*User, error) {
	cur := c.CurrentUser()
	if cur == nil {
		return nil, newError(CodeNoCurrentUser, nil)
	}
	if displayName == "" && photoURL == "" {
		return cur, nil
	}

	body := map[string]interface{}{
		"idToken":           cur.IDToken,
		"returnSecureToken": true,
	}
	if displayName != "" {
		body["displayName"] = displayName
	}
	if photoURL != "" {
		body["photoUrl"] = photoURL
	}

	var resp authResponse
	if err := c.toolkit(ctx, "accounts:update", body, &resp); err != nil {
		return nil, err
	}

	u := *cur
	if resp.DisplayName != "" {
		u.DisplayName = resp.DisplayName
	}
	if resp.PhotoURL != "" {
		u.PhotoURL = resp.PhotoURL
	}
	if resp.IDToken != "" {
		refreshed := c.userFrom(&resp, cur.ProviderID)
		u.IDToken = refreshed.IDToken
		u.RefreshToken = refreshed.RefreshToken
		u.ExpiresAt = refreshed.ExpiresAt
	}
	c.setCurrent(&u)
	return &u, nil
}

// refreshResponse is the secure token endpoint response.
type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

// Restore rehydrates the current user from a persisted refresh token.
// A rejected token clears the current user; a network failure leaves it
// unchanged.
func (c *Client) Restore(ctx context.Context, refreshToken string) (*User, error) {
	u, err := c.refresh(ctx, refreshToken, nil)
	if err != nil {
		var perr *Error
		if !errors.As(err, &perr) || perr.Code != CodeNetwork {
			c.setCurrent(nil)
		}
		return nil, err
	}
	c.setCurrent(u)
	return u, nil
}

// IDToken returns the current user's ID token, refreshing it first when it
// has expired or forceRefresh is set.
func (c *Client) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	cur := c.CurrentUser()
	if cur == nil {
		return "", newError(CodeNoCurrentUser, nil)
	}
	if !forceRefresh && !cur.Expired(c.now()) {
		return cur.IDToken, nil
	}

	u, err := c.refresh(ctx, cur.RefreshToken, cur)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) && perr.Code == CodeTokenExpired {
			c.setCurrent(nil)
		}
		return "", err
	}
	c.setCurrent(u)
	return u.IDToken, nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string, base *User) (*User, error) {
	if refreshToken == "" {
		return nil, newError(CodeTokenExpired, nil)
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	endpoint := strings.TrimRight(c.cfg.SecureTokenURL, "/") + "/token?key=" + url.QueryEscape(c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp refreshResponse
	if err := c.send(req, &resp); err != nil {
		return nil, err
	}

	u := &User{}
	if base != nil {
		*u = *base
	}
	u.UID = resp.UserID
	u.IDToken = resp.IDToken
	u.RefreshToken = resp.RefreshToken
	if secs, err := strconv.Atoi(resp.ExpiresIn); err == nil {
		u.ExpiresAt = c.now().Add(time.Duration(secs) * time.Second)
	}
	if claims, err := parseIDToken(resp.IDToken); err == nil {
		u.applyClaims(claims)
	}
	return u, nil
}

// SignOut clears the current user. It is local-only and never fails.
func (c *Client) SignOut() {
	c.setCurrent(nil)
}

// toolkit POSTs a JSON body to an Identity Toolkit method.
func (c *Client) toolkit(ctx context.Context, method string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.ToolkitURL, "/") + "/" + method + "?key=" + url.QueryEscape(c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.send(req, result)
}

// send executes req and maps failures onto the provider taxonomy.
func (c *Client) send(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newError(CodeNetwork, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing identity response body", "err", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return newError(CodeNetwork, err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			perr := newError(mapRESTCode(errResp.Error.Message), nil)
			slog.Debug("identity provider rejected request",
				"status", resp.StatusCode, "reason", errResp.Error.Message, "code", perr.Code)
			return perr
		}
		return newError(CodeInternal, fmt.Errorf("identity provider returned %s", http.StatusText(resp.StatusCode)))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return newError(CodeInternal, fmt.Errorf("decoding response: %w", err))
		}
	}
	return nil
}
