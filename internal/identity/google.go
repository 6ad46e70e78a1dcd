package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	defaultGoogleIssuer = "https://accounts.google.com"
	googleProviderID    = "google.com"
	callbackPath        = "/callback"
)

// GoogleConfig holds OAuth client settings for the federated flow.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string

	// Issuer is the OIDC issuer used for endpoint discovery.
	Issuer string
	// ListenAddr is the loopback address for the redirect listener.
	ListenAddr string
	// OpenBrowser opens the consent page. Failures are logged, not fatal:
	// the user can still visit the printed URL.
	OpenBrowser func(url string) error
	// Prompt receives the consent URL so it can be shown to the user.
	Prompt func(url string)
	// HTTPClient is used for discovery, key fetches and the code exchange.
	HTTPClient *http.Client
}

// GoogleFlow runs an interactive Google consent and signs the result into
// the identity provider.
type GoogleFlow struct {
	cfg    GoogleConfig
	client *Client
}

// NewGoogleFlow creates a federated flow bound to c.
func NewGoogleFlow(cfg GoogleConfig, c *Client) *GoogleFlow {
	if cfg.Issuer == "" {
		cfg.Issuer = defaultGoogleIssuer
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:0"
	}
	return &GoogleFlow{cfg: cfg, client: c}
}

type callbackResult struct {
	code string
	err  error
}

// SignIn opens the consent page, waits for the redirect and signs in.
// Cancelling ctx is treated as the user closing the window.
func (f *GoogleFlow) SignIn(ctx context.Context) (*User, error) {
	if f.cfg.ClientID == "" {
		return nil, newError(CodeNotAllowed, errors.New("google client ID not configured"))
	}

	if f.cfg.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, f.cfg.HTTPClient)
	}

	provider, err := oidc.NewProvider(ctx, f.cfg.Issuer)
	if err != nil {
		return nil, newError(CodeNetwork, fmt.Errorf("discovering %s: %w", f.cfg.Issuer, err))
	}

	ln, err := net.Listen("tcp", f.cfg.ListenAddr)
	if err != nil {
		return nil, newError(CodeInternal, fmt.Errorf("starting redirect listener: %w", err))
	}
	redirectURL := "http://" + ln.Addr().String() + callbackPath

	conf := &oauth2.Config{
		ClientID:     f.cfg.ClientID,
		ClientSecret: f.cfg.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  redirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}

	state, err := randomState()
	if err != nil {
		_ = ln.Close()
		return nil, newError(CodeInternal, err)
	}
	verifier := oauth2.GenerateVerifier()
	authURL := conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("redirect listener stopped", "err", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutting down redirect listener", "err", err)
		}
	}()

	if f.cfg.Prompt != nil {
		f.cfg.Prompt(authURL)
	}
	if f.cfg.OpenBrowser != nil {
		if err := f.cfg.OpenBrowser(authURL); err != nil {
			slog.Warn("could not open browser", "err", err)
		}
	}

	var code string
	select {
	case <-ctx.Done():
		return nil, newError(CodePopupClosed, ctx.Err())
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		code = res.code
	}

	if f.cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.cfg.HTTPClient)
	}
	tok, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, newError(CodeInvalidCredential, fmt.Errorf("exchanging code: %w", err))
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, newError(CodeInvalidCredential, errors.New("token response has no id_token"))
	}

	idVerifier := provider.Verifier(&oidc.Config{ClientID: f.cfg.ClientID})
	if _, err := idVerifier.Verify(ctx, rawIDToken); err != nil {
		return nil, newError(CodeInvalidCredential, fmt.Errorf("verifying id_token: %w", err))
	}

	return f.client.SignInWithIDP(ctx, googleProviderID, rawIDToken, redirectURL)
}

// callbackHandler accepts exactly one redirect carrying the expected state.
// Requests with any other state are rejected before error or code is read.
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if q.Get("state") != state {
			http.Error(w, "Invalid state", http.StatusBadRequest)
			return
		}

		var res callbackResult
		switch {
		case q.Get("error") == "access_denied":
			res.err = newError(CodePopupClosed, errors.New("consent denied"))
		case q.Get("error") != "":
			res.err = newError(CodeInvalidCredential, fmt.Errorf("authorization failed: %s", q.Get("error")))
		case q.Get("code") == "":
			http.Error(w, "Missing code", http.StatusBadRequest)
			return
		default:
			res.code = q.Get("code")
		}

		select {
		case results <- res:
		default:
			http.Error(w, "Sign-in already completed", http.StatusConflict)
			return
		}

		msg := "Signed in. You can close this window and return to the terminal.\n"
		if res.err != nil {
			msg = "Sign-in was not completed. You can close this window.\n"
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := w.Write([]byte(msg)); err != nil {
			slog.Warn("writing callback response", "err", err)
		}
	})
	return mux
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
