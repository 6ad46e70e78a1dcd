package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/homenest/internal/client"
	"github.com/evcraddock/homenest/internal/identity"
	"github.com/evcraddock/homenest/internal/localstore"
	"github.com/evcraddock/homenest/internal/session"
)

// app wires the collaborators a command needs. The session manager is the
// only component subscribed to the identity provider; the API client reads
// the credential from it on every request.
type app struct {
	cfg     CLIConfig
	store   *localstore.Store
	session *session.Manager
	api     *client.Client
}

// newApp opens the local store and resolves the persisted session.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}

	path, err := storePath(cfg)
	if err != nil {
		return nil, err
	}
	store, err := localstore.Open(path)
	if err != nil {
		return nil, err
	}

	idp := identity.New(identity.Config{
		APIKey:         cfg.FirebaseAPIKey,
		ToolkitURL:     cfg.IdentityToolkitURL,
		SecureTokenURL: cfg.SecureTokenURL,
	})

	var opts []session.Option
	if cfg.GoogleClientID != "" {
		stderr := cmd.ErrOrStderr()
		flow := identity.NewGoogleFlow(identity.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			OpenBrowser:  openBrowser,
			Prompt: func(url string) {
				fmt.Fprintln(stderr, "Opening browser for Google sign-in...")
				fmt.Fprintf(stderr, "If the browser doesn't open, visit: %s\n\n", url)
			},
		}, idp)
		opts = append(opts, session.WithFederatedFlow(flow))
	}

	mgr := session.NewManager(idp, store, opts...)
	mgr.Resolve(cmd.Context())

	api := client.New(cfg.APIBaseURL, mgr,
		client.WithNotifier(client.WriterNotifier{W: cmd.ErrOrStderr()}))

	return &app{cfg: cfg, store: store, session: mgr, api: api}, nil
}

// Close releases the session subscription and the store.
func (a *app) Close() {
	a.session.Close()
	if err := a.store.Close(); err != nil {
		slog.Warn("closing store", "err", err)
	}
}

// requireIdentity returns the signed-in identity or ErrNotAuthenticated.
func (a *app) requireIdentity() (*session.Identity, error) {
	id := a.session.Identity()
	if id == nil {
		return nil, fmt.Errorf("%w: run 'hn login' first", session.ErrNotAuthenticated)
	}
	return id, nil
}

func storePath(cfg CLIConfig) (string, error) {
	if flagStore != "" {
		return flagStore, nil
	}
	if cfg.StorePath != "" {
		return cfg.StorePath, nil
	}
	return localstore.DefaultPath()
}

// readLine prints prompt to w and reads one trimmed line from r.
func readLine(r *bufio.Reader, w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
