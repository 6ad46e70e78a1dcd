package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/homenest/internal/client"
	"github.com/evcraddock/homenest/internal/session"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and session status",
		Long:  "Shows the API server, who is logged in, and whether the server is reachable.",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	s := a.session.Current()

	fmt.Fprintf(out, "Server:  %s\n", a.cfg.APIBaseURL)
	if s.Status == session.StatusAuthenticated {
		fmt.Fprintf(out, "User:    %s <%s>\n", s.Identity.Name(), s.Identity.Email)
	} else {
		fmt.Fprintln(out, "User:    not logged in")
	}

	// Probe without the notifier so a failure is reported once, here.
	probe := client.New(a.cfg.APIBaseURL, a.session, client.WithTimeout(5*time.Second))
	if _, err := probe.FeaturedProperties(cmd.Context()); err != nil {
		var msg string
		switch {
		case client.IsStatus(err, http.StatusUnauthorized):
			msg = "credential rejected"
		default:
			msg = err.Error()
		}
		fmt.Fprintf(out, "Status:  ✗ %s\n", msg)
		if s.Status != session.StatusAuthenticated {
			fmt.Fprintln(out, "\nRun 'hn login' to authenticate.")
		}
		return nil
	}

	fmt.Fprintln(out, "Status:  ✓ connected")
	return nil
}
