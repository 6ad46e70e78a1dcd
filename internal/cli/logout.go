package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/homenest/internal/session"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Long:  "Signs out and removes the stored credential from the local store.",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if a.session.Current().Status != session.StatusAuthenticated {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}

	a.session.LogOut(cmd.Context())
	fmt.Fprintln(out, "✓ Logged out. Credential removed.")
	return nil
}
