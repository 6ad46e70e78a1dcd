package cli

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/homenest/internal/password"
	"github.com/evcraddock/homenest/internal/session"
)

func newRegisterCmd() *cobra.Command {
	var name, photo string

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account and log in",
		Long:  "Creates an account with email and password. The password is read from stdin and must contain an uppercase letter, a lowercase letter and at least 6 characters.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, args[0], name, photo)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&photo, "photo", "", "profile photo URL")

	return cmd
}

func runRegister(cmd *cobra.Command, email, name, photo string) error {
	out := cmd.OutOrStdout()
	pw, err := readLine(bufio.NewReader(cmd.InOrStdin()), cmd.ErrOrStderr(), "Password: ")
	if err != nil {
		return err
	}

	if err := password.Validate(pw); err != nil {
		printPasswordReport(out, password.Check(pw))
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.session.Register(cmd.Context(), email, pw, name, photo)
	if err != nil {
		return authError("registration failed", err)
	}

	if isJSON() {
		return printJSON(out, id)
	}
	fmt.Fprintf(out, "✓ Account created. Logged in as %s <%s>\n", id.Name(), id.Email)
	return nil
}

func printPasswordReport(w io.Writer, r password.Report) {
	for _, rule := range password.Rules {
		mark := "✗"
		if r.Met(rule) {
			mark = "✓"
		}
		fmt.Fprintf(w, "  %s %s\n", mark, rule.Label())
	}
}

func newLoginCmd() *cobra.Command {
	var google bool

	cmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Log in with email and password, or with Google",
		Long:  "Logs in with email and password (read from stdin), or with --google through the browser. The session is kept in the local store until logout.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if google {
				return runLoginGoogle(cmd)
			}
			if len(args) == 0 {
				return fmt.Errorf("email required (or use --google)")
			}
			return runLogin(cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&google, "google", false, "sign in with Google in the browser")

	return cmd
}

func runLogin(cmd *cobra.Command, email string) error {
	out := cmd.OutOrStdout()
	pw, err := readLine(bufio.NewReader(cmd.InOrStdin()), cmd.ErrOrStderr(), "Password: ")
	if err != nil {
		return err
	}
	if pw == "" {
		return fmt.Errorf("no password provided")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.session.Login(cmd.Context(), email, pw)
	if err != nil {
		return authError("login failed", err)
	}
	return printLoggedIn(out, id)
}

func runLoginGoogle(cmd *cobra.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.session.LoginWithFederatedProvider(cmd.Context())
	if err != nil {
		return authError("Google sign-in failed", err)
	}
	return printLoggedIn(cmd.OutOrStdout(), id)
}

func printLoggedIn(w io.Writer, id *session.Identity) error {
	if isJSON() {
		return printJSON(w, id)
	}
	fmt.Fprintf(w, "✓ Logged in as %s <%s>\n", id.Name(), id.Email)
	return nil
}

// authError prefixes provider failures with the operation.
func authError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
