// auth.go implements the "ainotes login", "register", "logout" and "status" commands.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ainotes-dev/ainotes/internal/session"
)

func newLoginCmd(opts *options) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login [email or username]",
		Short: "Sign in and store the token pair",
		Long: `Exchange credentials for an access and refresh token. The pair is kept
in the state directory so later commands and the UI stay signed in.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)

			identifier := ""
			if len(args) == 1 {
				identifier = args[0]
			} else {
				var err error
				if identifier, err = p.Line("Email or username: "); err != nil {
					return err
				}
			}
			if password == "" {
				var err error
				if password, err = p.Secret("Password: "); err != nil {
					return err
				}
			}

			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.session.Login(cmd.Context(), identifier, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", describeUser(e.session))
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func newRegisterCmd(opts *options) *cobra.Command {
	var req session.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			var err error
			if req.Email == "" {
				if req.Email, err = p.Line("Email: "); err != nil {
					return err
				}
			}
			if req.Username == "" {
				if req.Username, err = p.Line("Username: "); err != nil {
					return err
				}
			}
			if req.Password, err = p.Secret("Password: "); err != nil {
				return err
			}
			if req.Confirm, err = p.Secret("Confirm password: "); err != nil {
				return err
			}

			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.session.Register(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created. Signed in as %s\n", describeUser(e.session))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Username, "username", "", "Account username")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who is signed in",
		Long: `Restore the stored session and print the account, the server, and
when the current access token expires.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			state := e.session.Initialize(cmd.Context())

			fmt.Fprintln(out, "ainotes status")
			fmt.Fprintf(out, "Server: %s\n", e.cfg.Server.BaseURL)
			if opts.ephemeral {
				fmt.Fprintln(out, "Tokens: in memory")
			} else {
				fmt.Fprintf(out, "Home:   %s\n", e.home)
			}
			fmt.Fprintln(out)

			if state != session.StateAuthenticated {
				fmt.Fprintln(out, "Not signed in.")
				return nil
			}
			fmt.Fprintf(out, "Signed in as %s\n", describeUser(e.session))
			if info, ok := e.session.AccessInfo(); ok && !info.ExpiresAt.IsZero() {
				left := time.Until(info.ExpiresAt).Round(time.Second)
				fmt.Fprintf(out, "Access token expires %s (in %s)\n", info.ExpiresAt.Local().Format(time.RFC1123), left)
			}
			return nil
		},
	}
}

func describeUser(m *session.Manager) string {
	u := m.User()
	if u == nil {
		return "(unknown)"
	}
	if name := u.DisplayName(); name != u.Email {
		return fmt.Sprintf("%s (%s)", name, u.Email)
	}
	return u.Email
}
