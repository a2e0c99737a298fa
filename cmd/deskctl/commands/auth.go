package commands

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"transportdesk/internal/client"

	"github.com/spf13/cobra"
)

// LoginCmd creates the login command
func LoginCmd(app *AppContext) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as dispatcher and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			sess, err := app.Client.Login(app.Ctx, username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s until %s\n", username, sess.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "admin", "Dispatcher username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Dispatcher password (prompted when empty)")
	return cmd
}

// LogoutCmd creates the logout command
func LogoutCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored dispatcher session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Client.Logout(app.Ctx); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// SessionCmd creates the session command
func SessionCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show whether a dispatcher session is active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, sess, err := app.Client.Session()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch state {
			case client.SessionValid:
				fmt.Fprintf(out, "Session valid until %s\n", sess.ExpiresAt.Local().Format(time.RFC1123))
			case client.SessionExpired:
				fmt.Fprintln(out, "Session expired and was removed. Run `deskctl login`.")
			default:
				fmt.Fprintln(out, "Not logged in.")
			}
			return nil
		},
	}
}
