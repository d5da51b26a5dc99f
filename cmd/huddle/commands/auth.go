package commands

import (
	"fmt"
	"os"

	"github.com/huddle-sports/huddle-client/pkg/store"
	"github.com/spf13/cobra"
)

// EnvPassword supplies the login password when --password is not given.
const EnvPassword = "HUDDLE_PASSWORD"

func loginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session in the secure store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv(EnvPassword)
			}
			if err := store.Login(cmd.Context(), a.svc, a.state, email, password); err != nil {
				return err
			}
			user := a.state.State().Auth.User
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", user.Name, user.Ranking)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or "+EnvPassword+")")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.Logout(cmd.Context(), a.svc, a.state); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			loggedIn, err := a.svc.Auth.LoggedIn()
			if err != nil {
				return err
			}
			if !loggedIn {
				return fmt.Errorf("not logged in. use: huddle login --email ...")
			}
			user, err := a.svc.Auth.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> %s\n", user.Name, user.Email, user.Ranking)
			return nil
		},
	}
}
