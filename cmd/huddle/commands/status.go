package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connection, cache and rate limit status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			loggedIn, err := a.svc.Auth.LoggedIn()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "api:       %s\n", a.cfg.API.URL)
			if loggedIn {
				// any response refreshes the budget headers
				user, err := a.svc.Auth.Me(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "user:      %s\n", user.Name)
			} else {
				fmt.Fprintln(out, "user:      (not logged in)")
			}
			fmt.Fprintf(out, "cache:     %t\n", a.client.Cache() != nil)

			budget, err := a.client.Budget().GetState(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "budget:    %d remaining, resets in %s\n",
				budget.Remaining, budget.TimeUntilReset().Round(time.Second))
			return nil
		},
	}
}
