package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/atlist/internal/client/client"
)

func newStatusCmd(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show identity, connectivity and catalog state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()

			online := "online"
			if err := a.auth.Ping(ctx); err != nil {
				online = "offline"
				if !errors.Is(err, client.ErrUnavailable) {
					online = "offline (" + describe(err) + ")"
				}
			}

			p := a.profile.Current()
			role := string(p.Role)
			if a.profile.HasMembership() {
				role += ", member"
			}

			printKV(cmd.OutOrStdout(), [][2]string{
				{"identity", a.auth.Identity().String()},
				{"record store", online},
				{"catalog", a.catalog.State().String()},
				{"preferences", a.syncState()},
				{"role", orDash(role)},
				{"active sites", fmt.Sprint(len(a.websites.Current().Sites))},
			})
			return nil
		},
	}
}

func newLoginCmd(get func() *App) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an access token from the auth provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if token == "" {
				var err error
				if token, err = GetSecret("Access token", cmd.OutOrStdout()); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.ErrOrStderr(), muted("loading preferences…"))
			id, err := a.auth.Login(cmd.Context(), token)
			token = ""
			if err != nil {
				return fmt.Errorf("login unsuccessful: %w", err)
			}
			printOK(cmd.OutOrStdout(), "Signed in as %s", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token (prompted when empty)")
	return cmd
}

func newLogoutCmd(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and return to the anonymous profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().auth.Logout(cmd.Context()); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
