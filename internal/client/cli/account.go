package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/atlist/internal/common"
)

// confirm asks a yes/no question. Tests replace it.
var confirm = func(cmd *cobra.Command, question string) (bool, error) {
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(question).Affirmative("Delete").Negative("Cancel").Value(&ok),
	)).Run()
	return ok, err
}

func newCheckoutCmd(get func() *App) *cobra.Command {
	var promo string
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Start a membership checkout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := requireLogin(a); err != nil {
				return err
			}
			url, err := a.functions.CreateCheckoutSession(cmd.Context(), a.profile.Current().Email, promo)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Open %s to finish checkout\n", url)
			return nil
		},
	}
	cmd.Flags().StringVar(&promo, "promo", "", "promotion code")
	return cmd
}

func newDeleteAccountCmd(get func() *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Permanently delete your account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := requireLogin(a); err != nil {
				return err
			}
			if !yes {
				ok, err := confirm(cmd, "Delete your account and all synced data?")
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			if err := a.functions.DeleteAccount(cmd.Context()); err != nil {
				return err
			}
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Account deleted")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newClearCacheCmd(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Reset profile, settings and sites to their defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			get().ClearCachedSessions(cmd.Context())
			printOK(cmd.OutOrStdout(), "Cached sessions cleared")
			return nil
		},
	}
}

func newBroadcastCmd(get func() *App) *cobra.Command {
	var membersOnly bool
	cmd := &cobra.Command{
		Use:   "broadcast <message>",
		Short: "Send a push notification to all users",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := get().functions.BroadcastPush(cmd.Context(), args[0], membersOnly)
			if errors.Is(err, common.ErrorValidation) {
				return err
			}
			if err != nil {
				return fmt.Errorf("broadcast failed: %w", err)
			}
			printOK(cmd.OutOrStdout(), "Broadcast sent")
			return nil
		},
	}
	cmd.Flags().BoolVar(&membersOnly, "members-only", false, "only notify members")
	return adminOnly(cmd)
}
