package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/atlist/internal/client/models"
)

func newProfileCmd(get func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the profile",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				printProfile(cmd.OutOrStdout(), get().profile.Current())
				return nil
			},
		},
		newProfileUpdateCmd(get),
		&cobra.Command{
			Use:   "reset",
			Short: "Restore the default profile",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				printProfile(cmd.OutOrStdout(), get().profile.Reset(cmd.Context()))
				return nil
			},
		},
	)
	return cmd
}

func newProfileUpdateCmd(get func() *App) *cobra.Command {
	var name, username, email, avatarText, avatarColor string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Edit profile fields; unset flags are left alone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var p models.ProfilePatch
			set := func(flag string, dst **string, v string) {
				if cmd.Flags().Changed(flag) {
					*dst = &v
				}
			}
			set("name", &p.DisplayName, name)
			set("username", &p.Username, username)
			set("email", &p.Email, email)
			set("avatar-text", &p.AvatarLabel, avatarText)
			set("avatar-color", &p.AvatarColor, avatarColor)

			got, err := get().profile.Update(cmd.Context(), p)
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), got)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "full name")
	f.StringVar(&username, "username", "", "username")
	f.StringVar(&email, "email", "", "email")
	f.StringVar(&avatarText, "avatar-text", "", "avatar initials")
	f.StringVar(&avatarColor, "avatar-color", "", "avatar color (#rrggbb or name)")
	return cmd
}

func printProfile(w io.Writer, p models.Profile) {
	printKV(w, [][2]string{
		{"name", p.DisplayName},
		{"username", p.Username},
		{"email", p.Email},
		{"avatar", orDash(p.AvatarLabel) + " " + orDash(p.AvatarColor)},
		{"role", string(p.Role)},
		{"membership", onOff(p.MembershipActive)},
	})
}
