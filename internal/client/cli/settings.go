package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/atlist/internal/client/models"
	"github.com/dmitrijs2005/atlist/internal/common"
)

func newSettingsCmd(get func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change app settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show current settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				printSettings(cmd.OutOrStdout(), get().settings.Current())
				return nil
			},
		},
		&cobra.Command{
			Use:       "set <theme|notifications|preload|two-factor> <value>",
			Short:     "Change one setting",
			Args:      cobra.ExactArgs(2),
			ValidArgs: []string{"theme", "notifications", "preload", "two-factor"},
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				if err := applySetting(cmd, a, args[0], args[1]); err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), a.settings.Current())
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Restore default settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				printSettings(cmd.OutOrStdout(), get().settings.Reset(cmd.Context()))
				return nil
			},
		},
	)
	return cmd
}

func applySetting(cmd *cobra.Command, a *App, key, value string) error {
	ctx := cmd.Context()
	switch key {
	case "theme":
		_, err := a.settings.SetTheme(ctx, models.Theme(value))
		return err
	case "preload":
		_, err := a.settings.SetPreload(ctx, models.PreloadMode(value))
		return err
	case "notifications", "two-factor":
		b, err := parseSwitch(value)
		if err != nil {
			return err
		}
		if key == "notifications" {
			a.settings.SetNotifications(ctx, b)
		} else {
			a.settings.SetTwoFactor(ctx, b)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown setting %q", common.ErrorValidation, key)
	}
}

func parseSwitch(v string) (bool, error) {
	switch v {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: expected on or off, got %q", common.ErrorValidation, v)
	}
	return b, nil
}

func printSettings(w io.Writer, s models.Settings) {
	printKV(w, [][2]string{
		{"theme", string(s.Theme)},
		{"notifications", onOff(s.NotificationsEnabled)},
		{"preload", string(s.PreloadMode)},
		{"two-factor", onOff(s.TwoFactorEnabled)},
	})
}
