package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/atlist/internal/client/models"
)

func newSitesCmd(get func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "Manage the active sites",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List active sites in order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				printSelection(cmd.OutOrStdout(), get())
				return nil
			},
		},
		&cobra.Command{
			Use:   "activate <site>...",
			Short: "Add sites to the end of the list",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				w := cmd.OutOrStdout()
				for _, id := range args {
					_, added := a.websites.Activate(cmd.Context(), id)
					switch {
					case !added && a.websites.Current().Contains(id):
						fmt.Fprintf(w, "%s is already active\n", id)
					case !added:
						errColor.Fprintf(w, "%s is not in the catalog\n", id)
					case a.websites.Locked(id, a.profile.HasMembership()):
						lockColor.Fprintf(w, "%s activated (membership recommended)\n", id)
					default:
						printOK(w, "%s activated", id)
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "deactivate <site>...",
			Short: "Remove sites from the list",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				for _, id := range args {
					a.websites.Deactivate(cmd.Context(), id)
				}
				printSelection(cmd.OutOrStdout(), a)
				return nil
			},
		},
		&cobra.Command{
			Use:   "reorder <site>...",
			Short: "Replace the order of the active sites",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				a.websites.Reorder(cmd.Context(), args)
				printSelection(cmd.OutOrStdout(), a)
				return nil
			},
		},
		&cobra.Command{
			Use:   "color <site> [color]",
			Short: "Set or clear the custom color of a site",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				color := ""
				if len(args) == 2 {
					color = args[1]
				}
				_, err := get().websites.SetColor(cmd.Context(), args[0], color)
				return err
			},
		},
		&cobra.Command{
			Use:   "focus <site>",
			Short: "Bring an active site to the front",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				if _, err := a.websites.Focus(cmd.Context(), args[0]); err != nil {
					return err
				}
				u, _ := a.websites.ResolveURL(args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", args[0], muted(orDash(u)))
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Restore the default sites",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				a.websites.Reset(cmd.Context())
				printSelection(cmd.OutOrStdout(), a)
				return nil
			},
		},
	)
	return cmd
}

func printSelection(w io.Writer, a *App) {
	sel := a.websites.Current()
	if len(sel.Sites) == 0 {
		fmt.Fprintln(w, muted("no active sites"))
		return
	}
	member := a.profile.HasMembership()
	for i, e := range sel.Sites {
		fmt.Fprintln(w, formatEntry(i, e, e.SiteID == sel.Focused, a.websites.Locked(e.SiteID, member), urlOf(a, e.SiteID)))
	}
}

func urlOf(a *App, id string) string {
	u, _ := a.websites.ResolveURL(id)
	return u
}

func formatEntry(i int, e models.SelectionEntry, focused, locked bool, url string) string {
	var b strings.Builder
	marker := " "
	if focused {
		marker = "*"
	}
	fmt.Fprintf(&b, "%s %2d. %s", marker, i+1, e.SiteID)
	if e.Color != "" {
		fmt.Fprintf(&b, " [%s]", e.Color)
	}
	if locked {
		b.WriteString(lockColor.Sprint(" (members)"))
	}
	b.WriteString("  " + muted(orDash(url)))
	return b.String()
}

func newMountedCmd(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mounted",
		Short: "Show which site views are kept alive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			mounted := a.window.Mounted()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "preload %s\n", a.settings.Current().PreloadMode)
			if len(mounted) == 0 {
				fmt.Fprintln(w, muted("nothing mounted"))
				return nil
			}
			fmt.Fprintln(w, strings.Join(mounted, ", "))
			return nil
		},
	}
}
