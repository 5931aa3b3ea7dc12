package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/atlist/internal/client/models"
)

// promptTicket fills the missing ticket fields interactively. Tests replace
// it.
var promptTicket = func(_ context.Context, t *models.Ticket) error {
	category := string(t.Category)
	if category == "" {
		category = string(models.TicketSupport)
	}
	options := make([]string, 0, len(models.TicketCategories))
	for _, c := range models.TicketCategories {
		options = append(options, string(c))
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Category").
			Options(huh.NewOptions(options...)...).
			Value(&category),
		huh.NewInput().
			Title("Subject").
			Value(&t.Subject),
		huh.NewText().
			Title("How can we help?").
			Value(&t.Body),
	))
	if err := form.Run(); err != nil {
		return err
	}
	t.Category = models.TicketCategory(category)
	return nil
}

func newTicketCmd(get func() *App) *cobra.Command {
	var t models.Ticket
	var category string
	cmd := &cobra.Command{
		Use:   "ticket",
		Short: "Contact support",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			t.Category = models.TicketCategory(category)
			if (t.Category == "" || t.Body == "") && isTerminal() {
				if err := promptTicket(cmd.Context(), &t); err != nil {
					return err
				}
			}
			if err := a.support.Submit(cmd.Context(), t); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Thanks! We'll get back to you by email.")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&category, "category", "", "bug, feature or support")
	f.StringVar(&t.Subject, "subject", "", "short summary")
	f.StringVar(&t.Body, "body", "", "message")
	f.StringVar(&t.Email, "email", "", "reply-to address (defaults to the profile email)")
	return cmd
}

func newTicketsCmd(get func() *App) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "List support tickets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			tickets, err := a.remote.ListTickets(cmd.Context(), models.TicketCategory(category))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, t := range tickets {
				fmt.Fprintf(w, "%s  %-8s %-8s %s %s\n",
					t.CreatedAt.Format("2006-01-02 15:04"), t.Category, orDash(t.Status), orDash(t.Subject), muted(orDash(t.Email)))
				if body := strings.TrimSpace(t.Body); body != "" {
					for _, line := range strings.Split(body, "\n") {
						fmt.Fprintf(w, "    %s\n", line)
					}
				}
			}
			if len(tickets) == 0 {
				fmt.Fprintln(w, muted("no tickets"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list one category")
	return adminOnly(cmd)
}
