package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/atlist/internal/buildinfo"
	"github.com/dmitrijs2005/atlist/internal/client/config"
	"github.com/dmitrijs2005/atlist/internal/logging"
)

// opener returns the App a command tree runs against.
type opener func(ctx context.Context) (*App, error)

// session tracks the App of one command tree.
type session struct {
	open opener
	app  *App
}

func (s *session) get() *App { return s.app }

// newRootCmd builds the command tree. The App is opened lazily before the
// first command runs; closing it is up to the caller.
func newRootCmd(cfg *config.Config, open opener) (*cobra.Command, *session) {
	s := &session{open: open}

	root := &cobra.Command{
		Use:           "atlist",
		Short:         "Atlist keeps your active sites, settings and profile in sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if s.app != nil || cmd.Annotations[noAppAnnotation] == "true" {
				return nil
			}
			app, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			s.app = app
			revealAdminCommands(cmd.Root(), app.profile.IsAdmin())
			return nil
		},
	}
	if cfg != nil {
		config.BindFlags(root.PersistentFlags(), cfg)
	}

	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if s.app == nil {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if app, err := s.open(ctx); err == nil {
				s.app = app
			}
		}
		if s.app != nil {
			revealAdminCommands(cmd.Root(), s.app.profile.IsAdmin())
		}
		defaultHelp(cmd, args)
	})

	root.AddCommand(
		newStatusCmd(s.get),
		newLoginCmd(s.get),
		newLogoutCmd(s.get),
		newSitesCmd(s.get),
		newMountedCmd(s.get),
		newCatalogCmd(s.get),
		newSettingsCmd(s.get),
		newProfileCmd(s.get),
		newTicketCmd(s.get),
		newTicketsCmd(s.get),
		newCheckoutCmd(s.get),
		newDeleteAccountCmd(s.get),
		newClearCacheCmd(s.get),
		newBroadcastCmd(s.get),
		newShellCmd(s.get),
		newVersionCmd(),
	)
	return root, s
}

// noAppAnnotation marks commands that run without opening the App.
const noAppAnnotation = "no-app"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{noAppAnnotation: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}

// adminAnnotation marks commands shown only to admins. The record store
// enforces the permission; hiding them is presentation only.
const adminAnnotation = "admin"

func adminOnly(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[adminAnnotation] = "true"
	cmd.Hidden = true
	return cmd
}

func revealAdminCommands(cmd *cobra.Command, admin bool) {
	for _, c := range cmd.Commands() {
		if c.Annotations[adminAnnotation] == "true" {
			c.Hidden = !admin
		}
		revealAdminCommands(c, admin)
	}
}

// Execute runs the CLI with the process arguments.
func Execute(ctx context.Context) int {
	cfg := config.LoadConfig()

	open := func(ctx context.Context) (*App, error) {
		level := slog.LevelWarn
		if cfg.Verbose {
			level = slog.LevelDebug
		}
		l := logging.NewConsoleLogger(os.Stderr, level)

		app, err := NewApp(ctx, cfg, l)
		if err != nil {
			return nil, err
		}
		if err := app.Start(ctx); err != nil {
			_ = app.Close(ctx)
			return nil, err
		}
		return app, nil
	}

	root, s := newRootCmd(cfg, open)
	err := root.ExecuteContext(ctx)
	if s.app != nil {
		if cerr := s.app.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		printErr(os.Stderr, err)
		return 1
	}
	return 0
}

func requireLogin(a *App) error {
	if !a.isLoggedIn() {
		return fmt.Errorf("not signed in: run `atlist login` first")
	}
	return nil
}
