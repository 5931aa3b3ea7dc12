package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// runREPL reads one command per line and hands its fields to exec. The loop
// ends on EOF, "exit" or "quit". Errors are reported and the loop goes on.
func runREPL(ctx context.Context, exec func(ctx context.Context, args []string) error, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("atlist %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "shell":
			printlnFn("Already in the shell")
			continue
		}

		if err := exec(ctx, parts); err != nil {
			printlnFn(errColor.Sprintf("error: %s", describe(err)))
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func newShellCmd(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively against one session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			printlnFn("Atlist shell (type 'help' for commands, 'exit' to leave)")

			exec := func(ctx context.Context, args []string) error {
				root, _ := newRootCmd(nil, func(context.Context) (*App, error) { return a, nil })
				root.SetArgs(args)
				root.SetOut(cmd.OutOrStdout())
				root.SetErr(cmd.ErrOrStderr())
				return root.ExecuteContext(ctx)
			}
			status := func() string {
				return "(" + a.auth.Identity().String() + ")"
			}
			runREPL(cmd.Context(), exec, status, bufio.NewScanner(os.Stdin))
			return nil
		},
	}
}
