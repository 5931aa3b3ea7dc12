// Package flagx pre-filters command-line arguments so that a config layer can
// parse its own flags without tripping over flags owned by somebody else
// (cobra subcommands, test binaries).
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only the allowed flags and their values.
//
// Both "-c conf.json" and "--config=conf.json" are recognised. A token that
// starts with '-' is never taken as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	return FilterArgsWithBools(args, allowedFlags, nil)
}

// FilterArgsWithBools is FilterArgs with a second list of boolean flags.
// Boolean flags never consume the following token, so "-seed serve" keeps
// "serve" out of the result.
func FilterArgsWithBools(args []string, valued []string, bools []string) []string {
	takesValue := make(map[string]bool, len(valued)+len(bools))
	for _, f := range valued {
		takesValue[f] = true
	}
	for _, f := range bools {
		takesValue[f] = false
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := takesValue[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		withValue, ok := takesValue[arg]
		if !ok {
			continue
		}
		filtered = append(filtered, arg)
		if withValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// JsonConfigPath returns the value of -c / -config in args, or "".
func JsonConfigPath(args []string) string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.SetOutput(discard{})
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return config
}

// JsonConfigFlags is JsonConfigPath applied to the process arguments.
func JsonConfigFlags() string {
	return JsonConfigPath(os.Args[1:])
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
