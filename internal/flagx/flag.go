// Package flagx lets several components share os.Args. Each component
// parses only the flags it owns; the rest of the command line is handed on
// untouched.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns a slice of command-line arguments that only contains
// the allowed flags (and their values) specified in allowedFlags.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
func FilterArgs(args []string, allowedFlags []string) []string {
	kept, _ := splitArgs(args, allowedFlags)
	return kept
}

// StripArgs is the complement of FilterArgs: it removes the allowed flags
// and their values and returns everything else in its original order.
func StripArgs(args []string, allowedFlags []string) []string {
	_, rest := splitArgs(args, allowedFlags)
	return rest
}

func splitArgs(args []string, allowedFlags []string) (kept, rest []string) {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	// Both results are empty (not nil) so they are always safe to use.
	kept = make([]string, 0, len(args))
	rest = make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--flag=value" or "-f=value"
		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				kept = append(kept, arg)
			} else {
				rest = append(rest, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			rest = append(rest, arg)
			continue
		}

		kept = append(kept, arg)
		// A following token that does not look like a flag is the value.
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			kept = append(kept, args[i+1])
			i++
		}
	}

	return kept, rest
}

// ConfigFileFlagNames are the flags read by ConfigFileFlags.
var ConfigFileFlagNames = []string{"-c", "-config", "-env"}

// ConfigFileFlags inspects os.Args for the JSON config path (-c or -config)
// and the env file path (-env). Missing flags yield empty strings.
func ConfigFileFlags() (jsonPath string, envPath string) {
	args := FilterArgs(os.Args[1:], ConfigFileFlagNames)

	fs := flag.NewFlagSet("files", flag.ContinueOnError)
	fs.StringVar(&jsonPath, "config", "", "Path to config file")
	fs.StringVar(&jsonPath, "c", "", "Path to config file (short)")
	fs.StringVar(&envPath, "env", "", "Path to env file")
	_ = fs.Parse(args)

	return jsonPath, envPath
}
