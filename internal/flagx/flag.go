// Package flagx lets several configuration layers share os.Args: each layer
// filters the arguments down to the flags it owns before parsing them.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// flagName returns the flag name of arg in its single-dash form, or "" when
// arg is not a flag. Both "-c" and "--c" yield "-c"; "--config=x" yields
// "-config".
func flagName(arg string) string {
	if len(arg) < 2 || arg[0] != '-' {
		return ""
	}
	name := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
	if i := strings.IndexByte(name, '='); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return ""
	}
	return "-" + name
}

// FilterArgs returns the subset of args that belongs to allowedFlags,
// keeping each flag's value.
//
// Supported forms:
//
//	-c conf.json     flag and value as separate arguments
//	--config=x.json  flag and value joined with '='
//
// A single or double leading dash is accepted for every flag, matching the
// standard flag package. A separate value is only taken when the next
// argument does not start with '-', so boolean flags followed by another
// flag stay value-less.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		if n := flagName(f); n != "" {
			allowed[n] = struct{}{}
		}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name := flagName(arg)
		if _, ok := allowed[name]; !ok {
			continue
		}

		filtered = append(filtered, arg)
		if strings.Contains(arg, "=") {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFileFlag returns the path given with -c or -config, or "" when
// neither is present. Other arguments are ignored.
func ConfigFileFlag() string {
	var path string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(args)

	return path
}
