// Package cli parses the command line into an app.Config and defines the
// process exit codes.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/specialistvlad/launchgridgo/internal/app"
)

// Exit codes. Composition failures and fatal crashes are distinguishable so
// wrappers can tell a bad descriptor from a dead launch.
const (
	ExitUsage       = 2
	ExitComposition = 3
	ExitFatalCrash  = 4
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("launchgridgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
LaunchGridGo - a declarative multi-process launch orchestrator.

Usage:
  launchgridgo [options] DESCRIPTOR_PATH [name:=value ...]

Arguments:
  DESCRIPTOR_PATH
    Path to the root launch descriptor (.hcl file).
  name:=value
    Argument overrides for the top-level scope.

Options:
`)
		flagSet.PrintDefaults()
	}

	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Compose and print the flattened plan without spawning anything.")
	graceFlag := flagSet.Duration("grace", 5*time.Second, "Shutdown grace window between termination request and forceful kill.")
	packagePathFlag := flagSet.String("package-path", "", "List-separated package search path. Defaults to $LAUNCHGRID_PACKAGE_PATH.")
	logDirFlag := flagSet.String("log-dir", "", "Directory for per-node log files. Defaults to a fresh temp directory.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	path := flagSet.Arg(0)

	overrides, err := parseOverrides(flagSet.Args()[1:])
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		DescriptorPath: path,
		Overrides:      overrides,
		LogFormat:      logFormat,
		LogLevel:       logLevel,
		DryRun:         *dryRunFlag,
		Grace:          *graceFlag,
		PackagePath:    *packagePathFlag,
		LogDir:         *logDirFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	return config, false, nil
}

// parseOverrides turns trailing name:=value pairs into an override map. The
// first pair for a name wins, matching scope semantics.
func parseOverrides(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	overrides := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, ":=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid argument override %q: expected name:=value", arg)
		}
		if _, dup := overrides[name]; dup {
			continue
		}
		overrides[name] = value
	}
	return overrides, nil
}
