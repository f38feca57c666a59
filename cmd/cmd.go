// Package cmd implements the dura command
//
// It is in a sub package so it's internals can be re-used elsewhere
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/durabackup/dura/archive"
	"github.com/durabackup/dura/archive/band"
	"github.com/durabackup/dura/dura"
	"github.com/durabackup/dura/lib/atexit"
	"github.com/durabackup/dura/lib/random"
	"github.com/durabackup/dura/restore"
)

// Globals
var (
	// Flags
	verbose    int
	configPath string
	jsonLog    bool
	logLevel   = dura.LogLevelNotice
	// Errors
	errorUncategorized      = errors.New("uncategorized error")
	errorNotEnoughArguments = errors.New("not enough arguments")
	errorTooManyArguments   = errors.New("too many arguments")
)

const (
	exitCodeSuccess = iota
	exitCodeUsageError
	exitCodeUncategorizedError
	exitCodeNotAnArchive
	exitCodeArchiveEmpty
	exitCodeValidateError
	exitCodeNotEmpty
)

// Root is the main dura command
var Root = &cobra.Command{
	Use:   "dura",
	Short: "Robust file backup",
	Long: `Dura copies files into a content addressed archive and back out
again.  Every backup is a full snapshot, stored incrementally.`,
	Version:       dura.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	persistentFlags := Root.PersistentFlags()
	ci := dura.GetConfig(context.Background())
	persistentFlags.CountVarP(&verbose, "verbose", "v", "Print lots more stuff (repeat for more)")
	persistentFlags.VarP(&logLevel, "log-level", "", "Log level DEBUG|INFO|NOTICE|ERROR")
	persistentFlags.StringVarP(&ci.LogFile, "log-file", "", "", "Log everything to this file")
	persistentFlags.BoolVarP(&jsonLog, "use-json-log", "", false, "Use json log format")
	persistentFlags.StringVarP(&configPath, "config", "", "", "Config file (TOML)")
}

// CheckArgs checks there are enough arguments and prints a message if not
func CheckArgs(MinArgs, MaxArgs int, cmd *cobra.Command, args []string) error {
	if len(args) < MinArgs {
		_ = cmd.Usage()
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Command %s needs %d arguments minimum: you provided %d non flag arguments: %q\n", cmd.Name(), MinArgs, len(args), args)
		return errorNotEnoughArguments
	} else if len(args) > MaxArgs {
		_ = cmd.Usage()
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Command %s needs %d arguments maximum: you provided %d non flag arguments: %q\n", cmd.Name(), MaxArgs, len(args), args)
		return errorTooManyArguments
	}
	return nil
}

// OpenArchive opens the archive named by the first argument.
func OpenArchive(args []string) (*archive.Archive, error) {
	a, err := archive.Open(args[0])
	if err != nil {
		return nil, err
	}
	dura.Debugf(a, "Opened archive")
	return a, nil
}

// ParseBandSelection turns the value of a --backup flag into a band
// selection.  An empty string selects the latest complete version.
func ParseBandSelection(s string) (archive.BandSelection, error) {
	if s == "" {
		return archive.BandSelection{}, nil
	}
	id, err := band.ParseID(s)
	if err != nil {
		return archive.BandSelection{}, err
	}
	return archive.BandSelection{Band: &id}, nil
}

// Run runs the function and resolves the process exit code from its
// error.  It only returns when the function succeeds.
func Run(cmd *cobra.Command, f func() error) error {
	err := f()
	if err != nil {
		dura.Errorf(nil, "Failed to %s: %v", cmd.Name(), err)
		resolveExitCode(err)
	}
	return nil
}

// initConfig is run by cobra after initialising the flags
func initConfig() {
	ctx := context.Background()
	ci := dura.GetConfig(ctx)

	// Config file defaults are applied first
	if configPath != "" {
		if err := dura.LoadConfigFile(configPath, ci); err != nil {
			log.Fatalf("Failed to load config file %q: %v", configPath, err)
		}
	}

	// Explicit command line flags override the file
	if Root.PersistentFlags().Changed("log-level") {
		ci.LogLevel = logLevel
	}
	if Root.PersistentFlags().Changed("use-json-log") {
		ci.UseJSONLog = jsonLog
	}
	if verbose >= 2 {
		ci.LogLevel = dura.LogLevelDebug
	} else if verbose == 1 {
		ci.LogLevel = dura.LogLevelInfo
	}

	// Start the logger
	dura.InitLogging()

	// Write the args for debug purposes
	dura.Debugf("dura", "Version %q starting with parameters %q", dura.Version, os.Args)
}

func resolveExitCode(err error) {
	atexit.Run()
	if err == nil {
		os.Exit(exitCodeSuccess)
	}

	cause := errors.Cause(err)

	switch {
	case cause == errorNotEnoughArguments || cause == errorTooManyArguments:
		os.Exit(exitCodeUsageError)
	case cause == archive.ErrNotAnArchive:
		os.Exit(exitCodeNotAnArchive)
	case cause == archive.ErrArchiveEmpty:
		os.Exit(exitCodeArchiveEmpty)
	case cause == archive.ErrValidationFailed:
		os.Exit(exitCodeValidateError)
	case cause == archive.ErrNotEmpty || cause == restore.ErrDestinationNotEmpty:
		os.Exit(exitCodeNotEmpty)
	case cause == errorUncategorized:
		os.Exit(exitCodeUncategorizedError)
	default:
		os.Exit(exitCodeUsageError)
	}
}

// Main runs dura interpreting flags and commands out of os.Args
func Main() {
	if err := random.Seed(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
	if err := Root.Execute(); err != nil {
		dura.Errorf(nil, "Fatal error: %v", err)
		resolveExitCode(err)
	}
	resolveExitCode(nil)
}
