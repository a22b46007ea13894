package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/puzzle-labs/puzzle/internal/action"
	"github.com/puzzle-labs/puzzle/internal/branding"
	"github.com/puzzle-labs/puzzle/internal/prompt"
	"github.com/puzzle-labs/puzzle/internal/resolve"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

// Global flags shared by every command.
var (
	flagCwd       string
	flagPlain     bool
	flagLogLevel  string
	flagLogFormat string
	flagLogFile   string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName() + " [piece ...] [KEY=VALUE ...]",
	Short: branding.Description(),
	Long: branding.DisplayName() + ` resolves the variables of a piece, assembles the files it reads and
writes and hands them to a coding agent together with an instruction.

Without a piece argument the available pieces are offered in a checklist.
KEY=VALUE arguments and --var flags set variables that are never asked for.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPieces,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagCwd, "cwd", "", "Working directory (defaults to the current directory)")
	pf.BoolVar(&flagPlain, "plain", false, "Use line prompts instead of the terminal UI")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")
	pf.StringVar(&flagLogFile, "log-file", "", "Write logs to a rotating file instead of stderr")
}

// Execute runs the root command with build info injected via ldflags.
// Errors are printed here; clean aborts get a one-line message.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
	}
	return err
}

// errorMessage renders err for the terminal.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, resolve.ErrAbortedInput), errors.Is(err, prompt.ErrCancelled):
		return "Aborted."
	case errors.Is(err, action.ErrThresholdDeclined):
		return "Aborted: too many referenced files."
	}
	return "Error: " + err.Error()
}
