package cli

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/rileyhilliard/sshmenu/internal/connect"
	"github.com/rileyhilliard/sshmenu/internal/logger"
	"github.com/rileyhilliard/sshmenu/internal/ui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile     string
	verboseFlag bool
	noColorFlag bool
	tuiFlag     bool
)

// Injected by tests; nil means the real filesystem and ssh binary.
var (
	appFs     afero.Fs
	appRunner connect.Runner
)

var rootCmd = &cobra.Command{
	Use:   "sshmenu",
	Short: "Pick a host from your SSH config and connect",
	Long: `sshmenu reads your SSH config, shows the hosts as a numbered menu and
connects with the ssh client. It tries your ssh agent first, then each
private key it can find, one at a time.

Settings live in ~/.config/sshmenu/config.yaml (override with --config or
SSHMENU_CONFIG): host descriptions, default user/port, a command to run
after login, and per-host overrides.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verboseFlag)
		if noColorFlag || os.Getenv("NO_COLOR") != "" {
			ui.DisableColors()
		}
	},
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		useTUI := tuiFlag && ui.IsTerminal(os.Stdin) && ui.IsTerminal(os.Stdout)
		return app.Loop(cmd.Context(), useTUI)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default ~/.config/sshmenu/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "show debug output")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
	rootCmd.Flags().BoolVar(&tuiFlag, "tui", false, "use the filterable full-screen picker instead of the numbered menu")
}

// newApp builds an App from the global flags, wired to cmd's streams.
func newApp(cmd *cobra.Command, skipKnownHosts bool) (*App, error) {
	return NewApp(AppOptions{
		SettingsPath:   cfgFile,
		Fs:             appFs,
		Runner:         appRunner,
		In:             cmd.InOrStdin(),
		Out:            cmd.OutOrStdout(),
		SkipKnownHosts: skipKnownHosts,
	})
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var shown *reportedError
		if isUsageError(err) {
			rootCmd.PrintErrln("Error:", err)
			rootCmd.PrintErrln("Run 'sshmenu --help' for usage.")
		} else if machineMode {
			_ = WriteJSONFromError(os.Stdout, err)
		} else if !stderrors.As(err, &shown) {
			ui.RenderError(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// reportedError wraps an error that was already rendered, so Execute only
// sets the exit status.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// isUsageError reports whether err came from cobra's argument or flag
// parsing rather than from running a command.
func isUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag") ||
		strings.Contains(msg, "arg(s), received") ||
		strings.HasPrefix(msg, "invalid argument")
}
