package cli

import (
	"fmt"
	"os"

	"github.com/rileyhilliard/sshmenu/internal/config"
	"github.com/rileyhilliard/sshmenu/internal/errors"
	"github.com/rileyhilliard/sshmenu/internal/logger"
	"github.com/rileyhilliard/sshmenu/internal/ui"
	"github.com/rileyhilliard/sshmenu/pkg/sshutil"
	"github.com/spf13/cobra"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or reset the sshmenu settings file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default settings file",
	Long: `Write the default settings file. An existing file is left alone unless
--force is given, in which case it is replaced.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if _, err := os.Stat(path); err == nil && !configInitForce {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Settings file already exists: %s", path),
				"Use --force to overwrite it with the defaults")
		}

		if err := config.Save(path, config.DefaultSettings()); err != nil {
			return err
		}
		ui.RenderSuccess(out, "Wrote default settings to %s", path)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the settings file and the aliases it mentions",
	Long: `Check that the settings file parses and its values are in range, then
warn about descriptions or per-host entries for aliases that are not in the
SSH config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		raw, err := config.ReadRaw(path)
		if err != nil {
			return err
		}
		if err := config.Validate(raw); err != nil {
			return err
		}

		home, err := os.UserHomeDir()
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot determine home directory",
				"Set the HOME environment variable")
		}
		paths := config.ExpandPaths(raw.Paths, home)
		hosts, err := sshutil.ParseFile(paths.SSHConfig, home)
		if err != nil {
			return err
		}

		unknown := config.UnknownAliases(raw, sshutil.Aliases(hosts))
		for _, alias := range unknown {
			ui.RenderWarning(out, "'%s' is in the settings but not in %s", alias, paths.SSHConfig)
		}
		for _, dir := range paths.KeyDirs() {
			if _, err := os.Stat(dir); err != nil {
				logger.Default().Debug("key directory %s: %v", dir, err)
				ui.RenderWarning(out, "key directory %s does not exist", dir)
			}
		}

		ui.RenderSuccess(out, "%s is valid (%d host(s) in %s)", path, len(hosts), paths.SSHConfig)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing settings file")

	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
