package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/sshmenu/internal/config"
	"github.com/rileyhilliard/sshmenu/internal/errors"
	"github.com/rileyhilliard/sshmenu/internal/ui"
	"github.com/spf13/cobra"
)

// hostFields is the editable settings for one alias, as text.
type hostFields struct {
	Description string
	User        string
	Port        string
	Command     string
	Workdir     string
}

var hostSetFlags hostFields

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Edit per-host settings",
	Long: `Edit the description and per-host overrides for one SSH alias in the
sshmenu settings file. The SSH config itself is never modified.`,
}

var hostSetCmd = &cobra.Command{
	Use:   "set <alias>",
	Short: "Set the description and overrides for an alias",
	Long: `Set the description and per-host overrides for an alias.

With no flags and a terminal, a form opens prefilled with the current
values. With flags, only the given fields change. An empty value clears
the field.

Examples:
  sshmenu host set web
  sshmenu host set web --description "Frontend" --user deploy
  sshmenu host set db --workdir /srv/app --command "tmux attach"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}
		alias := args[0]

		cfg, err := config.ReadRaw(path)
		if err != nil {
			return err
		}
		fields := fieldsFor(cfg, alias)

		if anyHostFlagChanged(cmd) {
			fields = mergeFlags(cmd, fields, hostSetFlags)
		} else {
			if !ui.IsTerminal(os.Stdin) {
				return errors.New(errors.ErrInput,
					"No fields given and no terminal for the form",
					"Pass --description, --user, --port, --command or --workdir")
			}
			if err := runHostForm(alias, &fields); err != nil {
				return err
			}
		}

		if err := fields.apply(cfg, alias); err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}
		if err := config.Save(path, cfg); err != nil {
			return err
		}

		ui.RenderSuccess(cmd.OutOrStdout(), "Saved settings for %s to %s", alias, path)
		return nil
	},
}

var hostUnsetCmd = &cobra.Command{
	Use:   "unset <alias>",
	Short: "Remove the description and overrides for an alias",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}
		alias := args[0]

		cfg, err := config.ReadRaw(path)
		if err != nil {
			return err
		}
		_, hadDesc := cfg.HostDescriptions[alias]
		_, hadHost := cfg.PerHostSettings[alias]
		if !hadDesc && !hadHost {
			ui.RenderWarning(cmd.OutOrStdout(), "Nothing set for %s", alias)
			return nil
		}

		delete(cfg.HostDescriptions, alias)
		delete(cfg.PerHostSettings, alias)
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		ui.RenderSuccess(cmd.OutOrStdout(), "Removed settings for %s", alias)
		return nil
	},
}

func init() {
	f := hostSetCmd.Flags()
	f.StringVarP(&hostSetFlags.Description, "description", "d", "", "menu description")
	f.StringVarP(&hostSetFlags.User, "user", "u", "", "login user when the SSH config sets none")
	f.StringVarP(&hostSetFlags.Port, "port", "p", "", "port passed to ssh")
	f.StringVarP(&hostSetFlags.Command, "command", "c", "", "command to run after login")
	f.StringVarP(&hostSetFlags.Workdir, "workdir", "w", "", "remote directory to start in")

	hostCmd.AddCommand(hostSetCmd)
	hostCmd.AddCommand(hostUnsetCmd)
	rootCmd.AddCommand(hostCmd)
}

// settingsPath returns --config, or the default settings location.
func settingsPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultPath()
}

var hostFlagNames = []string{"description", "user", "port", "command", "workdir"}

func anyHostFlagChanged(cmd *cobra.Command) bool {
	for _, name := range hostFlagNames {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// mergeFlags overlays the flags the user actually passed onto current.
func mergeFlags(cmd *cobra.Command, current, flags hostFields) hostFields {
	changed := cmd.Flags().Changed
	if changed("description") {
		current.Description = flags.Description
	}
	if changed("user") {
		current.User = flags.User
	}
	if changed("port") {
		current.Port = flags.Port
	}
	if changed("command") {
		current.Command = flags.Command
	}
	if changed("workdir") {
		current.Workdir = flags.Workdir
	}
	return current
}

// fieldsFor reads the current settings for alias.
func fieldsFor(cfg *config.Settings, alias string) hostFields {
	v := cfg.PerHostSettings[alias]
	f := hostFields{
		Description: cfg.HostDescriptions[alias],
		User:        v.User,
		Command:     v.PostConnectCommand,
		Workdir:     v.WorkingDirectory,
	}
	if v.Port != 0 {
		f.Port = strconv.Itoa(v.Port)
	}
	return f
}

// apply writes f into cfg. Empty fields are unset, and an alias left with
// nothing set is removed from both maps.
func (f hostFields) apply(cfg *config.Settings, alias string) error {
	port, err := parsePort(f.Port)
	if err != nil {
		return err
	}

	if cfg.HostDescriptions == nil {
		cfg.HostDescriptions = map[string]string{}
	}
	if cfg.PerHostSettings == nil {
		cfg.PerHostSettings = map[string]config.Values{}
	}

	if desc := strings.TrimSpace(f.Description); desc != "" {
		cfg.HostDescriptions[alias] = desc
	} else {
		delete(cfg.HostDescriptions, alias)
	}

	v := config.Values{
		Port:               port,
		User:               strings.TrimSpace(f.User),
		PostConnectCommand: strings.TrimSpace(f.Command),
		WorkingDirectory:   strings.TrimSpace(f.Workdir),
	}
	if v == (config.Values{}) {
		delete(cfg.PerHostSettings, alias)
	} else {
		cfg.PerHostSettings[alias] = v
	}
	return nil
}

func parsePort(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, errors.New(errors.ErrInput,
			fmt.Sprintf("'%s' is not a valid port", s),
			"Use a number between 1 and 65535, or leave it empty")
	}
	return port, nil
}

func runHostForm(alias string, f *hostFields) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Description").
				Description("Shown next to "+alias+" in the menu").
				Placeholder(config.NoDescription).
				Value(&f.Description),
			huh.NewInput().
				Title("User").
				Description("Used when the SSH config has no User for this host").
				Value(&f.User),
			huh.NewInput().
				Title("Port").
				Placeholder(strconv.Itoa(config.DefaultPort)).
				Value(&f.Port).
				Validate(func(s string) error {
					_, err := parsePort(s)
					return err
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Working directory").
				Description("Remote directory to cd into after login").
				Value(&f.Workdir),
			huh.NewInput().
				Title("Command").
				Description("Runs after login instead of a plain shell").
				Placeholder("tmux new -A -s main").
				Value(&f.Command),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrInput,
			"Failed to get user input",
			"Pass the values as flags instead, e.g. --description")
	}
	return nil
}
