package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rileyhilliard/sshmenu/internal/errors"
)

const maxPort = 65535

// Validate checks field ranges. Settings that fail validation are treated
// like an unparseable file by the loader.
func Validate(cfg *Settings) error {
	if cfg.Paths.SSHConfig == "" {
		return errors.New(errors.ErrConfig,
			"paths.ssh_config is empty",
			"Point it at your OpenSSH client config, e.g. ${HOME}/.ssh/config")
	}

	if err := validatePort("defaults", cfg.Defaults.Port); err != nil {
		return err
	}

	aliases := make([]string, 0, len(cfg.PerHostSettings))
	for alias := range cfg.PerHostSettings {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	for _, alias := range aliases {
		if strings.TrimSpace(alias) == "" {
			return errors.New(errors.ErrConfig,
				"per_host_settings has an entry with an empty alias",
				"Remove it or give it the alias used in your SSH config")
		}
		if err := validatePort("per_host_settings."+alias, cfg.PerHostSettings[alias].Port); err != nil {
			return err
		}
	}

	return nil
}

func validatePort(section string, port int) error {
	if port < 0 || port > maxPort {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s.port %d is out of range", section, port),
			fmt.Sprintf("Use a port between 1 and %d, or leave it unset", maxPort))
	}
	return nil
}

// UnknownAliases returns settings entries (per-host or description) whose
// alias does not appear in known. They are harmless but usually typos.
func UnknownAliases(cfg *Settings, known []string) []string {
	seen := make(map[string]bool, len(known))
	for _, a := range known {
		seen[a] = true
	}

	unknown := map[string]bool{}
	for alias := range cfg.PerHostSettings {
		if !seen[alias] {
			unknown[alias] = true
		}
	}
	for alias := range cfg.HostDescriptions {
		if !seen[alias] {
			unknown[alias] = true
		}
	}

	out := make([]string, 0, len(unknown))
	for alias := range unknown {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}
