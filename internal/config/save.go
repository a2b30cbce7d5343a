package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/sshmenu/internal/errors"
	"gopkg.in/yaml.v3"
)

const fileHeader = `# sshmenu settings
#
# paths:              where the SSH config and private keys live (${HOME} and ~ expand)
# host_descriptions:  alias -> text shown in the menu
# defaults:           port, user, post_connect_command, working_directory for every host
# per_host_settings:  alias -> any of the defaults fields, overriding them for that host
#
# A User set in the SSH config always wins over these settings.

`

// Save writes cfg as YAML to path, creating the parent directory.
func Save(path string, cfg *Settings) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't generate the settings file",
			"This is unexpected - please report this bug!")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't create settings directory %s", filepath.Dir(path)),
			"Check that you have write permissions.")
	}

	if err := os.WriteFile(path, append([]byte(fileHeader), data...), 0o600); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't write settings file to %s", path),
			"Check that you have write permissions.")
	}

	return nil
}
