package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/sshmenu/internal/errors"
	"github.com/rileyhilliard/sshmenu/internal/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// GlobalConfigDir is the directory, relative to home, holding the settings file.
	GlobalConfigDir = ".config/sshmenu"
	// GlobalConfigFile is the settings file name.
	GlobalConfigFile = "config.yaml"
	// PathEnv overrides the settings file location.
	PathEnv = "SSHMENU_CONFIG"
	// EnvPrefix prefixes environment overrides, e.g. SSHMENU_DEFAULTS_USER.
	EnvPrefix = "SSHMENU"
)

// DefaultPath returns the settings file location: $SSHMENU_CONFIG if set,
// otherwise ~/.config/sshmenu/config.yaml.
func DefaultPath() (string, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine home directory",
			"Set HOME, or pass --config explicitly")
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile), nil
}

// Load reads settings from path using the current user's home directory
// for placeholder expansion.
func Load(path string, log logger.Logger) (*Settings, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine home directory",
			"Set the HOME environment variable")
	}
	return LoadWithHome(path, home, log), nil
}

// LoadWithHome reads settings from path and resolves ${HOME} and ~ against
// home. A missing, empty or unparseable file is replaced by the default
// settings, which are written back to path; this never fails.
func LoadWithHome(path, home string, log logger.Logger) *Settings {
	if log == nil {
		log = logger.Noop()
	}

	cfg, err := read(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("settings file %s is unusable, regenerating defaults: %v", path, err)
			backup(path, log)
		} else {
			log.Debug("settings file %s not found, writing defaults", path)
		}
		cfg = DefaultSettings()
		if saveErr := Save(path, cfg); saveErr != nil {
			log.Warn("couldn't write default settings to %s: %v", path, saveErr)
		}
	}

	cfg.Paths = ExpandPaths(cfg.Paths, home)
	return cfg
}

// ReadRaw reads settings without placeholder expansion or environment
// overrides, for editing and writing back. A missing file yields the
// defaults.
func ReadRaw(path string) (*Settings, error) {
	cfg, err := readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't parse the settings file",
			"Fix the YAML syntax in "+path+", or delete it to regenerate defaults")
	}
	return cfg, nil
}

// readFile parses path as written, filling unset scalars from the defaults.
func readFile(path string) (*Settings, error) {
	content, err := readContent(path)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(content)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// read parses path for use at runtime. Scalar sections go through viper so
// SSHMENU_* environment variables can override them; alias-keyed maps are
// decoded with yaml.v3 because viper lower-cases map keys and aliases are
// case-sensitive.
func read(path string) (*Settings, error) {
	content, err := readContent(path)
	if err != nil {
		return nil, err
	}
	file, err := decode(content)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultSettings())

	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, err
	}

	cfg := &Settings{
		Paths: Paths{
			SSHConfig:     v.GetString("paths.ssh_config"),
			SSHDir:        v.GetString("paths.ssh_dir"),
			DefaultSSHDir: v.GetString("paths.default_ssh_dir"),
		},
		HostDescriptions: file.HostDescriptions,
		Defaults: Values{
			Port:               v.GetInt("defaults.port"),
			User:               v.GetString("defaults.user"),
			PostConnectCommand: v.GetString("defaults.post_connect_command"),
			WorkingDirectory:   v.GetString("defaults.working_directory"),
		},
		PerHostSettings: file.PerHostSettings,
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readContent(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, errors.New(errors.ErrConfig, "Settings file is empty", "")
	}
	return content, nil
}

// decode unmarshals content with yaml.v3 alone. Zero scalars take the
// default value and nil maps become empty.
func decode(content []byte) (*Settings, error) {
	var file Settings
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, err
	}

	d := DefaultSettings()
	file.Paths.SSHConfig = firstString(file.Paths.SSHConfig, d.Paths.SSHConfig)
	file.Paths.SSHDir = firstString(file.Paths.SSHDir, d.Paths.SSHDir)
	file.Paths.DefaultSSHDir = firstString(file.Paths.DefaultSSHDir, d.Paths.DefaultSSHDir)
	file.Defaults.Port = firstInt(file.Defaults.Port, d.Defaults.Port)
	file.Defaults.User = firstString(file.Defaults.User, d.Defaults.User)
	file.Defaults.PostConnectCommand = firstString(file.Defaults.PostConnectCommand, d.Defaults.PostConnectCommand)
	file.Defaults.WorkingDirectory = firstString(file.Defaults.WorkingDirectory, d.Defaults.WorkingDirectory)

	if file.HostDescriptions == nil {
		file.HostDescriptions = map[string]string{}
	}
	if file.PerHostSettings == nil {
		file.PerHostSettings = map[string]Values{}
	}
	return &file, nil
}

// setDefaults registers every scalar key so missing keys fall back to the
// defaults and AutomaticEnv can see them.
func setDefaults(v *viper.Viper, d *Settings) {
	v.SetDefault("paths.ssh_config", d.Paths.SSHConfig)
	v.SetDefault("paths.ssh_dir", d.Paths.SSHDir)
	v.SetDefault("paths.default_ssh_dir", d.Paths.DefaultSSHDir)
	v.SetDefault("defaults.port", d.Defaults.Port)
	v.SetDefault("defaults.user", d.Defaults.User)
	v.SetDefault("defaults.post_connect_command", d.Defaults.PostConnectCommand)
	v.SetDefault("defaults.working_directory", d.Defaults.WorkingDirectory)
}

// backup keeps a copy of an unusable settings file next to it before it is
// overwritten with defaults.
func backup(path string, log logger.Logger) {
	data, err := os.ReadFile(path)
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return
	}
	if err := os.Rename(path, path+".bak"); err != nil {
		log.Warn("couldn't back up %s: %v", path, err)
		return
	}
	log.Info("previous settings saved to %s.bak", path)
}
