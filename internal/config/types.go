package config

import "path/filepath"

// DefaultPort is used when neither the per-host entry nor the defaults set a port.
const DefaultPort = 22

// NoDescription is shown for aliases without a configured description.
const NoDescription = "No description available"

// Settings is the sshmenu settings file. It is loaded once at startup and
// treated as read-only afterwards; components receive it through their
// constructors.
type Settings struct {
	Paths Paths `yaml:"paths" mapstructure:"paths"`

	// HostDescriptions maps an SSH alias to free text shown in the menu.
	HostDescriptions map[string]string `yaml:"host_descriptions" mapstructure:"-"`

	// Defaults is the fallback for every alias.
	Defaults Values `yaml:"defaults" mapstructure:"defaults"`

	// PerHostSettings overrides Defaults for one alias. Zero fields are unset.
	PerHostSettings map[string]Values `yaml:"per_host_settings" mapstructure:"-"`
}

// Paths locates the SSH config file and the key search directories.
// Values may contain ${HOME} or a leading ~, resolved at load time.
type Paths struct {
	// SSHConfig is the OpenSSH client config to read hosts from.
	SSHConfig string `yaml:"ssh_config" mapstructure:"ssh_config"`

	// SSHDir is the primary key directory and holds the consolidated known_hosts.
	SSHDir string `yaml:"ssh_dir" mapstructure:"ssh_dir"`

	// DefaultSSHDir is searched for keys after SSHDir.
	DefaultSSHDir string `yaml:"default_ssh_dir" mapstructure:"default_ssh_dir"`
}

// KeyDirs returns the key search directories in priority order.
func (p Paths) KeyDirs() []string {
	dirs := make([]string, 0, 2)
	for _, d := range []string{p.SSHDir, p.DefaultSSHDir} {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// KnownHostsFiles returns the consolidated (primary) known_hosts path and
// the fallback one merged into it.
func (p Paths) KnownHostsFiles() (primary, fallback string) {
	if p.SSHDir != "" {
		primary = filepath.Join(p.SSHDir, "known_hosts")
	}
	if p.DefaultSSHDir != "" {
		fallback = filepath.Join(p.DefaultSSHDir, "known_hosts")
	}
	return primary, fallback
}

// Values is the set of connection settings that can be overridden per host.
type Values struct {
	Port               int    `yaml:"port,omitempty" mapstructure:"port"`
	User               string `yaml:"user,omitempty" mapstructure:"user"`
	PostConnectCommand string `yaml:"post_connect_command,omitempty" mapstructure:"post_connect_command"`
	WorkingDirectory   string `yaml:"working_directory,omitempty" mapstructure:"working_directory"`
}

// Resolve merges explicit values (from the SSH config) with the per-host
// entry for alias and the defaults. Each field independently takes the
// first non-zero value in the order explicit, per-host, defaults.
func (s *Settings) Resolve(alias string, explicit Values) Values {
	perHost := s.PerHostSettings[alias]

	out := Values{
		Port:               firstInt(explicit.Port, perHost.Port, s.Defaults.Port),
		User:               firstString(explicit.User, perHost.User, s.Defaults.User),
		PostConnectCommand: firstString(explicit.PostConnectCommand, perHost.PostConnectCommand, s.Defaults.PostConnectCommand),
		WorkingDirectory:   firstString(explicit.WorkingDirectory, perHost.WorkingDirectory, s.Defaults.WorkingDirectory),
	}
	if out.Port == 0 {
		out.Port = DefaultPort
	}
	return out
}

// Description returns the configured description for alias.
func (s *Settings) Description(alias string) (string, bool) {
	d, ok := s.HostDescriptions[alias]
	if !ok || d == "" {
		return "", false
	}
	return d, true
}

// DefaultSettings returns the settings written when no usable file exists.
func DefaultSettings() *Settings {
	return &Settings{
		Paths: Paths{
			SSHConfig:     "${HOME}/.ssh/config",
			SSHDir:        "${HOME}/.ssh",
			DefaultSSHDir: "${HOME}/.config/sshmenu/keys",
		},
		HostDescriptions: map[string]string{},
		Defaults: Values{
			Port: DefaultPort,
		},
		PerHostSettings: map[string]Values{},
	}
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstInt(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
