package config

import (
	"path/filepath"
	"strings"
)

// HomePlaceholder is replaced with the current user's home directory.
const HomePlaceholder = "${HOME}"

// ExpandTilde replaces ~ or ~/path with home.
// Does not support ~username syntax - just ~ for the current user.
func ExpandTilde(path, home string) string {
	if path == "" || home == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}

	if path == "~" {
		return home
	}

	return path
}

// Expand resolves ${HOME} anywhere in s and a leading ~.
func Expand(s, home string) string {
	if s == "" {
		return s
	}
	if strings.Contains(s, HomePlaceholder) {
		s = strings.ReplaceAll(s, HomePlaceholder, home)
	}
	return ExpandTilde(s, home)
}

// ExpandPaths returns p with every field expanded against home.
func ExpandPaths(p Paths, home string) Paths {
	return Paths{
		SSHConfig:     cleanOrEmpty(Expand(p.SSHConfig, home)),
		SSHDir:        cleanOrEmpty(Expand(p.SSHDir, home)),
		DefaultSSHDir: cleanOrEmpty(Expand(p.DefaultSSHDir, home)),
	}
}

func cleanOrEmpty(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}
