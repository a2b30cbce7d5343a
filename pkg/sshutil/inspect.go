package sshutil

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/kevinburke/ssh_config"
	"github.com/rileyhilliard/sshmenu/internal/config"
	"github.com/rileyhilliard/sshmenu/internal/errors"
)

// Effective is what OpenSSH itself resolves for an alias, including
// directives sshmenu's own parser does not track (Port, ProxyJump) and
// values inherited from wildcard blocks.
type Effective struct {
	Alias         string
	HostName      string
	Port          string
	User          string
	ProxyJump     string
	IdentityFiles []string
}

// Inspect decodes the SSH config at path with full OpenSSH matching rules
// and returns the effective values for alias. Match blocks are skipped
// because the decoder does not support them.
func Inspect(path, alias, home string) (Effective, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Effective{}, errors.ConfigNotFound(path)
		}
		return Effective{}, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't read SSH config %s", path),
			"Check the file permissions")
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(stripMatchBlocks(content)))
	if err != nil {
		return Effective{}, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't decode SSH config %s", path),
			"Run 'ssh -G "+alias+"' to see what OpenSSH makes of it")
	}

	eff := Effective{Alias: alias}
	eff.HostName, _ = cfg.Get(alias, "HostName")
	eff.Port, _ = cfg.Get(alias, "Port")
	eff.User, _ = cfg.Get(alias, "User")
	eff.ProxyJump, _ = cfg.Get(alias, "ProxyJump")

	files, _ := cfg.GetAll(alias, "IdentityFile")
	for _, f := range files {
		eff.IdentityFiles = append(eff.IdentityFiles, config.ExpandTilde(f, home))
	}

	if eff.HostName == "" {
		eff.HostName = alias
	}
	if eff.Port == "" {
		eff.Port = ssh_config.Default("Port")
	}
	return eff, nil
}

// stripMatchBlocks drops every Match line and the directives under it, up
// to the next Host line.
func stripMatchBlocks(content []byte) []byte {
	var out bytes.Buffer
	inMatch := false

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		key, _ := splitDirective(strings.TrimSpace(line))
		switch strings.ToLower(key) {
		case "match":
			inMatch = true
			continue
		case "host":
			inMatch = false
		}
		if inMatch {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.Bytes()
}
