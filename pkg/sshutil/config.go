package sshutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/rileyhilliard/sshmenu/internal/config"
	"github.com/rileyhilliard/sshmenu/internal/errors"
)

// HostRecord is one connectable Host block from an SSH config file.
type HostRecord struct {
	Alias         string // First non-wildcard name on the Host line
	RemoteAddress string // HostName value, may be empty
	User          string // User value, may be empty
	IdentityFile  string // IdentityFile value with ~ expanded, may be empty
	Description   string // Menu text, filled by Describe
}

// Target returns the address to connect to: RemoteAddress, or the alias
// when no HostName was given.
func (h HostRecord) Target() string {
	if h.RemoteAddress != "" {
		return h.RemoteAddress
	}
	return h.Alias
}

// blockState tracks where the scanner is relative to Host blocks.
type blockState int

const (
	notInBlock  blockState = iota // before the first Host line
	inertBlock                    // Host line had only wildcard patterns
	activeBlock                   // Host line named an alias; directives apply
)

// hostBuilder accumulates directives for the open block.
type hostBuilder struct {
	alias         string
	remoteAddress string
	user          string
	identityFile  string
}

func (b *hostBuilder) build() HostRecord {
	return HostRecord{
		Alias:         b.alias,
		RemoteAddress: b.remoteAddress,
		User:          b.user,
		IdentityFile:  b.identityFile,
	}
}

// ParseFile reads the SSH config at path. It fails with ErrConfigNotFound if
// the file does not exist and ErrNoHostsFound if no Host block names an alias.
// Records are returned in file order without descriptions; see Describe.
func ParseFile(path, home string) ([]HostRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't open SSH config %s", path),
			"Check the file permissions")
	}
	defer f.Close()

	hosts, err := scan(f, home)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't read SSH config %s", path),
			"Check the file is readable text")
	}
	if len(hosts) == 0 {
		return nil, errors.NoHostsFound(path)
	}
	return hosts, nil
}

// Parse reads SSH config text from r. A leading ~ in IdentityFile values is
// replaced with home. Zero resulting records is an ErrNoHostsFound error.
func Parse(r io.Reader, home string) ([]HostRecord, error) {
	hosts, err := scan(r, home)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't read SSH config", "")
	}
	if len(hosts) == 0 {
		return nil, errors.NoHostsFound("SSH config")
	}
	return hosts, nil
}

// scan walks the config line by line. Only Host, HostName, User and
// IdentityFile are tracked; every other directive is ignored.
func scan(r io.Reader, home string) ([]HostRecord, error) {
	var (
		hosts   []HostRecord
		state   = notInBlock
		current hostBuilder
	)

	flush := func() {
		if state == activeBlock {
			hosts = append(hosts, current.build())
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value := splitDirective(line)
		switch strings.ToLower(key) {
		case "host":
			flush()
			alias := firstAlias(value)
			if alias == "" {
				state = inertBlock
				continue
			}
			state = activeBlock
			current = hostBuilder{alias: alias}

		case "hostname":
			if state == activeBlock {
				current.remoteAddress = unquote(value)
			}

		case "user":
			if state == activeBlock {
				current.user = unquote(value)
			}

		case "identityfile":
			if state == activeBlock {
				current.identityFile = config.ExpandTilde(unquote(value), home)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	flush()
	return hosts, nil
}

// splitDirective splits "Key Value" or "Key=Value" into its parts.
func splitDirective(line string) (key, value string) {
	i := strings.IndexFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || r == '='
	})
	if i < 0 {
		return line, ""
	}
	rest := strings.TrimLeftFunc(line[i:], unicode.IsSpace)
	rest = strings.TrimPrefix(rest, "=")
	return line[:i], strings.TrimSpace(rest)
}

// firstAlias returns the first Host pattern that is a concrete name.
// Patterns with wildcards or negation can never be used as an alias.
func firstAlias(patterns string) string {
	for _, p := range strings.Fields(patterns) {
		p = unquote(p)
		if p == "" || IsPattern(p) {
			continue
		}
		return p
	}
	return ""
}

// IsPattern reports whether a Host token is a wildcard or negated pattern.
func IsPattern(token string) bool {
	return strings.ContainsAny(token, "*?!")
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// DescriptionSource looks up configured host descriptions.
type DescriptionSource interface {
	Description(alias string) (string, bool)
}

// Describe returns a copy of hosts with Description filled in. Aliases that
// occur more than once get " (#N - <RemoteAddress>)" appended on every
// occurrence, N counting from 1 in list order, so the menu can tell them
// apart. Unique aliases get the plain description.
func Describe(hosts []HostRecord, src DescriptionSource) []HostRecord {
	counts := make(map[string]int, len(hosts))
	for _, h := range hosts {
		counts[h.Alias]++
	}

	seen := make(map[string]int, len(counts))
	out := make([]HostRecord, len(hosts))
	for i, h := range hosts {
		desc := config.NoDescription
		if src != nil {
			if d, ok := src.Description(h.Alias); ok {
				desc = d
			}
		}

		if counts[h.Alias] > 1 {
			seen[h.Alias]++
			desc = fmt.Sprintf("%s (#%d - %s)", desc, seen[h.Alias], h.RemoteAddress)
		}

		h.Description = desc
		out[i] = h
	}
	return out
}

// Aliases returns the alias of each record, in order.
func Aliases(hosts []HostRecord) []string {
	out := make([]string, len(hosts))
	for i, h := range hosts {
		out[i] = h.Alias
	}
	return out
}
