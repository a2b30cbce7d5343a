package connect

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultShellCommand runs the user's login shell after changing directory.
const DefaultShellCommand = "exec $SHELL -l"

// Invocation describes one ssh process.
type Invocation struct {
	Params         EffectiveParams
	Attempt        Attempt
	KnownHostsFile string // consolidated known_hosts, empty to leave ssh's default
}

// RemoteCommand returns the command sent after login, or "" for a plain
// interactive session. A working directory wraps the post-connect command
// (or a login shell) in a cd.
func (p EffectiveParams) RemoteCommand() string {
	cmd := p.PostConnectCommand
	if p.WorkingDirectory == "" {
		return cmd
	}
	if cmd == "" {
		cmd = DefaultShellCommand
	}
	return fmt.Sprintf("cd %s && %s", shellQuote(p.WorkingDirectory), cmd)
}

// Destination is user@target, or just target when no user resolved.
func (p EffectiveParams) Destination() string {
	if p.User == "" {
		return p.Target
	}
	return p.User + "@" + p.Target
}

// Args builds the ssh argument list, without the binary name.
//
// Key attempts force the identity and set IdentitiesOnly so no other key
// is offered. A remote command always requests a TTY since it usually ends
// in an interactive program.
func (inv Invocation) Args() []string {
	var args []string

	if !inv.Attempt.IsAgent() {
		args = append(args, "-i", inv.Attempt.Identity, "-o", "IdentitiesOnly=yes")
	}

	args = append(args, "-p", strconv.Itoa(inv.Params.Port))

	if inv.KnownHostsFile != "" {
		args = append(args, "-o", "UserKnownHostsFile="+inv.KnownHostsFile)
	}

	remote := inv.Params.RemoteCommand()
	if remote != "" {
		args = append(args, "-t")
	}

	args = append(args, inv.Params.Destination())

	if remote != "" {
		args = append(args, remote)
	}
	return args
}

// String renders the invocation as a copy-pasteable command line.
func (inv Invocation) String() string {
	parts := []string{"ssh"}
	for _, a := range inv.Args() {
		if strings.ContainsAny(a, " \t'\"$&|;") {
			a = shellQuote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// shellQuote wraps s in single quotes for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
