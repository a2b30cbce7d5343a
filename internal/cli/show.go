package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rileyhilliard/sshmenu/internal/connect"
	"github.com/rileyhilliard/sshmenu/internal/errors"
	"github.com/rileyhilliard/sshmenu/internal/ui"
	"github.com/rileyhilliard/sshmenu/pkg/sshutil"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <alias|number|query>",
	Short: "Show how a host will be connected to",
	Long: `Show the values sshmenu resolves for a host (target, user, port, command,
key candidates) next to what OpenSSH itself would use for the alias.

OpenSSH's view includes directives sshmenu does not track, like Port and
ProxyJump, and values inherited from wildcard blocks.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		host, _, err := findHost(app.Hosts, args[0])
		if err != nil {
			return err
		}

		params, resolveErr := app.Resolver.Resolve(host)
		if resolveErr != nil && !errors.IsCode(resolveErr, errors.ErrKeys) {
			return resolveErr
		}

		out := cmd.OutOrStdout()
		renderParams(out, host, params)
		if resolveErr != nil {
			ui.RenderError(out, resolveErr)
		}

		primary, _ := app.Settings.Paths.KnownHostsFiles()
		if known, err := app.KnownHosts.Known(primary, params.Target, params.Port); err == nil {
			state := "not yet"
			if known {
				state = "yes"
			}
			fmt.Fprintf(out, "  %-14s %s (%s)\n", "known host", state, primary)
		}

		fmt.Fprintln(out)
		eff, err := sshutil.Inspect(app.Settings.Paths.SSHConfig, host.Alias, app.Home)
		if err != nil {
			ui.RenderError(out, err)
			return nil
		}
		renderEffective(out, eff, params)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func renderParams(w io.Writer, host sshutil.HostRecord, p connect.EffectiveParams) {
	fmt.Fprintf(w, "%s\n", host.Alias)
	fmt.Fprintf(w, "  %-14s %s\n", "description", host.Description)
	fmt.Fprintf(w, "  %-14s %s\n", "target", p.Target)
	fmt.Fprintf(w, "  %-14s %s\n", "user", orDash(p.User))
	fmt.Fprintf(w, "  %-14s %d\n", "port", p.Port)
	fmt.Fprintf(w, "  %-14s %s\n", "command", orDash(p.PostConnectCommand))
	fmt.Fprintf(w, "  %-14s %s\n", "directory", orDash(p.WorkingDirectory))
	fmt.Fprintf(w, "  %-14s agent, then %d key(s)\n", "identities", len(p.IdentityCandidates))
	for _, c := range p.IdentityCandidates {
		fmt.Fprintf(w, "  %-14s %s %s\n", "", ui.SymbolKey, c)
	}
}

func renderEffective(w io.Writer, eff sshutil.Effective, p connect.EffectiveParams) {
	fmt.Fprintln(w, "OpenSSH would use:")
	fmt.Fprintf(w, "  %-14s %s\n", "hostname", eff.HostName)
	fmt.Fprintf(w, "  %-14s %s\n", "user", orDash(eff.User))
	fmt.Fprintf(w, "  %-14s %s\n", "port", eff.Port)
	fmt.Fprintf(w, "  %-14s %s\n", "proxyjump", orDash(eff.ProxyJump))
	fmt.Fprintf(w, "  %-14s %s\n", "identityfile", orDash(strings.Join(eff.IdentityFiles, ", ")))

	if eff.Port != "" && eff.Port != strconv.Itoa(p.Port) {
		ui.RenderWarning(w, "sshmenu passes -p %d, which overrides Port %s from the SSH config", p.Port, eff.Port)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
