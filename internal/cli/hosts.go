package cli

import (
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/rileyhilliard/sshmenu/internal/errors"
	"github.com/rileyhilliard/sshmenu/internal/ui"
	"github.com/rileyhilliard/sshmenu/pkg/sshutil"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
)

var errHostNotFound = stderrors.New("host not found")

var (
	listJSON       bool
	connectDryRun  bool
	connectJSONOut bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List hosts from the SSH config",
	Long: `List the hosts sshmenu would show in its menu, numbered the same way.

Examples:
  sshmenu list
  sshmenu list --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		machineMode = listJSON
		app, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if listJSON {
			return WriteJSONSuccess(out, hostsJSON(app.Hosts))
		}

		titles := []string{"#", "ALIAS", "ADDRESS", "USER", "DESCRIPTION"}
		rows := hostRows(app.Hosts)
		fmt.Fprintln(out, ui.RenderSimpleTable(ui.AutoColumns(titles, rows), rows))
		return nil
	},
}

var connectCmd = &cobra.Command{
	Use:   "connect <alias|number|query>",
	Short: "Connect to a host without the menu",
	Long: `Connect straight to one host. The argument is matched as an exact alias,
then as a menu number, then fuzzily against all aliases.

Examples:
  sshmenu connect web
  sshmenu connect 3
  sshmenu connect gpu --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		machineMode = connectJSONOut
		app, err := newApp(cmd, connectDryRun)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		host, how, err := findHost(app.Hosts, args[0])
		if err != nil {
			return err
		}
		if how == matchFuzzy && !connectJSONOut {
			fmt.Fprintf(out, "Matched '%s' to %s\n", args[0], host.Alias)
		}

		if connectDryRun {
			lines, planErr := app.Plan(host)
			if connectJSONOut {
				return WriteJSONSuccess(out, map[string]interface{}{
					"alias":    host.Alias,
					"commands": lines,
					"warning":  ErrorToJSON(planErr),
				})
			}
			if planErr != nil {
				ui.RenderError(out, planErr)
			}
			for _, l := range lines {
				fmt.Fprintln(out, l)
			}
			return nil
		}

		if err := app.Connect(cmd.Context(), host); err != nil {
			return &reportedError{err: err}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	connectCmd.Flags().BoolVarP(&connectDryRun, "dry-run", "n", false, "print the ssh commands instead of running them")
	connectCmd.Flags().BoolVar(&connectJSONOut, "json", false, "with --dry-run, output as JSON")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(connectCmd)
}

type matchKind int

const (
	matchExact matchKind = iota
	matchNumber
	matchFuzzy
)

// findHost picks the host for query: exact alias (first occurrence), then
// 1-based menu number, then the best fuzzy match on alias.
func findHost(hosts []sshutil.HostRecord, query string) (sshutil.HostRecord, matchKind, error) {
	for _, h := range hosts {
		if h.Alias == query {
			return h, matchExact, nil
		}
	}

	if n, err := strconv.Atoi(query); err == nil {
		if n >= 1 && n <= len(hosts) {
			return hosts[n-1], matchNumber, nil
		}
		return sshutil.HostRecord{}, matchNumber, errors.InvalidSelection(query, len(hosts))
	}

	matches := fuzzy.Find(query, sshutil.Aliases(hosts))
	if len(matches) > 0 {
		return hosts[matches[0].Index], matchFuzzy, nil
	}

	return sshutil.HostRecord{}, matchFuzzy, errors.WrapWithCode(errHostNotFound, errors.ErrInput,
		fmt.Sprintf("No host matches '%s'", query),
		"Run 'sshmenu list' to see the available aliases.")
}

func hostRows(hosts []sshutil.HostRecord) [][]string {
	rows := make([][]string, len(hosts))
	for i, h := range hosts {
		rows[i] = []string{strconv.Itoa(i + 1), h.Alias, h.RemoteAddress, h.User, h.Description}
	}
	return rows
}

type hostJSON struct {
	Number       int    `json:"number"`
	Alias        string `json:"alias"`
	Address      string `json:"address,omitempty"`
	User         string `json:"user,omitempty"`
	IdentityFile string `json:"identity_file,omitempty"`
	Description  string `json:"description"`
}

func hostsJSON(hosts []sshutil.HostRecord) []hostJSON {
	out := make([]hostJSON, len(hosts))
	for i, h := range hosts {
		out[i] = hostJSON{
			Number:       i + 1,
			Alias:        h.Alias,
			Address:      h.RemoteAddress,
			User:         h.User,
			IdentityFile: h.IdentityFile,
			Description:  h.Description,
		}
	}
	return out
}
