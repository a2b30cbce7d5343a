package cli

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/sshmenu/internal/knownhosts"
	"github.com/rileyhilliard/sshmenu/internal/ui"
	"github.com/spf13/cobra"
)

var (
	knownHostsJSON   bool
	knownHostsNoList bool
)

var knownHostsCmd = &cobra.Command{
	Use:   "known-hosts",
	Short: "Merge known_hosts files and list the result",
	Long: `Merge the fallback known_hosts (next to the extra key directory) into the
one in the SSH directory, dropping duplicate host/key-type pairs, then list
the merged entries.

sshmenu does this on every start; this command shows what it did.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		machineMode = knownHostsJSON
		app, err := newApp(cmd, true)
		if err != nil {
			return err
		}

		primary, fallback := app.Settings.Paths.KnownHostsFiles()
		stats, err := app.KnownHosts.Merge(primary, fallback)
		if err != nil {
			return err
		}
		entries, err := app.KnownHosts.Entries(primary)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if knownHostsJSON {
			return WriteJSONSuccess(out, map[string]interface{}{
				"primary":  primary,
				"fallback": fallback,
				"stats":    stats,
				"entries":  entries,
			})
		}

		ui.RenderSuccess(out, "%s: %d line(s) read, %d written, %d duplicate(s) dropped",
			primary, stats.Read, stats.Written, stats.Duplicates)
		if knownHostsNoList || len(entries) == 0 {
			return nil
		}

		fmt.Fprintln(out)
		titles := []string{"HOSTS", "TYPE", "FINGERPRINT", "MARKER"}
		rows := entryRows(entries)
		fmt.Fprintln(out, ui.RenderSimpleTable(ui.AutoColumns(titles, rows), rows))
		return nil
	},
}

func init() {
	knownHostsCmd.Flags().BoolVar(&knownHostsJSON, "json", false, "output as JSON")
	knownHostsCmd.Flags().BoolVarP(&knownHostsNoList, "quiet", "q", false, "only print the merge summary")
	rootCmd.AddCommand(knownHostsCmd)
}

func entryRows(entries []knownhosts.Entry) [][]string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		hosts := strings.Join(e.Hosts, ",")
		if e.Hashed {
			hosts = "(hashed)"
		}
		rows[i] = []string{hosts, e.KeyType, e.Fingerprint, e.Marker}
	}
	return rows
}
