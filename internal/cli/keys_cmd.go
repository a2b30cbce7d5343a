package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rileyhilliard/sshmenu/internal/connect"
	"github.com/rileyhilliard/sshmenu/internal/keys"
	"github.com/rileyhilliard/sshmenu/internal/ui"
	"github.com/spf13/cobra"
)

var keysJSON bool

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Show the agent and the private keys sshmenu would try",
	Long: `Show the ssh agent status and every private key found in the configured
key directories, in the order they are tried after the agent.

Key type, fingerprint and comment come from the matching .pub file when
there is one; private keys are never decoded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		machineMode = keysJSON
		app, err := newApp(cmd, true)
		if err != nil {
			return err
		}

		dirs := app.Settings.Paths.KeyDirs()
		found := app.Keys.Existing(app.Keys.FindKeys(dirs...))
		infos := make([]keys.KeyInfo, len(found))
		for i, p := range found {
			infos[i] = app.Keys.Describe(p)
		}
		agentStatus := connect.ProbeAgent()

		out := cmd.OutOrStdout()
		if keysJSON {
			return WriteJSONSuccess(out, keysReport(dirs, agentStatus, infos))
		}

		renderAgent(out, agentStatus)
		fmt.Fprintln(out)
		if len(infos) == 0 {
			ui.RenderWarning(out, "No private keys in %v", dirs)
			return nil
		}

		titles := []string{"#", "KEY", "SIZE", "TYPE", "FINGERPRINT", "COMMENT"}
		rows := keyRows(infos)
		fmt.Fprintln(out, ui.RenderSimpleTable(ui.AutoColumns(titles, rows), rows))
		return nil
	},
}

func init() {
	keysCmd.Flags().BoolVar(&keysJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(keysCmd)
}

func renderAgent(w io.Writer, st connect.AgentStatus) {
	switch {
	case st.Socket == "":
		fmt.Fprintf(w, "%s agent: %s is not set\n", ui.SymbolPending, connect.AgentSocketEnv)
	case !st.Reachable:
		fmt.Fprintf(w, "%s agent: %s unreachable (%v)\n", ui.SymbolFail, st.Socket, st.Err)
	default:
		fmt.Fprintf(w, "%s agent: %s, %d key(s) loaded\n", ui.SymbolSuccess, st.Socket, len(st.Identities))
		for _, id := range st.Identities {
			fmt.Fprintf(w, "    %s %s\n", ui.SymbolKey, id)
		}
	}
}

func keyRows(infos []keys.KeyInfo) [][]string {
	rows := make([][]string, len(infos))
	for i, k := range infos {
		typ, fp := k.Type, k.Fingerprint
		if !k.HasPublic {
			typ, fp = "?", "(no .pub)"
		}
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			shortenPath(k.Path),
			humanize.Bytes(uint64(k.Size)),
			typ,
			fp,
			k.Comment,
		}
	}
	return rows
}

// shortenPath keeps the parent directory and file name.
func shortenPath(p string) string {
	return filepath.Join(filepath.Base(filepath.Dir(p)), filepath.Base(p))
}

type keyJSON struct {
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	SizeHuman   string `json:"size_human"`
	Type        string `json:"type,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Comment     string `json:"comment,omitempty"`
}

type agentJSON struct {
	Socket     string   `json:"socket,omitempty"`
	Reachable  bool     `json:"reachable"`
	Identities []string `json:"identities,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type keysJSONReport struct {
	Dirs  []string  `json:"dirs"`
	Agent agentJSON `json:"agent"`
	Keys  []keyJSON `json:"keys"`
}

func keysReport(dirs []string, st connect.AgentStatus, infos []keys.KeyInfo) keysJSONReport {
	r := keysJSONReport{
		Dirs: dirs,
		Agent: agentJSON{
			Socket:     st.Socket,
			Reachable:  st.Reachable,
			Identities: st.Identities,
		},
		Keys: make([]keyJSON, len(infos)),
	}
	if st.Err != nil {
		r.Agent.Error = st.Err.Error()
	}
	for i, k := range infos {
		r.Keys[i] = keyJSON{
			Path:        k.Path,
			Size:        k.Size,
			SizeHuman:   humanize.Bytes(uint64(k.Size)),
			Type:        k.Type,
			Fingerprint: k.Fingerprint,
			Comment:     k.Comment,
		}
	}
	return r
}
