package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rileyhilliard/sshmenu/internal/config"
	"github.com/rileyhilliard/sshmenu/internal/connect"
	"github.com/rileyhilliard/sshmenu/internal/errors"
	"github.com/rileyhilliard/sshmenu/internal/keys"
	"github.com/rileyhilliard/sshmenu/internal/knownhosts"
	"github.com/rileyhilliard/sshmenu/internal/logger"
	"github.com/rileyhilliard/sshmenu/internal/ui"
	"github.com/rileyhilliard/sshmenu/pkg/sshutil"
	"github.com/spf13/afero"
)

// AppOptions configures NewApp. Zero values pick the real environment.
type AppOptions struct {
	SettingsPath string // empty means config.DefaultPath()
	Home         string // empty means the current user's home
	Fs           afero.Fs
	Runner       connect.Runner
	Log          logger.Logger
	In           io.Reader
	Out          io.Writer

	// SkipKnownHosts leaves known_hosts files alone (read-only commands).
	SkipKnownHosts bool
}

// App is one sshmenu session: settings loaded once, the host list parsed
// once, and the collaborators built from them.
type App struct {
	Settings     *config.Settings
	SettingsPath string
	Home         string
	Hosts        []sshutil.HostRecord

	Keys       *keys.Locator
	KnownHosts *knownhosts.Store
	Resolver   *connect.Resolver
	Connector  *connect.Connector

	log logger.Logger
	in  io.Reader
	out io.Writer
}

// NewApp loads settings, parses the SSH config and consolidates
// known_hosts. A missing SSH config or one without hosts is returned as an
// error since there is nothing to show.
func NewApp(opts AppOptions) (*App, error) {
	if opts.Log == nil {
		opts.Log = logger.Default()
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot determine home directory",
				"Set the HOME environment variable")
		}
		opts.Home = home
	}
	if opts.SettingsPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		opts.SettingsPath = p
	}

	settings := config.LoadWithHome(opts.SettingsPath, opts.Home, opts.Log)

	hosts, err := sshutil.ParseFile(settings.Paths.SSHConfig, opts.Home)
	if err != nil {
		return nil, err
	}
	hosts = sshutil.Describe(hosts, settings)
	opts.Log.Debug("loaded %d host(s) from %s", len(hosts), settings.Paths.SSHConfig)

	for _, alias := range config.UnknownAliases(settings, sshutil.Aliases(hosts)) {
		opts.Log.Debug("settings mention '%s', which is not in %s", alias, settings.Paths.SSHConfig)
	}

	locator := keys.NewLocator(opts.Fs, opts.Log)
	store := knownhosts.NewStore(opts.Fs, opts.Log)

	primary, fallback := settings.Paths.KnownHostsFiles()
	if !opts.SkipKnownHosts {
		if _, err := store.Merge(primary, fallback); err != nil {
			// ssh still works with its own default file
			opts.Log.Warn("couldn't consolidate known_hosts: %v", err)
		}
	}

	connector := connect.NewConnector(opts.Runner, primary, opts.Log)

	return &App{
		Settings:     settings,
		SettingsPath: opts.SettingsPath,
		Home:         opts.Home,
		Hosts:        hosts,
		Keys:         locator,
		KnownHosts:   store,
		Resolver:     connect.NewResolver(settings, locator, opts.Log),
		Connector:    connector,
		log:          opts.Log,
		in:           opts.In,
		out:          opts.Out,
	}, nil
}

// Connect resolves host and runs the attempt sequence. Keys are only
// searched for once the agent attempt fails; finding none is reported and
// ends the sequence. Every error is rendered before it is returned.
func (a *App) Connect(ctx context.Context, host sshutil.HostRecord) error {
	params := a.Resolver.Params(host)

	if st := connect.ProbeAgent(); st.Reachable {
		a.log.Debug("ssh agent at %s holds %d key(s)", st.Socket, len(st.Identities))
	} else if st.Err != nil {
		a.log.Debug("ssh agent not usable: %v", st.Err)
	}

	display := ui.NewAttemptDisplay(a.out, host.Alias)
	a.Connector.OnAttempt = display.Attempt
	res, err := a.Connector.ConnectLazy(ctx, params, func() []string {
		cands, keyErr := a.Resolver.Candidates(host)
		if keyErr != nil {
			ui.RenderError(a.out, keyErr)
		}
		return cands
	})
	display.Finish(res, err)
	return err
}

// Plan returns the ssh command lines Connect would run, without running
// them.
func (a *App) Plan(host sshutil.HostRecord) ([]string, error) {
	params, err := a.Resolver.Resolve(host)
	if err != nil && !errors.IsCode(err, errors.ErrKeys) {
		return nil, err
	}

	primary, _ := a.Settings.Paths.KnownHostsFiles()
	seq := connect.NewSequence(params.IdentityCandidates)
	var lines []string
	for action := seq.Start(); action.Kind == connect.ActionAttempt; action = seq.Next(1) {
		inv := connect.Invocation{Params: params, Attempt: action.Attempt, KnownHostsFile: primary}
		lines = append(lines, inv.String())
	}
	return lines, err
}

// Loop shows the menu until the user quits. Failed connections and bad
// input are reported and the menu comes back.
func (a *App) Loop(ctx context.Context, useTUI bool) error {
	var menu *ui.Menu
	if !useTUI {
		ui.PrintHeader(a.out, ui.HeaderInfo{
			Version: formatVersion(version),
			Hosts:   len(a.Hosts),
			Source:  a.Settings.Paths.SSHConfig,
		})
		menu = ui.NewMenu(a.Hosts, a.in, a.out)
	}

	for {
		var (
			host sshutil.HostRecord
			ok   bool
			err  error
		)
		if useTUI {
			host, ok, err = ui.PickHost(a.Hosts)
		} else {
			host, ok, err = menu.Choose()
		}
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Bye.")
			return nil
		}

		if err := a.Connect(ctx, host); err != nil {
			a.log.Debug("connection to %s ended with: %v", host.Alias, err)
		}
	}
}
