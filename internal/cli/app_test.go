package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rileyhilliard/sshmenu/internal/connect"
	"github.com/rileyhilliard/sshmenu/internal/errors"
	"github.com/rileyhilliard/sshmenu/internal/logger"
	"github.com/rileyhilliard/sshmenu/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	ui.DisableColors()
	os.Exit(m.Run())
}

const testSSHConfig = `Host *
    ServerAliveInterval 30

Host web
    HostName 1.2.3.4
    User deploy

Host db
    HostName 10.0.0.5

Host cache
    HostName cache.internal
    Port 6380
`

// fakeRunner returns scripted exit codes, 255 once the script runs out.
type fakeRunner struct {
	codes []int
	calls [][]string
}

func (f *fakeRunner) Run(_ context.Context, args []string) (int, error) {
	f.calls = append(f.calls, args)
	if len(f.calls) > len(f.codes) {
		return 255, nil
	}
	return f.codes[len(f.calls)-1], nil
}

// testHome lays out a home directory with an SSH config and, when withKey
// is set, one private key. It returns the home and settings file paths.
func testHome(t *testing.T, withKey bool) (home, settings string) {
	t.Helper()
	t.Setenv(connect.AgentSocketEnv, "")

	home = t.TempDir()
	sshDir := filepath.Join(home, ".ssh")
	require.NoError(t, os.MkdirAll(sshDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(sshDir, "config"), []byte(testSSHConfig), 0o600))
	if withKey {
		require.NoError(t, os.WriteFile(filepath.Join(sshDir, "id_ed25519"), []byte("k"), 0o600))
	}
	return home, filepath.Join(home, ".config", "sshmenu", "config.yaml")
}

func newTestApp(t *testing.T, home, settings string, runner connect.Runner, in string) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	app, err := NewApp(AppOptions{
		SettingsPath: settings,
		Home:         home,
		Runner:       runner,
		Log:          logger.Noop(),
		In:           strings.NewReader(in),
		Out:          &out,
	})
	require.NoError(t, err)
	return app, &out
}

func TestNewApp(t *testing.T) {
	home, settings := testHome(t, true)
	app, _ := newTestApp(t, home, settings, &fakeRunner{}, "")

	assert.Equal(t, []string{"web", "db", "cache"}, aliasesOf(app))
	assert.Equal(t, "No description available", app.Hosts[0].Description)
	assert.Equal(t, filepath.Join(home, ".ssh"), app.Settings.Paths.SSHDir)

	// Defaults are written and known_hosts is consolidated on startup.
	assert.FileExists(t, settings)
	assert.FileExists(t, filepath.Join(home, ".ssh", "known_hosts"))
}

func TestNewAppSkipKnownHosts(t *testing.T) {
	home, settings := testHome(t, true)
	_, err := NewApp(AppOptions{SettingsPath: settings, Home: home, Log: logger.Noop(), SkipKnownHosts: true})
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(home, ".ssh", "known_hosts"))
}

func TestNewAppMissingSSHConfig(t *testing.T) {
	home := t.TempDir()
	_, err := NewApp(AppOptions{
		SettingsPath: filepath.Join(home, "config.yaml"),
		Home:         home,
		Log:          logger.Noop(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfigNotFound)
}

func TestNewAppUsesDescriptions(t *testing.T) {
	home, settings := testHome(t, true)
	require.NoError(t, os.MkdirAll(filepath.Dir(settings), 0o700))
	require.NoError(t, os.WriteFile(settings, []byte(`paths:
  ssh_config: ${HOME}/.ssh/config
  ssh_dir: ${HOME}/.ssh
  default_ssh_dir: ${HOME}/.config/sshmenu/keys
host_descriptions:
  web: Frontend
`), 0o600))

	app, _ := newTestApp(t, home, settings, &fakeRunner{}, "")
	assert.Equal(t, "Frontend", app.Hosts[0].Description)
	assert.Equal(t, "No description available", app.Hosts[1].Description)
}

func TestAppConnectAgentThenKey(t *testing.T) {
	home, settings := testHome(t, true)
	runner := &fakeRunner{codes: []int{255, 0}}
	app, out := newTestApp(t, home, settings, runner, "")

	require.NoError(t, app.Connect(context.Background(), app.Hosts[0]))

	require.Len(t, runner.calls, 2)
	assert.NotContains(t, runner.calls[0], "-i")
	assert.Contains(t, runner.calls[1], filepath.Join(home, ".ssh", "id_ed25519"))
	assert.Contains(t, runner.calls[0], "deploy@1.2.3.4")
	assert.Contains(t, runner.calls[0], "UserKnownHostsFile="+filepath.Join(home, ".ssh", "known_hosts"))

	assert.Contains(t, out.String(), "web: attempt 1 via agent")
	assert.Contains(t, out.String(), "web: attempt 2 with id_ed25519")
	assert.Contains(t, out.String(), "Session with web ended after 2 attempt(s)")
}

func TestAppConnectNoKeysStillTriesAgent(t *testing.T) {
	home, settings := testHome(t, false)
	runner := &fakeRunner{codes: []int{255}}
	app, out := newTestApp(t, home, settings, runner, "")

	err := app.Connect(context.Background(), app.Hosts[1])
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConnectionFailed)
	assert.Len(t, runner.calls, 1)
	assert.Contains(t, out.String(), "No SSH keys available for 'db'")
	assert.Contains(t, out.String(), "Couldn't connect to 'db' after 1 attempt(s)")
}

func TestAppConnectAgentSuccessSkipsKeySearch(t *testing.T) {
	home, settings := testHome(t, false)
	runner := &fakeRunner{codes: []int{0}}
	app, out := newTestApp(t, home, settings, runner, "")

	require.NoError(t, app.Connect(context.Background(), app.Hosts[1]))
	assert.Len(t, runner.calls, 1)
	assert.NotContains(t, out.String(), "No SSH keys available")
	assert.Contains(t, out.String(), "Session with db ended after 1 attempt(s)")
}

func TestAppPlan(t *testing.T) {
	home, settings := testHome(t, true)
	runner := &fakeRunner{}
	app, _ := newTestApp(t, home, settings, runner, "")

	lines, err := app.Plan(app.Hosts[1])
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ssh -p 22 "))
	assert.NotContains(t, lines[0], "-i ")
	assert.Contains(t, lines[1], "-i "+filepath.Join(home, ".ssh", "id_ed25519"))
	assert.True(t, strings.HasSuffix(lines[1], " 10.0.0.5"))
	assert.Empty(t, runner.calls)
}

func TestAppLoop(t *testing.T) {
	t.Run("connects then quits", func(t *testing.T) {
		home, settings := testHome(t, true)
		runner := &fakeRunner{codes: []int{0}}
		app, out := newTestApp(t, home, settings, runner, "3\nq\n")

		require.NoError(t, app.Loop(context.Background(), false))
		require.Len(t, runner.calls, 1)
		assert.Contains(t, runner.calls[0], "cache.internal")
		assert.Contains(t, out.String(), "3 hosts from "+filepath.Join(home, ".ssh", "config"))
		assert.Contains(t, out.String(), "[3] cache")
		assert.Contains(t, out.String(), "Bye.")
	})

	t.Run("failed connection returns to the menu", func(t *testing.T) {
		home, settings := testHome(t, true)
		runner := &fakeRunner{}
		app, out := newTestApp(t, home, settings, runner, "1\n9\nq\n")

		require.NoError(t, app.Loop(context.Background(), false))
		assert.Len(t, runner.calls, 2)
		assert.Contains(t, out.String(), "Couldn't connect to 'web' after 2 attempt(s)")
		assert.Contains(t, out.String(), "'9' is not a valid choice")
		assert.Equal(t, 3, strings.Count(out.String(), "Select a host"))
	})

	t.Run("end of input", func(t *testing.T) {
		home, settings := testHome(t, true)
		app, out := newTestApp(t, home, settings, &fakeRunner{}, "")
		require.NoError(t, app.Loop(context.Background(), false))
		assert.Contains(t, out.String(), "Bye.")
	})
}

func aliasesOf(app *App) []string {
	out := make([]string, len(app.Hosts))
	for i, h := range app.Hosts {
		out[i] = h.Alias
	}
	return out
}
