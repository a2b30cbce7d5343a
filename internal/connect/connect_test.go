package connect

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rileyhilliard/sshmenu/internal/config"
	"github.com/rileyhilliard/sshmenu/internal/errors"
	"github.com/rileyhilliard/sshmenu/internal/keys"
	"github.com/rileyhilliard/sshmenu/internal/logger"
	"github.com/rileyhilliard/sshmenu/pkg/sshutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh/agent"
)

// fakeRunner returns scripted exit codes and records every invocation.
type fakeRunner struct {
	codes []int
	err   error
	calls [][]string
}

func (f *fakeRunner) Run(_ context.Context, args []string) (int, error) {
	f.calls = append(f.calls, args)
	if f.err != nil {
		return -1, f.err
	}
	if len(f.calls) > len(f.codes) {
		return 255, nil
	}
	return f.codes[len(f.calls)-1], nil
}

func newSettings() *config.Settings {
	s := config.DefaultSettings()
	s.Paths = config.Paths{
		SSHConfig:     "/home/u/.ssh/config",
		SSHDir:        "/home/u/.ssh",
		DefaultSSHDir: "/home/u/.config/sshmenu/keys",
	}
	return s
}

func memFS(t *testing.T, files ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(f), 0o700))
		require.NoError(t, afero.WriteFile(fs, f, []byte("k"), 0o600))
	}
	return fs
}

func TestResolvePrecedence(t *testing.T) {
	settings := newSettings()
	settings.Defaults = config.Values{Port: 22, User: "default-user", PostConnectCommand: "htop", WorkingDirectory: "/srv"}
	settings.PerHostSettings["web"] = config.Values{Port: 2222, User: "per-host", PostConnectCommand: "tmux a"}

	fs := memFS(t, "/home/u/.ssh/id_rsa")
	r := NewResolver(settings, keys.NewLocator(fs, nil), nil)

	t.Run("host user wins", func(t *testing.T) {
		p, err := r.Resolve(sshutil.HostRecord{Alias: "web", RemoteAddress: "1.2.3.4", User: "explicit"})
		require.NoError(t, err)
		assert.Equal(t, "explicit", p.User)
		assert.Equal(t, 2222, p.Port)
		assert.Equal(t, "tmux a", p.PostConnectCommand)
		assert.Equal(t, "/srv", p.WorkingDirectory)
		assert.Equal(t, "1.2.3.4", p.Target)
	})

	t.Run("per-host beats defaults", func(t *testing.T) {
		p, err := r.Resolve(sshutil.HostRecord{Alias: "web"})
		require.NoError(t, err)
		assert.Equal(t, "per-host", p.User)
		assert.Equal(t, "web", p.Target)
	})

	t.Run("defaults when nothing else", func(t *testing.T) {
		p, err := r.Resolve(sshutil.HostRecord{Alias: "other"})
		require.NoError(t, err)
		assert.Equal(t, "default-user", p.User)
		assert.Equal(t, 22, p.Port)
		assert.Equal(t, "htop", p.PostConnectCommand)
	})
}

func TestResolveDefaultUserExample(t *testing.T) {
	settings := newSettings()
	settings.Defaults.User = "alice"

	r := NewResolver(settings, keys.NewLocator(memFS(t, "/home/u/.ssh/id_ed25519"), nil), nil)
	p, err := r.Resolve(sshutil.HostRecord{Alias: "box"})
	require.NoError(t, err)
	assert.Equal(t, "alice", p.User)
}

func TestResolveIdentityFile(t *testing.T) {
	fs := memFS(t,
		"/keys/box.pem",
		"/home/u/.ssh/id_rsa",
		"/home/u/.config/sshmenu/keys/extra.key",
	)
	r := NewResolver(newSettings(), keys.NewLocator(fs, nil), nil)

	t.Run("existing identity file is the only candidate", func(t *testing.T) {
		p, err := r.Resolve(sshutil.HostRecord{Alias: "box", IdentityFile: "/keys/box.pem"})
		require.NoError(t, err)
		assert.Equal(t, []string{"/keys/box.pem"}, p.IdentityCandidates)
	})

	t.Run("missing identity file falls back to search", func(t *testing.T) {
		p, err := r.Resolve(sshutil.HostRecord{Alias: "box", IdentityFile: "/keys/gone.pem"})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"/home/u/.config/sshmenu/keys/extra.key",
			"/home/u/.ssh/id_rsa",
		}, p.IdentityCandidates)
	})

	t.Run("no identity file searches both dirs", func(t *testing.T) {
		p, err := r.Resolve(sshutil.HostRecord{Alias: "box"})
		require.NoError(t, err)
		assert.Len(t, p.IdentityCandidates, 2)
	})
}

func TestResolveNoKeys(t *testing.T) {
	log := logger.NewBufferLogger()
	r := NewResolver(newSettings(), keys.NewLocator(afero.NewMemMapFs(), log), log)

	p, err := r.Resolve(sshutil.HostRecord{Alias: "lonely", RemoteAddress: "10.0.0.9", User: "bob"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoKeysAvailable)
	assert.True(t, errors.IsCode(err, errors.ErrKeys))
	assert.True(t, errors.IsRecoverable(err))

	// Params are still usable for the agent attempt.
	assert.Equal(t, "bob", p.User)
	assert.Equal(t, "10.0.0.9", p.Target)
	assert.Empty(t, p.IdentityCandidates)
}

func TestSequence(t *testing.T) {
	t.Run("agent success", func(t *testing.T) {
		s := NewSequence([]string{"/k/a", "/k/b"})
		a := s.Start()
		assert.Equal(t, ActionAttempt, a.Kind)
		assert.True(t, a.Attempt.IsAgent())
		assert.Equal(t, 1, a.Attempt.Number)

		done := s.Next(0)
		assert.Equal(t, ActionDone, done.Kind)
		assert.Equal(t, 1, done.Attempts)
	})

	t.Run("keys in order until success", func(t *testing.T) {
		s := NewSequence([]string{"/k/a", "/k/b", "/k/c"})
		s.Start()

		a := s.Next(255)
		require.Equal(t, ActionAttempt, a.Kind)
		assert.Equal(t, "/k/a", a.Attempt.Identity)
		assert.Equal(t, 2, a.Attempt.Number)

		b := s.Next(1)
		assert.Equal(t, "/k/b", b.Attempt.Identity)

		done := s.Next(0)
		assert.Equal(t, ActionDone, done.Kind)
		assert.Equal(t, 3, done.Attempts)
	})

	t.Run("exhausted", func(t *testing.T) {
		s := NewSequence([]string{"/k/a"})
		s.Start()
		s.Next(255)
		failed := s.Next(255)
		assert.Equal(t, ActionFailed, failed.Kind)
		assert.Equal(t, 2, failed.Attempts)

		// Terminal states are sticky.
		assert.Equal(t, ActionFailed, s.Next(0).Kind)
	})

	t.Run("no candidates means agent only", func(t *testing.T) {
		s := NewSequence(nil)
		assert.Equal(t, 1, s.Len())
		s.Start()
		failed := s.Next(255)
		assert.Equal(t, ActionFailed, failed.Kind)
		assert.Equal(t, 1, failed.Attempts)
	})

	t.Run("done is sticky", func(t *testing.T) {
		s := NewSequence([]string{"/k/a"})
		s.Start()
		s.Next(0)
		assert.Equal(t, ActionDone, s.Next(255).Kind)
	})
}

func TestLazySequence(t *testing.T) {
	t.Run("agent success never loads", func(t *testing.T) {
		loads := 0
		s := NewLazySequence(func() []string { loads++; return []string{"/k/a"} })
		s.Start()
		assert.Equal(t, ActionDone, s.Next(0).Kind)
		assert.Zero(t, loads)
	})

	t.Run("loads once after the agent fails", func(t *testing.T) {
		loads := 0
		s := NewLazySequence(func() []string { loads++; return []string{"/k/a", "/k/b"} })
		s.Start()
		assert.Equal(t, 1, s.Len())

		a := s.Next(255)
		require.Equal(t, ActionAttempt, a.Kind)
		assert.Equal(t, "/k/a", a.Attempt.Identity)
		assert.Equal(t, "/k/b", s.Next(255).Attempt.Identity)
		assert.Equal(t, ActionFailed, s.Next(255).Kind)
		assert.Equal(t, 1, loads)
		assert.Equal(t, 3, s.Len())
	})

	t.Run("empty load fails after the agent", func(t *testing.T) {
		s := NewLazySequence(func() []string { return nil })
		s.Start()
		failed := s.Next(255)
		assert.Equal(t, ActionFailed, failed.Kind)
		assert.Equal(t, 1, failed.Attempts)
	})
}

func TestSequenceAttemptCountMatchesCandidates(t *testing.T) {
	for n := 0; n <= 5; n++ {
		t.Run(fmt.Sprintf("%d candidates", n), func(t *testing.T) {
			cands := make([]string, n)
			for i := range cands {
				cands[i] = fmt.Sprintf("/k/%d", i)
			}
			s := NewSequence(cands)
			action := s.Start()
			var seen []string
			for action.Kind == ActionAttempt {
				seen = append(seen, action.Attempt.Identity)
				action = s.Next(1)
			}
			assert.Equal(t, ActionFailed, action.Kind)
			assert.Equal(t, n+1, action.Attempts)
			assert.Equal(t, append([]string{""}, cands...), seen)
		})
	}
}

func TestInvocationArgs(t *testing.T) {
	params := EffectiveParams{Alias: "web", Target: "1.2.3.4", User: "deploy", Port: 2222}

	t.Run("agent attempt", func(t *testing.T) {
		inv := Invocation{Params: params, Attempt: Attempt{Number: 1}, KnownHostsFile: "/h/.ssh/known_hosts"}
		assert.Equal(t, []string{
			"-p", "2222",
			"-o", "UserKnownHostsFile=/h/.ssh/known_hosts",
			"deploy@1.2.3.4",
		}, inv.Args())
	})

	t.Run("key attempt forces identity", func(t *testing.T) {
		inv := Invocation{Params: params, Attempt: Attempt{Number: 2, Identity: "/k/id_rsa"}}
		assert.Equal(t, []string{
			"-i", "/k/id_rsa", "-o", "IdentitiesOnly=yes",
			"-p", "2222",
			"deploy@1.2.3.4",
		}, inv.Args())
	})

	t.Run("no user", func(t *testing.T) {
		p := params
		p.User = ""
		inv := Invocation{Params: p, Attempt: Attempt{Number: 1}}
		assert.Equal(t, "1.2.3.4", inv.Args()[len(inv.Args())-1])
	})

	t.Run("post-connect command requests tty", func(t *testing.T) {
		p := params
		p.PostConnectCommand = "tmux attach || tmux"
		args := Invocation{Params: p, Attempt: Attempt{Number: 1}}.Args()
		assert.Contains(t, args, "-t")
		assert.Equal(t, "tmux attach || tmux", args[len(args)-1])
		assert.Equal(t, "deploy@1.2.3.4", args[len(args)-2])
	})
}

func TestRemoteCommand(t *testing.T) {
	tests := []struct {
		name string
		p    EffectiveParams
		want string
	}{
		{"nothing", EffectiveParams{}, ""},
		{"command only", EffectiveParams{PostConnectCommand: "htop"}, "htop"},
		{"dir only", EffectiveParams{WorkingDirectory: "/srv/app"}, "cd '/srv/app' && exec $SHELL -l"},
		{"dir and command", EffectiveParams{WorkingDirectory: "/srv/app", PostConnectCommand: "make logs"}, "cd '/srv/app' && make logs"},
		{"quoted dir", EffectiveParams{WorkingDirectory: "/srv/it's here"}, `cd '/srv/it'\''s here' && exec $SHELL -l`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.RemoteCommand())
		})
	}
}

func TestInvocationString(t *testing.T) {
	inv := Invocation{
		Params:  EffectiveParams{Target: "h", Port: 22, PostConnectCommand: "echo hi"},
		Attempt: Attempt{Number: 1},
	}
	assert.Equal(t, "ssh -p 22 -t h 'echo hi'", inv.String())
}

func TestConnectorAgentSucceeds(t *testing.T) {
	runner := &fakeRunner{codes: []int{0}}
	c := NewConnector(runner, "/kh", nil)

	res, err := c.Connect(context.Background(), EffectiveParams{
		Alias: "web", Target: "web", Port: 22,
		IdentityCandidates: []string{"/k/a"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, res.Identity)
	require.Len(t, runner.calls, 1)
	assert.NotContains(t, runner.calls[0], "-i")
}

func TestConnectorFallsBackToKeys(t *testing.T) {
	runner := &fakeRunner{codes: []int{255, 255, 0}}
	c := NewConnector(runner, "", nil)

	var seen []Attempt
	c.OnAttempt = func(a Attempt) { seen = append(seen, a) }

	res, err := c.Connect(context.Background(), EffectiveParams{
		Alias: "web", Target: "web", Port: 22,
		IdentityCandidates: []string{"/k/a", "/k/b", "/k/c"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, "/k/b", res.Identity)
	require.Len(t, seen, 3)
	assert.True(t, seen[0].IsAgent())
	assert.Equal(t, "/k/a", seen[1].Identity)

	// The untried key never reaches ssh.
	for _, call := range runner.calls {
		assert.NotContains(t, call, "/k/c")
	}
}

func TestConnectorAllFail(t *testing.T) {
	runner := &fakeRunner{codes: []int{1, 1, 1}}
	c := NewConnector(runner, "", nil)

	res, err := c.Connect(context.Background(), EffectiveParams{
		Alias: "web", Target: "web", Port: 22,
		IdentityCandidates: []string{"/k/a", "/k/b"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConnectionFailed)
	assert.Contains(t, err.Error(), "after 3 attempt(s)")
	assert.Equal(t, 3, res.Attempts)
	assert.Len(t, runner.calls, 3)
}

func TestConnectorLazyCandidates(t *testing.T) {
	params := EffectiveParams{Alias: "web", Target: "web", Port: 22}

	t.Run("agent success skips the key search", func(t *testing.T) {
		runner := &fakeRunner{codes: []int{0}}
		c := NewConnector(runner, "", nil)
		called := false

		res, err := c.ConnectLazy(context.Background(), params, func() []string {
			called = true
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Attempts)
		assert.False(t, called)
	})

	t.Run("keys are tried after the agent", func(t *testing.T) {
		runner := &fakeRunner{codes: []int{255, 0}}
		c := NewConnector(runner, "", nil)

		res, err := c.ConnectLazy(context.Background(), params, func() []string { return []string{"/k/a"} })
		require.NoError(t, err)
		assert.Equal(t, "/k/a", res.Identity)
		require.Len(t, runner.calls, 2)
		assert.Contains(t, runner.calls[1], "/k/a")
	})
}

func TestConnectorRunnerError(t *testing.T) {
	runner := &fakeRunner{err: errors.New(errors.ErrExec, "boom", "")}
	c := NewConnector(runner, "", nil)

	_, err := c.Connect(context.Background(), EffectiveParams{Alias: "web", Target: "web", Port: 22})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.Len(t, runner.calls, 1)
}

func TestExecRunner(t *testing.T) {
	var out strings.Builder
	r := &ExecRunner{Binary: "sh", Stdout: &out}

	code, err := r.Run(context.Background(), []string{"-c", "echo hello; exit 3"})
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Equal(t, "hello\n", out.String())

	code, err = r.Run(context.Background(), []string{"-c", "true"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestExecRunnerMissingBinary(t *testing.T) {
	r := &ExecRunner{Binary: "sshmenu-definitely-not-installed"}
	code, err := r.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, -1, code)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
}

func TestProbeAgent(t *testing.T) {
	t.Run("no socket", func(t *testing.T) {
		st := probeAgent("")
		assert.False(t, st.Reachable)
		assert.NoError(t, st.Err)
	})

	t.Run("unreachable socket", func(t *testing.T) {
		st := probeAgent(filepath.Join(t.TempDir(), "nope.sock"))
		assert.False(t, st.Reachable)
		assert.Error(t, st.Err)
	})

	t.Run("agent with one key", func(t *testing.T) {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		keyring := agent.NewKeyring()
		require.NoError(t, keyring.Add(agent.AddedKey{PrivateKey: priv, Comment: "me@laptop"}))

		sock := filepath.Join(t.TempDir(), "agent.sock")
		ln, err := net.Listen("unix", sock)
		require.NoError(t, err)
		defer ln.Close()

		go func() {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			_ = agent.ServeAgent(keyring, conn)
		}()

		st := probeAgent(sock)
		require.NoError(t, st.Err)
		assert.True(t, st.Reachable)
		assert.Equal(t, []string{"me@laptop"}, st.Identities)
	})
}
