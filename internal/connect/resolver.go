// Package connect turns a parsed host into ssh invocations. Resolver merges
// the host with settings, Sequence decides which attempt comes next, and
// Connector drives the attempts through a Runner.
package connect

import (
	"github.com/rileyhilliard/sshmenu/internal/config"
	"github.com/rileyhilliard/sshmenu/internal/errors"
	"github.com/rileyhilliard/sshmenu/internal/keys"
	"github.com/rileyhilliard/sshmenu/internal/logger"
	"github.com/rileyhilliard/sshmenu/pkg/sshutil"
)

// EffectiveParams is everything needed to build ssh invocations for a host.
type EffectiveParams struct {
	Alias              string
	Target             string // HostName, or the alias when HostName is unset
	User               string // empty means let ssh decide
	Port               int
	PostConnectCommand string
	WorkingDirectory   string

	// IdentityCandidates is tried in order after the agent attempt.
	IdentityCandidates []string
}

// Resolver computes EffectiveParams from a host record and settings.
type Resolver struct {
	settings *config.Settings
	keys     *keys.Locator
	log      logger.Logger
}

// NewResolver creates a Resolver. settings must already have its paths
// expanded.
func NewResolver(settings *config.Settings, locator *keys.Locator, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.Noop()
	}
	if locator == nil {
		locator = keys.NewLocator(nil, log)
	}
	return &Resolver{settings: settings, keys: locator, log: log}
}

// Resolve merges host with the per-host settings and defaults and fills in
// the identity candidates; see Params and Candidates.
//
// When no candidate exists the params are still returned, together with a
// NoKeysAvailable error, so the agent attempt can go ahead.
func (r *Resolver) Resolve(host sshutil.HostRecord) (EffectiveParams, error) {
	params := r.Params(host)
	cands, err := r.Candidates(host)
	params.IdentityCandidates = cands
	return params, err
}

// Params merges host with the per-host settings and defaults, without
// looking for keys. User comes from the host first, then per-host settings,
// then defaults. Port, post-connect command and working directory come from
// per-host settings, then defaults.
func (r *Resolver) Params(host sshutil.HostRecord) EffectiveParams {
	vals := r.settings.Resolve(host.Alias, config.Values{User: host.User})
	return EffectiveParams{
		Alias:              host.Alias,
		Target:             host.Target(),
		User:               vals.User,
		Port:               vals.Port,
		PostConnectCommand: vals.PostConnectCommand,
		WorkingDirectory:   vals.WorkingDirectory,
	}
}

// Candidates returns the identity files to try for host. If the host's
// IdentityFile is a regular file it is the only candidate. Otherwise keys
// are searched for in the configured directories on every call, and an
// empty result comes with a NoKeysAvailable error.
func (r *Resolver) Candidates(host sshutil.HostRecord) ([]string, error) {
	if host.IdentityFile != "" {
		if r.keys.IsRegularFile(host.IdentityFile) {
			return []string{host.IdentityFile}, nil
		}
		r.log.Debug("IdentityFile %s for %s is not a regular file, searching key dirs", host.IdentityFile, host.Alias)
	}

	dirs := r.settings.Paths.KeyDirs()
	cands := r.keys.Existing(r.keys.FindKeys(dirs...))
	if len(cands) == 0 {
		return nil, errors.NoKeysAvailable(host.Alias, dirs)
	}

	r.log.Debug("%d key candidate(s) for %s", len(cands), host.Alias)
	return cands, nil
}
