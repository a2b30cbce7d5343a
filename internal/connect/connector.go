package connect

import (
	"context"

	"github.com/rileyhilliard/sshmenu/internal/errors"
	"github.com/rileyhilliard/sshmenu/internal/logger"
)

// Result reports how a successful connection was made.
type Result struct {
	Attempts int
	Identity string // empty when the agent attempt succeeded
}

// Connector runs the attempt sequence for resolved params, one ssh process
// at a time.
type Connector struct {
	runner     Runner
	knownHosts string
	log        logger.Logger

	// OnAttempt, if set, is called before each attempt starts.
	OnAttempt func(Attempt)
}

// NewConnector creates a Connector. knownHostsFile is passed to every
// attempt as UserKnownHostsFile.
func NewConnector(runner Runner, knownHostsFile string, log logger.Logger) *Connector {
	if runner == nil {
		runner = NewExecRunner()
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Connector{runner: runner, knownHosts: knownHostsFile, log: log}
}

// Connect tries the agent first, then each identity candidate in order,
// stopping at the first zero exit. When every attempt fails it returns a
// ConnectionFailed error with the attempt count. An error starting ssh
// aborts the sequence.
func (c *Connector) Connect(ctx context.Context, params EffectiveParams) (Result, error) {
	return c.run(ctx, params, NewSequence(params.IdentityCandidates))
}

// ConnectLazy is Connect with the identity candidates taken from candidates,
// which is only called once the agent attempt has failed.
func (c *Connector) ConnectLazy(ctx context.Context, params EffectiveParams, candidates func() []string) (Result, error) {
	return c.run(ctx, params, NewLazySequence(candidates))
}

func (c *Connector) run(ctx context.Context, params EffectiveParams, seq *Sequence) (Result, error) {
	var current Attempt
	for action := seq.Start(); ; {
		switch action.Kind {
		case ActionDone:
			c.log.Debug("connected to %s on %s", params.Alias, current)
			return Result{Attempts: action.Attempts, Identity: current.Identity}, nil
		case ActionFailed:
			return Result{Attempts: action.Attempts}, errors.ConnectionFailed(params.Alias, action.Attempts)
		}

		current = action.Attempt
		if c.OnAttempt != nil {
			c.OnAttempt(current)
		}

		inv := Invocation{Params: params, Attempt: current, KnownHostsFile: c.knownHosts}
		c.log.Debug("%s: %s", current, inv)

		code, err := c.runner.Run(ctx, inv.Args())
		if err != nil {
			return Result{Attempts: action.Attempts}, err
		}
		if code != 0 {
			c.log.Debug("%s exited with %d", current, code)
		}
		action = seq.Next(code)
	}
}
