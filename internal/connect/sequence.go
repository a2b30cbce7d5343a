package connect

import "fmt"

// ActionKind says what the caller should do next.
type ActionKind int

const (
	// ActionAttempt means run the attempt in Action.Attempt.
	ActionAttempt ActionKind = iota
	// ActionDone means the last attempt succeeded.
	ActionDone
	// ActionFailed means every attempt failed.
	ActionFailed
)

func (k ActionKind) String() string {
	switch k {
	case ActionAttempt:
		return "attempt"
	case ActionDone:
		return "done"
	case ActionFailed:
		return "failed"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Attempt is one ssh invocation. An empty Identity is the agent attempt.
type Attempt struct {
	Number   int // 1-based
	Identity string
}

// IsAgent reports whether the attempt relies on the ssh agent.
func (a Attempt) IsAgent() bool {
	return a.Identity == ""
}

func (a Attempt) String() string {
	if a.IsAgent() {
		return fmt.Sprintf("attempt %d (agent)", a.Number)
	}
	return fmt.Sprintf("attempt %d (%s)", a.Number, a.Identity)
}

// Action is returned by Sequence for every step.
type Action struct {
	Kind     ActionKind
	Attempt  Attempt // set when Kind is ActionAttempt
	Attempts int     // attempts made so far
}

// Sequence is the connection attempt state machine. State 0 is the agent
// attempt; state i (1..N) forces the i-th identity candidate. It runs
// nothing itself: the caller runs each attempt and feeds back the exit status.
type Sequence struct {
	candidates []string
	load       func() []string // pending candidate source, nil once used
	state      int // next attempt to hand out
	attempts   int
	finished   bool
	final      ActionKind
}

// NewSequence creates a sequence over the ordered identity candidates.
func NewSequence(candidates []string) *Sequence {
	return &Sequence{candidates: append([]string(nil), candidates...)}
}

// NewLazySequence creates a sequence whose candidates come from load, which
// is called at most once and only when the agent attempt fails.
func NewLazySequence(load func() []string) *Sequence {
	return &Sequence{load: load}
}

// Start returns the first action, which is always the agent attempt.
// Calling it on a sequence that already started ends the sequence.
func (s *Sequence) Start() Action {
	if s.attempts > 0 || s.finished {
		return s.terminal(ActionFailed)
	}
	return s.advance()
}

// Next consumes the exit status of the last attempt and returns the next
// action. Zero ends the sequence successfully; anything else moves on to
// the next candidate or fails once they are exhausted.
func (s *Sequence) Next(lastExit int) Action {
	if s.finished {
		return s.terminal(ActionFailed)
	}
	if lastExit == 0 {
		return s.terminal(ActionDone)
	}
	if s.load != nil {
		s.candidates = append([]string(nil), s.load()...)
		s.load = nil
	}
	if s.state > len(s.candidates) {
		return s.terminal(ActionFailed)
	}
	return s.advance()
}

// Len is the maximum number of attempts: the agent plus one per candidate.
// A lazy sequence counts only the agent until its candidates are loaded.
func (s *Sequence) Len() int {
	return len(s.candidates) + 1
}

func (s *Sequence) advance() Action {
	a := Attempt{Number: s.state + 1}
	if s.state > 0 {
		a.Identity = s.candidates[s.state-1]
	}
	s.state++
	s.attempts++
	return Action{Kind: ActionAttempt, Attempt: a, Attempts: s.attempts}
}

func (s *Sequence) terminal(kind ActionKind) Action {
	if !s.finished {
		s.finished = true
		s.final = kind
	}
	return Action{Kind: s.final, Attempts: s.attempts}
}
