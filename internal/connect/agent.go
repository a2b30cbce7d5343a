package connect

import (
	"net"
	"os"

	"golang.org/x/crypto/ssh/agent"
)

// AgentSocketEnv is the variable ssh-agent exports its socket path in.
const AgentSocketEnv = "SSH_AUTH_SOCK"

// AgentStatus describes the running ssh agent, if any.
type AgentStatus struct {
	Socket     string
	Reachable  bool
	Identities []string // comments of loaded keys
	Err        error
}

// ProbeAgent asks the agent at $SSH_AUTH_SOCK which keys it holds. It is
// informational only: the agent attempt runs whatever the answer.
func ProbeAgent() AgentStatus {
	return probeAgent(os.Getenv(AgentSocketEnv))
}

func probeAgent(socket string) AgentStatus {
	st := AgentStatus{Socket: socket}
	if socket == "" {
		return st
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		st.Err = err
		return st
	}
	defer conn.Close() //nolint:errcheck // Best-effort close

	st.Reachable = true
	keys, err := agent.NewClient(conn).List()
	if err != nil {
		st.Err = err
		return st
	}
	for _, k := range keys {
		name := k.Comment
		if name == "" {
			name = k.Type()
		}
		st.Identities = append(st.Identities, name)
	}
	return st
}
