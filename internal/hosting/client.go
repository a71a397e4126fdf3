// Package hosting talks to the external game-host manager that spins up
// match sessions. The lobby treats it as a single request/response
// collaborator; host process lifecycle and retries live on the other side.
package hosting

import (
	"context"
	"fmt"

	"github.com/atlas-remake/lobby/internal/protocol"
)

// Client requests a hosted session for an assembled game.
type Client interface {
	// RequestSession asks the host manager to create a session for the
	// given game and participants. It returns the address clients should
	// connect to.
	RequestSession(ctx context.Context, gameInfo *protocol.GameInfo, teamInfo *protocol.TeamInfo, sessionTokens []int64) (addr string, err error)
}

// SessionError reports that the host manager failed to provide a session.
// It is fatal to the affected pending game only.
type SessionError struct {
	ProcessCode string
	Err         error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("hosting: creating session %s: %v", e.ProcessCode, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// LocalClient satisfies Client without a remote host manager. It hands out
// a fixed address, which is what a single-box deployment runs with.
type LocalClient struct {
	Addr string
}

// RequestSession returns the configured static address.
func (c *LocalClient) RequestSession(_ context.Context, _ *protocol.GameInfo, _ *protocol.TeamInfo, _ []int64) (string, error) {
	if c.Addr == "" {
		return "ws://127.0.0.1:6061", nil
	}
	return c.Addr, nil
}
