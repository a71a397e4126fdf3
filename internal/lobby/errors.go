package lobby

import (
	"errors"
	"fmt"

	"github.com/atlas-remake/lobby/internal/protocol"
)

// ErrNotImplemented marks a game type that is declared in the closed enum
// but has no queue wiring. Ranked and custom games fail fast instead of
// silently getting an empty queue.
var ErrNotImplemented = errors.New("lobby: game type not implemented")

// QueueNotFoundError reports a lookup for a game type no queue was
// registered under. It is a caller error; nothing is retried.
type QueueNotFoundError struct {
	GameType protocol.GameType
}

func (e *QueueNotFoundError) Error() string {
	return fmt.Sprintf("lobby: no queue registered for game type %s", e.GameType)
}

// UnresolvedParticipantError reports that a non-bot account listed in a
// creation request has no live connection. The game is not created.
type UnresolvedParticipantError struct {
	AccountID int64
	Handle    string
	Err       error
}

func (e *UnresolvedParticipantError) Error() string {
	return fmt.Sprintf("lobby: participant %q (account %d) has no live connection", e.Handle, e.AccountID)
}

func (e *UnresolvedParticipantError) Unwrap() error {
	return e.Err
}
