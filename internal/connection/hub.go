// Package connection tracks live client connections and resolves account
// identifiers to an addressable send path. The lobby orchestrator consumes
// the Resolver interface; the concrete transport is a WebSocket acceptor.
package connection

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/atlas-remake/lobby/internal/protocol"
)

// Conn is a live client connection. Send is asynchronous from the caller's
// point of view: a returned error covers enqueue/write failure for this
// recipient only and must never abort work for other recipients.
type Conn interface {
	AccountID() int64
	Handle() string
	SessionToken() int64
	Send(msg protocol.Message) error
	Close() error
}

// Resolver resolves an account identifier to its current live connection.
type Resolver interface {
	Resolve(accountID int64) (Conn, error)
}

// NotConnectedError reports that an account has no live connection.
type NotConnectedError struct {
	AccountID int64
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("account %d is not connected", e.AccountID)
}

// Hub is the in-memory connection registry. All methods are safe for
// concurrent use.
type Hub struct {
	mu    sync.RWMutex
	conns map[int64]Conn
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[int64]Conn)}
}

// Register tracks conn as the live connection for its account, replacing
// any previous connection for the same account.
//
// Precondition: conn must not be nil.
// Postcondition: Resolve(conn.AccountID()) returns conn. The replaced
// connection, if any, is returned so the caller can close it.
func (h *Hub) Register(conn Conn) (replaced Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	replaced = h.conns[conn.AccountID()]
	h.conns[conn.AccountID()] = conn
	return replaced
}

// Unregister removes conn if it is still the registered connection for its
// account. A newer connection registered for the same account is untouched.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[conn.AccountID()] == conn {
		delete(h.conns, conn.AccountID())
	}
}

// Resolve returns the live connection for accountID.
//
// Postcondition: Returns a non-nil Conn, or *NotConnectedError.
func (h *Hub) Resolve(accountID int64) (Conn, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.conns[accountID]
	if !ok {
		return nil, &NotConnectedError{AccountID: accountID}
	}
	return conn, nil
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// NewSessionToken returns a random non-zero session token.
func NewSessionToken() int64 {
	var b [8]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			panic(fmt.Sprintf("connection: reading random bytes: %v", err))
		}
		if v := int64(binary.LittleEndian.Uint64(b[:]) >> 1); v != 0 {
			return v
		}
	}
}
