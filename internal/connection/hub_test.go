package connection

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-remake/lobby/internal/protocol"
)

type stubConn struct {
	accountID int64
	token     int64
	closed    bool
}

func (c *stubConn) AccountID() int64 { return c.accountID }

func (c *stubConn) Handle() string { return fmt.Sprintf("player-%d", c.accountID) }

func (c *stubConn) SessionToken() int64 { return c.token }

func (c *stubConn) Send(_ protocol.Message) error { return nil }

func (c *stubConn) Close() error { c.closed = true; return nil }

func TestHubRegisterAndResolve(t *testing.T) {
	hub := NewHub()
	conn := &stubConn{accountID: 7, token: 77}

	replaced := hub.Register(conn)
	assert.Nil(t, replaced)
	assert.Equal(t, 1, hub.Count())

	got, err := hub.Resolve(7)
	require.NoError(t, err)
	assert.Same(t, Conn(conn), got)
}

func TestHubResolveUnknownAccount(t *testing.T) {
	hub := NewHub()

	_, err := hub.Resolve(42)
	var notConnected *NotConnectedError
	require.ErrorAs(t, err, &notConnected)
	assert.Equal(t, int64(42), notConnected.AccountID)
}

func TestHubRegisterReplacesPrevious(t *testing.T) {
	hub := NewHub()
	old := &stubConn{accountID: 7, token: 1}
	hub.Register(old)

	fresh := &stubConn{accountID: 7, token: 2}
	replaced := hub.Register(fresh)
	assert.Same(t, Conn(old), replaced)
	assert.Equal(t, 1, hub.Count())

	got, err := hub.Resolve(7)
	require.NoError(t, err)
	assert.Same(t, Conn(fresh), got)
}

func TestHubUnregisterOnlyCurrent(t *testing.T) {
	hub := NewHub()
	old := &stubConn{accountID: 7, token: 1}
	hub.Register(old)
	fresh := &stubConn{accountID: 7, token: 2}
	hub.Register(fresh)

	// A stale reader loop unregistering the old connection must not evict
	// the replacement.
	hub.Unregister(old)
	got, err := hub.Resolve(7)
	require.NoError(t, err)
	assert.Same(t, Conn(fresh), got)

	hub.Unregister(fresh)
	_, err = hub.Resolve(7)
	assert.Error(t, err)
	assert.Equal(t, 0, hub.Count())
}

func TestHubConcurrentAccess(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := &stubConn{accountID: i, token: i}
			hub.Register(conn)
			_, _ = hub.Resolve(i)
			hub.Unregister(conn)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, hub.Count())
}

func TestNewSessionTokenNonZero(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 100; i++ {
		token := NewSessionToken()
		require.NotZero(t, token)
		assert.False(t, seen[token], "token %d repeated", token)
		seen[token] = true
	}
}
