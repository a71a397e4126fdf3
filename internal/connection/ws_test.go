package connection

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atlas-remake/lobby/internal/protocol"
)

func dialLobby(t *testing.T, serverURL string, accountID string, handle string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "?account=" + accountID + "&handle=" + handle
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func newTestAcceptor(t *testing.T, handler InboundHandler) (*Acceptor, *Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	// The disconnect path logs from a goroutine that can outlive the test,
	// so these tests run with a no-op logger.
	acceptor := NewAcceptor(
		AcceptorConfig{WriteTimeout: time.Second},
		hub, protocol.DefaultRegistry(), handler,
		zap.NewNop(),
	)
	srv := httptest.NewServer(http.HandlerFunc(acceptor.handleLobby))
	t.Cleanup(srv.Close)
	return acceptor, hub, srv
}

func waitForCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.Count() == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAcceptorRegistersConnection(t *testing.T) {
	_, hub, srv := newTestAcceptor(t, nil)

	dialLobby(t, srv.URL, "7", "alice")
	waitForCount(t, hub, 1)

	conn, err := hub.Resolve(7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), conn.AccountID())
	assert.Equal(t, "alice", conn.Handle())
	assert.NotZero(t, conn.SessionToken())
}

func TestAcceptorRejectsMissingAccount(t *testing.T) {
	_, hub, srv := newTestAcceptor(t, nil)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, hub.Count())
}

func TestAcceptorDeliversServerFrames(t *testing.T) {
	_, hub, srv := newTestAcceptor(t, nil)

	ws := dialLobby(t, srv.URL, "7", "alice")
	waitForCount(t, hub, 1)

	conn, err := hub.Resolve(7)
	require.NoError(t, err)

	sent := &protocol.ObjectSpawnFinishedMessage{State: 1}
	require.NoError(t, conn.Send(sent))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, frame, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)

	got, err := protocol.DecodeFrame(protocol.DefaultRegistry(), protocol.FromServer, frame)
	require.NoError(t, err)
	assert.Equal(t, sent, got)
}

func TestAcceptorPumpsInboundMessages(t *testing.T) {
	received := make(chan protocol.Message, 1)
	handler := InboundHandlerFunc(func(conn Conn, msg protocol.Message) {
		received <- msg
	})
	_, hub, srv := newTestAcceptor(t, handler)

	ws := dialLobby(t, srv.URL, "7", "alice")
	waitForCount(t, hub, 1)

	frame, err := protocol.EncodeFrame(protocol.DefaultRegistry(), protocol.FromClient,
		&protocol.AssetsLoadedNotification{AccountID: 7, PlayerID: 1})
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, frame))

	select {
	case msg := <-received:
		loaded, ok := msg.(*protocol.AssetsLoadedNotification)
		require.True(t, ok)
		assert.Equal(t, int64(7), loaded.AccountID)
	case <-time.After(2 * time.Second):
		t.Fatal("inbound message never reached the handler")
	}
}

func TestAcceptorDropsMalformedFrames(t *testing.T) {
	received := make(chan protocol.Message, 1)
	handler := InboundHandlerFunc(func(conn Conn, msg protocol.Message) {
		received <- msg
	})
	_, hub, srv := newTestAcceptor(t, handler)

	ws := dialLobby(t, srv.URL, "7", "alice")
	waitForCount(t, hub, 1)

	// Garbage first, then a valid frame; the connection must survive.
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, []byte{0xFF, 0xFF}))

	frame, err := protocol.EncodeFrame(protocol.DefaultRegistry(), protocol.FromClient,
		&protocol.AssetsLoadedNotification{AccountID: 7, PlayerID: 2})
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, frame))

	select {
	case msg := <-received:
		loaded, ok := msg.(*protocol.AssetsLoadedNotification)
		require.True(t, ok)
		assert.Equal(t, int32(2), loaded.PlayerID)
	case <-time.After(2 * time.Second):
		t.Fatal("connection did not survive the malformed frame")
	}
}

func TestAcceptorReplacesStaleConnection(t *testing.T) {
	_, hub, srv := newTestAcceptor(t, nil)

	first := dialLobby(t, srv.URL, "7", "alice")
	waitForCount(t, hub, 1)
	firstConn, err := hub.Resolve(7)
	require.NoError(t, err)

	dialLobby(t, srv.URL, "7", "alice")
	require.Eventually(t, func() bool {
		conn, err := hub.Resolve(7)
		return err == nil && conn != firstConn
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.Count())

	// The replaced socket is closed server-side.
	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = first.ReadMessage()
	assert.Error(t, err)
}

func TestAcceptorUnregistersOnDisconnect(t *testing.T) {
	_, hub, srv := newTestAcceptor(t, nil)

	ws := dialLobby(t, srv.URL, "7", "alice")
	waitForCount(t, hub, 1)

	ws.Close()
	waitForCount(t, hub, 0)
}
