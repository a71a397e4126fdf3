package hosting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/atlas-remake/lobby/internal/protocol"
)

func sampleSession() (*protocol.GameInfo, *protocol.TeamInfo, []int64) {
	info := &protocol.GameInfo{
		MatchID:               5,
		GameServerProcessCode: "game-test",
		GameConfig: protocol.GameConfig{
			GameType: protocol.GameTypePvP,
			Map:      "Skyway_Deathmatch",
			RoomName: "default",
		},
	}
	team := &protocol.TeamInfo{TeamPlayerInfo: []*protocol.PlayerInfo{
		{AccountID: 1, PlayerID: 1, Handle: "alice", TeamID: protocol.TeamA},
		{PlayerID: 2, IsNPCBot: true, TeamID: protocol.TeamB},
	}}
	return info, team, []int64{1000}
}

func TestLocalClientStaticAddress(t *testing.T) {
	info, team, tokens := sampleSession()

	c := &LocalClient{Addr: "ws://10.0.0.9:6061"}
	addr, err := c.RequestSession(context.Background(), info, team, tokens)
	require.NoError(t, err)
	assert.Equal(t, "ws://10.0.0.9:6061", addr)
}

func TestLocalClientDefaultAddress(t *testing.T) {
	info, team, tokens := sampleSession()

	c := &LocalClient{}
	addr, err := c.RequestSession(context.Background(), info, team, tokens)
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:6061", addr)
}

// controlServer fakes the host manager's control endpoint: it answers each
// session request with respond(req).
func controlServer(t *testing.T, respond func(req sessionRequest) sessionResponse) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		_, raw, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var req sessionRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return
		}
		payload, _ := json.Marshal(respond(req))
		_ = ws.WriteMessage(websocket.TextMessage, payload)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestRemoteClientRequestSession(t *testing.T) {
	var got sessionRequest
	url := controlServer(t, func(req sessionRequest) sessionResponse {
		got = req
		return sessionResponse{Address: "ws://10.0.0.5:6061", Host: "host-1"}
	})

	c := NewRemoteClient(url, 5*time.Second, zaptest.NewLogger(t))
	info, team, tokens := sampleSession()

	addr, err := c.RequestSession(context.Background(), info, team, tokens)
	require.NoError(t, err)
	assert.Equal(t, "ws://10.0.0.5:6061", addr)

	assert.Equal(t, "game-test", got.ProcessCode)
	assert.Equal(t, "pvp", got.GameType)
	assert.Equal(t, "Skyway_Deathmatch", got.Map)
	assert.Equal(t, 2, got.PlayerCount)
	assert.Equal(t, []int64{1000}, got.SessionTokens)
	assert.Equal(t, []string{"alice"}, got.Handles, "bots carry no handle")
}

func TestRemoteClientRefusedSession(t *testing.T) {
	url := controlServer(t, func(req sessionRequest) sessionResponse {
		return sessionResponse{Error: "no capacity"}
	})

	c := NewRemoteClient(url, 5*time.Second, zaptest.NewLogger(t))
	info, team, tokens := sampleSession()

	_, err := c.RequestSession(context.Background(), info, team, tokens)
	var sessionErr *SessionError
	require.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, "game-test", sessionErr.ProcessCode)
	assert.Contains(t, err.Error(), "no capacity")
}

func TestRemoteClientEmptyAddress(t *testing.T) {
	url := controlServer(t, func(req sessionRequest) sessionResponse {
		return sessionResponse{}
	})

	c := NewRemoteClient(url, 5*time.Second, zaptest.NewLogger(t))
	info, team, tokens := sampleSession()

	_, err := c.RequestSession(context.Background(), info, team, tokens)
	var sessionErr *SessionError
	assert.ErrorAs(t, err, &sessionErr)
}

func TestRemoteClientDialFailure(t *testing.T) {
	c := NewRemoteClient("ws://127.0.0.1:1/control", time.Second, zaptest.NewLogger(t))
	info, team, tokens := sampleSession()

	_, err := c.RequestSession(context.Background(), info, team, tokens)
	var sessionErr *SessionError
	assert.ErrorAs(t, err, &sessionErr)
}

func TestRemoteClientDoesNotMutateGameInfo(t *testing.T) {
	url := controlServer(t, func(req sessionRequest) sessionResponse {
		return sessionResponse{Address: "ws://10.0.0.5:6061", Host: "host-1"}
	})

	c := NewRemoteClient(url, 5*time.Second, zaptest.NewLogger(t))
	info, team, tokens := sampleSession()
	before := *info

	_, err := c.RequestSession(context.Background(), info, team, tokens)
	require.NoError(t, err)
	assert.Equal(t, before, *info, "the orchestrator owns descriptor mutations")
}
