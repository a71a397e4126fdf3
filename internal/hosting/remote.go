package hosting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/atlas-remake/lobby/internal/protocol"
)

// sessionRequest is the payload sent to the host manager's control socket.
type sessionRequest struct {
	ProcessCode   string   `json:"process_code"`
	GameType      string   `json:"game_type"`
	Map           string   `json:"map"`
	RoomName      string   `json:"room_name"`
	PlayerCount   int      `json:"player_count"`
	SessionTokens []int64  `json:"session_tokens"`
	Handles       []string `json:"handles"`
}

// sessionResponse is the host manager's answer.
type sessionResponse struct {
	Address string `json:"address"`
	Host    string `json:"host"`
	Error   string `json:"error,omitempty"`
}

// RemoteClient dials the host manager's WebSocket control endpoint per
// request. One request maps to one dial; the manager owns pooling.
type RemoteClient struct {
	url     string
	timeout time.Duration
	logger  *zap.Logger
	dialer  *websocket.Dialer
}

// NewRemoteClient creates a client for the control endpoint at url
// (e.g. "ws://127.0.0.1:6060/control").
//
// Precondition: url must be non-empty; logger must be non-nil.
func NewRemoteClient(url string, timeout time.Duration, logger *zap.Logger) *RemoteClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteClient{
		url:     url,
		timeout: timeout,
		logger:  logger,
		dialer:  websocket.DefaultDialer,
	}
}

// RequestSession sends one session request and awaits the address.
//
// Postcondition: Returns a non-empty address, or a *SessionError.
func (c *RemoteClient) RequestSession(ctx context.Context, gameInfo *protocol.GameInfo, teamInfo *protocol.TeamInfo, sessionTokens []int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fail := func(err error) (string, error) {
		return "", &SessionError{ProcessCode: gameInfo.GameServerProcessCode, Err: err}
	}

	ws, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fail(fmt.Errorf("dialing host manager at %s: %w", c.url, err))
	}
	defer ws.Close()

	humans := teamInfo.Humans()
	req := sessionRequest{
		ProcessCode:   gameInfo.GameServerProcessCode,
		GameType:      gameInfo.GameConfig.GameType.String(),
		Map:           gameInfo.GameConfig.Map,
		RoomName:      gameInfo.GameConfig.RoomName,
		PlayerCount:   len(teamInfo.TeamPlayerInfo),
		SessionTokens: sessionTokens,
	}
	for _, p := range humans {
		req.Handles = append(req.Handles, p.Handle)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fail(fmt.Errorf("encoding session request: %w", err))
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = ws.SetWriteDeadline(deadline)
		_ = ws.SetReadDeadline(deadline)
	}
	if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fail(fmt.Errorf("sending session request: %w", err))
	}

	_, raw, err := ws.ReadMessage()
	if err != nil {
		return fail(fmt.Errorf("awaiting session response: %w", err))
	}
	var resp sessionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fail(fmt.Errorf("decoding session response: %w", err))
	}
	if resp.Error != "" {
		return fail(fmt.Errorf("host manager refused session: %s", resp.Error))
	}
	if resp.Address == "" {
		return fail(fmt.Errorf("host manager returned empty address"))
	}

	c.logger.Debug("host session created",
		zap.String("process_code", gameInfo.GameServerProcessCode),
		zap.String("host", resp.Host),
		zap.String("address", resp.Address),
	)
	return resp.Address, nil
}
