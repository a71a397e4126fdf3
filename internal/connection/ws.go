package connection

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/atlas-remake/lobby/internal/protocol"
)

// InboundHandler processes a decoded client-originated message.
type InboundHandler interface {
	HandleMessage(conn Conn, msg protocol.Message)
}

// InboundHandlerFunc adapts a function to the InboundHandler interface.
type InboundHandlerFunc func(conn Conn, msg protocol.Message)

func (f InboundHandlerFunc) HandleMessage(conn Conn, msg protocol.Message) {
	f(conn, msg)
}

// WSConn is a client connection over a WebSocket carrying one codec frame
// per binary message.
type WSConn struct {
	accountID int64
	handle    string
	token     int64
	registry  *protocol.Registry
	logger    *zap.Logger

	writeMu sync.Mutex
	ws      *websocket.Conn

	closeOnce sync.Once
}

// AccountID returns the authenticated account identifier.
func (c *WSConn) AccountID() int64 { return c.accountID }

// Handle returns the display handle presented at connect time.
func (c *WSConn) Handle() string { return c.handle }

// SessionToken returns the token assigned when the connection registered.
func (c *WSConn) SessionToken() int64 { return c.token }

// Send frames msg in the server-originated namespace and writes it as one
// binary WebSocket message. A failure affects only this recipient.
func (c *WSConn) Send(msg protocol.Message) error {
	frame, err := protocol.EncodeFrame(c.registry, protocol.FromServer, msg)
	if err != nil {
		return fmt.Errorf("framing %T for account %d: %w", msg, c.accountID, err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("sending %T to account %d: %w", msg, c.accountID, err)
	}
	return nil
}

// Close shuts the underlying socket. Safe to call multiple times.
func (c *WSConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ws.Close()
	})
	return err
}

// readLoop decodes inbound frames until the socket closes. Unknown codes
// and malformed payloads are logged and dropped; the connection continues.
func (c *WSConn) readLoop(handler InboundHandler) {
	for {
		kind, frame, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.BinaryMessage {
			c.logger.Debug("ignoring non-binary websocket message",
				zap.Int64("account_id", c.accountID),
				zap.Int("kind", kind),
			)
			continue
		}
		msg, err := protocol.DecodeFrame(c.registry, protocol.FromClient, frame)
		if err != nil {
			c.logger.Warn("dropping undecodable message",
				zap.Int64("account_id", c.accountID),
				zap.Error(err),
			)
			continue
		}
		if handler != nil {
			handler.HandleMessage(c, msg)
		}
	}
}

// AcceptorConfig holds WebSocket acceptor settings.
type AcceptorConfig struct {
	Addr         string
	WriteTimeout time.Duration
}

// Acceptor upgrades HTTP requests on /lobby to WebSocket connections,
// registers them in the Hub, and pumps inbound messages to a handler.
type Acceptor struct {
	cfg      AcceptorConfig
	hub      *Hub
	registry *protocol.Registry
	handler  InboundHandler
	logger   *zap.Logger

	upgrader websocket.Upgrader
	srv      *http.Server
}

// NewAcceptor creates a WebSocket acceptor.
//
// Precondition: hub, registry, and logger must be non-nil.
// Postcondition: Returns an Acceptor ready to be started with ListenAndServe.
func NewAcceptor(cfg AcceptorConfig, hub *Hub, registry *protocol.Registry, handler InboundHandler, logger *zap.Logger) *Acceptor {
	return &Acceptor{
		cfg:      cfg,
		hub:      hub,
		registry: registry,
		handler:  handler,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// ListenAndServe starts the HTTP listener and blocks until Stop is called.
func (a *Acceptor) ListenAndServe() error {
	router := mux.NewRouter()
	router.Path("/lobby").Methods(http.MethodGet).HandlerFunc(a.handleLobby)

	a.srv = &http.Server{
		Addr:         a.cfg.Addr,
		Handler:      router,
		WriteTimeout: a.cfg.WriteTimeout,
	}
	a.logger.Info("websocket acceptor listening", zap.String("addr", a.cfg.Addr))
	if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving lobby websocket on %s: %w", a.cfg.Addr, err)
	}
	return nil
}

// Stop shuts the listener down, closing idle connections.
func (a *Acceptor) Stop() {
	if a.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.srv.Shutdown(ctx)
	}
}

// handleLobby upgrades one client connection. Authentication is handled
// upstream; the client presents its account id and handle as query
// parameters.
func (a *Acceptor) handleLobby(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(r.URL.Query().Get("account"), 10, 64)
	if err != nil || accountID <= 0 {
		http.Error(w, "missing or invalid account parameter", http.StatusBadRequest)
		return
	}
	handle := r.URL.Query().Get("handle")

	ws, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("websocket upgrade failed",
			zap.Int64("account_id", accountID),
			zap.Error(err),
		)
		return
	}

	conn := &WSConn{
		accountID: accountID,
		handle:    handle,
		token:     NewSessionToken(),
		registry:  a.registry,
		logger:    a.logger,
		ws:        ws,
	}

	if replaced := a.hub.Register(conn); replaced != nil {
		a.logger.Info("replacing stale connection",
			zap.Int64("account_id", accountID),
		)
		_ = replaced.Close()
	}
	a.logger.Info("client connected",
		zap.Int64("account_id", accountID),
		zap.String("handle", handle),
	)

	go func() {
		conn.readLoop(a.handler)
		a.hub.Unregister(conn)
		_ = conn.Close()
		a.logger.Info("client disconnected", zap.Int64("account_id", accountID))
	}()
}
