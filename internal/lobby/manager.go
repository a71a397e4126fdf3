package lobby

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atlas-remake/lobby/internal/connection"
	"github.com/atlas-remake/lobby/internal/hosting"
	"github.com/atlas-remake/lobby/internal/observability"
	"github.com/atlas-remake/lobby/internal/protocol"
)

// MatchRecorder persists a launched game. Recording is best-effort: a
// storage failure is logged and never blocks or fails a launch.
type MatchRecorder interface {
	RecordMatch(ctx context.Context, gameInfo *protocol.GameInfo, teamInfo *protocol.TeamInfo) error
}

// PendingGame is one in-flight game between creation and launch completion.
// It is owned exclusively by the Manager; transitions for a single game are
// never evaluated concurrently. mu guards the session descriptor and the
// roster: slot readiness flips on the inbound message path while broadcast
// and launch goroutines build notifications, so both sides go through the
// lock.
type PendingGame struct {
	SessionTokens []int64

	mu       sync.Mutex
	gameInfo *protocol.GameInfo
	teamInfo *protocol.TeamInfo
	timer    *launchTimer
	launched atomic.Bool
}

// Status returns the current lifecycle status.
func (g *PendingGame) Status() protocol.GameStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gameInfo.GameStatus
}

// MatchID returns the stamped match identifier.
func (g *PendingGame) MatchID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gameInfo.MatchID
}

// snapshotInfo returns a consistent copy of the session descriptor.
// Notification builders read the copy, never the live record.
func (g *PendingGame) snapshotInfo() protocol.GameInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *g.gameInfo
}

// snapshotRoster returns a deep copy of the roster taken under the game
// lock. Notification builders read the copy, never the live slots.
func (g *PendingGame) snapshotRoster() *protocol.TeamInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.teamInfo.Clone()
}

// markReady flips the matching human slot to Ready. Returns false when no
// slot in this roster matches.
func (g *PendingGame) markReady(accountID int64, playerID int32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.teamInfo.TeamPlayerInfo {
		if p.IsNPCBot || p.AccountID != accountID || p.PlayerID != playerID {
			continue
		}
		p.ReadyState = protocol.ReadyStateReady
		return true
	}
	return false
}

func (g *PendingGame) mutate(fn func(info *protocol.GameInfo)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.gameInfo)
}

func (g *PendingGame) setTimer(t *launchTimer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.timer = t
}

func (g *PendingGame) stopTimer() {
	g.mu.Lock()
	t := g.timer
	g.mu.Unlock()
	if t != nil {
		t.Stop()
	}
}

// Options tunes the orchestrator.
type Options struct {
	// TickInterval is the scheduler period. Defaults to one second.
	TickInterval time.Duration
	// DefaultLoadoutTimeout substitutes for a zero LoadoutSelectTimeout
	// on incoming game descriptors. Defaults to one minute.
	DefaultLoadoutTimeout time.Duration
	// HostRequestTimeout bounds one session request. Defaults to 30s.
	HostRequestTimeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.DefaultLoadoutTimeout <= 0 {
		o.DefaultLoadoutTimeout = time.Minute
	}
	if o.HostRequestTimeout <= 0 {
		o.HostRequestTimeout = 30 * time.Second
	}
}

// Manager owns the queue set and all pending games, advances them on a
// periodic tick, and fans out notifications. Construct one per process and
// pass it to the collaborators that need it.
type Manager struct {
	queues   map[protocol.GameType]*Queue
	resolver connection.Resolver
	host     hosting.Client
	recorder MatchRecorder
	logger   *zap.Logger
	metrics  *observability.Metrics
	opts     Options

	mu      sync.Mutex
	pending []*PendingGame

	matchID atomic.Int64
	wg      sync.WaitGroup
}

// NewManager creates the orchestrator.
//
// Precondition: queues, resolver, host, and logger must be non-nil.
// recorder and metrics may be nil.
func NewManager(queues map[protocol.GameType]*Queue, resolver connection.Resolver, host hosting.Client, recorder MatchRecorder, metrics *observability.Metrics, logger *zap.Logger, opts Options) *Manager {
	opts.applyDefaults()
	return &Manager{
		queues:   queues,
		resolver: resolver,
		host:     host,
		recorder: recorder,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
	}
}

// LookupQueue returns the immutable queue for gameType.
//
// Postcondition: Returns the queue, or *QueueNotFoundError. Never mutates
// queue state.
func (m *Manager) LookupQueue(gameType protocol.GameType) (*Queue, error) {
	q, ok := m.queues[gameType]
	if !ok {
		return nil, &QueueNotFoundError{GameType: gameType}
	}
	return q, nil
}

// CreateGame admits an already-formed group as a pending game. It resolves
// every non-bot slot to a live connection and stores the session tokens.
//
// Postcondition: On success the game is in the active set with status
// Assembling. On *UnresolvedParticipantError the active set is unchanged.
func (m *Manager) CreateGame(gameInfo *protocol.GameInfo, teamInfo *protocol.TeamInfo) error {
	tokens := make([]int64, 0, len(teamInfo.TeamPlayerInfo))
	for _, p := range teamInfo.TeamPlayerInfo {
		if p.IsNPCBot {
			continue
		}
		conn, err := m.resolver.Resolve(p.AccountID)
		if err != nil {
			return &UnresolvedParticipantError{AccountID: p.AccountID, Handle: p.Handle, Err: err}
		}
		tokens = append(tokens, conn.SessionToken())
	}

	gameInfo.GameStatus = protocol.GameStatusAssembling
	if gameInfo.MatchID == 0 {
		gameInfo.MatchID = m.matchID.Add(1)
	}
	if gameInfo.GameServerProcessCode == "" {
		gameInfo.GameServerProcessCode = "game-" + uuid.NewString()
	}
	if gameInfo.GameConfig.RoomName == "" {
		gameInfo.GameConfig.RoomName = fmt.Sprintf("%s-%d", gameInfo.GameConfig.GameType, gameInfo.MatchID)
	}
	if gameInfo.LoadoutSelectTimeout <= 0 {
		gameInfo.LoadoutSelectTimeout = m.opts.DefaultLoadoutTimeout
	}

	game := &PendingGame{
		SessionTokens: tokens,
		gameInfo:      gameInfo,
		teamInfo:      teamInfo,
	}

	m.mu.Lock()
	m.pending = append(m.pending, game)
	count := len(m.pending)
	m.mu.Unlock()

	m.metrics.GameCreated(gameInfo.GameConfig.GameType.String())
	m.metrics.ObservePendingGames(count)
	m.logger.Info("game created",
		zap.Int64("match_id", gameInfo.MatchID),
		zap.String("game_type", gameInfo.GameConfig.GameType.String()),
		zap.Int("slots", len(teamInfo.TeamPlayerInfo)),
		zap.Int("humans", len(tokens)),
	)
	return nil
}

// Tick advances every pending game still in Assembling. Instant modes go
// straight to launch; phased modes enter LoadoutSelecting and arm their
// one-shot launch timer. Games past Assembling are driven by their timer or
// launch task, not by polling.
func (m *Manager) Tick() {
	start := time.Now()
	defer func() {
		m.metrics.ObserveTick(time.Since(start).Seconds())
	}()

	m.mu.Lock()
	snapshot := make([]*PendingGame, len(m.pending))
	copy(snapshot, m.pending)
	m.mu.Unlock()

	for _, game := range snapshot {
		if game.Status() != protocol.GameStatusAssembling {
			continue
		}
		info := game.snapshotInfo()
		if info.GameConfig.GameType.Instant() {
			m.launch(game)
			continue
		}

		game.mutate(func(gi *protocol.GameInfo) {
			gi.GameStatus = protocol.GameStatusLoadoutSelecting
		})
		m.broadcastTransition(game)

		game.setTimer(newLaunchTimer(info.LoadoutSelectTimeout, func() {
			m.launch(game)
		}))
		m.logger.Debug("loadout selection started",
			zap.Int64("match_id", info.MatchID),
			zap.Duration("timeout", info.LoadoutSelectTimeout),
		)
	}
}

// Run drives Tick on the configured interval until ctx is cancelled.
//
// Postcondition: All per-game timers are stopped when Run returns; launch
// tasks already in flight are awaited.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.TickInterval)
	defer ticker.Stop()

	m.logger.Info("lobby scheduler running",
		zap.Duration("tick_interval", m.opts.TickInterval),
	)
	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return nil
		case <-ticker.C:
			m.Tick()
		}
	}
}

func (m *Manager) shutdown() {
	m.mu.Lock()
	games := make([]*PendingGame, len(m.pending))
	copy(games, m.pending)
	m.mu.Unlock()
	for _, game := range games {
		game.stopTimer()
	}
	m.wg.Wait()
}

// launch moves a game into Launching, notifies every human participant of
// its assignment, and requests the host session in its own goroutine so the
// tick loop and other games' timers never block on it. The launched guard
// makes a second invocation (timeout racing an external trigger) a no-op.
func (m *Manager) launch(game *PendingGame) {
	if !game.launched.CompareAndSwap(false, true) {
		return
	}
	game.stopTimer()

	m.sendAssignments(game, protocol.GameResultNoResult)
	game.mutate(func(gi *protocol.GameInfo) {
		gi.GameStatus = protocol.GameStatusLaunching
	})
	m.broadcastTransition(game)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.completeLaunch(game)
	}()
}

// completeLaunch awaits the host session and retires the game. A host
// failure is fatal to this game only: participants are told the launch
// failed and the game is removed rather than left stuck in Launching.
func (m *Manager) completeLaunch(game *PendingGame) {
	info := game.snapshotInfo()
	roster := game.snapshotRoster()

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.HostRequestTimeout)
	defer cancel()

	addr, err := m.host.RequestSession(ctx, &info, roster, game.SessionTokens)
	if err != nil {
		m.logger.Error("host session request failed",
			zap.Int64("match_id", info.MatchID),
			zap.Error(err),
		)
		game.mutate(func(gi *protocol.GameInfo) {
			gi.GameResult = protocol.GameResultServerLaunchFailure
		})
		m.sendAssignments(game, protocol.GameResultServerLaunchFailure)
		m.metrics.LaunchFailed()
		m.remove(game)
		return
	}

	game.mutate(func(gi *protocol.GameInfo) {
		gi.GameServerAddress = addr
		gi.GameStatus = protocol.GameStatusLaunched
	})
	m.broadcastTransition(game)

	if m.recorder != nil {
		if err := m.recorder.RecordMatch(context.Background(), game.gameInfoCopy(), game.snapshotRoster()); err != nil {
			m.logger.Warn("recording match failed",
				zap.Int64("match_id", info.MatchID),
				zap.Error(err),
			)
		}
	}

	m.metrics.GameLaunched(info.GameConfig.GameType.String())
	m.logger.Info("game launched",
		zap.Int64("match_id", info.MatchID),
		zap.String("address", addr),
	)
	m.remove(game)
}

func (g *PendingGame) gameInfoCopy() *protocol.GameInfo {
	info := g.snapshotInfo()
	return &info
}

// sendAssignments delivers a GameAssignmentNotification to every human
// slot. Each recipient gets its own cleared player-info clone; a failed
// send affects that recipient only.
func (m *Manager) sendAssignments(game *PendingGame, result protocol.GameResult) {
	info := game.snapshotInfo()
	roster := game.snapshotRoster()
	for _, p := range roster.Humans() {
		conn, err := m.resolver.Resolve(p.AccountID)
		if err != nil {
			m.deliveryFailure(info.MatchID, p.AccountID, err)
			continue
		}
		playerClone := p.Clone()
		playerClone.ControllingPlayerID = 0
		msg := &protocol.GameAssignmentNotification{
			GameInfo:   info,
			GameResult: result,
			PlayerInfo: *playerClone,
		}
		if err := conn.Send(msg); err != nil {
			m.deliveryFailure(info.MatchID, p.AccountID, err)
		}
	}
}

// broadcastTransition delivers the current game state to every human slot.
// Recipients see themselves as locally controlled: their slot in both the
// player clone and the team clone has ControllingPlayerID cleared. All
// recipients see the same roster snapshot, each through its own clone.
func (m *Manager) broadcastTransition(game *PendingGame) {
	info := game.snapshotInfo()
	roster := game.snapshotRoster()
	for _, p := range roster.Humans() {
		conn, err := m.resolver.Resolve(p.AccountID)
		if err != nil {
			m.deliveryFailure(info.MatchID, p.AccountID, err)
			continue
		}

		teamClone := roster.Clone()
		for _, slot := range teamClone.TeamPlayerInfo {
			if slot.PlayerID == p.PlayerID {
				slot.ControllingPlayerID = 0
			}
		}
		playerClone := p.Clone()
		playerClone.ControllingPlayerID = 0

		msg := &protocol.GameInfoNotification{
			GameInfo:   info,
			PlayerInfo: *playerClone,
			TeamInfo:   *teamClone,
		}
		if err := conn.Send(msg); err != nil {
			m.deliveryFailure(info.MatchID, p.AccountID, err)
		}
	}
}

func (m *Manager) deliveryFailure(matchID, accountID int64, err error) {
	m.metrics.DeliveryFailed()
	m.logger.Warn("notification delivery failed",
		zap.Int64("match_id", matchID),
		zap.Int64("account_id", accountID),
		zap.Error(err),
	)
}

func (m *Manager) remove(game *PendingGame) {
	m.mu.Lock()
	for i, g := range m.pending {
		if g == game {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			break
		}
	}
	count := len(m.pending)
	m.mu.Unlock()
	m.metrics.ObservePendingGames(count)
}

// ActiveCount returns the number of pending games.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// OnClientMessage handles client-originated lobby messages. A participant
// disconnecting or leaving mid-assembly is deliberately not a state
// transition; the game proceeds and deliveries to the absent player fail
// individually.
func (m *Manager) OnClientMessage(conn connection.Conn, msg protocol.Message) {
	switch msg := msg.(type) {
	case *protocol.AssetsLoadedNotification:
		m.markAssetsLoaded(msg.AccountID, msg.PlayerID)
	case *protocol.LeaveGameNotification:
		m.logger.Info("player left game",
			zap.Int64("account_id", conn.AccountID()),
			zap.Int32("player_id", msg.PlayerID),
			zap.Bool("permanent", msg.IsPermanent),
		)
	default:
		m.logger.Debug("unhandled client message",
			zap.Int64("account_id", conn.AccountID()),
			zap.String("type", fmt.Sprintf("%T", msg)),
		)
	}
}

// markAssetsLoaded flips the matching slot to Ready on the pending game
// that contains the account. The mutation happens under that game's lock.
func (m *Manager) markAssetsLoaded(accountID int64, playerID int32) {
	m.mu.Lock()
	snapshot := make([]*PendingGame, len(m.pending))
	copy(snapshot, m.pending)
	m.mu.Unlock()

	for _, game := range snapshot {
		if game.markReady(accountID, playerID) {
			m.logger.Debug("assets loaded",
				zap.Int64("match_id", game.MatchID()),
				zap.Int64("account_id", accountID),
			)
			return
		}
	}
}
