package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-remake/lobby/internal/protocol"
)

// MatchRecord is one launched game as persisted.
type MatchRecord struct {
	MatchID       int64
	GameType      string
	Map           string
	ServerAddress string
	ProcessCode   string
	Result        int16
	CreatedAt     time.Time
	Players       []MatchPlayer
}

// MatchPlayer is one roster slot of a persisted match.
type MatchPlayer struct {
	MatchID       int64
	PlayerID      int32
	AccountID     int64
	Handle        string
	Team          int16
	IsBot         bool
	CharacterType int32
}

// ErrMatchNotFound is returned when a match lookup yields no results.
var ErrMatchNotFound = errors.New("match not found")

// ErrMatchExists is returned when recording a duplicate match id.
var ErrMatchExists = errors.New("match already recorded")

// MatchRepository persists launched games and their rosters.
type MatchRepository struct {
	db *pgxpool.Pool
}

// NewMatchRepository creates a MatchRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// RecordMatch persists a launched game and its roster in one transaction.
//
// Precondition: gameInfo.MatchID must be non-zero.
// Postcondition: The match and all roster slots are stored, or
// ErrMatchExists if the match id was already recorded.
func (r *MatchRepository) RecordMatch(ctx context.Context, gameInfo *protocol.GameInfo, teamInfo *protocol.TeamInfo) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO matches (match_id, game_type, map, server_address, process_code, result)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		gameInfo.MatchID,
		gameInfo.GameConfig.GameType.String(),
		gameInfo.GameConfig.Map,
		gameInfo.GameServerAddress,
		gameInfo.GameServerProcessCode,
		int16(gameInfo.GameResult),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrMatchExists
		}
		return fmt.Errorf("inserting match: %w", err)
	}

	for _, p := range teamInfo.TeamPlayerInfo {
		_, err = tx.Exec(ctx,
			`INSERT INTO match_players (match_id, player_id, account_id, handle, team, is_bot, character_type)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			gameInfo.MatchID, p.PlayerID, p.AccountID, p.Handle,
			int16(p.TeamID), p.IsNPCBot, int32(p.CharacterType),
		)
		if err != nil {
			return fmt.Errorf("inserting match player: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing match: %w", err)
	}
	return nil
}

// GetByMatchID retrieves a match and its roster.
//
// Postcondition: Returns the MatchRecord with Players populated in
// player-id order, or ErrMatchNotFound.
func (r *MatchRepository) GetByMatchID(ctx context.Context, matchID int64) (MatchRecord, error) {
	var rec MatchRecord
	err := r.db.QueryRow(ctx,
		`SELECT match_id, game_type, map, server_address, process_code, result, created_at
		 FROM matches WHERE match_id = $1`,
		matchID,
	).Scan(&rec.MatchID, &rec.GameType, &rec.Map, &rec.ServerAddress,
		&rec.ProcessCode, &rec.Result, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MatchRecord{}, ErrMatchNotFound
		}
		return MatchRecord{}, fmt.Errorf("querying match: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT match_id, player_id, account_id, handle, team, is_bot, character_type
		 FROM match_players WHERE match_id = $1 ORDER BY player_id`,
		matchID,
	)
	if err != nil {
		return MatchRecord{}, fmt.Errorf("querying match players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p MatchPlayer
		if err := rows.Scan(&p.MatchID, &p.PlayerID, &p.AccountID, &p.Handle,
			&p.Team, &p.IsBot, &p.CharacterType); err != nil {
			return MatchRecord{}, fmt.Errorf("scanning match player: %w", err)
		}
		rec.Players = append(rec.Players, p)
	}
	if err := rows.Err(); err != nil {
		return MatchRecord{}, fmt.Errorf("iterating match players: %w", err)
	}
	return rec, nil
}

// ListRecent returns up to limit matches, newest first, without rosters.
//
// Precondition: limit must be positive.
func (r *MatchRepository) ListRecent(ctx context.Context, limit int) ([]MatchRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT match_id, game_type, map, server_address, process_code, result, created_at
		 FROM matches ORDER BY created_at DESC, match_id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	var records []MatchRecord
	for rows.Next() {
		var rec MatchRecord
		if err := rows.Scan(&rec.MatchID, &rec.GameType, &rec.Map, &rec.ServerAddress,
			&rec.ProcessCode, &rec.Result, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}
	return records, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
