package query

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"PlinkoCore/internal/observability"
	"PlinkoCore/internal/plinko"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Service provides read-only access to the persisted game and journal tables.
// Results trail the in-memory engine by up to one persistence flush.
type Service struct {
	db      *sql.DB
	metrics *observability.Metrics
}

func NewService(db *sql.DB, metrics *observability.Metrics) *Service {
	return &Service{db: db, metrics: metrics}
}

// observe books one request against an endpoint; fail counts a failure and
// passes the error through. Not-found is a normal outcome, not a failure.
func (s *Service) observe(endpoint string) {
	s.metrics.QueryRequests.WithLabelValues(endpoint).Inc()
}

func (s *Service) fail(endpoint string, err error) error {
	if !errors.Is(err, plinko.ErrGameNotFound) {
		s.metrics.QueryErrors.WithLabelValues(endpoint).Inc()
	}
	return err
}

const gameColumns = `game_id, player, commitment, total_bet, house_stake,
	ball_count, bet_per_ball, buckets, payout, state, created_at, resolved_at`

// GetGame returns one stored game.
func (s *Service) GetGame(ctx context.Context, gameID uint64) (*GameResponse, error) {
	s.observe("game")

	row := s.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM plinko.games WHERE game_id = $1`,
		int64(gameID),
	)

	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, plinko.ErrGameNotFound
	}
	if err != nil {
		return nil, s.fail("game", err)
	}
	return g, nil
}

// RecentGames returns the newest stored games, most recent first.
func (s *Service) RecentGames(ctx context.Context, limit int) ([]GameResponse, error) {
	s.observe("recent_games")

	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM plinko.games ORDER BY created_at DESC, game_id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, s.fail("recent_games", err)
	}
	defer rows.Close()

	games, err := collectGames(rows)
	if err != nil {
		return nil, s.fail("recent_games", err)
	}
	return games, nil
}

// PlayerHistory returns a player's stored games plus aggregates computed over
// the full table, not just the returned page.
func (s *Service) PlayerHistory(ctx context.Context, player uuid.UUID, limit int) (*PlayerHistory, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	s.observe("player_history")

	h := &PlayerHistory{Player: player}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_bet), 0), COALESCE(SUM(payout), 0)
		FROM plinko.games WHERE player = $1
	`, player.String()).Scan(&h.GamesPlayed, &h.TotalWagered, &h.TotalWon)
	if err != nil {
		return nil, s.fail("player_history", fmt.Errorf("player aggregates: %w", err))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM plinko.games
		WHERE player = $1 ORDER BY created_at DESC, game_id DESC LIMIT $2`,
		player.String(), limit,
	)
	if err != nil {
		return nil, s.fail("player_history", err)
	}
	defer rows.Close()

	h.Games, err = collectGames(rows)
	if err != nil {
		return nil, s.fail("player_history", err)
	}
	return h, nil
}

// GameJournals returns all fund movements booked against a game.
func (s *Service) GameJournals(ctx context.Context, gameID uint64) ([]JournalEntry, error) {
	s.observe("game_journals")

	rows, err := s.db.QueryContext(ctx, `
		SELECT journal_id, batch_id, game_id, debit_account, credit_account,
		       amount, journal_type, timestamp
		FROM plinko.journals WHERE game_id = $1 ORDER BY timestamp, journal_id
	`, int64(gameID))
	if err != nil {
		return nil, s.fail("game_journals", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var gid, amount int64
		if err := rows.Scan(
			&e.JournalID, &e.BatchID, &gid, &e.DebitAccount,
			&e.CreditAccount, &amount, &e.JournalType, &e.Timestamp,
		); err != nil {
			return nil, s.fail("game_journals", err)
		}
		e.GameID = uint64(gid)
		e.Amount = uint64(amount)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("game_journals", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGame(row rowScanner) (*GameResponse, error) {
	var (
		g                                        GameResponse
		gameID, totalBet, houseStake, betPerBall int64
		payout, createdAt, resolvedAt            int64
		ballCount                                int16
		player                                   string
		commitment                               []byte
		buckets                                  pq.Int64Array
	)

	err := row.Scan(
		&gameID, &player, &commitment, &totalBet, &houseStake,
		&ballCount, &betPerBall, &buckets, &payout, &g.State,
		&createdAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	uid, err := uuid.Parse(player)
	if err != nil {
		return nil, fmt.Errorf("parse player uuid: %w", err)
	}

	g.GameID = uint64(gameID)
	g.Player = uid
	g.Commitment = hex.EncodeToString(commitment)
	g.TotalBet = uint64(totalBet)
	g.HouseStake = uint64(houseStake)
	g.BallCount = uint8(ballCount)
	g.BetPerBall = uint64(betPerBall)
	g.Payout = uint64(payout)
	g.CreatedAt = createdAt
	g.ResolvedAt = resolvedAt

	g.Buckets = make([]uint8, len(buckets))
	for i, b := range buckets {
		g.Buckets[i] = uint8(b)
	}
	return &g, nil
}

func collectGames(rows *sql.Rows) ([]GameResponse, error) {
	var games []GameResponse
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}
