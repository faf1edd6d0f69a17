package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"PlinkoCore/internal/game"
	"PlinkoCore/internal/ledger"

	"github.com/lib/pq"
)

// GameRow is a row in plinko.games. A game is written twice: once at open
// and once at resolution, with the second write updating the outcome fields.
type GameRow struct {
	GameID     int64
	Player     string
	Commitment []byte
	TotalBet   int64
	HouseStake int64
	BallCount  int16
	BetPerBall int64
	Buckets    []int16
	Payout     int64
	RequestID  int64
	State      string
	CreatedAt  int64
	ResolvedAt int64
}

// JournalRow is a row in plinko.journals. Journals are append-only.
type JournalRow struct {
	JournalID     string
	BatchID       string
	GameID        int64
	DebitAccount  string
	CreditAccount string
	Amount        int64
	JournalType   string
	Timestamp     int64
}

// GameRowFrom flattens an in-memory game record for storage.
func GameRowFrom(g *game.Game) GameRow {
	buckets := make([]int16, len(g.Buckets))
	for i, b := range g.Buckets {
		buckets[i] = int16(b)
	}
	return GameRow{
		GameID:     int64(g.GameID),
		Player:     g.Player.String(),
		Commitment: append([]byte(nil), g.Commitment[:]...),
		TotalBet:   int64(g.TotalBet),
		HouseStake: int64(g.HouseStake),
		BallCount:  int16(g.BallCount),
		BetPerBall: int64(g.BetPerBall),
		Buckets:    buckets,
		Payout:     int64(g.Payout),
		RequestID:  int64(g.RequestID),
		State:      g.State.String(),
		CreatedAt:  g.CreatedAt,
		ResolvedAt: g.ResolvedAt,
	}
}

// JournalRowsFrom flattens a settlement batch for storage.
func JournalRowsFrom(b *ledger.Batch) []JournalRow {
	rows := make([]JournalRow, 0, len(b.Journals))
	for _, j := range b.Journals {
		rows = append(rows, JournalRow{
			JournalID:     j.JournalID.String(),
			BatchID:       j.BatchID.String(),
			GameID:        int64(j.GameID),
			DebitAccount:  j.DebitAccount.AccountPath(),
			CreditAccount: j.CreditAccount.AccountPath(),
			Amount:        int64(j.Amount),
			JournalType:   j.JournalType.String(),
			Timestamp:     j.Timestamp,
		})
	}
	return rows
}

// Writer writes game and journal rows to Postgres using multi-row INSERT.
// Writes are idempotent: re-flushing a batch after a partial failure never
// duplicates rows.
type Writer struct {
	db *sql.DB
}

func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// WriteGameBatch upserts game rows. The open-time row carries zeroed outcome
// fields; the resolve-time row overwrites them.
func (w *Writer) WriteGameBatch(ctx context.Context, tx *sql.Tx, games []GameRow) error {
	if len(games) == 0 {
		return nil
	}

	query := `INSERT INTO plinko.games
		(game_id, player, commitment, total_bet, house_stake, ball_count,
		 bet_per_ball, buckets, payout, request_id, state, created_at, resolved_at)
		VALUES `

	values := make([]string, 0, len(games))
	args := make([]interface{}, 0, len(games)*13)

	for i, g := range games {
		base := i * 13
		placeholders := make([]string, 13)
		for p := range placeholders {
			placeholders[p] = fmt.Sprintf("$%d", base+p+1)
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")
		args = append(args,
			g.GameID, g.Player, g.Commitment, g.TotalBet, g.HouseStake,
			g.BallCount, g.BetPerBall, pq.Array(g.Buckets), g.Payout,
			g.RequestID, g.State, g.CreatedAt, g.ResolvedAt,
		)
	}

	query += strings.Join(values, ", ")
	query += ` ON CONFLICT (game_id) DO UPDATE SET
		buckets = EXCLUDED.buckets,
		payout = EXCLUDED.payout,
		state = EXCLUDED.state,
		resolved_at = EXCLUDED.resolved_at`

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// WriteJournalBatch appends journal rows.
func (w *Writer) WriteJournalBatch(ctx context.Context, tx *sql.Tx, journals []JournalRow) error {
	if len(journals) == 0 {
		return nil
	}

	query := `INSERT INTO plinko.journals
		(journal_id, batch_id, game_id, debit_account, credit_account,
		 amount, journal_type, timestamp)
		VALUES `

	values := make([]string, 0, len(journals))
	args := make([]interface{}, 0, len(journals)*8)

	for i, j := range journals {
		base := i * 8
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
		))
		args = append(args,
			j.JournalID, j.BatchID, j.GameID, j.DebitAccount,
			j.CreditAccount, j.Amount, j.JournalType, j.Timestamp,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (journal_id) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
