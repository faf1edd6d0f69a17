package query

import "github.com/google/uuid"

// GameResponse is the stored view of one game.
type GameResponse struct {
	GameID     uint64    `json:"game_id"`
	Player     uuid.UUID `json:"player"`
	Commitment string    `json:"commitment"` // hex
	TotalBet   uint64    `json:"total_bet"`
	HouseStake uint64    `json:"house_stake"`
	BallCount  uint8     `json:"ball_count"`
	BetPerBall uint64    `json:"bet_per_ball"`
	Buckets    []uint8   `json:"buckets"`
	Payout     uint64    `json:"payout"`
	State      string    `json:"state"`
	CreatedAt  int64     `json:"created_at"`
	ResolvedAt int64     `json:"resolved_at,omitempty"`
}

// JournalEntry is one stored fund movement.
type JournalEntry struct {
	JournalID     string `json:"journal_id"`
	BatchID       string `json:"batch_id"`
	GameID        uint64 `json:"game_id,omitempty"`
	DebitAccount  string `json:"debit_account"`
	CreditAccount string `json:"credit_account"`
	Amount        uint64 `json:"amount"`
	JournalType   string `json:"journal_type"`
	Timestamp     int64  `json:"timestamp"`
}

// PlayerHistory aggregates a player's stored games.
type PlayerHistory struct {
	Player       uuid.UUID      `json:"player"`
	GamesPlayed  uint64         `json:"games_played"`
	TotalWagered uint64         `json:"total_wagered"`
	TotalWon     uint64         `json:"total_won"`
	Games        []GameResponse `json:"games"`
}
