package game

import "github.com/google/uuid"

// State is the game lifecycle. Opened -> Resolved, no other transitions:
// a game cannot be reopened or canceled once funds are escrowed.
type State int32

const (
	StateOpened State = iota
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateOpened:
		return "opened"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Game is the per-game settlement record. Created at open with zero-filled
// bucket placeholders; mutated exactly once at resolution, then immutable.
type Game struct {
	GameID     uint64
	Player     uuid.UUID
	Commitment [32]byte // oracle seed commitment this game's randomness is keyed by
	TotalBet   uint64
	HouseStake uint64 // bet minus platform fee
	BallCount  uint8
	BetPerBall uint64  // house stake divided by ball count
	Buckets    []uint8 // length == BallCount, filled at resolution
	Payout     uint64
	RequestID  uint64
	State      State
	CreatedAt  int64
	ResolvedAt int64
}

// Clone returns a deep copy safe to hand outside the store's lock.
func (g *Game) Clone() *Game {
	cp := *g
	cp.Buckets = append([]uint8(nil), g.Buckets...)
	return &cp
}
