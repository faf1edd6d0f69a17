package stats

import (
	"sync"

	"PlinkoCore/internal/plinko"

	"github.com/google/uuid"
)

// PlayerStats holds per-player running totals. Reporting only, never
// correctness-critical, but game count and game-id history must stay in
// step: len(GameIDs) == min(TotalGamesPlayed, cap).
type PlayerStats struct {
	Player           uuid.UUID
	TotalGamesPlayed uint64
	TotalWagered     uint64
	TotalWon         uint64
	GameIDs          []uint64
}

func (s *PlayerStats) clone() *PlayerStats {
	cp := *s
	cp.GameIDs = append([]uint64(nil), s.GameIDs...)
	return &cp
}

// Store keeps aggregates keyed by player identity.
type Store struct {
	mu      sync.Mutex
	players map[uuid.UUID]*PlayerStats
}

func NewStore() *Store {
	return &Store{
		players: make(map[uuid.UUID]*PlayerStats),
	}
}

// Record books a wager at game open, creating the aggregate lazily. The
// game-id history is append-only and stops growing at the cap; the counters
// keep counting past it.
func (st *Store) Record(player uuid.UUID, gameID uint64, wager uint64) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.players[player]
	if !ok {
		s = &PlayerStats{Player: player}
		st.players[player] = s
	}

	s.TotalGamesPlayed++
	s.TotalWagered += wager
	if len(s.GameIDs) < plinko.MaxTrackedGameIDs {
		s.GameIDs = append(s.GameIDs, gameID)
	}
}

// RecordWin books a payout at resolution.
func (st *Store) RecordWin(player uuid.UUID, amount uint64) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.players[player]
	if !ok {
		s = &PlayerStats{Player: player}
		st.players[player] = s
	}
	s.TotalWon += amount
}

// Get returns a copy of the player's aggregate, or nil if never seen.
func (st *Store) Get(player uuid.UUID) *PlayerStats {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.players[player]
	if !ok {
		return nil
	}
	return s.clone()
}
