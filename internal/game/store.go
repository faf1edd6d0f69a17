package game

import (
	"sync"

	"PlinkoCore/internal/plinko"
)

const lockStripes = 64

// Store is the keyed game-record store. Each game id maps to one record and
// at most one mutation is in flight per id: callers take the per-id lock for
// the duration of a settlement phase, which is the Go rendering of
// single-owner-account semantics. Distinct game ids proceed in parallel.
type Store struct {
	mu    sync.RWMutex
	games map[uint64]*Game

	stripes [lockStripes]sync.Mutex
}

func NewStore() *Store {
	return &Store{
		games: make(map[uint64]*Game),
	}
}

// Lock serializes work on one game id. The returned function releases the
// lock; hold it across a whole settlement phase.
func (s *Store) Lock(gameID uint64) func() {
	stripe := &s.stripes[gameID%lockStripes]
	stripe.Lock()
	return stripe.Unlock
}

// Exists reports whether a record exists for the id.
func (s *Store) Exists(gameID uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.games[gameID]
	return ok
}

// Get returns a copy of the record.
func (s *Store) Get(gameID uint64) (*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return nil, plinko.ErrGameNotFound
	}
	return g.Clone(), nil
}

// Put inserts or replaces the record. Callers must hold the id's lock.
func (s *Store) Put(g *Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.GameID] = g.Clone()
}

// Count returns the number of stored games.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}
