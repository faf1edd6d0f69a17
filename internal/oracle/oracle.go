package oracle

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"sync"
)

// Oracle is the verifiable-randomness collaborator. Request is
// fire-and-forget; CurrentValue is polled until it returns a non-zero seed.
// Zero always means "not fulfilled yet"; fulfillers must never produce a
// literal zero seed.
type Oracle interface {
	Request(ctx context.Context, commitment [32]byte) error
	CurrentValue(commitment [32]byte) uint64
}

// Memory is an in-process oracle for tests and single-node development.
// With autoFulfill set, every request is fulfilled immediately from
// crypto/rand; otherwise Fulfill must be called explicitly.
type Memory struct {
	mu          sync.Mutex
	values      map[[32]byte]uint64
	autoFulfill bool
}

func NewMemory(autoFulfill bool) *Memory {
	return &Memory{
		values:      make(map[[32]byte]uint64),
		autoFulfill: autoFulfill,
	}
}

func (m *Memory) Request(ctx context.Context, commitment [32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.values[commitment]; ok {
		return nil
	}

	if m.autoFulfill {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return err
		}
		seed := binary.LittleEndian.Uint64(buf[:])
		if seed == 0 {
			seed = 1
		}
		m.values[commitment] = seed
		return nil
	}

	m.values[commitment] = 0
	return nil
}

// Fulfill posts the seed for a commitment.
func (m *Memory) Fulfill(commitment [32]byte, seed uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[commitment] = seed
}

func (m *Memory) CurrentValue(commitment [32]byte) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[commitment]
}
