package house

import (
	"sync"

	"PlinkoCore/internal/plinko"
)

// Bankroll is the shared pooled balance absorbing losses and funding wins.
// Every mutation is one read-modify-write under the lock; the settlement
// engine performs exactly one balance mutation per phase.
type Bankroll struct {
	mu                sync.Mutex
	balance           uint64
	totalPayout       uint64
	maxPayout         uint64
	withdrawalsPaused bool
	pendingRequests   uint32
}

// Summary is a consistent point-in-time view for queries and logging.
type Summary struct {
	Balance           uint64
	TotalPayout       uint64
	MaxPayout         uint64
	WithdrawalsPaused bool
	PendingRequests   uint32
}

func NewBankroll(maxPayout uint64) *Bankroll {
	return &Bankroll{maxPayout: maxPayout}
}

// Credit adds amount to the pooled balance.
func (b *Bankroll) Credit(amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balance += amount
}

// Debit removes amount from the pooled balance.
func (b *Bankroll) Debit(amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balance < amount {
		return plinko.ErrInsufficientFunds
	}
	b.balance -= amount
	return nil
}

// AddPayout records house stake consumed by a winning settlement.
func (b *Bankroll) AddPayout(amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.totalPayout += amount
}

func (b *Bankroll) Balance() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance
}

// IncPending counts a game awaiting oracle resolution.
func (b *Bankroll) IncPending() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingRequests++
}

// DecPending is saturating: a stray double-resolution attempt must never
// wrap the counter.
func (b *Bankroll) DecPending() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pendingRequests > 0 {
		b.pendingRequests--
	}
}

func (b *Bankroll) PendingRequests() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingRequests
}

func (b *Bankroll) SetWithdrawalsPaused(paused bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.withdrawalsPaused = paused
}

func (b *Bankroll) WithdrawalsPaused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.withdrawalsPaused
}

func (b *Bankroll) Summary() Summary {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Summary{
		Balance:           b.balance,
		TotalPayout:       b.totalPayout,
		MaxPayout:         b.maxPayout,
		WithdrawalsPaused: b.withdrawalsPaused,
		PendingRequests:   b.pendingRequests,
	}
}
