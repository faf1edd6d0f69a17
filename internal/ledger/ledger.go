package ledger

import (
	"fmt"
	"sync"

	"PlinkoCore/internal/plinko"

	"github.com/google/uuid"
)

// Ledger is the value-transfer primitive: it tracks account balances and
// applies transfers atomically. A transfer fails with ErrInsufficientFunds
// when the source is a player or system account with too little balance;
// the external boundary account may go negative (it is the counterweight
// for funds entering the system).
//
// All methods are safe for concurrent use; a batch is applied under one
// lock so concurrent settlements never observe a half-applied phase.
type Ledger struct {
	mu       sync.Mutex
	balances map[AccountKey]int64
}

func New() *Ledger {
	return &Ledger{
		balances: make(map[AccountKey]int64),
	}
}

// Balance returns the current balance for an account. Negative balances only
// occur on the external account.
func (l *Ledger) Balance(key AccountKey) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[key]
}

// Transfer moves amount from one account to another as a single-entry batch.
func (l *Ledger) Transfer(from, to AccountKey, amount uint64, jt JournalType, ts int64) (Journal, error) {
	batchID := uuid.New()
	j := NewJournal(batchID, 0, to, from, amount, jt, ts)

	batch := &Batch{BatchID: batchID, Timestamp: ts, Journals: []Journal{j}}
	if err := l.ApplyBatch(batch); err != nil {
		return Journal{}, err
	}
	return j, nil
}

// ApplyBatch applies all journals in a batch atomically: every entry's
// funding is checked against the running balances before anything commits,
// so either the whole phase's movements apply or none do.
func (l *Ledger) ApplyBatch(batch *Batch) error {
	if err := batch.Validate(); err != nil {
		return fmt.Errorf("invalid batch: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Dry run against staged balances.
	staged := make(map[AccountKey]int64, len(batch.Journals)*2)
	stagedBalance := func(k AccountKey) int64 {
		if v, ok := staged[k]; ok {
			return v
		}
		return l.balances[k]
	}

	for _, j := range batch.Journals {
		from := j.CreditAccount
		if from.Scope != AccountScopeExternal {
			have := stagedBalance(from)
			if have < int64(j.Amount) {
				return fmt.Errorf("%w: account %s has %d, needs %d",
					plinko.ErrInsufficientFunds, from.AccountPath(), have, j.Amount)
			}
		}
		staged[from] = stagedBalance(from) - int64(j.Amount)
		staged[j.DebitAccount] = stagedBalance(j.DebitAccount) + int64(j.Amount)
	}

	for k, v := range staged {
		l.balances[k] = v
	}
	return nil
}

// Snapshot returns a copy of all balances.
func (l *Ledger) Snapshot() map[AccountKey]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make(map[AccountKey]int64, len(l.balances))
	for k, v := range l.balances {
		snapshot[k] = v
	}
	return snapshot
}

// ComputeGlobalBalance sums all account balances; a correct double-entry
// ledger is always zero-sum.
func (l *Ledger) ComputeGlobalBalance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total int64
	for _, v := range l.balances {
		total += v
	}
	return total
}
