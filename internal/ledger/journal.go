package ledger

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// JournalType represents the purpose of a journal entry
type JournalType int32

const (
	JournalTypeDeposit JournalType = iota
	JournalTypePlatformFee
	JournalTypeEscrow
	JournalTypePayout
	JournalTypeRefund // degraded-payout branch: stake returned in lieu of the computed win
	JournalTypeWithdrawal
)

func (jt JournalType) String() string {
	switch jt {
	case JournalTypeDeposit:
		return "deposit"
	case JournalTypePlatformFee:
		return "platform_fee"
	case JournalTypeEscrow:
		return "escrow"
	case JournalTypePayout:
		return "payout"
	case JournalTypeRefund:
		return "refund"
	case JournalTypeWithdrawal:
		return "withdrawal"
	default:
		return "unknown"
	}
}

// Journal represents a single double-entry transfer: Amount moves from the
// credit account to the debit account.
type Journal struct {
	JournalID     uuid.UUID
	BatchID       uuid.UUID
	GameID        uint64 // 0 for movements outside a game (deposit, withdrawal)
	DebitAccount  AccountKey
	CreditAccount AccountKey
	Amount        uint64 // always positive
	JournalType   JournalType
	Timestamp     int64 // unix seconds
}

// Batch groups the journal entries of one settlement phase. A phase's fund
// movements commit as a unit or not at all.
type Batch struct {
	BatchID   uuid.UUID
	GameID    uint64
	Timestamp int64
	Journals  []Journal
}

// Validate ensures the batch is well-formed. Each journal is a balanced
// transfer by construction, so no cross-entry sum check is needed.
func (b *Batch) Validate() error {
	if len(b.Journals) == 0 {
		return fmt.Errorf("batch %s is empty", b.BatchID)
	}

	for _, j := range b.Journals {
		if j.Amount == 0 {
			return fmt.Errorf("journal %s has zero amount", j.JournalID)
		}
		// Balances are signed; an amount past MaxInt64 would flip sign when
		// staged.
		if j.Amount > math.MaxInt64 {
			return fmt.Errorf("journal %s amount %d exceeds signed balance range", j.JournalID, j.Amount)
		}
		if j.BatchID != b.BatchID {
			return fmt.Errorf("journal %s has mismatched batch_id", j.JournalID)
		}
		if j.DebitAccount == j.CreditAccount {
			return fmt.Errorf("journal %s has same debit and credit account", j.JournalID)
		}
	}

	return nil
}

// NewJournal builds one entry of a batch.
func NewJournal(batchID uuid.UUID, gameID uint64, debit, credit AccountKey, amount uint64, jt JournalType, ts int64) Journal {
	return Journal{
		JournalID:     uuid.New(),
		BatchID:       batchID,
		GameID:        gameID,
		DebitAccount:  debit,
		CreditAccount: credit,
		Amount:        amount,
		JournalType:   jt,
		Timestamp:     ts,
	}
}
