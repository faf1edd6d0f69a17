package ledger_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"PlinkoCore/internal/ledger"
	"PlinkoCore/internal/plinko"

	"github.com/google/uuid"
)

// ============================================================================
// Test: AccountKey
// ============================================================================

func TestAccountKey_PlayerPath(t *testing.T) {
	playerID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	key := ledger.PlayerAccount(playerID)

	path := key.AccountPath()
	expected := "player:550e8400-e29b-41d4-a716-446655440000:cash"
	if path != expected {
		t.Errorf("got %q, want %q", path, expected)
	}
}

func TestAccountKey_SystemPaths(t *testing.T) {
	if got := ledger.VaultAccount().AccountPath(); got != "system:vault" {
		t.Errorf("got %q, want system:vault", got)
	}
	if got := ledger.FeeTreasuryAccount().AccountPath(); got != "system:fee_treasury" {
		t.Errorf("got %q, want system:fee_treasury", got)
	}
	if got := ledger.ExternalAccount().AccountPath(); got != "external:world" {
		t.Errorf("got %q, want external:world", got)
	}
}

// ============================================================================
// Test: Transfer
// ============================================================================

func TestTransfer_DepositFromExternal(t *testing.T) {
	l := ledger.New()
	playerID := uuid.New()
	player := ledger.PlayerAccount(playerID)

	_, err := l.Transfer(ledger.ExternalAccount(), player, 10_000, ledger.JournalTypeDeposit, time.Now().Unix())
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	if got := l.Balance(player); got != 10_000 {
		t.Errorf("player balance: got %d, want 10000", got)
	}
	if got := l.Balance(ledger.ExternalAccount()); got != -10_000 {
		t.Errorf("external balance: got %d, want -10000", got)
	}
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	l := ledger.New()
	player := ledger.PlayerAccount(uuid.New())

	_, err := l.Transfer(player, ledger.VaultAccount(), 1, ledger.JournalTypeEscrow, time.Now().Unix())
	if !errors.Is(err, plinko.ErrInsufficientFunds) {
		t.Errorf("got %v, want ErrInsufficientFunds", err)
	}

	if got := l.Balance(ledger.VaultAccount()); got != 0 {
		t.Errorf("vault mutated by failed transfer: %d", got)
	}
}

// ============================================================================
// Test: ApplyBatch atomicity
// ============================================================================

func TestApplyBatch_AllOrNothing(t *testing.T) {
	l := ledger.New()
	playerID := uuid.New()
	player := ledger.PlayerAccount(playerID)
	ts := time.Now().Unix()

	if _, err := l.Transfer(ledger.ExternalAccount(), player, 100, ledger.JournalTypeDeposit, ts); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	// Fee leg is coverable, escrow leg is not: neither may apply.
	batchID := uuid.New()
	batch := &ledger.Batch{
		BatchID:   batchID,
		GameID:    7,
		Timestamp: ts,
		Journals: []ledger.Journal{
			ledger.NewJournal(batchID, 7, ledger.FeeTreasuryAccount(), player, 60, ledger.JournalTypePlatformFee, ts),
			ledger.NewJournal(batchID, 7, ledger.VaultAccount(), player, 60, ledger.JournalTypeEscrow, ts),
		},
	}

	err := l.ApplyBatch(batch)
	if !errors.Is(err, plinko.ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}

	if got := l.Balance(player); got != 100 {
		t.Errorf("player balance: got %d, want 100 (untouched)", got)
	}
	if got := l.Balance(ledger.FeeTreasuryAccount()); got != 0 {
		t.Errorf("fee treasury: got %d, want 0 (untouched)", got)
	}
}

func TestApplyBatch_TwoLegSettlement(t *testing.T) {
	l := ledger.New()
	player := ledger.PlayerAccount(uuid.New())
	ts := time.Now().Unix()

	if _, err := l.Transfer(ledger.ExternalAccount(), player, 2000, ledger.JournalTypeDeposit, ts); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	batchID := uuid.New()
	batch := &ledger.Batch{
		BatchID:   batchID,
		GameID:    1,
		Timestamp: ts,
		Journals: []ledger.Journal{
			ledger.NewJournal(batchID, 1, ledger.FeeTreasuryAccount(), player, 60, ledger.JournalTypePlatformFee, ts),
			ledger.NewJournal(batchID, 1, ledger.VaultAccount(), player, 1940, ledger.JournalTypeEscrow, ts),
		},
	}

	if err := l.ApplyBatch(batch); err != nil {
		t.Fatalf("ApplyBatch failed: %v", err)
	}

	if got := l.Balance(player); got != 0 {
		t.Errorf("player: got %d, want 0", got)
	}
	if got := l.Balance(ledger.FeeTreasuryAccount()); got != 60 {
		t.Errorf("fee treasury: got %d, want 60", got)
	}
	if got := l.Balance(ledger.VaultAccount()); got != 1940 {
		t.Errorf("vault: got %d, want 1940", got)
	}
}

func TestApplyBatch_EmptyBatchFails(t *testing.T) {
	l := ledger.New()
	batch := &ledger.Batch{BatchID: uuid.New()}
	if err := l.ApplyBatch(batch); err == nil {
		t.Error("empty batch should fail validation")
	}
}

func TestApplyBatch_AmountAboveSignedRangeFails(t *testing.T) {
	l := ledger.New()
	batchID := uuid.New()
	batch := &ledger.Batch{
		BatchID: batchID,
		Journals: []ledger.Journal{
			ledger.NewJournal(batchID, 0, ledger.PlayerAccount(uuid.New()), ledger.ExternalAccount(),
				uint64(math.MaxInt64)+1, ledger.JournalTypeDeposit, 0),
		},
	}
	if err := l.ApplyBatch(batch); err == nil {
		t.Error("amount past MaxInt64 should fail validation")
	}
	if got := l.Balance(ledger.ExternalAccount()); got != 0 {
		t.Errorf("external mutated by rejected batch: %d", got)
	}
}

func TestApplyBatch_ZeroAmountFails(t *testing.T) {
	l := ledger.New()
	batchID := uuid.New()
	batch := &ledger.Batch{
		BatchID: batchID,
		Journals: []ledger.Journal{
			ledger.NewJournal(batchID, 0, ledger.VaultAccount(), ledger.ExternalAccount(), 0, ledger.JournalTypeDeposit, 0),
		},
	}
	if err := l.ApplyBatch(batch); err == nil {
		t.Error("zero-amount journal should fail validation")
	}
}

// ============================================================================
// Test: invariants
// ============================================================================

func TestInvariants_ZeroSumAndNonNegative(t *testing.T) {
	l := ledger.New()
	v := ledger.NewInvariantValidator(l)
	player := ledger.PlayerAccount(uuid.New())
	ts := time.Now().Unix()

	if _, err := l.Transfer(ledger.ExternalAccount(), player, 5000, ledger.JournalTypeDeposit, ts); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if _, err := l.Transfer(player, ledger.VaultAccount(), 3000, ledger.JournalTypeEscrow, ts); err != nil {
		t.Fatalf("escrow failed: %v", err)
	}

	if err := v.ValidateGlobalBalance(); err != nil {
		t.Errorf("zero-sum violated: %v", err)
	}
	if err := v.ValidateNonNegative(); err != nil {
		t.Errorf("non-negative violated: %v", err)
	}
}

func TestSnapshot_Isolated(t *testing.T) {
	l := ledger.New()
	player := ledger.PlayerAccount(uuid.New())

	if _, err := l.Transfer(ledger.ExternalAccount(), player, 999, ledger.JournalTypeDeposit, 0); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	snap := l.Snapshot()
	for k := range snap {
		snap[k] = 0
	}

	if got := l.Balance(player); got != 999 {
		t.Error("ledger balance affected by snapshot mutation")
	}
}
