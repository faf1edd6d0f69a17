package house_test

import (
	"errors"
	"sync"
	"testing"

	"PlinkoCore/internal/house"
	"PlinkoCore/internal/plinko"
)

func TestBankroll_CreditDebit(t *testing.T) {
	b := house.NewBankroll(100)
	b.Credit(1940)

	if err := b.Debit(940); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if got := b.Balance(); got != 1000 {
		t.Errorf("balance: got %d, want 1000", got)
	}
}

func TestBankroll_DebitInsufficient(t *testing.T) {
	b := house.NewBankroll(100)
	b.Credit(10)

	err := b.Debit(11)
	if !errors.Is(err, plinko.ErrInsufficientFunds) {
		t.Errorf("got %v, want ErrInsufficientFunds", err)
	}
	if got := b.Balance(); got != 10 {
		t.Errorf("failed debit mutated balance: %d", got)
	}
}

func TestBankroll_PendingSaturates(t *testing.T) {
	b := house.NewBankroll(100)

	b.DecPending() // must not wrap
	if got := b.PendingRequests(); got != 0 {
		t.Errorf("pending: got %d, want 0", got)
	}

	b.IncPending()
	b.IncPending()
	b.DecPending()
	if got := b.PendingRequests(); got != 1 {
		t.Errorf("pending: got %d, want 1", got)
	}
}

func TestBankroll_ConcurrentMutations(t *testing.T) {
	b := house.NewBankroll(100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Credit(10)
			b.IncPending()
		}()
	}
	wg.Wait()

	if got := b.Balance(); got != 1000 {
		t.Errorf("balance: got %d, want 1000", got)
	}
	if got := b.PendingRequests(); got != 100 {
		t.Errorf("pending: got %d, want 100", got)
	}
}

func TestBankroll_Summary(t *testing.T) {
	b := house.NewBankroll(100)
	b.Credit(500)
	b.AddPayout(120)
	b.IncPending()
	b.SetWithdrawalsPaused(true)

	s := b.Summary()
	if s.Balance != 500 || s.TotalPayout != 120 || s.PendingRequests != 1 ||
		!s.WithdrawalsPaused || s.MaxPayout != 100 {
		t.Errorf("unexpected summary: %+v", s)
	}
}
