package rng_test

import (
	"testing"

	"PlinkoCore/internal/rng"

	"github.com/google/uuid"
)

func TestDeriveOutcomes_Deterministic(t *testing.T) {
	a := rng.DeriveOutcomes(0xDEADBEEF, 100)
	b := rng.DeriveOutcomes(0xDEADBEEF, 100)

	if len(a) != 100 || len(b) != 100 {
		t.Fatalf("got lengths %d/%d, want 100", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("outcome %d differs: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestDeriveOutcomes_DifferentSeedsDiverge(t *testing.T) {
	a := rng.DeriveOutcomes(1, 50)
	b := rng.DeriveOutcomes(2, 50)

	same := 0
	for i := range a {
		if a[i] == b[i] {
			same++
		}
	}
	// Two 16-bit sequences from unrelated seeds colliding on most positions
	// would indicate broken domain separation.
	if same > 5 {
		t.Errorf("%d of 50 outcomes collide across seeds", same)
	}
}

func TestDeriveOutcomes_IndexSeparation(t *testing.T) {
	out := rng.DeriveOutcomes(42, 100)

	runs := 0
	for i := 1; i < len(out); i++ {
		if out[i] == out[i-1] {
			runs++
		}
	}
	if runs > 3 {
		t.Errorf("%d adjacent duplicates in 100 outcomes", runs)
	}
}

func TestDeriveOutcomes_ZeroCount(t *testing.T) {
	out := rng.DeriveOutcomes(7, 0)
	if len(out) != 0 {
		t.Errorf("got %d outcomes, want 0", len(out))
	}
}

func TestRequestID_DeterministicForFixedInputs(t *testing.T) {
	player := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	a := rng.RequestID(17, player, 1700000000)
	b := rng.RequestID(17, player, 1700000000)
	if a != b {
		t.Errorf("request id not deterministic: %d vs %d", a, b)
	}
	if a == 0 {
		t.Error("request id should not be zero for real inputs")
	}
}

func TestRequestID_VariesByInput(t *testing.T) {
	player := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	other := uuid.MustParse("660e8400-e29b-41d4-a716-446655440000")

	base := rng.RequestID(17, player, 1700000000)

	if rng.RequestID(18, player, 1700000000) == base {
		t.Error("request id should vary by game id")
	}
	if rng.RequestID(17, other, 1700000000) == base {
		t.Error("request id should vary by player")
	}
	if rng.RequestID(17, player, 1700000001) == base {
		t.Error("request id should vary by timestamp")
	}
}
