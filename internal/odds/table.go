package odds

import (
	"fmt"
	"sync"

	"PlinkoCore/internal/plinko"
)

// Table holds the owner-managed bucket boundaries and payout multipliers.
// Boundaries are cumulative weight thresholds: a ball whose reduced random
// value falls below boundaries[0] lands in bucket 0, below boundaries[1] in
// bucket 1, and so on. Ordering is enforced at write time so reads never
// need to re-check it.
//
// Safe for concurrent use: live tuning replaces both sequences under the
// write lock, and a settlement pass works off a Snapshot so every ball of
// one game is priced against a single table version.
type Table struct {
	mu          sync.RWMutex
	boundaries  []uint64
	multipliers []uint64
	locked      bool
}

func NewTable() *Table {
	return &Table{}
}

// SetOdds atomically replaces both sequences. It fails without touching the
// table if the inputs are malformed or the table is locked.
func (t *Table) SetOdds(boundaries, multipliers []uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.locked {
		return plinko.ErrOddsLocked
	}
	if len(boundaries) != len(multipliers) {
		return fmt.Errorf("%w: %d boundaries vs %d multipliers",
			plinko.ErrInvalidLength, len(boundaries), len(multipliers))
	}
	if len(boundaries) == 0 || len(boundaries) > plinko.MaxBuckets {
		return fmt.Errorf("%w: %d buckets", plinko.ErrInvalidLength, len(boundaries))
	}

	for i := 1; i < len(boundaries); i++ {
		if boundaries[i] <= boundaries[i-1] {
			return fmt.Errorf("%w: boundaries not strictly increasing at index %d",
				plinko.ErrInvalidBucketIndex, i)
		}
	}
	if boundaries[0] == 0 {
		return fmt.Errorf("%w: zero first boundary", plinko.ErrInvalidBucketIndex)
	}

	for i, m := range multipliers {
		if m > plinko.MaxMultiplier {
			return fmt.Errorf("%w: multiplier %d at index %d exceeds cap",
				plinko.ErrInvalidBucketIndex, m, i)
		}
	}

	t.boundaries = append([]uint64(nil), boundaries...)
	t.multipliers = append([]uint64(nil), multipliers...)
	return nil
}

// Lock makes the table immutable. Idempotent; there is no unlock.
func (t *Table) Lock() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locked = true
}

func (t *Table) Locked() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.locked
}

func (t *Table) BucketCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.boundaries)
}

// MaxBoundary returns the last boundary, or 0 for an empty table. Resolving
// against an empty table must fail upstream rather than silently land in
// bucket 0.
func (t *Table) MaxBoundary() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.boundaries) == 0 {
		return 0
	}
	return t.boundaries[len(t.boundaries)-1]
}

// Boundaries returns a copy of the boundary sequence.
func (t *Table) Boundaries() []uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]uint64(nil), t.boundaries...)
}

// Multipliers returns a copy of the multiplier sequence.
func (t *Table) Multipliers() []uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]uint64(nil), t.multipliers...)
}

// Snapshot returns a private copy for one settlement pass. Resolving every
// ball against the copy keeps bucket lookups and their payouts on the same
// table version even while the owner retunes the live one.
func (t *Table) Snapshot() *Table {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &Table{
		boundaries:  append([]uint64(nil), t.boundaries...),
		multipliers: append([]uint64(nil), t.multipliers...),
		locked:      t.locked,
	}
}

// ResolveBucket maps a derived random value to a bucket index. The reduced
// value r = random % MaxBoundary is scanned against the boundaries in
// ascending order; the first boundary strictly above r wins. A well-formed
// table always matches, because r < MaxBoundary = boundaries[len-1]; the
// out-of-range sentinel BucketCount() is returned only if that invariant is
// broken, and callers must treat it as fatal.
func (t *Table) ResolveBucket(random uint16) (uint8, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.boundaries) == 0 {
		return 0, fmt.Errorf("%w: empty odds table", plinko.ErrInvalidBucketIndex)
	}
	maxVal := t.boundaries[len(t.boundaries)-1]

	r := uint64(random) % maxVal
	for i, b := range t.boundaries {
		if r < b {
			return uint8(i), nil
		}
	}

	return uint8(len(t.boundaries)), nil
}

// PayoutFor computes the payout for one ball: betPerBall * multiplier / 100,
// integer division, truncated in the house's favor.
func (t *Table) PayoutFor(betPerBall uint64, bucket uint8) (uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if int(bucket) >= len(t.multipliers) {
		return 0, fmt.Errorf("%w: bucket %d of %d", plinko.ErrInvalidBucketIndex,
			bucket, len(t.multipliers))
	}
	return betPerBall * t.multipliers[bucket] / plinko.PayoutDenominator, nil
}
