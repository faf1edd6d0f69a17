package engine

import (
	"PlinkoCore/internal/plinko"

	"github.com/google/uuid"
)

// Config is the process-wide configuration record. It is owned by the engine
// and passed explicitly, never global, so multiple engines with independent
// configurations can coexist in one process.
type Config struct {
	Owner          uuid.UUID
	PlatformFeeBps uint64
	MinBuyIn       uint64
	MaxBalls       uint8
	Paused         bool
	Initialized    bool

	// Running totals across the life of the engine.
	TotalGames   uint64
	TotalVolume  uint64
	TotalPayouts uint64

	// Status reflects the most recently requested randomness cycle.
	Status plinko.Status
}

// ConfigView is the externally visible configuration snapshot.
type ConfigView struct {
	Owner          uuid.UUID `json:"owner"`
	PlatformFeeBps uint64    `json:"platform_fee_bps"`
	FeeDenominator uint64    `json:"fee_denominator"`
	MinBuyIn       uint64    `json:"min_buy_in"`
	MaxBalls       uint8     `json:"max_balls"`
	OddsLocked     bool      `json:"odds_locked"`
	Paused         bool      `json:"paused"`
	Boundaries     []uint64  `json:"bucket_boundaries"`
	Multipliers    []uint64  `json:"payout_multipliers"`
	TotalGames     uint64    `json:"total_games"`
	TotalVolume    uint64    `json:"total_volume"`
	TotalPayouts   uint64    `json:"total_payouts"`
	Status         string    `json:"status"`
}
