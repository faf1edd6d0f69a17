package plinko

// Constants fixed for the life of the engine.
const (
	// FeeDenominator scales platformFeeBps: 10_000 = 100%.
	FeeDenominator uint64 = 10_000

	// PayoutDenominator scales payout multipliers: 100 = 1x.
	PayoutDenominator uint64 = 100

	// MaxMultiplier caps a single bucket multiplier (100,000x at the
	// payout denominator of 100).
	MaxMultiplier uint64 = 10_000_000

	// MaxBuckets bounds the odds table length.
	MaxBuckets = 100

	// InitMaxFeeBps is the fee ceiling at initialization (3%).
	InitMaxFeeBps uint64 = 300

	// LiveMaxFeeBps is the fee ceiling for live tuning (5%).
	LiveMaxFeeBps uint64 = 500

	// InitMaxBalls is the per-game ball ceiling at initialization.
	InitMaxBalls uint8 = 60

	// LiveMaxBalls is the per-game ball ceiling for live tuning.
	LiveMaxBalls uint8 = 100

	// MaxTrackedGameIDs caps the per-player game id history.
	MaxTrackedGameIDs = 100
)

// Status reflects the most recently requested randomness cycle.
type Status int32

const (
	StatusWaiting Status = iota
	StatusProcessing
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusProcessing:
		return "processing"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}
