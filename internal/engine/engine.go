package engine

import (
	"sync"
	"time"

	"PlinkoCore/internal/game"
	"PlinkoCore/internal/house"
	"PlinkoCore/internal/ledger"
	"PlinkoCore/internal/observability"
	"PlinkoCore/internal/odds"
	"PlinkoCore/internal/oracle"
	"PlinkoCore/internal/plinko"
	"PlinkoCore/internal/stats"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sink receives settled state for asynchronous persistence. Implementations
// must not block the settlement path beyond channel backpressure.
type Sink interface {
	RecordGame(g *game.Game)
	RecordBatch(b *ledger.Batch)
}

// NopSink discards everything; used by tests and storeless runs.
type NopSink struct{}

func (NopSink) RecordGame(*game.Game)     {}
func (NopSink) RecordBatch(*ledger.Batch) {}

// Engine orchestrates the two settlement phases and all owner operations.
// Funds truth lives in the ledger; the bankroll is the pooled-exposure
// counter the reconciliation branches consult.
type Engine struct {
	cfgMu sync.Mutex
	cfg   Config

	oddsTable *odds.Table
	ledger    *ledger.Ledger
	bankroll  *house.Bankroll
	games     *game.Store
	stats     *stats.Store
	oracle    oracle.Oracle

	logger  zerolog.Logger
	metrics *observability.Metrics
	sink    Sink

	now func() time.Time
}

// Deps wires the engine's collaborators.
type Deps struct {
	Ledger   *ledger.Ledger
	Bankroll *house.Bankroll
	Games    *game.Store
	Stats    *stats.Store
	Oracle   oracle.Oracle
	Logger   zerolog.Logger
	Metrics  *observability.Metrics
	Sink     Sink
}

func New(deps Deps) *Engine {
	sink := deps.Sink
	if sink == nil {
		sink = NopSink{}
	}
	return &Engine{
		oddsTable: odds.NewTable(),
		ledger:    deps.Ledger,
		bankroll:  deps.Bankroll,
		games:     deps.Games,
		stats:     deps.Stats,
		oracle:    deps.Oracle,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		sink:      sink,
		now:       time.Now,
	}
}

// Initialize performs one-time setup. Fee and ball ceilings are stricter
// here than for live tuning.
func (e *Engine) Initialize(owner uuid.UUID, platformFeeBps, minBuyIn uint64, maxBalls uint8) error {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()

	if e.cfg.Initialized {
		return plinko.ErrAlreadyInitialized
	}
	if platformFeeBps > plinko.InitMaxFeeBps {
		return plinko.ErrPlatformFeeTooHigh
	}
	if maxBalls == 0 || maxBalls > plinko.InitMaxBalls {
		return plinko.ErrMaxBallsTooHigh
	}
	if minBuyIn == 0 {
		return plinko.ErrInvalidValue
	}

	e.cfg = Config{
		Owner:          owner,
		PlatformFeeBps: platformFeeBps,
		MinBuyIn:       minBuyIn,
		MaxBalls:       maxBalls,
		Initialized:    true,
		Status:         plinko.StatusWaiting,
	}

	e.logger.Info().
		Str("owner", owner.String()).
		Uint64("platform_fee_bps", platformFeeBps).
		Uint64("min_buy_in", minBuyIn).
		Uint8("max_balls", maxBalls).
		Msg("engine initialized")
	return nil
}

func (e *Engine) requireOwnerLocked(caller uuid.UUID) error {
	if !e.cfg.Initialized {
		return plinko.ErrNotInitialized
	}
	if e.cfg.Owner != caller {
		return plinko.ErrOnlyOwner
	}
	return nil
}

// SetOdds replaces the odds table. Owner-only, rejected once locked.
func (e *Engine) SetOdds(caller uuid.UUID, boundaries, multipliers []uint64) error {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()

	if err := e.requireOwnerLocked(caller); err != nil {
		return err
	}
	if err := e.oddsTable.SetOdds(boundaries, multipliers); err != nil {
		return err
	}

	e.logger.Info().
		Int("buckets", e.oddsTable.BucketCount()).
		Uint64("max_boundary", e.oddsTable.MaxBoundary()).
		Msg("odds updated")
	return nil
}

// LockOdds is one-way: a house cannot move odds after going live.
func (e *Engine) LockOdds(caller uuid.UUID) error {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()

	if err := e.requireOwnerLocked(caller); err != nil {
		return err
	}
	e.oddsTable.Lock()
	e.logger.Info().Msg("odds locked")
	return nil
}

func (e *Engine) SetPlatformFee(caller uuid.UUID, bps uint64) error {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()

	if err := e.requireOwnerLocked(caller); err != nil {
		return err
	}
	if bps > plinko.LiveMaxFeeBps {
		return plinko.ErrPlatformFeeTooHigh
	}
	e.cfg.PlatformFeeBps = bps
	e.logger.Info().Uint64("platform_fee_bps", bps).Msg("platform fee updated")
	return nil
}

func (e *Engine) SetMinBuyIn(caller uuid.UUID, minBuyIn uint64) error {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()

	if err := e.requireOwnerLocked(caller); err != nil {
		return err
	}
	if minBuyIn == 0 {
		return plinko.ErrInvalidValue
	}
	e.cfg.MinBuyIn = minBuyIn
	e.logger.Info().Uint64("min_buy_in", minBuyIn).Msg("min buy-in updated")
	return nil
}

func (e *Engine) SetMaxBalls(caller uuid.UUID, maxBalls uint8) error {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()

	if err := e.requireOwnerLocked(caller); err != nil {
		return err
	}
	if maxBalls == 0 || maxBalls > plinko.LiveMaxBalls {
		return plinko.ErrMaxBallsTooHigh
	}
	e.cfg.MaxBalls = maxBalls
	e.logger.Info().Uint8("max_balls", maxBalls).Msg("max balls updated")
	return nil
}

func (e *Engine) SetPaused(caller uuid.UUID, paused bool) error {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()

	if err := e.requireOwnerLocked(caller); err != nil {
		return err
	}
	e.cfg.Paused = paused
	e.logger.Info().Bool("paused", paused).Msg("pause flag updated")
	return nil
}

func (e *Engine) SetWithdrawalsPaused(caller uuid.UUID, paused bool) error {
	e.cfgMu.Lock()
	err := e.requireOwnerLocked(caller)
	e.cfgMu.Unlock()
	if err != nil {
		return err
	}

	e.bankroll.SetWithdrawalsPaused(paused)
	e.logger.Info().Bool("paused", paused).Msg("withdrawals pause flag updated")
	return nil
}

// Withdraw moves funds out of the vault escrow to the owner's side of the
// boundary. The vault must cover the amount; opened games' escrow is not
// protected from an over-eager owner beyond that check.
func (e *Engine) Withdraw(caller uuid.UUID, amount uint64) error {
	e.cfgMu.Lock()
	err := e.requireOwnerLocked(caller)
	e.cfgMu.Unlock()
	if err != nil {
		return err
	}

	if amount == 0 {
		return plinko.ErrInvalidValue
	}
	if e.bankroll.WithdrawalsPaused() {
		return plinko.ErrWithdrawalsPaused
	}

	// The pooled counter moves with the vault. A withdrawal that only drained
	// the vault would leave the counter approving payouts the vault can no
	// longer honor, and those games could never settle.
	if err := e.bankroll.Debit(amount); err != nil {
		return err
	}

	j, err := e.ledger.Transfer(
		ledger.VaultAccount(), ledger.ExternalAccount(),
		amount, ledger.JournalTypeWithdrawal, e.now().Unix(),
	)
	if err != nil {
		e.bankroll.Credit(amount)
		return err
	}

	e.metrics.BankrollBalance.Set(float64(e.bankroll.Balance()))

	e.sink.RecordBatch(&ledger.Batch{
		BatchID:   j.BatchID,
		Timestamp: j.Timestamp,
		Journals:  []ledger.Journal{j},
	})
	e.logger.Info().Uint64("amount", amount).Msg("vault withdrawal")
	return nil
}

// DepositPlayer credits a player's cash account from the external boundary.
func (e *Engine) DepositPlayer(player uuid.UUID, amount uint64) error {
	if amount == 0 {
		return plinko.ErrInvalidValue
	}

	j, err := e.ledger.Transfer(
		ledger.ExternalAccount(), ledger.PlayerAccount(player),
		amount, ledger.JournalTypeDeposit, e.now().Unix(),
	)
	if err != nil {
		return err
	}

	e.sink.RecordBatch(&ledger.Batch{
		BatchID:   j.BatchID,
		Timestamp: j.Timestamp,
		Journals:  []ledger.Journal{j},
	})
	return nil
}

// FundHouse seeds the vault and the pooled bankroll so wins beyond current
// escrow can be covered.
func (e *Engine) FundHouse(caller uuid.UUID, amount uint64) error {
	e.cfgMu.Lock()
	err := e.requireOwnerLocked(caller)
	e.cfgMu.Unlock()
	if err != nil {
		return err
	}
	if amount == 0 {
		return plinko.ErrInvalidValue
	}

	j, err := e.ledger.Transfer(
		ledger.ExternalAccount(), ledger.VaultAccount(),
		amount, ledger.JournalTypeDeposit, e.now().Unix(),
	)
	if err != nil {
		return err
	}

	e.bankroll.Credit(amount)
	e.metrics.BankrollBalance.Set(float64(e.bankroll.Balance()))

	e.sink.RecordBatch(&ledger.Batch{
		BatchID:   j.BatchID,
		Timestamp: j.Timestamp,
		Journals:  []ledger.Journal{j},
	})
	e.logger.Info().Uint64("amount", amount).Msg("house funded")
	return nil
}

// ConfigView returns a consistent snapshot of the configuration record.
func (e *Engine) ConfigView() ConfigView {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()

	return ConfigView{
		Owner:          e.cfg.Owner,
		PlatformFeeBps: e.cfg.PlatformFeeBps,
		FeeDenominator: plinko.FeeDenominator,
		MinBuyIn:       e.cfg.MinBuyIn,
		MaxBalls:       e.cfg.MaxBalls,
		OddsLocked:     e.oddsTable.Locked(),
		Paused:         e.cfg.Paused,
		Boundaries:     e.oddsTable.Boundaries(),
		Multipliers:    e.oddsTable.Multipliers(),
		TotalGames:     e.cfg.TotalGames,
		TotalVolume:    e.cfg.TotalVolume,
		TotalPayouts:   e.cfg.TotalPayouts,
		Status:         e.cfg.Status.String(),
	}
}

// HouseSummary returns the bankroll's point-in-time view.
func (e *Engine) HouseSummary() house.Summary {
	return e.bankroll.Summary()
}

// GetGame returns a copy of a game record.
func (e *Engine) GetGame(gameID uint64) (*game.Game, error) {
	return e.games.Get(gameID)
}

// PlayerStats returns a copy of a player's aggregate, or nil if unseen.
func (e *Engine) PlayerStats(player uuid.UUID) *stats.PlayerStats {
	return e.stats.Get(player)
}

// PlayerBalance returns a player's ledger cash balance.
func (e *Engine) PlayerBalance(player uuid.UUID) int64 {
	return e.ledger.Balance(ledger.PlayerAccount(player))
}

// VaultBalance returns the ledger balance of the escrow vault.
func (e *Engine) VaultBalance() int64 {
	return e.ledger.Balance(ledger.VaultAccount())
}
