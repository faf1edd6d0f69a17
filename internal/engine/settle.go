package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"PlinkoCore/internal/game"
	"PlinkoCore/internal/ledger"
	"PlinkoCore/internal/plinko"
	"PlinkoCore/internal/rng"

	"github.com/google/uuid"
)

// openParams is the configuration snapshot one open call runs against. Later
// owner updates do not affect calls already past the snapshot.
type openParams struct {
	feeBps   uint64
	minBuyIn uint64
	maxBalls uint8
}

// OpenGame runs settlement phase 1: validate the bet, request randomness,
// collect the fee, and escrow the house stake. Nothing is mutated unless the
// whole phase succeeds.
func (e *Engine) OpenGame(ctx context.Context, gameID uint64, player uuid.UUID, commitment [32]byte, betPerBall uint64, ballCount uint8) (*game.Game, error) {
	start := e.now()

	params, err := e.snapshotOpenParams()
	if err != nil {
		return nil, e.reject("open", err)
	}

	if ballCount == 0 || ballCount > params.maxBalls {
		return nil, e.reject("open", fmt.Errorf("%w: %d balls, max %d",
			plinko.ErrInvalidNumberOfBalls, ballCount, params.maxBalls))
	}
	if betPerBall == 0 {
		return nil, e.reject("open", fmt.Errorf("%w: zero bet per ball", plinko.ErrInvalidBetAmount))
	}
	if betPerBall > math.MaxUint64/uint64(ballCount) {
		return nil, e.reject("open", fmt.Errorf("%w: total bet overflows", plinko.ErrInvalidBetAmount))
	}

	totalBet := betPerBall * uint64(ballCount)
	if totalBet < params.minBuyIn {
		return nil, e.reject("open", fmt.Errorf("%w: total bet %d below min buy-in %d",
			plinko.ErrInvalidBetAmount, totalBet, params.minBuyIn))
	}

	fee := prorataFee(totalBet, params.feeBps)
	houseStake := totalBet - fee
	if houseStake/uint64(ballCount) == 0 {
		return nil, e.reject("open", fmt.Errorf("%w: per-ball stake rounds to zero",
			plinko.ErrInvalidBetAmount))
	}

	unlock := e.games.Lock(gameID)
	defer unlock()

	if e.games.Exists(gameID) {
		return nil, e.reject("open", plinko.ErrGameIDAlreadyUsed)
	}

	balance := e.ledger.Balance(ledger.PlayerAccount(player))
	if balance < int64(params.minBuyIn) {
		return nil, e.reject("open", fmt.Errorf("%w: balance %d below min buy-in %d",
			plinko.ErrInvalidValue, balance, params.minBuyIn))
	}

	// Randomness is requested before funds move. A failed request costs the
	// player nothing; an orphaned fulfillment costs the oracle nothing.
	if err := e.oracle.Request(ctx, commitment); err != nil {
		return nil, e.reject("open", fmt.Errorf("oracle request: %w", err))
	}
	e.metrics.OracleRequests.Inc()

	now := start.Unix()
	requestID := rng.RequestID(gameID, player, now)

	batchID := uuid.New()
	batch := &ledger.Batch{BatchID: batchID, GameID: gameID, Timestamp: now}
	if fee > 0 {
		batch.Journals = append(batch.Journals, ledger.NewJournal(
			batchID, gameID,
			ledger.FeeTreasuryAccount(), ledger.PlayerAccount(player),
			fee, ledger.JournalTypePlatformFee, now,
		))
	}
	batch.Journals = append(batch.Journals, ledger.NewJournal(
		batchID, gameID,
		ledger.VaultAccount(), ledger.PlayerAccount(player),
		houseStake, ledger.JournalTypeEscrow, now,
	))

	if err := e.ledger.ApplyBatch(batch); err != nil {
		return nil, e.reject("open", err)
	}

	e.bankroll.Credit(houseStake)
	e.bankroll.IncPending()

	g := &game.Game{
		GameID:     gameID,
		Player:     player,
		Commitment: commitment,
		TotalBet:   totalBet,
		HouseStake: houseStake,
		BallCount:  ballCount,
		BetPerBall: houseStake / uint64(ballCount),
		Buckets:    make([]uint8, ballCount),
		RequestID:  requestID,
		State:      game.StateOpened,
		CreatedAt:  now,
	}
	e.games.Put(g)
	e.stats.Record(player, gameID, totalBet)

	e.cfgMu.Lock()
	e.cfg.TotalGames++
	e.cfg.TotalVolume += totalBet
	e.cfg.Status = plinko.StatusProcessing
	e.cfgMu.Unlock()

	e.metrics.GamesOpened.Inc()
	e.metrics.VolumeTotal.Add(float64(totalBet))
	e.metrics.FeesTotal.Add(float64(fee))
	e.metrics.BankrollBalance.Set(float64(e.bankroll.Balance()))
	e.metrics.PendingRequests.Set(float64(e.bankroll.PendingRequests()))
	e.metrics.SettleDuration.WithLabelValues("open").Observe(e.now().Sub(start).Seconds())

	e.sink.RecordGame(g)
	e.sink.RecordBatch(batch)

	e.logger.Info().
		Uint64("game_id", gameID).
		Str("player", player.String()).
		Uint64("total_bet", totalBet).
		Uint64("fee", fee).
		Uint64("house_stake", houseStake).
		Uint8("ball_count", ballCount).
		Uint64("request_id", requestID).
		Msg("game opened")

	return g.Clone(), nil
}

// ResolveGame runs settlement phase 2: fetch the fulfilled seed, derive the
// bucket for every ball, and reconcile the result against the bankroll.
// Safe to retry while the seed is pending; a resolved game never settles
// twice.
func (e *Engine) ResolveGame(gameID uint64, requestID uint64) (*game.Game, error) {
	start := e.now()

	unlock := e.games.Lock(gameID)
	defer unlock()

	g, err := e.games.Get(gameID)
	if err != nil {
		return nil, e.reject("resolve", err)
	}
	if g.State == game.StateResolved {
		return nil, e.reject("resolve", plinko.ErrGameAlreadyEnded)
	}
	if g.RequestID != requestID {
		return nil, e.reject("resolve", plinko.ErrInvalidRequestID)
	}

	seed := e.oracle.CurrentValue(g.Commitment)
	if seed == 0 {
		e.metrics.OracleStillProcessing.Inc()
		return nil, plinko.ErrStillProcessing
	}

	outcomes := rng.DeriveOutcomes(seed, int(g.BallCount))

	// One table version for the whole pass; concurrent live tuning must not
	// pair a bucket lookup with a multiplier from a different table.
	table := e.oddsTable.Snapshot()

	var payout uint64
	for i, random := range outcomes {
		bucket, err := table.ResolveBucket(random)
		if err != nil {
			return nil, e.reject("resolve", err)
		}
		ballPayout, err := table.PayoutFor(g.BetPerBall, bucket)
		if err != nil {
			return nil, e.reject("resolve", err)
		}
		if payout > math.MaxUint64-ballPayout {
			return nil, e.reject("resolve", fmt.Errorf("%w: payout overflows",
				plinko.ErrInsufficientFunds))
		}
		g.Buckets[i] = bucket
		payout += ballPayout
	}

	paid, branch, debited, jt, err := e.reconcile(g, payout)
	if err != nil {
		return nil, e.reject("resolve", err)
	}

	now := e.now().Unix()
	var batch *ledger.Batch
	if paid > 0 {
		batchID := uuid.New()
		batch = &ledger.Batch{
			BatchID:   batchID,
			GameID:    gameID,
			Timestamp: now,
			Journals: []ledger.Journal{ledger.NewJournal(
				batchID, gameID,
				ledger.PlayerAccount(g.Player), ledger.VaultAccount(),
				paid, jt, now,
			)},
		}
		if err := e.ledger.ApplyBatch(batch); err != nil {
			// Undo the bankroll movement so the retry starts clean.
			e.bankroll.Credit(debited)
			return nil, e.reject("resolve", err)
		}
	}

	e.bankroll.DecPending()

	g.Payout = paid
	g.State = game.StateResolved
	g.ResolvedAt = now
	e.games.Put(g)
	e.stats.RecordWin(g.Player, paid)

	e.cfgMu.Lock()
	e.cfg.TotalPayouts += paid
	e.cfg.Status = plinko.StatusFinished
	e.cfgMu.Unlock()

	e.metrics.GamesResolved.WithLabelValues(branch).Inc()
	e.metrics.BallsPlayed.Add(float64(g.BallCount))
	e.metrics.PayoutsTotal.Add(float64(paid))
	e.metrics.BankrollBalance.Set(float64(e.bankroll.Balance()))
	e.metrics.PendingRequests.Set(float64(e.bankroll.PendingRequests()))
	e.metrics.SettleDuration.WithLabelValues("resolve").Observe(e.now().Sub(start).Seconds())

	e.sink.RecordGame(g)
	if batch != nil {
		e.sink.RecordBatch(batch)
	}

	if branch == "degraded" {
		e.logger.Warn().
			Uint64("game_id", gameID).
			Uint64("computed_payout", payout).
			Uint64("paid", paid).
			Uint64("bankroll", e.bankroll.Balance()).
			Msg("bankroll shortfall, payout capped at total bet")
	}

	e.logger.Info().
		Uint64("game_id", gameID).
		Str("player", g.Player.String()).
		Uint64("seed", seed).
		Uint64("computed_payout", payout).
		Uint64("paid", paid).
		Str("branch", branch).
		Msg("game resolved")

	return g.Clone(), nil
}

// reconcile picks the settlement branch and performs the bankroll movement
// for it. The branch decision and the debit are one atomic step per call, so
// two concurrent resolutions cannot both see the same bankroll headroom.
//
// Win (payout covered): the player is paid the full payout and the consumed
// house stake is booked. Degraded (payout >= stake but bankroll short): the
// bet is returned instead, the bankroll absorbing only the fee. Loss: the
// partial payout is paid and the remainder of the stake stays pooled.
func (e *Engine) reconcile(g *game.Game, payout uint64) (paid uint64, branch string, debited uint64, jt ledger.JournalType, err error) {
	switch {
	case payout >= g.HouseStake:
		if e.bankroll.Debit(payout) == nil {
			e.bankroll.AddPayout(g.HouseStake)
			return payout, "win", payout, ledger.JournalTypePayout, nil
		}
		capped := g.TotalBet - g.HouseStake
		if capped > 0 {
			if err := e.bankroll.Debit(capped); err != nil {
				return 0, "", 0, 0, err
			}
		}
		return g.TotalBet, "degraded", capped, ledger.JournalTypeRefund, nil

	case payout > 0:
		if err := e.bankroll.Debit(payout); err != nil {
			return 0, "", 0, 0, err
		}
		return payout, "loss", payout, ledger.JournalTypePayout, nil

	default:
		return 0, "loss", 0, ledger.JournalTypePayout, nil
	}
}

func (e *Engine) snapshotOpenParams() (openParams, error) {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()

	if !e.cfg.Initialized {
		return openParams{}, plinko.ErrNotInitialized
	}
	if e.cfg.Paused {
		return openParams{}, plinko.ErrGamePaused
	}
	if e.oddsTable.MaxBoundary() == 0 {
		return openParams{}, fmt.Errorf("%w: odds not configured", plinko.ErrInvalidValue)
	}

	return openParams{
		feeBps:   e.cfg.PlatformFeeBps,
		minBuyIn: e.cfg.MinBuyIn,
		maxBalls: e.cfg.MaxBalls,
	}, nil
}

// prorataFee computes floor(total * bps / 10000) without intermediate
// overflow.
func prorataFee(total, bps uint64) uint64 {
	return total/plinko.FeeDenominator*bps +
		total%plinko.FeeDenominator*bps/plinko.FeeDenominator
}

func (e *Engine) reject(phase string, err error) error {
	e.metrics.GamesRejected.WithLabelValues(phase, rejectReason(err)).Inc()
	e.logger.Warn().Str("phase", phase).Err(err).Msg("settlement rejected")
	return err
}

func rejectReason(err error) string {
	for sentinel, reason := range rejectReasons {
		if errors.Is(err, sentinel) {
			return reason
		}
	}
	return "internal"
}

var rejectReasons = map[error]string{
	plinko.ErrNotInitialized:       "not_initialized",
	plinko.ErrGamePaused:           "paused",
	plinko.ErrInvalidNumberOfBalls: "invalid_ball_count",
	plinko.ErrInvalidBetAmount:     "invalid_bet",
	plinko.ErrInvalidValue:         "invalid_value",
	plinko.ErrGameIDAlreadyUsed:    "game_id_reused",
	plinko.ErrGameNotFound:         "not_found",
	plinko.ErrGameAlreadyEnded:     "already_ended",
	plinko.ErrInvalidRequestID:     "bad_request_id",
	plinko.ErrInvalidBucketIndex:   "bad_bucket",
	plinko.ErrInsufficientFunds:    "insufficient_funds",
}
