package server

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"PlinkoCore/internal/plinko"
	"PlinkoCore/internal/query"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Handler wires the settlement engine and the read-side query service into
// HTTP handlers. The query service may be nil for storeless runs; the
// endpoints that need it then answer 503.
type Handler struct {
	engine  EngineAPI
	queries *query.Service
	logger  zerolog.Logger
}

func NewHandler(engine EngineAPI, queries *query.Service, logger zerolog.Logger) *Handler {
	return &Handler{engine: engine, queries: queries, logger: logger}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"json encode failure"}`, http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("internal error")
	}
	writeJSON(w, status, map[string]interface{}{
		"error":     err.Error(),
		"retryable": retryable(err),
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", plinko.ErrInvalidValue, err)
	}
	return nil
}

// callerID reads the X-Owner-ID header on admin routes. The engine does the
// actual owner comparison; this only parses.
func callerID(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get("X-Owner-ID")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: missing X-Owner-ID header", plinko.ErrOnlyOwner)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed X-Owner-ID", plinko.ErrOnlyOwner)
	}
	return id, nil
}

func pathUint64(r *http.Request, name string) (uint64, error) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad %s", plinko.ErrInvalidValue, name)
	}
	return v, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad %s", plinko.ErrInvalidValue, name)
	}
	return id, nil
}

func queryLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}

// --- Admin ---

func (h *Handler) Initialize(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req struct {
		PlatformFeeBps uint64 `json:"platform_fee_bps"`
		MinBuyIn       uint64 `json:"min_buy_in"`
		MaxBalls       uint8  `json:"max_balls"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.engine.Initialize(caller, req.PlatformFeeBps, req.MinBuyIn, req.MaxBalls); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.engine.ConfigView())
}

func (h *Handler) SetOdds(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req struct {
		Boundaries  []uint64 `json:"bucket_boundaries"`
		Multipliers []uint64 `json:"payout_multipliers"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.engine.SetOdds(caller, req.Boundaries, req.Multipliers); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.ConfigView())
}

func (h *Handler) LockOdds(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.engine.LockOdds(caller); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"odds_locked": true})
}

func (h *Handler) SetPlatformFee(w http.ResponseWriter, r *http.Request) {
	h.adminUint64(w, r, "platform_fee_bps", h.engine.SetPlatformFee)
}

func (h *Handler) SetMinBuyIn(w http.ResponseWriter, r *http.Request) {
	h.adminUint64(w, r, "min_buy_in", h.engine.SetMinBuyIn)
}

func (h *Handler) SetMaxBalls(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req struct {
		MaxBalls uint8 `json:"max_balls"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.engine.SetMaxBalls(caller, req.MaxBalls); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.ConfigView())
}

func (h *Handler) SetPaused(w http.ResponseWriter, r *http.Request) {
	h.adminBool(w, r, h.engine.SetPaused)
}

func (h *Handler) SetWithdrawalsPaused(w http.ResponseWriter, r *http.Request) {
	h.adminBool(w, r, h.engine.SetWithdrawalsPaused)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.adminUint64(w, r, "amount", h.engine.Withdraw)
}

func (h *Handler) FundHouse(w http.ResponseWriter, r *http.Request) {
	h.adminUint64(w, r, "amount", h.engine.FundHouse)
}

func (h *Handler) adminUint64(w http.ResponseWriter, r *http.Request, field string, op func(uuid.UUID, uint64) error) {
	caller, err := callerID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req map[string]uint64
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := op(caller, req[field]); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.ConfigView())
}

func (h *Handler) adminBool(w http.ResponseWriter, r *http.Request, op func(uuid.UUID, bool) error) {
	caller, err := callerID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req struct {
		Paused bool `json:"paused"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := op(caller, req.Paused); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.ConfigView())
}

// --- Players ---

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	player, err := pathUUID(r, "playerID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req struct {
		Amount uint64 `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.engine.DepositPlayer(player, req.Amount); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"balance": h.engine.PlayerBalance(player),
	})
}

func (h *Handler) PlayerStats(w http.ResponseWriter, r *http.Request) {
	player, err := pathUUID(r, "playerID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	s := h.engine.PlayerStats(player)
	if s == nil {
		h.writeError(w, fmt.Errorf("%w: no games for player", plinko.ErrGameNotFound))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"player":             s.Player,
		"total_games_played": s.TotalGamesPlayed,
		"total_wagered":      s.TotalWagered,
		"total_won":          s.TotalWon,
		"game_ids":           s.GameIDs,
		"balance":            h.engine.PlayerBalance(player),
	})
}

func (h *Handler) PlayerHistory(w http.ResponseWriter, r *http.Request) {
	if h.queries == nil {
		h.writeError(w, errors.New("history store not configured"))
		return
	}
	player, err := pathUUID(r, "playerID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	history, err := h.queries.PlayerHistory(r.Context(), player, queryLimit(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// --- Games ---

func (h *Handler) OpenGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameID     uint64 `json:"game_id"`
		Player     string `json:"player"`
		Commitment string `json:"commitment"`
		BetPerBall uint64 `json:"bet_per_ball"`
		BallCount  uint8  `json:"ball_count"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	player, err := uuid.Parse(req.Player)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: bad player uuid", plinko.ErrInvalidValue))
		return
	}
	commitment, err := parseCommitment(req.Commitment)
	if err != nil {
		h.writeError(w, err)
		return
	}

	g, err := h.engine.OpenGame(r.Context(), req.GameID, player, commitment, req.BetPerBall, req.BallCount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Request ids routinely exceed 2^53 and would be rounded by any
	// double-based JSON client, so they travel as decimal strings.
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"game_id":     g.GameID,
		"request_id":  strconv.FormatUint(g.RequestID, 10),
		"total_bet":   g.TotalBet,
		"house_stake": g.HouseStake,
		"state":       g.State.String(),
	})
}

func (h *Handler) ResolveGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathUint64(r, "gameID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req struct {
		RequestID string `json:"request_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	requestID, err := strconv.ParseUint(req.RequestID, 10, 64)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: request_id must be a decimal string", plinko.ErrInvalidValue))
		return
	}

	g, err := h.engine.ResolveGame(gameID, requestID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"game_id":     g.GameID,
		"buckets":     g.Buckets,
		"payout":      g.Payout,
		"state":       g.State.String(),
		"resolved_at": g.ResolvedAt,
	})
}

// GetGame serves from the in-memory store; a miss falls back to Postgres so
// games from before a restart remain queryable.
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathUint64(r, "gameID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	g, err := h.engine.GetGame(gameID)
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"game_id":      g.GameID,
			"player":       g.Player,
			"commitment":   hex.EncodeToString(g.Commitment[:]),
			"total_bet":    g.TotalBet,
			"house_stake":  g.HouseStake,
			"ball_count":   g.BallCount,
			"bet_per_ball": g.BetPerBall,
			"buckets":      g.Buckets,
			"payout":       g.Payout,
			"state":        g.State.String(),
			"created_at":   g.CreatedAt,
			"resolved_at":  g.ResolvedAt,
		})
		return
	}
	if !errors.Is(err, plinko.ErrGameNotFound) || h.queries == nil {
		h.writeError(w, err)
		return
	}

	stored, err := h.queries.GetGame(r.Context(), gameID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (h *Handler) RecentGames(w http.ResponseWriter, r *http.Request) {
	if h.queries == nil {
		h.writeError(w, errors.New("history store not configured"))
		return
	}
	games, err := h.queries.RecentGames(r.Context(), queryLimit(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"games": games})
}

func (h *Handler) GameJournals(w http.ResponseWriter, r *http.Request) {
	if h.queries == nil {
		h.writeError(w, errors.New("history store not configured"))
		return
	}
	gameID, err := pathUint64(r, "gameID")
	if err != nil {
		h.writeError(w, err)
		return
	}

	journals, err := h.queries.GameJournals(r.Context(), gameID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"journals": journals})
}

// --- House and config ---

func (h *Handler) House(w http.ResponseWriter, r *http.Request) {
	s := h.engine.HouseSummary()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"balance":            s.Balance,
		"total_payout":       s.TotalPayout,
		"max_payout":         s.MaxPayout,
		"withdrawals_paused": s.WithdrawalsPaused,
		"pending_requests":   s.PendingRequests,
		"vault_balance":      h.engine.VaultBalance(),
	})
}

func (h *Handler) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.ConfigView())
}

func parseCommitment(s string) ([32]byte, error) {
	var c [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return c, fmt.Errorf("%w: commitment must be 32 hex-encoded bytes", plinko.ErrInvalidValue)
	}
	copy(c[:], raw)
	return c, nil
}
