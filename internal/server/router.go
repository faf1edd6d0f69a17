package server

import (
	"context"
	"net/http"

	"PlinkoCore/internal/engine"
	"PlinkoCore/internal/game"
	"PlinkoCore/internal/house"
	"PlinkoCore/internal/observability"
	"PlinkoCore/internal/stats"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// EngineAPI is the slice of the settlement engine the HTTP layer needs.
type EngineAPI interface {
	Initialize(owner uuid.UUID, platformFeeBps, minBuyIn uint64, maxBalls uint8) error
	SetOdds(caller uuid.UUID, boundaries, multipliers []uint64) error
	LockOdds(caller uuid.UUID) error
	SetPlatformFee(caller uuid.UUID, bps uint64) error
	SetMinBuyIn(caller uuid.UUID, minBuyIn uint64) error
	SetMaxBalls(caller uuid.UUID, maxBalls uint8) error
	SetPaused(caller uuid.UUID, paused bool) error
	SetWithdrawalsPaused(caller uuid.UUID, paused bool) error
	Withdraw(caller uuid.UUID, amount uint64) error
	FundHouse(caller uuid.UUID, amount uint64) error
	DepositPlayer(player uuid.UUID, amount uint64) error

	OpenGame(ctx context.Context, gameID uint64, player uuid.UUID, commitment [32]byte, betPerBall uint64, ballCount uint8) (*game.Game, error)
	ResolveGame(gameID uint64, requestID uint64) (*game.Game, error)

	ConfigView() engine.ConfigView
	HouseSummary() house.Summary
	GetGame(gameID uint64) (*game.Game, error)
	PlayerStats(player uuid.UUID) *stats.PlayerStats
	PlayerBalance(player uuid.UUID) int64
	VaultBalance() int64
}

// NewRouter registers all API endpoints.
func NewRouter(h *Handler, health *observability.HealthChecker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", health.LivenessHandler)
	r.Get("/readyz", health.ReadinessHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/admin", func(r chi.Router) {
			r.Post("/initialize", h.Initialize)
			r.Put("/odds", h.SetOdds)
			r.Post("/odds/lock", h.LockOdds)
			r.Put("/fee", h.SetPlatformFee)
			r.Put("/min-buy-in", h.SetMinBuyIn)
			r.Put("/max-balls", h.SetMaxBalls)
			r.Put("/paused", h.SetPaused)
			r.Put("/withdrawals-paused", h.SetWithdrawalsPaused)
			r.Post("/withdraw", h.Withdraw)
			r.Post("/fund", h.FundHouse)
		})

		r.Get("/config", h.Config)
		r.Get("/house", h.House)

		r.Route("/games", func(r chi.Router) {
			r.Post("/", h.OpenGame)
			r.Get("/", h.RecentGames)
			r.Get("/{gameID}", h.GetGame)
			r.Post("/{gameID}/resolve", h.ResolveGame)
			r.Get("/{gameID}/journals", h.GameJournals)
		})

		r.Route("/players/{playerID}", func(r chi.Router) {
			r.Post("/deposit", h.Deposit)
			r.Get("/stats", h.PlayerStats)
			r.Get("/history", h.PlayerHistory)
		})
	})

	return r
}
