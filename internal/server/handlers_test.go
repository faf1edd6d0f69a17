package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"PlinkoCore/internal/engine"
	"PlinkoCore/internal/game"
	"PlinkoCore/internal/house"
	"PlinkoCore/internal/ledger"
	"PlinkoCore/internal/observability"
	"PlinkoCore/internal/oracle"
	"PlinkoCore/internal/plinko"
	"PlinkoCore/internal/stats"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var testMetrics = observability.NewMetrics()

var (
	testOwner  = uuid.MustParse("00000000-0000-0000-0000-00000000aaaa")
	testPlayer = uuid.MustParse("00000000-0000-0000-0000-00000000bbbb")
)

const testCommitment = "0101010101010101010101010101010101010101010101010101010101010101"

type apiFixture struct {
	server *httptest.Server
	oracle *oracle.Memory
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	o := oracle.NewMemory(false)
	e := engine.New(engine.Deps{
		Ledger:   ledger.New(),
		Bankroll: house.NewBankroll(0),
		Games:    game.NewStore(),
		Stats:    stats.NewStore(),
		Oracle:   o,
		Logger:   observability.NewLoggerWithLevel("test", zerolog.Disabled),
		Metrics:  testMetrics,
	})

	if err := e.Initialize(testOwner, 300, 1000, 60); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := e.SetOdds(testOwner, []uint64{10}, []uint64{50}); err != nil {
		t.Fatalf("SetOdds: %v", err)
	}
	if err := e.DepositPlayer(testPlayer, 100_000); err != nil {
		t.Fatalf("DepositPlayer: %v", err)
	}
	if err := e.FundHouse(testOwner, 1_000_000); err != nil {
		t.Fatalf("FundHouse: %v", err)
	}

	h := NewHandler(e, nil, observability.NewLoggerWithLevel("test", zerolog.Disabled))
	health := observability.NewHealthChecker()
	health.SetReady(true)

	srv := httptest.NewServer(NewRouter(h, health))
	t.Cleanup(srv.Close)
	return &apiFixture{server: srv, oracle: o}
}

func (f *apiFixture) request(t *testing.T, method, path string, body interface{}, owner string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if owner != "" {
		req.Header.Set("X-Owner-ID", owner)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func (f *apiFixture) openGame(t *testing.T, gameID uint64) string {
	t.Helper()
	resp, body := f.request(t, http.MethodPost, "/v1/games", map[string]interface{}{
		"game_id":      gameID,
		"player":       testPlayer.String(),
		"commitment":   testCommitment,
		"bet_per_ball": 1000,
		"ball_count":   2,
	}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("open game: status %d, body %v", resp.StatusCode, body)
	}
	requestID, ok := body["request_id"].(string)
	if !ok {
		t.Fatalf("request_id should be a string, got %T", body["request_id"])
	}
	return requestID
}

// ============================================================
// Authorization
// ============================================================

func TestAdminRequiresOwnerHeader(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.request(t, http.MethodPost, "/v1/admin/withdraw",
		map[string]uint64{"amount": 100}, "")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("missing header: status %d, want 403", resp.StatusCode)
	}

	resp, _ = f.request(t, http.MethodPost, "/v1/admin/withdraw",
		map[string]uint64{"amount": 100}, uuid.New().String())
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("wrong owner: status %d, want 403", resp.StatusCode)
	}
}

func TestInitializeConflict(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.request(t, http.MethodPost, "/v1/admin/initialize", map[string]interface{}{
		"platform_fee_bps": 100,
		"min_buy_in":       500,
		"max_balls":        10,
	}, testOwner.String())
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("double initialize: status %d, want 409", resp.StatusCode)
	}
}

// ============================================================
// Settlement flow over HTTP
// ============================================================

func TestOpenAndResolveFlow(t *testing.T) {
	f := newAPIFixture(t)
	requestID := f.openGame(t, 1)

	// Seed pending: conflict, marked retryable.
	resp, body := f.request(t, http.MethodPost, "/v1/games/1/resolve",
		map[string]string{"request_id": requestID}, "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("pending resolve: status %d, want 409", resp.StatusCode)
	}
	if body["retryable"] != true {
		t.Errorf("pending resolve should be retryable, body %v", body)
	}

	var commitment [32]byte
	for i := range commitment {
		commitment[i] = 1
	}
	f.oracle.Fulfill(commitment, 12345)

	resp, body = f.request(t, http.MethodPost, "/v1/games/1/resolve",
		map[string]string{"request_id": requestID}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve: status %d, body %v", resp.StatusCode, body)
	}
	if body["state"] != game.StateResolved.String() {
		t.Errorf("state = %v, want resolved", body["state"])
	}

	// Re-resolving a finished game conflicts and is not retryable.
	resp, body = f.request(t, http.MethodPost, "/v1/games/1/resolve",
		map[string]string{"request_id": requestID}, "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("re-resolve: status %d, want 409", resp.StatusCode)
	}
	if body["retryable"] != false {
		t.Errorf("re-resolve must not be retryable, body %v", body)
	}
}

func TestOpenGameRequestIDSurvivesJSONRoundTrip(t *testing.T) {
	f := newAPIFixture(t)
	requestID := f.openGame(t, 3)

	// A numeric encoding would round ids above 2^53 through float64; the
	// string form must parse back to the exact id the engine stored.
	parsed, err := strconv.ParseUint(requestID, 10, 64)
	if err != nil {
		t.Fatalf("request_id %q does not parse: %v", requestID, err)
	}
	if got := strconv.FormatUint(parsed, 10); got != requestID {
		t.Errorf("request_id mangled in transit: %q -> %q", requestID, got)
	}

	var commitment [32]byte
	for i := range commitment {
		commitment[i] = 1
	}
	f.oracle.Fulfill(commitment, 777)

	resp, body := f.request(t, http.MethodPost, "/v1/games/3/resolve",
		map[string]string{"request_id": requestID}, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("resolve with echoed id: status %d, body %v", resp.StatusCode, body)
	}
}

func TestResolveRejectsMalformedRequestID(t *testing.T) {
	f := newAPIFixture(t)
	f.openGame(t, 4)

	resp, _ := f.request(t, http.MethodPost, "/v1/games/4/resolve",
		map[string]string{"request_id": "not-a-number"}, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed request_id: status %d, want 400", resp.StatusCode)
	}
}

func TestOpenGameDuplicateConflict(t *testing.T) {
	f := newAPIFixture(t)
	f.openGame(t, 5)

	resp, _ := f.request(t, http.MethodPost, "/v1/games", map[string]interface{}{
		"game_id":      5,
		"player":       testPlayer.String(),
		"commitment":   testCommitment,
		"bet_per_ball": 1000,
		"ball_count":   2,
	}, "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate open: status %d, want 409", resp.StatusCode)
	}
}

func TestOpenGameBadCommitment(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.request(t, http.MethodPost, "/v1/games", map[string]interface{}{
		"game_id":      1,
		"player":       testPlayer.String(),
		"commitment":   "zz",
		"bet_per_ball": 1000,
		"ball_count":   2,
	}, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad commitment: status %d, want 400", resp.StatusCode)
	}
}

func TestGetGameNotFound(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.request(t, http.MethodGet, "/v1/games/404", nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown game: status %d, want 404", resp.StatusCode)
	}
}

func TestGetGameAndStats(t *testing.T) {
	f := newAPIFixture(t)
	f.openGame(t, 9)

	resp, body := f.request(t, http.MethodGet, "/v1/games/9", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get game: status %d", resp.StatusCode)
	}
	if body["state"] != game.StateOpened.String() {
		t.Errorf("state = %v, want opened", body["state"])
	}

	resp, body = f.request(t, http.MethodGet,
		fmt.Sprintf("/v1/players/%s/stats", testPlayer), nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("player stats: status %d", resp.StatusCode)
	}
	if body["total_wagered"].(float64) != 2000 {
		t.Errorf("total_wagered = %v, want 2000", body["total_wagered"])
	}
}

func TestHealthEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.request(t, http.MethodGet, "/healthz", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz: status %d", resp.StatusCode)
	}
	resp, _ = f.request(t, http.MethodGet, "/readyz", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("readyz: status %d", resp.StatusCode)
	}
}

// ============================================================
// Error-to-status table
// ============================================================

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{plinko.ErrGameNotFound, http.StatusNotFound},
		{plinko.ErrOnlyOwner, http.StatusForbidden},
		{plinko.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{plinko.ErrStillProcessing, http.StatusConflict},
		{plinko.ErrGameAlreadyEnded, http.StatusConflict},
		{plinko.ErrGameIDAlreadyUsed, http.StatusConflict},
		{plinko.ErrOddsLocked, http.StatusConflict},
		{plinko.ErrNotInitialized, http.StatusConflict},
		{plinko.ErrInvalidBetAmount, http.StatusBadRequest},
		{plinko.ErrInvalidNumberOfBalls, http.StatusBadRequest},
		{plinko.ErrPlatformFeeTooHigh, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", plinko.ErrInvalidValue), http.StatusBadRequest},
	}
	for _, tc := range cases {
		if got := httpStatus(tc.err); got != tc.want {
			t.Errorf("httpStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
